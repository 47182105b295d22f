// Package logging owns the process-wide zap logger.
package logging

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var current atomic.Pointer[zap.Logger]

func init() {
	current.Store(zap.NewNop())
}

// L returns the process logger. It is a no-op logger until Init is called,
// which keeps package tests quiet.
func L() *zap.Logger {
	return current.Load()
}

// Set replaces the process logger. Passing nil restores the no-op logger.
func Set(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	current.Store(logger)
	zap.ReplaceGlobals(logger)
}

// ParseLevel maps a config string onto a zap level, defaulting to info.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     timeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

func timeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.Format("2006-01-02T15:04:05.000Z07:00"))
}

// New builds a logger writing to stdout. format is "console" or "json".
func New(level, format, service string) (*zap.Logger, error) {
	var encoder zapcore.Encoder
	switch strings.ToLower(format) {
	case "", "console":
		cfg := encoderConfig()
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(cfg)
	case "json":
		encoder = zapcore.NewJSONEncoder(encoderConfig())
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), ParseLevel(level))
	logger := zap.New(core,
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
		zap.Fields(zap.String("service", service)),
	)
	return logger, nil
}

// Init builds the process logger and installs it.
func Init(level, format, service string) error {
	logger, err := New(level, format, service)
	if err != nil {
		return err
	}
	Set(logger)
	return nil
}

// Sync flushes buffered log entries.
func Sync() {
	_ = L().Sync()
}
