// Package config loads service configuration from defaults, an optional config
// file, a .env file and WCIC_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. WCIC_SERVER_PORT.
const EnvPrefix = "WCIC"

// Source kinds understood by the corpus loader.
const (
	SourceMealDB = "mealdb"
	SourceFile   = "file"
)

// MealDB fetch strategies.
const (
	StrategySearch  = "search"
	StrategyLetters = "letters"
)

// Config is the full service configuration.
type Config struct {
	App    AppConfig    `mapstructure:"app"`
	Server ServerConfig `mapstructure:"server"`
	Match  MatchConfig  `mapstructure:"match"`
	Corpus CorpusConfig `mapstructure:"corpus"`
	MealDB MealDBConfig `mapstructure:"mealdb"`
	Redis  RedisConfig  `mapstructure:"redis"`
	Jobs   JobsConfig   `mapstructure:"jobs"`
	Log    LogConfig    `mapstructure:"log"`
}

// AppConfig identifies the running service.
type AppConfig struct {
	Name    string `mapstructure:"name"`
	Env     string `mapstructure:"env"`
	Version string `mapstructure:"version"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	Debug        bool          `mapstructure:"debug"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
	CORSOrigins  []string      `mapstructure:"cors_origins"`
}

// MatchConfig holds query-side limits and defaults.
type MatchConfig struct {
	// DefaultMinMatchPercentage applies when a request omits the threshold.
	DefaultMinMatchPercentage int `mapstructure:"default_min_match_percentage"`
	// MaxResults truncates ranked output; 0 means unlimited.
	MaxResults          int `mapstructure:"max_results"`
	MaxOwnedIngredients int `mapstructure:"max_owned_ingredients"`
	MaxIngredientLength int `mapstructure:"max_ingredient_length"`
}

// CorpusConfig controls where recipes come from and how often the index is rebuilt.
type CorpusConfig struct {
	Source           string        `mapstructure:"source"`
	File             string        `mapstructure:"file"`
	DataDir          string        `mapstructure:"data_dir"`
	PersistSnapshots bool          `mapstructure:"persist_snapshots"`
	RefreshInterval  time.Duration `mapstructure:"refresh_interval"`
	FetchTimeout     time.Duration `mapstructure:"fetch_timeout"`
}

// MealDBConfig configures the TheMealDB client.
type MealDBConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	Strategy    string        `mapstructure:"strategy"`
	Timeout     time.Duration `mapstructure:"timeout"`
	RetryCount  int           `mapstructure:"retry_count"`
	Concurrency int           `mapstructure:"concurrency"`
}

// RedisConfig configures the optional shared snapshot cache.
type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Key      string        `mapstructure:"key"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// JobsConfig configures the background job manager.
type JobsConfig struct {
	Workers   int           `mapstructure:"workers"`
	Retention time.Duration `mapstructure:"retention"`
}

// LogConfig configures zap.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load builds a Config. configFile may be empty. A missing .env file is not an error.
func Load(configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Default returns the configuration produced by defaults alone.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "what-can-i-cook")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.version", "1.0.0")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.debug", false)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.max_body_bytes", 1<<20)
	v.SetDefault("server.cors_origins", []string{"*"})

	v.SetDefault("match.default_min_match_percentage", 30)
	v.SetDefault("match.max_results", 0)
	v.SetDefault("match.max_owned_ingredients", 200)
	v.SetDefault("match.max_ingredient_length", 100)

	v.SetDefault("corpus.source", SourceMealDB)
	v.SetDefault("corpus.file", "")
	v.SetDefault("corpus.data_dir", "./corpus_data")
	v.SetDefault("corpus.persist_snapshots", true)
	v.SetDefault("corpus.refresh_interval", "6h")
	v.SetDefault("corpus.fetch_timeout", "2m")

	v.SetDefault("mealdb.base_url", "https://www.themealdb.com/api/json/v1/1")
	v.SetDefault("mealdb.strategy", StrategySearch)
	v.SetDefault("mealdb.timeout", "10s")
	v.SetDefault("mealdb.retry_count", 2)
	v.SetDefault("mealdb.concurrency", 4)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key", "wcic:corpus:snapshot")
	v.SetDefault("redis.ttl", "24h")

	v.SetDefault("jobs.workers", 2)
	v.SetDefault("jobs.retention", "24h")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Validate checks every section and reports all problems at once.
func (c *Config) Validate() error {
	var problems []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("server.port %d is out of range", c.Server.Port))
	}
	if c.Server.MaxBodyBytes <= 0 {
		problems = append(problems, "server.max_body_bytes must be positive")
	}

	if c.Match.DefaultMinMatchPercentage < 0 || c.Match.DefaultMinMatchPercentage > 100 {
		problems = append(problems, "match.default_min_match_percentage must be between 0 and 100")
	}
	if c.Match.MaxResults < 0 {
		problems = append(problems, "match.max_results cannot be negative")
	}
	if c.Match.MaxOwnedIngredients <= 0 {
		problems = append(problems, "match.max_owned_ingredients must be positive")
	}
	if c.Match.MaxIngredientLength <= 0 {
		problems = append(problems, "match.max_ingredient_length must be positive")
	}

	switch c.Corpus.Source {
	case SourceMealDB:
		if c.MealDB.BaseURL == "" {
			problems = append(problems, "mealdb.base_url is required when corpus.source is mealdb")
		}
		if c.MealDB.Strategy != StrategySearch && c.MealDB.Strategy != StrategyLetters {
			problems = append(problems, "mealdb.strategy must be 'search' or 'letters'")
		}
		if c.MealDB.Concurrency <= 0 {
			problems = append(problems, "mealdb.concurrency must be positive")
		}
		if c.MealDB.RetryCount < 0 {
			problems = append(problems, "mealdb.retry_count cannot be negative")
		}
	case SourceFile:
		if c.Corpus.File == "" {
			problems = append(problems, "corpus.file is required when corpus.source is file")
		}
	default:
		problems = append(problems, fmt.Sprintf("corpus.source '%s' is not supported (use 'mealdb' or 'file')", c.Corpus.Source))
	}
	if c.Corpus.PersistSnapshots && strings.TrimSpace(c.Corpus.DataDir) == "" {
		problems = append(problems, "corpus.data_dir is required when corpus.persist_snapshots is enabled")
	}
	if c.Corpus.RefreshInterval < 0 {
		problems = append(problems, "corpus.refresh_interval cannot be negative")
	}
	if c.Corpus.FetchTimeout <= 0 {
		problems = append(problems, "corpus.fetch_timeout must be positive")
	}

	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			problems = append(problems, "redis.addr is required when redis is enabled")
		}
		if c.Redis.Key == "" {
			problems = append(problems, "redis.key is required when redis is enabled")
		}
		if c.Redis.TTL <= 0 {
			problems = append(problems, "redis.ttl must be positive when redis is enabled")
		}
	}

	if c.Jobs.Workers <= 0 {
		problems = append(problems, "jobs.workers must be positive")
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}
