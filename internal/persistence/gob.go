package persistence

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/gcbaptista/what-can-i-cook/internal/logging"
)

// SaveGob encodes the given object using gob and saves it to the specified filePath.
// The object is written to a temporary file in the same directory first and renamed
// into place, so readers never observe a half-written file.
func SaveGob(filePath string, object interface{}) error {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(filePath)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpPath)
		}
	}()

	if err := gob.NewEncoder(tmp).Encode(object); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to gob encode to file %s: %w", filePath, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync file %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close file %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, filePath); err != nil {
		return fmt.Errorf("failed to move %s into place: %w", filePath, err)
	}
	committed = true
	return nil
}

// LoadGob decodes a gob-encoded file from filePath into the provided object pointer.
// The object must be a pointer to the type that was originally encoded.
// If the file does not exist, it returns os.ErrNotExist, allowing callers to handle
// fresh starts gracefully.
func LoadGob(filePath string, objectPointer interface{}) error {
	file, err := os.Open(filePath) // #nosec G304 -- filePath is controlled by application, not user input
	if err != nil {
		if os.IsNotExist(err) {
			return os.ErrNotExist
		}
		return fmt.Errorf("failed to open file %s: %w", filePath, err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			logging.L().Warn("Failed to close file", zap.String("path", filePath), zap.Error(closeErr))
		}
	}()

	if err := gob.NewDecoder(file).Decode(objectPointer); err != nil {
		return fmt.Errorf("failed to gob decode from file %s: %w", filePath, err)
	}
	return nil
}
