package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gcbaptista/what-can-i-cook/internal/persistence"
	"github.com/gcbaptista/what-can-i-cook/model"
)

const (
	dataDirPerm  = 0755
	snapshotFile = "corpus_snapshot.gob"
)

// Snapshot is a full copy of the recipe corpus as produced by one source fetch.
// A snapshot is never modified after NewSnapshot returns.
type Snapshot struct {
	Recipes   []model.Recipe `json:"recipes"`
	Source    string         `json:"source"`
	FetchedAt time.Time      `json:"fetched_at"`
}

// NewSnapshot copies recipes into a new snapshot stamped with the current time.
func NewSnapshot(recipes []model.Recipe, source string) *Snapshot {
	copied := make([]model.Recipe, len(recipes))
	for i := range recipes {
		copied[i] = recipes[i].Clone()
	}
	return &Snapshot{
		Recipes:   copied,
		Source:    source,
		FetchedAt: time.Now().UTC(),
	}
}

// Len returns the number of recipes in the snapshot.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Recipes)
}

// FileStore keeps the last good snapshot on disk so a restarted process can serve
// queries before its first remote fetch completes.
type FileStore struct {
	dir string
}

// NewFileStore creates the data directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("data directory cannot be empty")
	}
	if err := os.MkdirAll(dir, dataDirPerm); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

// Path returns the snapshot file location.
func (fs *FileStore) Path() string {
	return filepath.Join(fs.dir, snapshotFile)
}

// Save persists snap, replacing any previous snapshot atomically.
func (fs *FileStore) Save(snap *Snapshot) error {
	if snap == nil {
		return fmt.Errorf("cannot save nil snapshot")
	}
	if err := persistence.SaveGob(fs.Path(), snap); err != nil {
		return fmt.Errorf("failed to save corpus snapshot: %w", err)
	}
	return nil
}

// Load reads the persisted snapshot. It returns os.ErrNotExist on a fresh data directory.
func (fs *FileStore) Load() (*Snapshot, error) {
	var snap Snapshot
	if err := persistence.LoadGob(fs.Path(), &snap); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, os.ErrNotExist
		}
		return nil, fmt.Errorf("failed to load corpus snapshot: %w", err)
	}
	return &snap, nil
}
