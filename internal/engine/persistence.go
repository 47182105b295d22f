package engine

import (
	stderrors "errors"
	"os"

	"go.uber.org/zap"

	"github.com/gcbaptista/what-can-i-cook/internal/logging"
	"github.com/gcbaptista/what-can-i-cook/store"
)

// RestoreFromDisk publishes the last persisted snapshot, if any. It reports
// whether a snapshot was found. Nothing is published when the engine already
// serves an index.
func (e *Engine) RestoreFromDisk() (bool, error) {
	if e.store == nil {
		return false, nil
	}

	snap, err := e.store.Load()
	if stderrors.Is(err, os.ErrNotExist) {
		logging.L().Info("no persisted corpus snapshot found")
		return false, nil
	}
	if err != nil {
		return false, err
	}

	e.rebuildMu.Lock()
	defer e.rebuildMu.Unlock()
	if e.Loaded() {
		return false, nil
	}

	inst := e.publish(snap)
	logging.L().Info("restored corpus snapshot from disk",
		zap.Int("recipes", inst.index.Len()),
		zap.Time("fetched_at", snap.FetchedAt))
	return true, nil
}

// persistSnapshot saves snap; failures are logged and do not fail the rebuild.
func (e *Engine) persistSnapshot(snap *store.Snapshot) {
	if e.store == nil {
		return
	}
	if err := e.store.Save(snap); err != nil {
		logging.L().Warn("failed to persist corpus snapshot", zap.Error(err))
	}
}
