package engine

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/gcbaptista/what-can-i-cook/internal/errors"
	"github.com/gcbaptista/what-can-i-cook/internal/logging"
	"github.com/gcbaptista/what-can-i-cook/services"
	"github.com/gcbaptista/what-can-i-cook/store"
)

// progressFunc reports rebuild steps to a job. It may be nil.
type progressFunc func(step, total int, message string)

const rebuildSteps = 3

// LoadSnapshot builds an index from snap and publishes it. Queries already running
// finish against the previous instance.
func (e *Engine) LoadSnapshot(snap *store.Snapshot) services.CorpusStats {
	e.rebuildMu.Lock()
	defer e.rebuildMu.Unlock()
	return e.publish(snap).Stats()
}

func (e *Engine) publish(snap *store.Snapshot) *IndexInstance {
	inst := newIndexInstance(snap)
	e.current.Store(inst)

	stats := inst.index.Stats()
	logging.L().Info("corpus index published",
		zap.String("source", inst.source),
		zap.Int("recipes", stats.Recipes),
		zap.Int("tokens", stats.Tokens),
		zap.Int("skipped_empty", stats.SkippedEmpty),
		zap.Int("skipped_invalid", stats.SkippedInvalid),
		zap.Int("skipped_duplicate", stats.SkippedDuplicate),
		zap.Duration("build_duration", stats.BuildDuration))
	return inst
}

// Rebuild fetches a fresh snapshot and publishes a new index built from it.
// Unless force is set, a cached snapshot is used when one is available.
// On failure the previously published index keeps serving.
func (e *Engine) Rebuild(ctx context.Context, force bool) (services.CorpusStats, error) {
	return e.rebuild(ctx, force, nil)
}

func (e *Engine) rebuild(ctx context.Context, force bool, progress progressFunc) (services.CorpusStats, error) {
	e.rebuildMu.Lock()
	defer e.rebuildMu.Unlock()

	report := func(step int, msg string) {
		if progress != nil {
			progress(step, rebuildSteps, msg)
		}
	}

	start := time.Now()
	report(0, "fetching recipe snapshot")
	snap, fromCache, err := e.fetchSnapshot(ctx, force)
	if err != nil {
		logging.L().Error("corpus rebuild failed, keeping previous index",
			zap.Bool("has_previous", e.Loaded()),
			zap.Error(err))
		return services.CorpusStats{}, err
	}

	report(1, fmt.Sprintf("indexing %d recipes", snap.Len()))
	inst := e.publish(snap)

	report(2, "persisting snapshot")
	if !fromCache {
		e.cacheSnapshot(ctx, snap)
	}
	e.persistSnapshot(snap)

	report(rebuildSteps, "done")
	logging.L().Info("corpus rebuild finished",
		zap.Bool("from_cache", fromCache),
		zap.Bool("forced", force),
		zap.Duration("took", time.Since(start)))
	return inst.Stats(), nil
}

func (e *Engine) fetchSnapshot(ctx context.Context, force bool) (*store.Snapshot, bool, error) {
	if !force && e.cache != nil {
		snap, err := e.cache.Get(ctx)
		switch {
		case err == nil:
			logging.L().Debug("using cached corpus snapshot", zap.Int("recipes", snap.Len()))
			return snap, true, nil
		case stderrors.Is(err, errors.ErrCacheMiss):
			logging.L().Debug("corpus snapshot cache miss")
		default:
			logging.L().Warn("corpus snapshot cache unavailable", zap.Error(err))
		}
	}

	if e.source == nil {
		return nil, false, errors.NewSourceError("none", "fetch", fmt.Errorf("no corpus source configured"))
	}

	fetchCtx, cancel := context.WithTimeout(ctx, e.fetchTimeout)
	defer cancel()

	recipes, err := e.source.FetchAll(fetchCtx)
	if err != nil {
		if stderrors.Is(err, errors.ErrSourceUnavailable) {
			return nil, false, err
		}
		return nil, false, errors.NewSourceError(e.source.Name(), "fetch", err)
	}
	return store.NewSnapshot(recipes, e.source.Name()), false, nil
}

func (e *Engine) cacheSnapshot(ctx context.Context, snap *store.Snapshot) {
	if e.cache == nil {
		return
	}
	if err := e.cache.Set(ctx, snap); err != nil {
		logging.L().Warn("failed to cache corpus snapshot", zap.Error(err))
	}
}

// StartRefresher submits a background refresh every interval until Close.
// A non-positive interval disables it.
func (e *Engine) StartRefresher(interval time.Duration) {
	if interval <= 0 || e.stopRefresh != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	e.stopRefresh = cancel

	e.refreshWG.Add(1)
	go func() {
		defer e.refreshWG.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		logging.L().Info("corpus refresher started", zap.Duration("interval", interval))
		for {
			select {
			case <-ticker.C:
				if _, err := e.RefreshAsync(); err != nil {
					logging.L().Warn("failed to schedule corpus refresh", zap.Error(err))
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}
