package engine

import (
	"context"
	"fmt"
	"strconv"

	"github.com/gcbaptista/what-can-i-cook/model"
)

// RebuildAsync starts an on-demand rebuild as a background job and returns its id.
func (e *Engine) RebuildAsync(force bool) (string, error) {
	return e.submitRebuild(model.JobTypeRebuildIndex, force)
}

// RefreshAsync starts a scheduled rebuild that may be served from the snapshot cache.
func (e *Engine) RefreshAsync() (string, error) {
	return e.submitRebuild(model.JobTypeRefreshIndex, false)
}

func (e *Engine) submitRebuild(jobType model.JobType, force bool) (string, error) {
	source := "none"
	if e.source != nil {
		source = e.source.Name()
	}

	jobID := e.jobManager.CreateJob(jobType, map[string]string{
		"source": source,
		"force":  strconv.FormatBool(force),
	})

	err := e.jobManager.ExecuteJob(jobID, func(ctx context.Context, job model.Job) error {
		progress := func(step, total int, message string) {
			e.jobManager.UpdateJobProgress(job.ID, step, total, message)
		}
		_, err := e.rebuild(ctx, force, progress)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to start %s job: %w", jobType, err)
	}
	return jobID, nil
}
