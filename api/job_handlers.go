package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/what-can-i-cook/model"
)

// GetJobHandler handles requests to get job status by ID
func (api *API) GetJobHandler(c *gin.Context) {
	job, err := api.engine.GetJob(c.Param("jobId"))
	if err != nil {
		SendEngineError(c, "get job", err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// ListJobsHandler lists background jobs, optionally filtered by ?status=
func (api *API) ListJobsHandler(c *gin.Context) {
	status, result := ValidateJobStatus(c.Query("status"))
	if result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	jobs := api.engine.ListJobs(status)
	c.JSON(http.StatusOK, gin.H{
		"jobs":  jobs,
		"total": len(jobs),
	})
}

// GetJobMetricsHandler handles requests to get job performance metrics
func (api *API) GetJobMetricsHandler(c *gin.Context) {
	metrics := api.engine.GetJobMetrics()
	c.JSON(http.StatusOK, gin.H{
		"metrics":          metrics,
		"success_rate":     metrics.SuccessRate,
		"current_workload": metrics.JobsByStatus[model.JobStatusPending] + metrics.JobsByStatus[model.JobStatusRunning],
	})
}
