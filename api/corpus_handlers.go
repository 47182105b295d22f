package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// GetCorpusHandler returns statistics about the served corpus index.
func (api *API) GetCorpusHandler(c *gin.Context) {
	stats, err := api.engine.Stats()
	if err != nil {
		SendEngineError(c, "corpus stats", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// RebuildCorpusHandler starts a background rebuild. ?force=true skips the snapshot cache.
func (api *API) RebuildCorpusHandler(c *gin.Context) {
	force := false
	if raw := c.Query("force"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			result := &ValidationResult{Valid: true}
			result.AddError("force", "force must be a boolean")
			SendValidationError(c, result)
			return
		}
		force = parsed
	}

	jobID, err := api.engine.RebuildAsync(force)
	if err != nil {
		SendError(c, http.StatusInternalServerError, ErrorCodeRebuildFailed,
			"Failed to start rebuild job: "+err.Error())
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status":  "accepted",
		"message": "Corpus rebuild started",
		"job_id":  jobID,
		"force":   force,
	})
}
