package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetAnalyticsHandler returns the match analytics dashboard.
func (api *API) GetAnalyticsHandler(c *gin.Context) {
	if api.analytics == nil {
		SendError(c, http.StatusNotImplemented, ErrorCodeInternalError, "Analytics are disabled")
		return
	}
	c.JSON(http.StatusOK, api.analytics.GetDashboardData())
}
