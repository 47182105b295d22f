package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/what-can-i-cook/config"
	"github.com/gcbaptista/what-can-i-cook/services"
)

// API holds dependencies for API handlers.
type API struct {
	engine    services.Engine
	analytics services.MatchAnalytics
	cfg       *config.Config
}

// NewAPI creates a new API handler structure.
func NewAPI(engine services.Engine, analytics services.MatchAnalytics, cfg *config.Config) *API {
	if cfg == nil {
		cfg = config.Default()
	}
	return &API{
		engine:    engine,
		analytics: analytics,
		cfg:       cfg,
	}
}

// SetupRoutes defines all the API routes.
func SetupRoutes(router *gin.Engine, api *API) {
	router.GET("/health", api.HealthCheckHandler)
	router.GET("/analytics", api.GetAnalyticsHandler)

	meals := router.Group("/api/meals")
	{
		meals.POST("/what-can-i-cook", api.WhatCanICookHandler)
		meals.GET("/:id", api.GetRecipeHandler)
	}

	corpus := router.Group("/corpus")
	{
		corpus.GET("", api.GetCorpusHandler)
		corpus.POST("/rebuild", api.RebuildCorpusHandler)
	}

	jobs := router.Group("/jobs")
	{
		jobs.GET("", api.ListJobsHandler)
		jobs.GET("/metrics", api.GetJobMetricsHandler)
		jobs.GET("/:jobId", api.GetJobHandler)
	}
}

// HealthCheckHandler reports liveness and whether a corpus is being served.
// It answers 200 even before the first build completes.
func (api *API) HealthCheckHandler(c *gin.Context) {
	loaded := api.engine.Loaded()
	status := "healthy"
	if !loaded {
		status = "starting"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":        status,
		"service":       api.cfg.App.Name,
		"version":       api.cfg.App.Version,
		"timestamp":     time.Now().UTC().Format(time.RFC3339),
		"corpus_loaded": loaded,
	})
}
