package api

import (
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/what-can-i-cook/config"
	"github.com/gcbaptista/what-can-i-cook/services"
)

// NewRouter builds the gin engine with middleware and all routes registered.
func NewRouter(cfg *config.Config, engine services.Engine, analytics services.MatchAnalytics) *gin.Engine {
	if cfg == nil {
		cfg = config.Default()
	}
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(requestid.New())
	router.Use(LoggerMiddleware())
	router.Use(RecoveryMiddleware())
	router.Use(cors.New(corsConfig(cfg.Server.CORSOrigins)))
	router.Use(RequestSizeLimitMiddleware(cfg.Server.MaxBodyBytes))

	SetupRoutes(router, NewAPI(engine, analytics, cfg))
	return router
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
		ExposeHeaders: []string{"Content-Length", "X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
	}
	return c
}
