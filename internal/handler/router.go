package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/docqa/internal/middleware"
)

type RouterDeps struct {
	Query           *QueryHandler
	Cache           *CacheHandler
	Stats           *StatsHandler
	History         *HistoryHandler
	AdminJWTSecret  []byte
	RateLimitWindow time.Duration
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.GET("/health", deps.Stats.Health)
	api.GET("/stats", deps.Stats.Stats)
	api.GET("/cache/metrics", deps.Cache.Metrics)

	api.POST("/query", middleware.RateLimit(deps.RateLimitWindow), deps.Query.Ask)

	adminGroup := api.Group("")
	adminGroup.Use(middleware.AdminAuth(deps.AdminJWTSecret))
	adminGroup.POST("/cache/invalidate", deps.Cache.Invalidate)
	adminGroup.POST("/cache/metrics/reset", deps.Cache.ResetMetrics)
	adminGroup.GET("/history/report", deps.History.Report)
}
