package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/docqa/internal/pkg/response"
	"github.com/xxxsen/docqa/internal/search"
	"github.com/xxxsen/docqa/internal/service"
)

type StatsHandler struct {
	search *search.Orchestrator
	cache  *service.CacheService
}

func NewStatsHandler(orchestrator *search.Orchestrator, cache *service.CacheService) *StatsHandler {
	return &StatsHandler{search: orchestrator, cache: cache}
}

// Stats proxies the ingestion service's collection statistics.
func (h *StatsHandler) Stats(c *gin.Context) {
	stats, err := h.search.Stats(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, stats)
}

func (h *StatsHandler) Health(c *gin.Context) {
	ctx := c.Request.Context()
	response.Success(c, gin.H{
		"cache":  h.cache.Health(ctx),
		"search": h.search.Health(ctx),
	})
}
