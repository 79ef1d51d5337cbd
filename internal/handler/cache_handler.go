package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/docqa/internal/pkg/errcode"
	"github.com/xxxsen/docqa/internal/pkg/response"
	"github.com/xxxsen/docqa/internal/service"
)

type CacheHandler struct {
	cache *service.CacheService
}

func NewCacheHandler(cache *service.CacheService) *CacheHandler {
	return &CacheHandler{cache: cache}
}

func (h *CacheHandler) Metrics(c *gin.Context) {
	response.Success(c, h.cache.Metrics())
}

type invalidateRequest struct {
	Pattern string `json:"pattern"`
}

func (h *CacheHandler) Invalidate(c *gin.Context) {
	var req invalidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	removed, err := h.cache.Invalidate(c.Request.Context(), req.Pattern)
	if err != nil {
		response.Error(c, errcode.ErrCacheUnavailable, "cache backend unavailable")
		return
	}
	response.Success(c, gin.H{"removed": removed})
}

func (h *CacheHandler) ResetMetrics(c *gin.Context) {
	h.cache.ResetMetrics()
	response.Success(c, gin.H{"reset": true})
}
