package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/docqa/internal/pkg/response"
	"github.com/xxxsen/docqa/internal/service"
)

type HistoryHandler struct {
	history *service.HistoryService
}

func NewHistoryHandler(history *service.HistoryService) *HistoryHandler {
	return &HistoryHandler{history: history}
}

func (h *HistoryHandler) Report(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	report, err := h.history.Report(c.Request.Context(), limit)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"rows": report})
}
