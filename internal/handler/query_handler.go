package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/docqa/internal/model"
	"github.com/xxxsen/docqa/internal/pkg/errcode"
	"github.com/xxxsen/docqa/internal/pkg/response"
	"github.com/xxxsen/docqa/internal/service"
)

type QueryHandler struct {
	query       *service.QueryService
	defaultTopK int
}

func NewQueryHandler(query *service.QueryService, defaultTopK int) *QueryHandler {
	return &QueryHandler{query: query, defaultTopK: defaultTopK}
}

type askRequest struct {
	Text      string              `json:"text"`
	UserID    string              `json:"user_id"`
	SessionID string              `json:"session_id"`
	Filters   *model.QueryFilters `json:"filters"`
	TopK      int                 `json:"top_k"`
}

func (h *QueryHandler) Ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		response.Error(c, errcode.ErrInvalid, "text is required")
		return
	}
	if req.TopK <= 0 {
		req.TopK = h.defaultTopK
	}
	ans, err := h.query.Ask(c.Request.Context(), &model.Query{
		Text:      req.Text,
		UserID:    req.UserID,
		SessionID: req.SessionID,
		Filters:   req.Filters,
		TopK:      req.TopK,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, ans)
}
