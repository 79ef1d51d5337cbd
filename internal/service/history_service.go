package service

import (
	"context"

	"github.com/xxxsen/docqa/internal/model"
	"github.com/xxxsen/docqa/internal/repo"
)

const defaultReportLimit = 50

type HistoryService struct {
	conversations *repo.ConversationRepo
}

func NewHistoryService(conversations *repo.ConversationRepo) *HistoryService {
	return &HistoryService{conversations: conversations}
}

func (s *HistoryService) Report(ctx context.Context, limit int) ([]model.QueryReportRow, error) {
	if limit <= 0 {
		limit = defaultReportLimit
	}
	return s.conversations.Report(ctx, limit)
}

func (s *HistoryService) Recent(ctx context.Context, userID, sessionID string, limit int) ([]model.ConversationEntry, error) {
	if limit <= 0 {
		limit = historyTurns
	}
	return s.conversations.Recent(ctx, userID, sessionID, limit)
}
