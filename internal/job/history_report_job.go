package job

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/docqa/internal/service"
)

// HistoryReportJob logs the most frequent questions and their cache behavior.
type HistoryReportJob struct {
	history *service.HistoryService
	topN    int
}

func NewHistoryReportJob(history *service.HistoryService, topN int) *HistoryReportJob {
	if topN <= 0 {
		topN = 10
	}
	return &HistoryReportJob{history: history, topN: topN}
}

func (j *HistoryReportJob) Name() string {
	return "history_report"
}

func (j *HistoryReportJob) Run(ctx context.Context) error {
	rows, err := j.history.Report(ctx, j.topN)
	if err != nil {
		return err
	}
	logger := logutil.GetLogger(ctx)
	for _, row := range rows {
		logger.Info("query report",
			zap.String("query", row.Query),
			zap.Int64("count", row.Count),
			zap.Float64("hit_rate", row.HitRate),
			zap.Float64("avg_search_ms", row.AvgSearchTimeMs),
			zap.Float64("avg_generation_ms", row.AvgGenTimeMs),
		)
	}
	return nil
}
