package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/EmmanuelMsafiri1992/Mugodi2026-sub000/internal/observability"
	"github.com/EmmanuelMsafiri1992/Mugodi2026-sub000/internal/reports"
)

// ReportsWarmupJob pre-builds the report payloads into the cache so the
// first request after an invalidation does not pay the aggregation cost.
type ReportsWarmupJob struct {
	Reports *reports.Service
	Logger  *slog.Logger
	Metrics *observability.Metrics
}

// NewReportsWarmupJob wires dependencies for the warmup handler.
func NewReportsWarmupJob(svc *reports.Service, logger *slog.Logger, metrics *observability.Metrics) *ReportsWarmupJob {
	return &ReportsWarmupJob{Reports: svc, Logger: logger, Metrics: metrics}
}

// Handle processes reports warmup tasks.
func (j *ReportsWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Reports == nil {
		return errors.New("reports warmup: handler not configured")
	}
	var payload ReportsWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	days := payload.WindowDays
	if days <= 0 {
		days = 30
	}
	to := time.Now().UTC()
	window := reports.Window{From: to.AddDate(0, 0, -days), To: to}

	started := time.Now()
	if err := j.Reports.Warmup(ctx, window); err != nil {
		if j.Metrics != nil {
			j.Metrics.RecordJob(TaskTypeReportsWarmup, "error")
		}
		return err
	}
	j.Logger.Info("reports warmed", slog.Int("window_days", days), slog.Duration("took", time.Since(started)))
	if j.Metrics != nil {
		j.Metrics.RecordJob(TaskTypeReportsWarmup, "ok")
	}
	return nil
}
