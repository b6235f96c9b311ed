package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/simtunkin/simtunkin/internal/jobs"
)

// Recomputer re-derives every bonus amount in one period.
type Recomputer interface {
	RecomputePeriod(ctx context.Context, periodID int64) (int64, error)
}

// RecomputePeriodJob processes TaskTypeRecomputePeriod tasks.
type RecomputePeriodJob struct {
	recomputer Recomputer
	logger     *slog.Logger
	metrics    *jobmetrics.Metrics
}

// NewRecomputePeriodJob constructs the job.
func NewRecomputePeriodJob(recomputer Recomputer, logger *slog.Logger, metrics *jobmetrics.Metrics) *RecomputePeriodJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecomputePeriodJob{recomputer: recomputer, logger: logger, metrics: metrics}
}

// Handle unpacks the payload and runs the recomputation. A malformed
// payload is dropped; a failed recomputation retries.
func (j *RecomputePeriodJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload RecomputePeriodPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		j.logger.Error("recompute payload", slog.Any("error", err))
		return asynq.SkipRetry
	}
	tracker := j.metrics.Track("period_recompute")
	updated, err := j.recomputer.RecomputePeriod(ctx, payload.PeriodID)
	if err := tracker.End(err); err != nil {
		j.logger.Error("recompute period", slog.Int64("period_id", payload.PeriodID), slog.Any("error", err))
		return err
	}
	j.logger.Info("recompute period done", slog.Int64("period_id", payload.PeriodID), slog.Int64("records", updated))
	return nil
}
