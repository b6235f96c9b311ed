package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeRecomputePeriod re-derives bonus amounts for a closed period.
	TaskTypeRecomputePeriod = "period:recompute"
)

// RecomputePeriodPayload identifies the period to recompute.
type RecomputePeriodPayload struct {
	PeriodID int64 `json:"period_id"`
}

// NewRecomputePeriodTask constructs an Asynq task.
func NewRecomputePeriodTask(periodID int64) (*asynq.Task, error) {
	data, err := json.Marshal(RecomputePeriodPayload{PeriodID: periodID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeRecomputePeriod, data), nil
}
