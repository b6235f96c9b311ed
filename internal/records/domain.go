package records

import "time"

// Record is a performance score (penilaian) for one staff member on one
// task inside one period. Bonus is derived: score times the task weight
// at scoring time, re-derived when a period is recomputed.
type Record struct {
	ID        int64     `json:"id"`
	StaffID   int64     `json:"staff_id"`
	TaskID    int64     `json:"task_id"`
	PeriodID  int64     `json:"period_id"`
	Score     float64   `json:"score"`
	Bonus     float64   `json:"bonus"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StaffTotal aggregates one staff member's bonus inside a period.
type StaffTotal struct {
	StaffID int64   `json:"staff_id"`
	Bonus   float64 `json:"bonus"`
}
