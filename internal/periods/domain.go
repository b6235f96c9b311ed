package periods

import "time"

// Period statuses. A closed period no longer accepts record mutations.
const (
	StatusOpen   = "open"
	StatusClosed = "closed"
)

// Period is a scoring window (periode penilaian).
type Period struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Status    string    `json:"status"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Open reports whether the period still accepts record mutations.
func (p Period) Open() bool {
	return p.Status == StatusOpen
}
