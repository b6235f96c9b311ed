package periods

import (
	"context"
	"errors"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/simtunkin/simtunkin/internal/platform/httpx"
)

const uniqueViolation = "23505"

// Repository provides PostgreSQL backed persistence for periods.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const periodColumns = `id, name, start_date, end_date, status, closed_at, created_at, updated_at`

func scanPeriod(row pgx.Row) (Period, error) {
	var p Period
	err := row.Scan(&p.ID, &p.Name, &p.StartDate, &p.EndDate, &p.Status, &p.ClosedAt, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Period{}, httpx.ErrNotFound
	}
	return p, err
}

// ListPeriods returns all periods, newest first.
func (r *Repository) ListPeriods(ctx context.Context) ([]Period, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+periodColumns+` FROM periods ORDER BY start_date DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Period
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetPeriod fetches a period by ID.
func (r *Repository) GetPeriod(ctx context.Context, id int64) (Period, error) {
	return scanPeriod(r.pool.QueryRow(ctx, `SELECT `+periodColumns+` FROM periods WHERE id = $1`, id))
}

// CreatePeriod inserts an open period.
func (r *Repository) CreatePeriod(ctx context.Context, p Period) (Period, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO periods (name, start_date, end_date, status) VALUES ($1, $2, $3, $4) RETURNING `+periodColumns,
		p.Name, p.StartDate, p.EndDate, StatusOpen)
	created, err := scanPeriod(row)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return Period{}, httpx.ErrDuplicate
	}
	return created, err
}

// UpdatePeriod replaces a period's name and date range.
func (r *Repository) UpdatePeriod(ctx context.Context, p Period) (Period, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE periods SET name = $2, start_date = $3, end_date = $4, updated_at = NOW() WHERE id = $1 RETURNING `+periodColumns,
		p.ID, p.Name, p.StartDate, p.EndDate)
	return scanPeriod(row)
}

// ClosePeriod flips an open period to closed. The status guard makes the
// transition idempotent under concurrent close requests.
func (r *Repository) ClosePeriod(ctx context.Context, id int64) (Period, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE periods SET status = $2, closed_at = NOW(), updated_at = NOW()
		 WHERE id = $1 AND status = $3 RETURNING `+periodColumns,
		id, StatusClosed, StatusOpen)
	return scanPeriod(row)
}

// DeletePeriod removes a period.
func (r *Repository) DeletePeriod(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM periods WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// PeriodOpen reports whether a period exists and still accepts record
// mutations.
func (r *Repository) PeriodOpen(ctx context.Context, id int64) (bool, error) {
	var status string
	err := r.pool.QueryRow(ctx, `SELECT status FROM periods WHERE id = $1`, id).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, httpx.ErrNotFound
	}
	if err != nil {
		return false, err
	}
	return status == StatusOpen, nil
}

// CountRecordsForPeriod reports how many performance records reference a
// period.
func (r *Repository) CountRecordsForPeriod(ctx context.Context, id int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM performance_records WHERE period_id = $1`, id).Scan(&count)
	return count, err
}
