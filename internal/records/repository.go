package records

import (
	"context"
	"errors"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/simtunkin/simtunkin/internal/platform/db"
	"github.com/simtunkin/simtunkin/internal/platform/httpx"
)

const uniqueViolation = "23505"

// Repository provides PostgreSQL backed persistence for performance
// records.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const recordColumns = `id, staff_id, task_id, period_id, score, bonus, created_at, updated_at`

func scanRecord(row pgx.Row) (Record, error) {
	var rec Record
	err := row.Scan(&rec.ID, &rec.StaffID, &rec.TaskID, &rec.PeriodID, &rec.Score, &rec.Bonus, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, httpx.ErrNotFound
	}
	return rec, err
}

// ListRecords returns one page of a period's records plus the total
// count. A non-zero staffID narrows the listing to one staff member.
func (r *Repository) ListRecords(ctx context.Context, periodID, staffID int64, limit, offset int) ([]Record, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM performance_records WHERE period_id = $1 AND ($2 = 0 OR staff_id = $2)`,
		periodID, staffID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+recordColumns+` FROM performance_records
		 WHERE period_id = $1 AND ($2 = 0 OR staff_id = $2)
		 ORDER BY staff_id, task_id LIMIT $3 OFFSET $4`,
		periodID, staffID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, rec)
	}
	return out, total, rows.Err()
}

// GetRecord fetches a record by ID.
func (r *Repository) GetRecord(ctx context.Context, id int64) (Record, error) {
	return scanRecord(r.pool.QueryRow(ctx, `SELECT `+recordColumns+` FROM performance_records WHERE id = $1`, id))
}

// CreateRecord inserts a record. The staff/task/period triple is unique.
func (r *Repository) CreateRecord(ctx context.Context, rec Record) (Record, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO performance_records (staff_id, task_id, period_id, score, bonus)
		 VALUES ($1, $2, $3, $4, $5) RETURNING `+recordColumns,
		rec.StaffID, rec.TaskID, rec.PeriodID, rec.Score, rec.Bonus)
	created, err := scanRecord(row)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return Record{}, httpx.ErrDuplicate
	}
	return created, err
}

// UpdateRecord replaces a record's score and derived bonus.
func (r *Repository) UpdateRecord(ctx context.Context, rec Record) (Record, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE performance_records SET score = $2, bonus = $3, updated_at = NOW() WHERE id = $1 RETURNING `+recordColumns,
		rec.ID, rec.Score, rec.Bonus)
	return scanRecord(row)
}

// DeleteRecord removes a record.
func (r *Repository) DeleteRecord(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM performance_records WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// RecomputePeriod re-derives every bonus in a period from the current
// task weights and refreshes the per-staff totals snapshot. Both steps
// run in one transaction so a concurrent reader never sees bonuses that
// disagree with their totals.
func (r *Repository) RecomputePeriod(ctx context.Context, periodID int64) (int64, error) {
	var updated int64
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE performance_records pr
			 SET bonus = pr.score * t.weight, updated_at = NOW()
			 FROM tasks t
			 WHERE pr.task_id = t.id AND pr.period_id = $1`, periodID)
		if err != nil {
			return err
		}
		updated = tag.RowsAffected()
		if _, err := tx.Exec(ctx, `DELETE FROM period_totals WHERE period_id = $1`, periodID); err != nil {
			return err
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO period_totals (period_id, staff_id, bonus)
			 SELECT period_id, staff_id, SUM(bonus)
			 FROM performance_records WHERE period_id = $1
			 GROUP BY period_id, staff_id`, periodID)
		return err
	})
	return updated, err
}

// PeriodTotals sums bonuses per staff member for a period.
func (r *Repository) PeriodTotals(ctx context.Context, periodID int64) ([]StaffTotal, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT staff_id, COALESCE(SUM(bonus), 0) FROM performance_records
		 WHERE period_id = $1 GROUP BY staff_id ORDER BY staff_id`, periodID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []StaffTotal
	for rows.Next() {
		var t StaffTotal
		if err := rows.Scan(&t.StaffID, &t.Bonus); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
