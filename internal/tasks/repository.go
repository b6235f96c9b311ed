package tasks

import (
	"context"
	"errors"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/simtunkin/simtunkin/internal/platform/httpx"
)

const uniqueViolation = "23505"

// Repository provides PostgreSQL backed persistence for tasks.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const taskColumns = `id, name, weight, description, created_at, updated_at`

func scanTask(row pgx.Row) (Task, error) {
	var t Task
	err := row.Scan(&t.ID, &t.Name, &t.Weight, &t.Description, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Task{}, httpx.ErrNotFound
	}
	return t, err
}

// ListTasks returns all tasks ordered by name.
func (r *Repository) ListTasks(ctx context.Context) ([]Task, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// GetTask fetches a task by ID.
func (r *Repository) GetTask(ctx context.Context, id int64) (Task, error) {
	return scanTask(r.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
}

// CreateTask inserts a task.
func (r *Repository) CreateTask(ctx context.Context, t Task) (Task, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO tasks (name, weight, description) VALUES ($1, $2, $3) RETURNING `+taskColumns,
		t.Name, t.Weight, t.Description)
	created, err := scanTask(row)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return Task{}, httpx.ErrDuplicate
	}
	return created, err
}

// UpdateTask replaces a task's fields.
func (r *Repository) UpdateTask(ctx context.Context, t Task) (Task, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE tasks SET name = $2, weight = $3, description = $4, updated_at = NOW() WHERE id = $1 RETURNING `+taskColumns,
		t.ID, t.Name, t.Weight, t.Description)
	return scanTask(row)
}

// DeleteTask removes a task.
func (r *Repository) DeleteTask(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// TaskWeight yields just the scoring weight, for bonus derivation.
func (r *Repository) TaskWeight(ctx context.Context, id int64) (float64, error) {
	var weight float64
	err := r.pool.QueryRow(ctx, `SELECT weight FROM tasks WHERE id = $1`, id).Scan(&weight)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, httpx.ErrNotFound
	}
	return weight, err
}

// CountRecordsForTask reports how many performance records reference a
// task, to refuse deleting a task still in use.
func (r *Repository) CountRecordsForTask(ctx context.Context, id int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM performance_records WHERE task_id = $1`, id).Scan(&count)
	return count, err
}
