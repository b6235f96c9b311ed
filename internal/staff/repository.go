package staff

import (
	"context"
	"errors"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/simtunkin/simtunkin/internal/platform/httpx"
)

const uniqueViolation = "23505"

// Repository provides PostgreSQL backed persistence for staff.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const staffColumns = `id, nip, name, position, unit, grade, created_at, updated_at`

func scanStaff(row pgx.Row) (Staff, error) {
	var s Staff
	err := row.Scan(&s.ID, &s.NIP, &s.Name, &s.Position, &s.Unit, &s.Grade, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Staff{}, httpx.ErrNotFound
	}
	return s, err
}

// ListStaff returns one page of staff plus the total count. A non-empty
// unit filters the listing.
func (r *Repository) ListStaff(ctx context.Context, unit string, limit, offset int) ([]Staff, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM staff WHERE ($1 = '' OR unit = $1)`, unit).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+staffColumns+` FROM staff WHERE ($1 = '' OR unit = $1) ORDER BY name LIMIT $2 OFFSET $3`,
		unit, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []Staff
	for rows.Next() {
		s, err := scanStaff(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, s)
	}
	return out, total, rows.Err()
}

// GetStaff fetches a staff member by ID.
func (r *Repository) GetStaff(ctx context.Context, id int64) (Staff, error) {
	return scanStaff(r.pool.QueryRow(ctx, `SELECT `+staffColumns+` FROM staff WHERE id = $1`, id))
}

// CreateStaff inserts a staff member.
func (r *Repository) CreateStaff(ctx context.Context, s Staff) (Staff, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO staff (nip, name, position, unit, grade) VALUES ($1, $2, $3, $4, $5) RETURNING `+staffColumns,
		s.NIP, s.Name, s.Position, s.Unit, s.Grade)
	created, err := scanStaff(row)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return Staff{}, httpx.ErrDuplicate
	}
	return created, err
}

// UpdateStaff replaces a staff member's mutable fields.
func (r *Repository) UpdateStaff(ctx context.Context, s Staff) (Staff, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE staff SET name = $2, position = $3, unit = $4, grade = $5, updated_at = NOW()
		 WHERE id = $1 RETURNING `+staffColumns,
		s.ID, s.Name, s.Position, s.Unit, s.Grade)
	return scanStaff(row)
}

// DeleteStaff removes a staff member.
func (r *Repository) DeleteStaff(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM staff WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}
