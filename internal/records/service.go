package records

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/simtunkin/simtunkin/internal/platform/httpx"
	"github.com/simtunkin/simtunkin/internal/shared"
)

// RepositoryPort defines data access methods for records.
type RepositoryPort interface {
	ListRecords(ctx context.Context, periodID, staffID int64, limit, offset int) ([]Record, int, error)
	GetRecord(ctx context.Context, id int64) (Record, error)
	CreateRecord(ctx context.Context, rec Record) (Record, error)
	UpdateRecord(ctx context.Context, rec Record) (Record, error)
	DeleteRecord(ctx context.Context, id int64) error
	RecomputePeriod(ctx context.Context, periodID int64) (int64, error)
	PeriodTotals(ctx context.Context, periodID int64) ([]StaffTotal, error)
}

// TaskWeightStore yields the scoring weight of a task.
type TaskWeightStore interface {
	TaskWeight(ctx context.Context, taskID int64) (float64, error)
}

// PeriodGate reports whether a period still accepts record mutations.
type PeriodGate interface {
	PeriodOpen(ctx context.Context, periodID int64) (bool, error)
}

// Bonus derives the bonus amount from a score and a task weight.
func Bonus(score, weight float64) float64 {
	return score * weight
}

// Service handles performance record business logic.
type Service struct {
	repo    RepositoryPort
	tasks   TaskWeightStore
	periods PeriodGate
	audit   *shared.AuditLogger
	logger  *slog.Logger
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, tasks TaskWeightStore, periods PeriodGate, audit *shared.AuditLogger, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, tasks: tasks, periods: periods, audit: audit, logger: logger}
}

// ListRecords returns a page of a period's records.
func (s *Service) ListRecords(ctx context.Context, periodID, staffID int64, page, perPage int) ([]Record, shared.Pagination, error) {
	p := shared.NewPagination(page, perPage, 0)
	items, total, err := s.repo.ListRecords(ctx, periodID, staffID, p.PerPage, p.Offset())
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(page, perPage, total), nil
}

// GetRecord fetches a single record.
func (s *Service) GetRecord(ctx context.Context, id int64) (Record, error) {
	return s.repo.GetRecord(ctx, id)
}

func validScore(score float64) error {
	if score < 0 || score > 100 {
		return fmt.Errorf("%w: nilai harus di antara 0 dan 100", httpx.ErrValidation)
	}
	return nil
}

func (s *Service) requireOpen(ctx context.Context, periodID int64) error {
	open, err := s.periods.PeriodOpen(ctx, periodID)
	if err != nil {
		return err
	}
	if !open {
		return fmt.Errorf("%w: periode sudah ditutup", httpx.ErrConflict)
	}
	return nil
}

// CreateRecord scores a staff member on a task inside an open period.
// The bonus is derived on write so listings never need a join.
func (s *Service) CreateRecord(ctx context.Context, actorID int64, rec Record) (Record, error) {
	if err := validScore(rec.Score); err != nil {
		return Record{}, err
	}
	if err := s.requireOpen(ctx, rec.PeriodID); err != nil {
		return Record{}, err
	}
	weight, err := s.tasks.TaskWeight(ctx, rec.TaskID)
	if err != nil {
		return Record{}, err
	}
	rec.Bonus = Bonus(rec.Score, weight)
	created, err := s.repo.CreateRecord(ctx, rec)
	if err != nil {
		return Record{}, err
	}
	s.recordAudit(ctx, actorID, "record.create", created.ID, map[string]any{
		"staff_id": created.StaffID, "task_id": created.TaskID, "period_id": created.PeriodID, "score": created.Score,
	})
	return created, nil
}

// UpdateRecord rescores an existing record while its period is open.
func (s *Service) UpdateRecord(ctx context.Context, actorID, id int64, score float64) (Record, error) {
	if err := validScore(score); err != nil {
		return Record{}, err
	}
	current, err := s.repo.GetRecord(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if err := s.requireOpen(ctx, current.PeriodID); err != nil {
		return Record{}, err
	}
	weight, err := s.tasks.TaskWeight(ctx, current.TaskID)
	if err != nil {
		return Record{}, err
	}
	updated, err := s.repo.UpdateRecord(ctx, Record{ID: id, Score: score, Bonus: Bonus(score, weight)})
	if err != nil {
		return Record{}, err
	}
	s.recordAudit(ctx, actorID, "record.update", id, map[string]any{"score": score, "score_prev": current.Score})
	return updated, nil
}

// DeleteRecord removes a record while its period is open.
func (s *Service) DeleteRecord(ctx context.Context, actorID, id int64) error {
	current, err := s.repo.GetRecord(ctx, id)
	if err != nil {
		return err
	}
	if err := s.requireOpen(ctx, current.PeriodID); err != nil {
		return err
	}
	if err := s.repo.DeleteRecord(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "record.delete", id, nil)
	return nil
}

// RecomputePeriod re-derives every bonus in a period from current task
// weights. The background worker calls this after a period closes.
func (s *Service) RecomputePeriod(ctx context.Context, periodID int64) (int64, error) {
	updated, err := s.repo.RecomputePeriod(ctx, periodID)
	if err != nil {
		return 0, err
	}
	s.logger.Info("period recomputed", slog.Int64("period_id", periodID), slog.Int64("records", updated))
	return updated, nil
}

// PeriodTotals sums bonuses per staff member for a period.
func (s *Service) PeriodTotals(ctx context.Context, periodID int64) ([]StaffTotal, error) {
	return s.repo.PeriodTotals(ctx, periodID)
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, recordID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	entry := shared.AuditLog{ActorID: actorID, Action: action, Entity: "record", EntityID: strconv.FormatInt(recordID, 10), Meta: meta}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Warn("audit record", slog.Any("error", err))
	}
}
