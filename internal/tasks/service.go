package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/simtunkin/simtunkin/internal/platform/httpx"
	"github.com/simtunkin/simtunkin/internal/shared"
)

// RepositoryPort defines data access methods for tasks.
type RepositoryPort interface {
	ListTasks(ctx context.Context) ([]Task, error)
	GetTask(ctx context.Context, id int64) (Task, error)
	CreateTask(ctx context.Context, t Task) (Task, error)
	UpdateTask(ctx context.Context, t Task) (Task, error)
	DeleteTask(ctx context.Context, id int64) error
	CountRecordsForTask(ctx context.Context, id int64) (int, error)
}

// Service handles task business logic.
type Service struct {
	repo   RepositoryPort
	audit  *shared.AuditLogger
	logger *slog.Logger
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, audit *shared.AuditLogger, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, audit: audit, logger: logger}
}

// ListTasks returns all tasks.
func (s *Service) ListTasks(ctx context.Context) ([]Task, error) {
	return s.repo.ListTasks(ctx)
}

// GetTask fetches a single task.
func (s *Service) GetTask(ctx context.Context, id int64) (Task, error) {
	return s.repo.GetTask(ctx, id)
}

func normalize(in Task) (Task, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if in.Name == "" {
		return Task{}, fmt.Errorf("%w: nama tugas wajib diisi", httpx.ErrValidation)
	}
	if in.Weight <= 0 {
		return Task{}, fmt.Errorf("%w: bobot tugas harus lebih dari nol", httpx.ErrValidation)
	}
	return in, nil
}

// CreateTask inserts a task.
func (s *Service) CreateTask(ctx context.Context, actorID int64, in Task) (Task, error) {
	in, err := normalize(in)
	if err != nil {
		return Task{}, err
	}
	created, err := s.repo.CreateTask(ctx, in)
	if err != nil {
		return Task{}, err
	}
	s.recordAudit(ctx, actorID, "task.create", created.ID, map[string]any{"name": created.Name, "weight": created.Weight})
	return created, nil
}

// UpdateTask replaces a task's fields. Bonus amounts for existing
// records are not retroactively changed; a period recomputation picks
// up the new weight.
func (s *Service) UpdateTask(ctx context.Context, actorID, id int64, in Task) (Task, error) {
	in, err := normalize(in)
	if err != nil {
		return Task{}, err
	}
	in.ID = id
	updated, err := s.repo.UpdateTask(ctx, in)
	if err != nil {
		return Task{}, err
	}
	s.recordAudit(ctx, actorID, "task.update", id, map[string]any{"name": updated.Name, "weight": updated.Weight})
	return updated, nil
}

// DeleteTask removes a task unless performance records still reference it.
func (s *Service) DeleteTask(ctx context.Context, actorID, id int64) error {
	count, err := s.repo.CountRecordsForTask(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: %d penilaian masih memakai tugas ini", httpx.ErrConflict, count)
	}
	if err := s.repo.DeleteTask(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "task.delete", id, nil)
	return nil
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, taskID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	entry := shared.AuditLog{ActorID: actorID, Action: action, Entity: "task", EntityID: strconv.FormatInt(taskID, 10), Meta: meta}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Warn("audit record", slog.Any("error", err))
	}
}
