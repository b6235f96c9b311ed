package staff

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/simtunkin/simtunkin/internal/platform/httpx"
	"github.com/simtunkin/simtunkin/internal/shared"
)

// RepositoryPort defines data access methods for staff.
type RepositoryPort interface {
	ListStaff(ctx context.Context, unit string, limit, offset int) ([]Staff, int, error)
	GetStaff(ctx context.Context, id int64) (Staff, error)
	CreateStaff(ctx context.Context, s Staff) (Staff, error)
	UpdateStaff(ctx context.Context, s Staff) (Staff, error)
	DeleteStaff(ctx context.Context, id int64) error
}

// Service handles staff business logic.
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

// ListStaff returns a page of staff, optionally filtered by unit.
func (s *Service) ListStaff(ctx context.Context, unit string, page, perPage int) ([]Staff, shared.Pagination, error) {
	p := shared.NewPagination(page, perPage, 0)
	items, total, err := s.repo.ListStaff(ctx, strings.TrimSpace(unit), p.PerPage, p.Offset())
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(page, perPage, total), nil
}

// GetStaff fetches a single staff member.
func (s *Service) GetStaff(ctx context.Context, id int64) (Staff, error) {
	return s.repo.GetStaff(ctx, id)
}

func normalize(in Staff) (Staff, error) {
	in.NIP = strings.TrimSpace(in.NIP)
	in.Name = strings.TrimSpace(in.Name)
	in.Position = strings.TrimSpace(in.Position)
	in.Unit = strings.TrimSpace(in.Unit)
	in.Grade = strings.TrimSpace(in.Grade)
	if in.Name == "" {
		return Staff{}, fmt.Errorf("%w: nama pegawai wajib diisi", httpx.ErrValidation)
	}
	return in, nil
}

// CreateStaff registers a pegawai.
func (s *Service) CreateStaff(ctx context.Context, actorID int64, in Staff) (Staff, error) {
	in, err := normalize(in)
	if err != nil {
		return Staff{}, err
	}
	if in.NIP == "" {
		return Staff{}, fmt.Errorf("%w: NIP wajib diisi", httpx.ErrValidation)
	}
	created, err := s.repo.CreateStaff(ctx, in)
	if err != nil {
		return Staff{}, err
	}
	s.recordAudit(ctx, actorID, "staff.create", created.ID, map[string]any{"nip": created.NIP, "name": created.Name})
	return created, nil
}

// UpdateStaff replaces mutable fields. NIP is immutable once assigned.
func (s *Service) UpdateStaff(ctx context.Context, actorID, id int64, in Staff) (Staff, error) {
	in, err := normalize(in)
	if err != nil {
		return Staff{}, err
	}
	in.ID = id
	updated, err := s.repo.UpdateStaff(ctx, in)
	if err != nil {
		return Staff{}, err
	}
	s.recordAudit(ctx, actorID, "staff.update", id, map[string]any{"name": updated.Name})
	return updated, nil
}

// DeleteStaff removes a pegawai.
func (s *Service) DeleteStaff(ctx context.Context, actorID, id int64) error {
	if err := s.repo.DeleteStaff(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "staff.delete", id, nil)
	return nil
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, staffID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	entry := shared.AuditLog{ActorID: actorID, Action: action, Entity: "staff", EntityID: strconv.FormatInt(staffID, 10), Meta: meta}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Warn("audit record", slog.Any("error", err))
	}
}
