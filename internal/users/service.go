package users

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/simtunkin/simtunkin/internal/authz"
	"github.com/simtunkin/simtunkin/internal/platform/httpx"
	"github.com/simtunkin/simtunkin/internal/shared"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	ListUsers(ctx context.Context, limit, offset int) ([]User, int, error)
	GetUser(ctx context.Context, id int64) (User, error)
	CreateUser(ctx context.Context, email string, role int) (User, error)
	UpdateUserRole(ctx context.Context, id int64, role int) (User, error)
	DeleteUser(ctx context.Context, id int64) error
}

// Invalidator drops one user's cached grant after a role change.
type Invalidator interface {
	Invalidate(userID int64)
}

// Service handles user management logic.
type Service struct {
	repo      RepositoryPort
	cache     Invalidator
	broadcast *authz.Broadcaster
	audit     *shared.AuditLogger
	logger    *slog.Logger
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, cache Invalidator, broadcast *authz.Broadcaster, audit *shared.AuditLogger, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cache: cache, broadcast: broadcast, audit: audit, logger: logger}
}

func withRoleName(user User) User {
	user.RoleName = authz.RoleLevelFromInt(user.Role).Name()
	return user
}

// ListUsers returns a page of users with role names attached.
func (s *Service) ListUsers(ctx context.Context, page, perPage int) ([]User, shared.Pagination, error) {
	p := shared.NewPagination(page, perPage, 0)
	users, total, err := s.repo.ListUsers(ctx, p.PerPage, p.Offset())
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	for i := range users {
		users[i] = withRoleName(users[i])
	}
	return users, shared.NewPagination(page, perPage, total), nil
}

// GetUser fetches a single user.
func (s *Service) GetUser(ctx context.Context, id int64) (User, error) {
	user, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return User{}, err
	}
	return withRoleName(user), nil
}

// CreateUser registers an account in the must-reset-password state.
// The role level must be one of the known levels.
func (s *Service) CreateUser(ctx context.Context, actorID int64, email string, role int) (User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if !authz.RoleLevelFromInt(role).Known() {
		return User{}, fmt.Errorf("%w: unknown role level %d", httpx.ErrValidation, role)
	}
	created, err := s.repo.CreateUser(ctx, email, role)
	if err != nil {
		return User{}, err
	}
	s.recordAudit(ctx, actorID, "user.create", created.ID, map[string]any{"email": email, "role": role})
	return withRoleName(created), nil
}

// AssignRole changes a user's role level and drops their cached grant
// so the change takes effect without waiting for TTL expiry.
func (s *Service) AssignRole(ctx context.Context, actorID, id int64, role int) (User, error) {
	if !authz.RoleLevelFromInt(role).Known() {
		return User{}, fmt.Errorf("%w: unknown role level %d", httpx.ErrValidation, role)
	}
	updated, err := s.repo.UpdateUserRole(ctx, id, role)
	if err != nil {
		return User{}, err
	}
	s.invalidate(ctx, id)
	s.recordAudit(ctx, actorID, "user.assign_role", id, map[string]any{"role": role})
	return withRoleName(updated), nil
}

// DeleteUser removes an account and its cached grant.
func (s *Service) DeleteUser(ctx context.Context, actorID, id int64) error {
	if err := s.repo.DeleteUser(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	s.recordAudit(ctx, actorID, "user.delete", id, nil)
	return nil
}

func (s *Service) invalidate(ctx context.Context, userID int64) {
	if s.cache != nil {
		s.cache.Invalidate(userID)
	}
	if err := s.broadcast.Invalidate(ctx, userID); err != nil {
		s.logger.Warn("broadcast invalidation", slog.Any("error", err))
	}
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, userID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	entry := shared.AuditLog{ActorID: actorID, Action: action, Entity: "user", EntityID: strconv.FormatInt(userID, 10), Meta: meta}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Warn("audit record", slog.Any("error", err))
	}
}
