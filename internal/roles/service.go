package roles

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/simtunkin/simtunkin/internal/authz"
	"github.com/simtunkin/simtunkin/internal/platform/httpx"
	"github.com/simtunkin/simtunkin/internal/shared"
)

// RepositoryPort defines data access methods for roles.
type RepositoryPort interface {
	ListRoles(ctx context.Context) ([]Role, error)
	GetRole(ctx context.Context, id int64) (Role, error)
	CreateRole(ctx context.Context, role Role) (Role, error)
	UpdateRole(ctx context.Context, role Role) (Role, error)
	DeleteRole(ctx context.Context, id int64) error
	CountUsersWithLevel(ctx context.Context, level int) (int, error)
}

// Invalidator lets the service drop cached grants after a mutation.
type Invalidator interface {
	InvalidateAll()
}

var titleCaser = cases.Title(language.Indonesian)

// Service handles role business logic. Every permission write goes
// through the authz codec so only the canonical encoding is persisted,
// and every mutation invalidates cached grants locally and cluster-wide.
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

// ListRoles returns all roles.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.repo.ListRoles(ctx)
}

// GetRole fetches a single role.
func (s *Service) GetRole(ctx context.Context, id int64) (Role, error) {
	return s.repo.GetRole(ctx, id)
}

// normalizeCategories converts submitted category numbers into a set,
// rejecting unknown values. Untrusted input never reaches the persisted
// encoding directly.
func normalizeCategories(categories []int) (authz.CategorySet, error) {
	var set authz.CategorySet
	for _, c := range categories {
		cat := authz.Category(c)
		if !cat.Valid() {
			return 0, fmt.Errorf("%w: unknown permission category %d", httpx.ErrValidation, c)
		}
		set = set.With(cat)
	}
	return set, nil
}

// CreateRole inserts a role with the canonical permission encoding.
func (s *Service) CreateRole(ctx context.Context, actorID int64, name string, roleID int, categories []int, description string) (Role, error) {
	name = titleCaser.String(strings.TrimSpace(name))
	if name == "" {
		return Role{}, fmt.Errorf("%w: role name required", httpx.ErrValidation)
	}
	set, err := normalizeCategories(categories)
	if err != nil {
		return Role{}, err
	}
	created, err := s.repo.CreateRole(ctx, Role{
		Name:        name,
		RoleID:      roleID,
		Permission:  authz.Encode(set),
		Description: strings.TrimSpace(description),
	})
	if err != nil {
		return Role{}, err
	}
	s.recordAudit(ctx, actorID, "role.create", created.ID, map[string]any{"name": created.Name, "permission": created.Permission})
	return created, nil
}

// UpdateRole replaces a role's name, categories and description. The
// permission string is recomputed from the desired category set rather
// than patched, so repeated edits converge to the canonical form.
func (s *Service) UpdateRole(ctx context.Context, actorID, id int64, name string, categories []int, description string) (Role, error) {
	name = titleCaser.String(strings.TrimSpace(name))
	if name == "" {
		return Role{}, fmt.Errorf("%w: role name required", httpx.ErrValidation)
	}
	set, err := normalizeCategories(categories)
	if err != nil {
		return Role{}, err
	}
	current, err := s.repo.GetRole(ctx, id)
	if err != nil {
		return Role{}, err
	}
	updated, err := s.repo.UpdateRole(ctx, Role{
		ID:          id,
		Name:        name,
		Permission:  authz.Encode(set),
		Description: strings.TrimSpace(description),
	})
	if err != nil {
		return Role{}, err
	}
	s.invalidate(ctx)
	s.recordAudit(ctx, actorID, "role.update", id, map[string]any{
		"name":            updated.Name,
		"permission":      updated.Permission,
		"permission_prev": current.Permission,
	})
	return updated, nil
}

// DeleteRole removes a role unless user accounts still reference it.
func (s *Service) DeleteRole(ctx context.Context, actorID, id int64) error {
	role, err := s.repo.GetRole(ctx, id)
	if err != nil {
		return err
	}
	count, err := s.repo.CountUsersWithLevel(ctx, role.RoleID)
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: %d pengguna masih memakai peran ini", httpx.ErrConflict, count)
	}
	if err := s.repo.DeleteRole(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	s.recordAudit(ctx, actorID, "role.delete", id, map[string]any{"name": role.Name})
	return nil
}

// invalidate clears local cached grants and broadcasts to the rest of
// the cluster. A role-level edit can affect any user, so the whole
// cache goes.
func (s *Service) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.InvalidateAll()
	}
	if err := s.broadcast.InvalidateAll(ctx); err != nil {
		s.logger.Warn("broadcast invalidation", slog.Any("error", err))
	}
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, roleID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	entry := shared.AuditLog{ActorID: actorID, Action: action, Entity: "role", EntityID: strconv.FormatInt(roleID, 10), Meta: meta}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Warn("audit record", slog.Any("error", err))
	}
}
