package authz

import (
	"context"
	"log/slog"
)

// Role is the persisted role record as the resolver reads it.
type Role struct {
	ID          int64
	Name        string
	RoleID      int
	Permission  string
	Description string
}

// RoleStore is the read side of role persistence used during
// authorization. FindRolesByName returns every record whose name matches
// exactly; the resolver decides what multiple matches mean.
type RoleStore interface {
	FindRolesByName(ctx context.Context, name string) ([]Role, error)
}

// UserStore resolves a user ID to the persisted integer role level.
// A missing user is reported via found=false, not an error.
type UserStore interface {
	FindUserRoleLevel(ctx context.Context, userID int64) (level int, found bool, err error)
}

// Grant is the resolved permission state for one user: the canonical
// encoded string and its expansion.
type Grant struct {
	Code        string
	Permissions []string
}

// HasPermission reports whether the expanded list contains perm.
func (g Grant) HasPermission(perm string) bool {
	for _, p := range g.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

// Resolver translates a user's stored integer role into permission data.
// Every ambiguity fails closed: unknown level, missing user, zero or
// multiple role records all yield an empty grant.
type Resolver struct {
	roles  RoleStore
	users  UserStore
	logger *slog.Logger
}

// NewResolver constructs a Resolver.
func NewResolver(roles RoleStore, users UserStore, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{roles: roles, users: users, logger: logger}
}

// Resolve returns the grant for a user. Store failures are wrapped as
// CodeAuthorizationUnavailable so the engine denies instead of crashing.
func (r *Resolver) Resolve(ctx context.Context, userID int64) (Grant, error) {
	levelInt, found, err := r.users.FindUserRoleLevel(ctx, userID)
	if err != nil {
		return Grant{}, ErrUnavailable(err)
	}
	if !found {
		return Grant{}, nil
	}

	level := RoleLevelFromInt(levelInt)
	if !level.Known() {
		return Grant{}, nil
	}

	roles, err := r.roles.FindRolesByName(ctx, level.Name())
	if err != nil {
		return Grant{}, ErrUnavailable(err)
	}
	switch len(roles) {
	case 0:
		return Grant{}, nil
	case 1:
	default:
		// Duplicate role names indicate a data integrity problem. An
		// arbitrary pick could grant excess access, so treat as absent.
		r.logger.Error("duplicate role records",
			slog.String("role", level.Name()),
			slog.Int("count", len(roles)))
		return Grant{}, nil
	}

	set := Decode(roles[0].Permission)
	return Grant{Code: Encode(set), Permissions: Expand(set)}, nil
}

// RoleLevel returns the user's raw persisted role level for the legacy
// coarse check. Fails closed to RoleUnrecognized.
func (r *Resolver) RoleLevel(ctx context.Context, userID int64) (RoleLevel, error) {
	levelInt, found, err := r.users.FindUserRoleLevel(ctx, userID)
	if err != nil {
		return RoleUnrecognized, ErrUnavailable(err)
	}
	if !found {
		return RoleUnrecognized, nil
	}
	return RoleLevelFromInt(levelInt), nil
}
