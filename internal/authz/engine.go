package authz

import (
	"context"
	"log/slog"
)

// Engine is the single decision point answering "may this identity
// perform this operation". It resolves permissions through the cache and
// resolver, converts every dependency failure into an *Error, and never
// lets a raw store error escape.
type Engine struct {
	resolver *Resolver
	cache    *PermissionCache
	logger   *slog.Logger
}

// NewEngine constructs an Engine.
func NewEngine(resolver *Resolver, cache *PermissionCache, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{resolver: resolver, cache: cache, logger: logger}
}

// Grant returns the resolved permission state for a user, served from
// cache when fresh. The answer is identical hot or cold; only latency
// differs.
func (e *Engine) Grant(ctx context.Context, userID int64) (Grant, error) {
	if grant, ok := e.cache.Get(userID); ok {
		return grant, nil
	}
	grant, err := e.resolver.Resolve(ctx, userID)
	if err != nil {
		e.logger.Error("permission resolution failed",
			slog.Int64("user_id", userID),
			slog.Any("error", err))
		return Grant{}, err
	}
	e.cache.Put(userID, grant)
	return grant, nil
}

// RequirePermission allows the identity only when it holds perm.
func (e *Engine) RequirePermission(ctx context.Context, id Identity, perm string) error {
	grant, err := e.Grant(ctx, id.UserID)
	if err != nil {
		return err
	}
	if !grant.HasPermission(perm) {
		return ErrDenied(perm)
	}
	return nil
}

// RequireAnyPermission allows when at least one permission matches. The
// denial carries the full required set.
func (e *Engine) RequireAnyPermission(ctx context.Context, id Identity, perms []string) error {
	if len(perms) == 0 {
		return nil
	}
	grant, err := e.Grant(ctx, id.UserID)
	if err != nil {
		return err
	}
	for _, p := range perms {
		if grant.HasPermission(p) {
			return nil
		}
	}
	return ErrDenied(perms...)
}

// RequireAllPermissions allows only when every permission matches. The
// denial carries exactly the missing subset, telling an operator what is
// absent without restating what was already satisfied.
func (e *Engine) RequireAllPermissions(ctx context.Context, id Identity, perms []string) error {
	if len(perms) == 0 {
		return nil
	}
	grant, err := e.Grant(ctx, id.UserID)
	if err != nil {
		return err
	}
	var missing []string
	for _, p := range perms {
		if !grant.HasPermission(p) {
			missing = append(missing, p)
		}
	}
	if len(missing) > 0 {
		return ErrDenied(missing...)
	}
	return nil
}

// RequireRoleLevel compares the raw integer role against an expected
// level. It predates category permissions and is deliberately coarse;
// kept only for routes not yet migrated.
//
// Deprecated: new routes must use the permission-based checks.
func (e *Engine) RequireRoleLevel(ctx context.Context, id Identity, level RoleLevel) error {
	actual, err := e.resolver.RoleLevel(ctx, id.UserID)
	if err != nil {
		return err
	}
	if !actual.Known() || actual != level {
		return ErrDenied()
	}
	return nil
}

// IsCategory reports whether the identity's role grants the category. It
// is a thin adapter over the same decode used for permission expansion,
// so the digit form and the permission form can never disagree.
//
// Deprecated: check the expanded permission instead.
func (e *Engine) IsCategory(ctx context.Context, id Identity, c Category) (bool, error) {
	grant, err := e.Grant(ctx, id.UserID)
	if err != nil {
		return false, err
	}
	return HasCategory(grant.Code, c), nil
}

// Invalidate drops a user's cached grant after a role assignment change.
func (e *Engine) Invalidate(userID int64) {
	e.cache.Invalidate(userID)
}

// InvalidateAll drops every cached grant after a role permission edit.
func (e *Engine) InvalidateAll() {
	e.cache.InvalidateAll()
}
