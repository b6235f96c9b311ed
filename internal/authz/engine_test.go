package authz

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type stubRoleStore struct {
	roles map[string][]Role
	err   error
	calls int
}

func (s *stubRoleStore) FindRolesByName(ctx context.Context, name string) ([]Role, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.roles[name], nil
}

type stubUserStore struct {
	levels map[int64]int
	err    error
}

func (s *stubUserStore) FindUserRoleLevel(ctx context.Context, userID int64) (int, bool, error) {
	if s.err != nil {
		return 0, false, s.err
	}
	level, ok := s.levels[userID]
	return level, ok, nil
}

func newTestEngine(t *testing.T, roles *stubRoleStore, users *stubUserStore, ttl time.Duration) *Engine {
	t.Helper()
	logger := slog.Default()
	resolver := NewResolver(roles, users, logger)
	return NewEngine(resolver, NewPermissionCache(ttl), logger)
}

func managerFixture() (*stubRoleStore, *stubUserStore) {
	roles := &stubRoleStore{roles: map[string][]Role{
		"Manager": {{ID: 2, Name: "Manager", RoleID: 2, Permission: "24"}},
	}}
	users := &stubUserStore{levels: map[int64]int{10: 2}}
	return roles, users
}

func TestRequirePermissionManagerScenario(t *testing.T) {
	roles, users := managerFixture()
	engine := newTestEngine(t, roles, users, time.Minute)
	id := Identity{UserID: 10}

	// Category 4 grants users.*, category 3 is absent.
	require.NoError(t, engine.RequirePermission(context.Background(), id, PermUsersRead))

	err := engine.RequirePermission(context.Background(), id, PermRolesCreate)
	require.Error(t, err)
	code, ok := CodeOf(err)
	require.True(t, ok)
	require.Equal(t, CodeAuthorizationDenied, code)

	var denial *Error
	require.ErrorAs(t, err, &denial)
	require.Equal(t, []string{PermRolesCreate}, denial.Missing)
}

func TestUnknownRoleFailsClosed(t *testing.T) {
	roles, _ := managerFixture()
	users := &stubUserStore{levels: map[int64]int{10: 7}}
	engine := newTestEngine(t, roles, users, time.Minute)

	err := engine.RequirePermission(context.Background(), Identity{UserID: 10}, PermUsersRead)
	require.Error(t, err)
	code, _ := CodeOf(err)
	require.Equal(t, CodeAuthorizationDenied, code)
	require.Equal(t, 0, roles.calls, "unknown level must not hit the role store")
}

func TestStoreErrorFailsClosed(t *testing.T) {
	roles := &stubRoleStore{err: errors.New("connection refused")}
	users := &stubUserStore{levels: map[int64]int{10: 2}}
	engine := newTestEngine(t, roles, users, time.Minute)

	err := engine.RequirePermission(context.Background(), Identity{UserID: 10}, PermUsersRead)
	require.Error(t, err)
	code, _ := CodeOf(err)
	require.Equal(t, CodeAuthorizationUnavailable, code)
}

func TestDuplicateRoleRecordsFailClosed(t *testing.T) {
	roles := &stubRoleStore{roles: map[string][]Role{
		"Manager": {
			{ID: 2, Name: "Manager", Permission: "1234"},
			{ID: 9, Name: "Manager", Permission: "4"},
		},
	}}
	users := &stubUserStore{levels: map[int64]int{10: 2}}
	engine := newTestEngine(t, roles, users, time.Minute)

	err := engine.RequirePermission(context.Background(), Identity{UserID: 10}, PermUsersRead)
	code, _ := CodeOf(err)
	require.Equal(t, CodeAuthorizationDenied, code)
}

func TestCacheDoesNotAlterAnswer(t *testing.T) {
	roles, users := managerFixture()
	engine := newTestEngine(t, roles, users, time.Minute)
	ctx := context.Background()

	cold, err := engine.Grant(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, 1, roles.calls)

	hot, err := engine.Grant(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, 1, roles.calls, "second read must come from cache")
	require.Equal(t, cold, hot)
}

func TestCacheExpiryTriggersResolution(t *testing.T) {
	roles, users := managerFixture()
	engine := newTestEngine(t, roles, users, 5*time.Minute)
	ctx := context.Background()

	base := time.Now()
	engine.cache.now = func() time.Time { return base }
	_, err := engine.Grant(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, 1, roles.calls)

	engine.cache.now = func() time.Time { return base.Add(5*time.Minute + time.Millisecond) }
	_, err = engine.Grant(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, 2, roles.calls, "expired entry must trigger fresh resolution")
}

func TestRequireAnyVersusAll(t *testing.T) {
	// Role grants categories 1 and 2; request A=staff.read (granted)
	// and C=users.read (not granted).
	roles := &stubRoleStore{roles: map[string][]Role{
		"Manager": {{ID: 2, Name: "Manager", Permission: "12"}},
	}}
	users := &stubUserStore{levels: map[int64]int{10: 2}}
	engine := newTestEngine(t, roles, users, time.Minute)
	ctx := context.Background()
	id := Identity{UserID: 10}
	requested := []string{PermStaffRead, PermUsersRead}

	require.NoError(t, engine.RequireAnyPermission(ctx, id, requested))

	err := engine.RequireAllPermissions(ctx, id, requested)
	require.Error(t, err)
	var denial *Error
	require.ErrorAs(t, err, &denial)
	require.Equal(t, []string{PermUsersRead}, denial.Missing, "denial must list exactly the missing subset")
}

func TestRequireAnyDenialListsFullSet(t *testing.T) {
	roles, users := managerFixture()
	engine := newTestEngine(t, roles, users, time.Minute)
	requested := []string{PermRolesCreate, PermRolesDelete}

	err := engine.RequireAnyPermission(context.Background(), Identity{UserID: 10}, requested)
	var denial *Error
	require.ErrorAs(t, err, &denial)
	require.Equal(t, requested, denial.Missing)
}

func TestRevokeAllTakesEffectAfterInvalidation(t *testing.T) {
	roles := &stubRoleStore{roles: map[string][]Role{
		"User": {{ID: 3, Name: "User", Permission: "1"}},
	}}
	users := &stubUserStore{levels: map[int64]int{20: 3}}
	engine := newTestEngine(t, roles, users, time.Hour)
	ctx := context.Background()
	id := Identity{UserID: 20}

	require.NoError(t, engine.RequirePermission(ctx, id, PermStaffRead))

	// Admin edits the role from "1" to "" and invalidates.
	roles.roles["User"] = []Role{{ID: 3, Name: "User", Permission: ""}}
	engine.InvalidateAll()

	for _, perm := range Expand(NewCategorySet(CategoryContent)) {
		err := engine.RequirePermission(ctx, id, perm)
		require.Error(t, err, "permission %s must be denied after revoke", perm)
	}
}

func TestIsCategoryAgreesWithPermissions(t *testing.T) {
	roles, users := managerFixture()
	engine := newTestEngine(t, roles, users, time.Minute)
	ctx := context.Background()
	id := Identity{UserID: 10}

	for c := CategoryContent; c <= CategoryUsers; c++ {
		viaDigit, err := engine.IsCategory(ctx, id, c)
		require.NoError(t, err)
		grant, err := engine.Grant(ctx, id.UserID)
		require.NoError(t, err)
		viaSet := Decode(grant.Code).Has(c)
		require.Equal(t, viaSet, viaDigit, "category %d", c)
	}

	ok, err := engine.IsCategory(ctx, id, Category(9))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRequireRoleLevel(t *testing.T) {
	roles, users := managerFixture()
	engine := newTestEngine(t, roles, users, time.Minute)
	ctx := context.Background()
	id := Identity{UserID: 10}

	require.NoError(t, engine.RequireRoleLevel(ctx, id, RoleManager))
	require.Error(t, engine.RequireRoleLevel(ctx, id, RoleAdministrator))

	users.levels[10] = 7
	require.Error(t, engine.RequireRoleLevel(ctx, id, RoleManager))
}

func TestMissingUserFailsClosed(t *testing.T) {
	roles, _ := managerFixture()
	users := &stubUserStore{levels: map[int64]int{}}
	engine := newTestEngine(t, roles, users, time.Minute)

	err := engine.RequirePermission(context.Background(), Identity{UserID: 99}, PermUsersRead)
	code, _ := CodeOf(err)
	require.Equal(t, CodeAuthorizationDenied, code)
}
