package roles

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/simtunkin/simtunkin/internal/authz"
	"github.com/simtunkin/simtunkin/internal/platform/httpx"
)

type memoryRoleRepo struct {
	roles      map[int64]Role
	userCounts map[int]int
	nextID     int64
}

func newMemoryRoleRepo() *memoryRoleRepo {
	return &memoryRoleRepo{roles: make(map[int64]Role), userCounts: make(map[int]int)}
}

func (r *memoryRoleRepo) ListRoles(ctx context.Context) ([]Role, error) {
	var out []Role
	for _, role := range r.roles {
		out = append(out, role)
	}
	return out, nil
}

func (r *memoryRoleRepo) GetRole(ctx context.Context, id int64) (Role, error) {
	role, ok := r.roles[id]
	if !ok {
		return Role{}, httpx.ErrNotFound
	}
	return role, nil
}

func (r *memoryRoleRepo) CreateRole(ctx context.Context, role Role) (Role, error) {
	for _, existing := range r.roles {
		if existing.Name == role.Name {
			return Role{}, httpx.ErrDuplicate
		}
	}
	r.nextID++
	role.ID = r.nextID
	role.CreatedAt = time.Now()
	role.UpdatedAt = role.CreatedAt
	r.roles[role.ID] = role
	return role, nil
}

func (r *memoryRoleRepo) UpdateRole(ctx context.Context, role Role) (Role, error) {
	current, ok := r.roles[role.ID]
	if !ok {
		return Role{}, httpx.ErrNotFound
	}
	current.Name = role.Name
	current.Permission = role.Permission
	current.Description = role.Description
	current.UpdatedAt = time.Now()
	r.roles[role.ID] = current
	return current, nil
}

func (r *memoryRoleRepo) DeleteRole(ctx context.Context, id int64) error {
	if _, ok := r.roles[id]; !ok {
		return httpx.ErrNotFound
	}
	delete(r.roles, id)
	return nil
}

func (r *memoryRoleRepo) CountUsersWithLevel(ctx context.Context, level int) (int, error) {
	return r.userCounts[level], nil
}

type invalidationSpy struct {
	all int
}

func (s *invalidationSpy) InvalidateAll() { s.all++ }

func newRoleService(t *testing.T) (*Service, *memoryRoleRepo, *invalidationSpy) {
	t.Helper()
	repo := newMemoryRoleRepo()
	spy := &invalidationSpy{}
	return NewService(repo, spy, nil, nil, nil), repo, spy
}

func TestCreateRoleEncodesCanonically(t *testing.T) {
	svc, _, _ := newRoleService(t)

	// Categories arrive unsorted and duplicated; storage is canonical.
	role, err := svc.CreateRole(context.Background(), 1, "  manager  ", 2, []int{4, 2, 4}, "manajer unit")
	require.NoError(t, err)
	require.Equal(t, "Manager", role.Name)
	require.Equal(t, "24", role.Permission)
}

func TestCreateRoleRejectsUnknownCategory(t *testing.T) {
	svc, _, _ := newRoleService(t)
	_, err := svc.CreateRole(context.Background(), 1, "Operator", 5, []int{1, 9}, "")
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestUpdateRoleRecomputesEncodingAndInvalidates(t *testing.T) {
	svc, _, spy := newRoleService(t)
	ctx := context.Background()

	role, err := svc.CreateRole(ctx, 1, "User", 3, []int{1}, "")
	require.NoError(t, err)
	require.Equal(t, 0, spy.all, "create touches nobody's cached grant")

	updated, err := svc.UpdateRole(ctx, 1, role.ID, "User", nil, "tanpa akses")
	require.NoError(t, err)
	require.Equal(t, "", updated.Permission)
	require.Equal(t, 1, spy.all, "permission edit must flush cached grants")

	// Re-encoding the same effective set converges on the same string.
	again, err := svc.UpdateRole(ctx, 1, role.ID, "User", []int{2, 1, 2}, "")
	require.NoError(t, err)
	require.Equal(t, "12", again.Permission)
	require.Equal(t, authz.Encode(authz.Decode(again.Permission)), again.Permission)
}

func TestDeleteRoleRefusedWhileReferenced(t *testing.T) {
	svc, repo, spy := newRoleService(t)
	ctx := context.Background()

	role, err := svc.CreateRole(ctx, 1, "Manager", 2, []int{2, 4}, "")
	require.NoError(t, err)

	repo.userCounts[2] = 3
	err = svc.DeleteRole(ctx, 1, role.ID)
	require.ErrorIs(t, err, httpx.ErrConflict)
	require.Equal(t, 0, spy.all)

	repo.userCounts[2] = 0
	require.NoError(t, svc.DeleteRole(ctx, 1, role.ID))
	require.Equal(t, 1, spy.all)
	_, err = repo.GetRole(ctx, role.ID)
	require.ErrorIs(t, err, httpx.ErrNotFound)
}
