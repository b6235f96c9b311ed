package users

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/simtunkin/simtunkin/internal/platform/httpx"
)

type memoryUserRepo struct {
	users  map[int64]User
	nextID int64
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{users: make(map[int64]User)}
}

func (r *memoryUserRepo) ListUsers(ctx context.Context, limit, offset int) ([]User, int, error) {
	var out []User
	for _, user := range r.users {
		out = append(out, user)
	}
	total := len(out)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return out[offset:end], total, nil
}

func (r *memoryUserRepo) GetUser(ctx context.Context, id int64) (User, error) {
	user, ok := r.users[id]
	if !ok {
		return User{}, httpx.ErrNotFound
	}
	return user, nil
}

func (r *memoryUserRepo) CreateUser(ctx context.Context, email string, role int) (User, error) {
	for _, existing := range r.users {
		if existing.Email == email {
			return User{}, httpx.ErrDuplicate
		}
	}
	r.nextID++
	user := User{ID: r.nextID, Email: email, Role: role, MustResetPassword: true, CreatedAt: time.Now()}
	user.UpdatedAt = user.CreatedAt
	r.users[user.ID] = user
	return user, nil
}

func (r *memoryUserRepo) UpdateUserRole(ctx context.Context, id int64, role int) (User, error) {
	user, ok := r.users[id]
	if !ok {
		return User{}, httpx.ErrNotFound
	}
	user.Role = role
	user.UpdatedAt = time.Now()
	r.users[id] = user
	return user, nil
}

func (r *memoryUserRepo) DeleteUser(ctx context.Context, id int64) error {
	if _, ok := r.users[id]; !ok {
		return httpx.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

type invalidateSpy struct {
	userIDs []int64
}

func (s *invalidateSpy) Invalidate(userID int64) { s.userIDs = append(s.userIDs, userID) }

func newUserService(t *testing.T) (*Service, *memoryUserRepo, *invalidateSpy) {
	t.Helper()
	repo := newMemoryUserRepo()
	spy := &invalidateSpy{}
	return NewService(repo, spy, nil, nil, nil), repo, spy
}

func TestCreateUserStartsInResetState(t *testing.T) {
	svc, _, spy := newUserService(t)

	user, err := svc.CreateUser(context.Background(), 1, "  Budi@Kantor.GO.ID ", 3)
	require.NoError(t, err)
	require.Equal(t, "budi@kantor.go.id", user.Email)
	require.True(t, user.MustResetPassword)
	require.Equal(t, "User", user.RoleName)
	require.Empty(t, spy.userIDs, "creating an account has no cached grant to drop")
}

func TestCreateUserRejectsUnknownLevel(t *testing.T) {
	svc, _, _ := newUserService(t)
	_, err := svc.CreateUser(context.Background(), 1, "budi@kantor.go.id", 7)
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestAssignRoleInvalidatesCachedGrant(t *testing.T) {
	svc, _, spy := newUserService(t)
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, 1, "sari@kantor.go.id", 3)
	require.NoError(t, err)

	updated, err := svc.AssignRole(ctx, 1, user.ID, 2)
	require.NoError(t, err)
	require.Equal(t, 2, updated.Role)
	require.Equal(t, "Manager", updated.RoleName)
	require.Equal(t, []int64{user.ID}, spy.userIDs, "role change must drop exactly that user's grant")

	_, err = svc.AssignRole(ctx, 1, user.ID, 9)
	require.ErrorIs(t, err, httpx.ErrValidation)
	require.Len(t, spy.userIDs, 1, "rejected assignment leaves the cache alone")
}

func TestDeleteUserInvalidatesCachedGrant(t *testing.T) {
	svc, repo, spy := newUserService(t)
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, 1, "dewi@kantor.go.id", 3)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteUser(ctx, 1, user.ID))
	require.Equal(t, []int64{user.ID}, spy.userIDs)
	_, err = repo.GetUser(ctx, user.ID)
	require.ErrorIs(t, err, httpx.ErrNotFound)

	require.ErrorIs(t, svc.DeleteUser(ctx, 1, user.ID), httpx.ErrNotFound)
	require.Len(t, spy.userIDs, 1)
}

func TestListUsersAttachesRoleNames(t *testing.T) {
	svc, _, _ := newUserService(t)
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, 1, "admin@kantor.go.id", 1)
	require.NoError(t, err)
	_, err = svc.CreateUser(ctx, 1, "staf@kantor.go.id", 3)
	require.NoError(t, err)

	users, pagination, err := svc.ListUsers(ctx, 1, 20)
	require.NoError(t, err)
	require.Len(t, users, 2)
	require.Equal(t, 2, pagination.Total)
	names := map[string]string{}
	for _, u := range users {
		names[u.Email] = u.RoleName
	}
	require.Equal(t, "Administrator", names["admin@kantor.go.id"])
	require.Equal(t, "User", names["staf@kantor.go.id"])
}
