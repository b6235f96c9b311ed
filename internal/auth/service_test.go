package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/simtunkin/simtunkin/internal/authz"
	"github.com/simtunkin/simtunkin/internal/shared"
)

type memoryAuthRepo struct {
	users         map[int64]*User
	refreshHashes map[int64][]byte
	resetTokens   map[string]int64
}

func newMemoryAuthRepo() *memoryAuthRepo {
	return &memoryAuthRepo{
		users:         make(map[int64]*User),
		refreshHashes: make(map[int64][]byte),
		resetTokens:   make(map[string]int64),
	}
}

func (r *memoryAuthRepo) FindByEmail(ctx context.Context, email string) (*User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, shared.ErrInvalidCredentials
}

func (r *memoryAuthRepo) FindByID(ctx context.Context, id int64) (*User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, shared.ErrInvalidCredentials
	}
	return u, nil
}

func (r *memoryAuthRepo) SetRefreshTokenHash(ctx context.Context, userID int64, hash []byte) error {
	r.refreshHashes[userID] = hash
	return nil
}

func (r *memoryAuthRepo) FindRefreshTokenHash(ctx context.Context, userID int64) ([]byte, error) {
	return r.refreshHashes[userID], nil
}

func (r *memoryAuthRepo) ClearRefreshToken(ctx context.Context, userID int64) error {
	delete(r.refreshHashes, userID)
	return nil
}

func (r *memoryAuthRepo) SetResetToken(ctx context.Context, userID int64, token string, expiry time.Time) error {
	r.resetTokens[token] = userID
	return nil
}

func (r *memoryAuthRepo) FindByResetToken(ctx context.Context, token string) (*User, error) {
	id, ok := r.resetTokens[token]
	if !ok {
		return nil, shared.ErrResetTokenInvalid
	}
	return r.users[id], nil
}

func (r *memoryAuthRepo) SetPassword(ctx context.Context, userID int64, passwordHash string) error {
	u := r.users[userID]
	u.PasswordHash = &passwordHash
	u.MustResetPassword = false
	return nil
}

func newTestService(t *testing.T) (*Service, *memoryAuthRepo) {
	t.Helper()
	verifier, err := authz.NewTokenVerifier("access-secret", "refresh-secret", 15*time.Minute, 24*time.Hour)
	require.NoError(t, err)
	repo := newMemoryAuthRepo()
	return NewService(repo, verifier), repo
}

func addUser(t *testing.T, repo *memoryAuthRepo, id int64, email, password string) *User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	hash := string(hashed)
	user := &User{ID: id, Email: email, PasswordHash: &hash, Role: 2}
	repo.users[id] = user
	return user
}

func TestAuthenticate(t *testing.T) {
	svc, repo := newTestService(t)
	addUser(t, repo, 1, "budi@kantor.go.id", "rahasia-negara")

	user, err := svc.Authenticate(context.Background(), "budi@kantor.go.id", "rahasia-negara")
	require.NoError(t, err)
	require.Equal(t, int64(1), user.ID)

	_, err = svc.Authenticate(context.Background(), "budi@kantor.go.id", "salah")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)

	_, err = svc.Authenticate(context.Background(), "tidak@ada.go.id", "rahasia-negara")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestAuthenticateNilPasswordRequiresReset(t *testing.T) {
	svc, repo := newTestService(t)
	repo.users[1] = &User{ID: 1, Email: "baru@kantor.go.id"}

	_, err := svc.Authenticate(context.Background(), "baru@kantor.go.id", "apapun")
	require.ErrorIs(t, err, shared.ErrPasswordResetRequired)
}

func TestIssueAndRefreshTokens(t *testing.T) {
	svc, repo := newTestService(t)
	user := addUser(t, repo, 1, "budi@kantor.go.id", "rahasia-negara")
	ctx := context.Background()

	pair, err := svc.IssueTokens(ctx, user)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	rotated, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, rotated.AccessToken)

	// The old refresh token was rotated out.
	_, err = svc.Refresh(ctx, pair.RefreshToken)
	require.Error(t, err)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	svc, repo := newTestService(t)
	user := addUser(t, repo, 1, "budi@kantor.go.id", "rahasia-negara")
	ctx := context.Background()

	pair, err := svc.IssueTokens(ctx, user)
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, pair.AccessToken)
	require.Error(t, err)
}

func TestLogoutRevokesRefresh(t *testing.T) {
	svc, repo := newTestService(t)
	user := addUser(t, repo, 1, "budi@kantor.go.id", "rahasia-negara")
	ctx := context.Background()

	pair, err := svc.IssueTokens(ctx, user)
	require.NoError(t, err)
	require.NoError(t, svc.Logout(ctx, user.ID))

	_, err = svc.Refresh(ctx, pair.RefreshToken)
	require.Error(t, err)
}

func TestPasswordResetFlow(t *testing.T) {
	svc, repo := newTestService(t)
	addUser(t, repo, 1, "budi@kantor.go.id", "rahasia-negara")
	ctx := context.Background()

	token, err := svc.StartPasswordReset(ctx, "budi@kantor.go.id")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	// Unknown email yields no token and no error.
	none, err := svc.StartPasswordReset(ctx, "tidak@ada.go.id")
	require.NoError(t, err)
	require.Empty(t, none)

	require.NoError(t, svc.CompletePasswordReset(ctx, token, "password-baru"))
	_, err = svc.Authenticate(ctx, "budi@kantor.go.id", "password-baru")
	require.NoError(t, err)

	require.ErrorIs(t, svc.CompletePasswordReset(ctx, "token-palsu", "x-tidak-dipakai"), shared.ErrResetTokenInvalid)
}
