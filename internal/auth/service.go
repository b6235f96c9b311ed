package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/simtunkin/simtunkin/internal/authz"
	"github.com/simtunkin/simtunkin/internal/shared"
)

// ResetTokenTTL bounds how long a password reset link stays usable.
const ResetTokenTTL = time.Hour

// TokenPair carries a freshly issued credential set.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Service wraps authentication business rules.
type Service struct {
	repo     Repository
	verifier *authz.TokenVerifier
}

// NewService constructs a new Service.
func NewService(repo Repository, verifier *authz.TokenVerifier) *Service {
	return &Service{repo: repo, verifier: verifier}
}

// Authenticate validates email/password credentials. Accounts without a
// password hash must complete a reset first.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if user.PasswordHash == nil {
		return nil, shared.ErrPasswordResetRequired
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if user.MustResetPassword {
		return nil, shared.ErrPasswordResetRequired
	}
	return user, nil
}

// IssueTokens signs an access/refresh pair and records the refresh token
// hash so it can be revoked.
func (s *Service) IssueTokens(ctx context.Context, user *User) (TokenPair, error) {
	id := authz.Identity{UserID: user.ID, Email: user.Email}
	access, err := s.verifier.SignAccess(id)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.verifier.SignRefresh(id)
	if err != nil {
		return TokenPair{}, err
	}
	hash := sha256.Sum256([]byte(refresh))
	if err := s.repo.SetRefreshTokenHash(ctx, user.ID, hash[:]); err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh validates a refresh token against both its signature and the
// stored hash, then rotates the pair.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	id, err := s.verifier.VerifyRefresh(refreshToken)
	if err != nil {
		return TokenPair{}, err
	}
	stored, err := s.repo.FindRefreshTokenHash(ctx, id.UserID)
	if err != nil {
		return TokenPair{}, shared.ErrInvalidCredentials
	}
	presented := sha256.Sum256([]byte(refreshToken))
	if len(stored) == 0 || subtle.ConstantTimeCompare(stored, presented[:]) != 1 {
		return TokenPair{}, shared.ErrInvalidCredentials
	}
	user, err := s.repo.FindByID(ctx, id.UserID)
	if err != nil {
		return TokenPair{}, shared.ErrInvalidCredentials
	}
	return s.IssueTokens(ctx, user)
}

// Logout revokes the active refresh token.
func (s *Service) Logout(ctx context.Context, userID int64) error {
	return s.repo.ClearRefreshToken(ctx, userID)
}

// StartPasswordReset stores a fresh reset token for the account. The
// token is returned for delivery by an external channel; a missing
// account yields no error so the endpoint cannot be used to probe for
// registered emails.
func (s *Service) StartPasswordReset(ctx context.Context, email string) (string, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return "", nil
	}
	token := uuid.NewString()
	if err := s.repo.SetResetToken(ctx, user.ID, token, time.Now().Add(ResetTokenTTL)); err != nil {
		return "", err
	}
	return token, nil
}

// CompletePasswordReset sets a new password for the token's account and
// revokes existing sessions.
func (s *Service) CompletePasswordReset(ctx context.Context, token, newPassword string) error {
	user, err := s.repo.FindByResetToken(ctx, token)
	if err != nil {
		return shared.ErrResetTokenInvalid
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.repo.SetPassword(ctx, user.ID, string(hashed)); err != nil {
		return err
	}
	return s.repo.ClearRefreshToken(ctx, user.ID)
}
