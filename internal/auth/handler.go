package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/simtunkin/simtunkin/internal/authz"
	"github.com/simtunkin/simtunkin/internal/platform/httpx"
	"github.com/simtunkin/simtunkin/internal/shared"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	sessions  *shared.SessionManager
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, sessions *shared.SessionManager) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		sessions:  sessions,
		validator: validator.New(),
	}
}

// MountRoutes registers auth routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
	r.Post("/refresh", h.handleRefresh)
	r.Post("/logout", h.handleLogout)
	r.Post("/forgot-password", h.handleForgotPassword)
	r.Post("/reset-password", h.handleResetPassword)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}

	user, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, shared.ErrPasswordResetRequired) {
			httpx.Fail(w, http.StatusForbidden, "Akun harus mengatur ulang password", "PASSWORD_RESET_REQUIRED")
			return
		}
		httpx.Fail(w, http.StatusBadRequest, "Email atau password tidak valid", "INVALID_CREDENTIALS")
		return
	}

	pair, err := h.service.IssueTokens(r.Context(), user)
	if err != nil {
		h.logger.Error("issue tokens", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	// Browser clients carry the token via the server-side session.
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.SetUser(strconv.FormatInt(user.ID, 10))
		sess.SetToken(pair.AccessToken)
	}

	httpx.OK(w, pair)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}

	pair, err := h.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		httpx.Fail(w, http.StatusUnauthorized, "Sesi tidak valid, silakan masuk kembali", string(authz.CodeAuthenticationRequired))
		return
	}

	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.SetToken(pair.AccessToken)
	}
	httpx.OK(w, pair)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if id, ok := authz.IdentityFromContext(r.Context()); ok {
		if err := h.service.Logout(r.Context(), id.UserID); err != nil {
			h.logger.Warn("logout", slog.Any("error", err))
		}
	}
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		h.sessions.Destroy(sess)
	}
	httpx.OK(w, nil)
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (h *Handler) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}

	token, err := h.service.StartPasswordReset(r.Context(), req.Email)
	if err != nil {
		h.logger.Error("start password reset", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if token != "" {
		// Delivery happens out of band; only the fact is logged here.
		h.logger.Info("password reset issued", slog.String("email", req.Email))
	}
	// Identical response whether or not the account exists.
	httpx.OK(w, nil)
}

type resetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

func (h *Handler) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}

	if err := h.service.CompletePasswordReset(r.Context(), req.Token, req.NewPassword); err != nil {
		if errors.Is(err, shared.ErrResetTokenInvalid) {
			httpx.Fail(w, http.StatusBadRequest, "Token reset tidak valid atau kedaluwarsa", "RESET_TOKEN_INVALID")
			return
		}
		h.logger.Error("reset password", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, nil)
}
