package httpx

import (
	"errors"
	"net/http"

	"github.com/simtunkin/simtunkin/internal/authz"
)

// Sentinel errors for the domain layer.
var (
	ErrNotFound   = errors.New("resource not found")
	ErrDuplicate  = errors.New("duplicate entry")
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflicting state")
)

// RespondError maps domain and authorization errors to HTTP responses.
// Authentication failures map to 401, authorization failures to 403 and
// dependency failures to 503; the distinction is always preserved in the
// response code even though the client message stays generic.
func RespondError(w http.ResponseWriter, err error) {
	if code, ok := authz.CodeOf(err); ok {
		switch code {
		case authz.CodeAuthenticationRequired:
			Fail(w, http.StatusUnauthorized, "Autentikasi diperlukan", string(code))
		case authz.CodeAuthorizationDenied:
			Fail(w, http.StatusForbidden, "Akses ditolak", string(code))
		case authz.CodeAuthorizationUnavailable:
			Fail(w, http.StatusServiceUnavailable, "Otorisasi tidak tersedia, coba lagi", string(code))
		default:
			Fail(w, http.StatusInternalServerError, "Kesalahan konfigurasi server", string(code))
		}
		return
	}

	switch {
	case errors.Is(err, ErrNotFound):
		Fail(w, http.StatusNotFound, "Data tidak ditemukan", "NOT_FOUND")
	case errors.Is(err, ErrDuplicate):
		Fail(w, http.StatusConflict, "Data sudah ada", "DUPLICATE")
	case errors.Is(err, ErrValidation):
		Fail(w, http.StatusBadRequest, "Validasi gagal", "VALIDATION_FAILED")
	case errors.Is(err, ErrConflict):
		Fail(w, http.StatusConflict, "Operasi bertentangan dengan data lain", "CONFLICT")
	default:
		Fail(w, http.StatusInternalServerError, "Terjadi kesalahan internal", "INTERNAL_ERROR")
	}
}
