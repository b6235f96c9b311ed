package authz

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var errTestUnavailable = errors.New("store down")

type decisionCount struct {
	allow int
	deny  map[Code]int
}

func (d *decisionCount) RecordDecision(outcome string, code Code) {
	if outcome == "allow" {
		d.allow++
		return
	}
	if d.deny == nil {
		d.deny = make(map[Code]int)
	}
	d.deny[code]++
}

func newTestMiddleware(t *testing.T) (Middleware, *decisionCount) {
	t.Helper()
	roles, users := managerFixture()
	engine := newTestEngine(t, roles, users, time.Minute)
	counter := &decisionCount{}
	return Middleware{
		Engine:   engine,
		Verifier: newTestVerifier(t),
		Metrics:  counter,
	}, counter
}

func passHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func decode(t *testing.T, res *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	return body
}

func TestAuthenticateMissingToken(t *testing.T) {
	m, counter := newTestMiddleware(t)

	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	res := httptest.NewRecorder()
	m.Authenticate(passHandler()).ServeHTTP(res, req)

	require.Equal(t, http.StatusUnauthorized, res.Code)
	body := decode(t, res)
	require.Equal(t, false, body["success"])
	require.Equal(t, string(CodeAuthenticationRequired), body["code"])
	require.Equal(t, 1, counter.deny[CodeAuthenticationRequired])
}

func TestAuthenticateThenRequirePermission(t *testing.T) {
	m, counter := newTestMiddleware(t)
	token, err := m.Verifier.SignAccess(Identity{UserID: 10, Email: "m@kantor.go.id"})
	require.NoError(t, err)

	handler := m.Authenticate(m.RequirePermission(PermUsersRead)(passHandler()))

	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	require.Equal(t, http.StatusNoContent, res.Code)
	require.Equal(t, 1, counter.allow)
}

func TestRequirePermissionDenied(t *testing.T) {
	m, counter := newTestMiddleware(t)
	token, err := m.Verifier.SignAccess(Identity{UserID: 10})
	require.NoError(t, err)

	handler := m.Authenticate(m.RequirePermission(PermRolesCreate)(passHandler()))

	req := httptest.NewRequest(http.MethodPost, "/roles", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	require.Equal(t, http.StatusForbidden, res.Code)
	body := decode(t, res)
	require.Equal(t, string(CodeAuthorizationDenied), body["code"])
	// The missing permission name stays server-side.
	require.NotContains(t, res.Body.String(), PermRolesCreate)
	require.Equal(t, 1, counter.deny[CodeAuthorizationDenied])
}

func TestRequireWithoutIdentityIs401(t *testing.T) {
	m, _ := newTestMiddleware(t)
	handler := m.RequirePermission(PermUsersRead)(passHandler())

	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	require.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestRequireCategoryAdapter(t *testing.T) {
	m, _ := newTestMiddleware(t)
	token, err := m.Verifier.SignAccess(Identity{UserID: 10})
	require.NoError(t, err)

	granted := m.Authenticate(m.RequireCategory(CategoryUsers)(passHandler()))
	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	res := httptest.NewRecorder()
	granted.ServeHTTP(res, req)
	require.Equal(t, http.StatusNoContent, res.Code)

	denied := m.Authenticate(m.RequireCategory(CategoryRoles)(passHandler()))
	req = httptest.NewRequest(http.MethodGet, "/roles", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	res = httptest.NewRecorder()
	denied.ServeHTTP(res, req)
	require.Equal(t, http.StatusForbidden, res.Code)
}

func TestStoreFailureIs503(t *testing.T) {
	roles := &stubRoleStore{err: errTestUnavailable}
	users := &stubUserStore{levels: map[int64]int{10: 2}}
	m := Middleware{
		Engine:   newTestEngine(t, roles, users, time.Minute),
		Verifier: newTestVerifier(t),
	}
	token, err := m.Verifier.SignAccess(Identity{UserID: 10})
	require.NoError(t, err)

	handler := m.Authenticate(m.RequirePermission(PermUsersRead)(passHandler()))
	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	require.Equal(t, http.StatusServiceUnavailable, res.Code)
	body := decode(t, res)
	require.Equal(t, string(CodeAuthorizationUnavailable), body["code"])
}
