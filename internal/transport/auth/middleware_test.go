package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"registry-report/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "registry-test-secret"

type fakeTokens map[string]*domain.PersonalAccessToken

func (f fakeTokens) FindTokenByPlainToken(_ context.Context, plain string) (*domain.PersonalAccessToken, error) {
	if pat, ok := f[plain]; ok {
		return pat, nil
	}
	return nil, errors.New("not found")
}

func whoAmI() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := GetUserID(r.Context())
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("X-User", GetRole(r.Context()))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte{byte('0' + id)})
	})
}

func serve(h http.Handler, target, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestMiddleware_JWT(t *testing.T) {
	a := NewAuthenticator(nil, testSecret, nil)
	h := a.Middleware(whoAmI())

	token, err := IssueToken(testSecret, 4, "viewer", time.Hour)
	require.NoError(t, err)

	rec := serve(h, "/reports/history", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "4", rec.Body.String())
	assert.Equal(t, "viewer", rec.Header().Get("X-User"))
}

func TestMiddleware_RejectsBadJWT(t *testing.T) {
	a := NewAuthenticator(nil, testSecret, nil)
	h := a.Middleware(whoAmI())

	wrongKey, err := IssueToken("other-secret", 4, "admin", time.Hour)
	require.NoError(t, err)
	expired, err := IssueToken(testSecret, 4, "admin", -time.Minute)
	require.NoError(t, err)
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "4"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"wrong key":   wrongKey,
		"expired":     expired,
		"alg none":    none,
		"no token":    "",
		"garbage jwt": "a.b.c",
	} {
		t.Run(name, func(t *testing.T) {
			rec := serve(h, "/reports/history", token)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), `"status":"error"`)
		})
	}
}

func TestMiddleware_PersonalAccessToken(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	a := NewAuthenticator(fakeTokens{
		"3|valid":   {ID: 3, UserID: 7, Role: "staff"},
		"5|expired": {ID: 5, UserID: 7, Role: "staff", ExpiresAt: &past},
	}, "", nil)
	h := a.Middleware(whoAmI())

	rec := serve(h, "/reports/history", "3|valid")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "7", rec.Body.String())
	assert.Equal(t, "staff", rec.Header().Get("X-User"))

	assert.Equal(t, http.StatusUnauthorized, serve(h, "/reports/history", "5|expired").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(h, "/reports/history", "9|unknown").Code)

	// websocket handshakes carry the token in the query string
	rec = serve(h, "/ws?token=3%7Cvalid", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequirePermission(t *testing.T) {
	h := RequirePermission(PermissionRead)(whoAmI())

	cases := []struct {
		role string
		want int
	}{
		{"viewer", http.StatusOK},
		{"Editor", http.StatusOK},
		{"admin", http.StatusOK},
		{"", http.StatusForbidden},
		{"guest", http.StatusForbidden},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, "/reports/generate", nil)
		req = req.WithContext(WithUser(req.Context(), 1, tc.role))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, tc.want, rec.Code, "role %q", tc.role)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPermissionForRole(t *testing.T) {
	assert.Equal(t, PermissionRead, PermissionForRole("viewer"))
	assert.Equal(t, PermissionWrite, PermissionForRole(" STAFF "))
	assert.Equal(t, PermissionAdmin, PermissionForRole("admin"))
	assert.Equal(t, PermissionNone, PermissionForRole("unknown"))
	assert.True(t, PermissionAdmin > PermissionWrite && PermissionWrite > PermissionRead)
}

func TestParseTokenUserID(t *testing.T) {
	id, err := parseTokenUserID(float64(12))
	require.NoError(t, err)
	assert.Equal(t, int64(12), id)

	id, err = parseTokenUserID(" 42 ")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	_, err = parseTokenUserID(1.5)
	assert.Error(t, err)
	_, err = parseTokenUserID(nil)
	assert.Error(t, err)
}
