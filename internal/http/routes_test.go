package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	adapterredis "github.com/Egem97/ttl-apg/internal/adapters/redis"
	"github.com/Egem97/ttl-apg/internal/cache"
	domainauth "github.com/Egem97/ttl-apg/internal/domain/auth"
	"github.com/Egem97/ttl-apg/internal/mocks"
	"github.com/Egem97/ttl-apg/internal/ports"
	"github.com/Egem97/ttl-apg/internal/service"
	"github.com/Egem97/ttl-apg/internal/testutil"
)

// stubAuthenticator returns fixed claims for any credentials.
type stubAuthenticator struct {
	claims domainauth.UserClaims
}

func (s *stubAuthenticator) Authenticate(_ context.Context, username, password string) (domainauth.UserClaims, error) {
	if username == "" || password == "" {
		return domainauth.UserClaims{}, ports.ErrInvalidCredentials
	}
	return s.claims, nil
}

// countingSource counts loader invocations behind the memoizer.
type countingSource struct {
	calls int
	err   error
}

func (c *countingSource) WidgetData(_ context.Context, companyID int64, widget string) (map[string]any, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return map[string]any{"widget": widget, "rows": float64(3)}, nil
}

type testEnv struct {
	mr      *miniredis.Miniredis
	oracle  *mocks.MockPermissionOracle
	source  *countingSource
	handler http.Handler
	cache   *cache.Store
}

func analystClaims() domainauth.UserClaims {
	return domainauth.UserClaims{
		UserID:    42,
		Username:  "jdoe",
		CompanyID: 7,
		Role:      domainauth.RoleAnalyst,
	}
}

func adminClaims() domainauth.UserClaims {
	c := analystClaims()
	c.Role = domainauth.RoleAdmin
	c.IsAdmin = true
	return c
}

func newEnv(t *testing.T, claims domainauth.UserClaims) *testEnv {
	t.Helper()
	mr, client := testutil.NewRedis(t)
	ctrl := gomock.NewController(t)

	store := adapterredis.NewSessionStore(client, time.Hour)
	svc := service.NewAuthService(service.AuthServiceOptions{
		Authenticator: &stubAuthenticator{claims: claims},
		Sessions:      store,
	})
	cacheStore := cache.NewStore(client, time.Hour)
	oracle := mocks.NewMockPermissionOracle(ctrl)
	source := &countingSource{}

	handler := NewRouter(RouterServices{
		Auth:           svc,
		Oracle:         oracle,
		Cache:          cacheStore,
		Memo:           cache.NewMemoizer(cacheStore, time.Minute),
		Dashboard:      source,
		Health:         map[string]Pinger{"sessions": store, "cache": cacheStore},
		SessionTimeout: time.Hour,
	})
	return &testEnv{mr: mr, oracle: oracle, source: source, handler: handler, cache: cacheStore}
}

// login performs a login request and returns the session ID.
func (e *testEnv) login(t *testing.T) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"username":"jdoe","password":"pw"}`))
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		SessionID string `json:"session_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body.SessionID)
	return body.SessionID
}

func (e *testEnv) do(method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func TestLogin(t *testing.T) {
	env := newEnv(t, analystClaims())

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"username":"jdoe","password":"pw"}`))
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	res := rec.Result()
	defer res.Body.Close()
	var cookie *http.Cookie
	for _, c := range res.Cookies() {
		if c.Name == "session_id" {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.Equal(t, int(time.Hour.Seconds()), cookie.MaxAge)

	var body struct {
		User struct {
			ID        int64  `json:"id"`
			Username  string `json:"username"`
			CompanyID int64  `json:"company_id"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, int64(42), body.User.ID)
	assert.Equal(t, int64(7), body.User.CompanyID)
}

func TestLogin_BadCredentials(t *testing.T) {
	env := newEnv(t, analystClaims())

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"username":"jdoe","password":""}`))
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRequireAuth(t *testing.T) {
	env := newEnv(t, analystClaims())
	token := env.login(t)

	t.Run("no token", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/api/auth/me", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "unauthenticated", errorCode(t, rec))
	})

	t.Run("bogus token", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/api/auth/me", "nope")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("bearer token", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/api/auth/me", token)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		req.AddCookie(&http.Cookie{Name: "session_id", Value: token})
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("bearer takes precedence over cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		req.Header.Set("Authorization", "Bearer invalid")
		req.AddCookie(&http.Cookie{Name: "session_id", Value: token})
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestSlidingExpirationAcrossRequests(t *testing.T) {
	env := newEnv(t, analystClaims())
	token := env.login(t)

	// Past half the timeout the session would die without activity; each
	// authorized request resets the clock.
	env.mr.FastForward(45 * time.Minute)
	rec := env.do(http.MethodGet, "/api/auth/me", token)
	require.Equal(t, http.StatusOK, rec.Code)

	env.mr.FastForward(45 * time.Minute)
	rec = env.do(http.MethodGet, "/api/auth/me", token)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Total inactivity beyond the timeout ends the session.
	env.mr.FastForward(2 * time.Hour)
	rec = env.do(http.MethodGet, "/api/auth/me", token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole_AdminEndpoints(t *testing.T) {
	t.Run("analyst denied", func(t *testing.T) {
		env := newEnv(t, analystClaims())
		token := env.login(t)
		rec := env.do(http.MethodGet, "/api/admin/sessions/stats", token)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "forbidden", errorCode(t, rec))
	})

	t.Run("admin allowed", func(t *testing.T) {
		env := newEnv(t, adminClaims())
		token := env.login(t)
		rec := env.do(http.MethodGet, "/api/admin/sessions/stats", token)
		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			ActiveSessions int `json:"active_sessions"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, 1, body.ActiveSessions)
	})
}

func TestRequirePermission(t *testing.T) {
	t.Run("oracle grants", func(t *testing.T) {
		env := newEnv(t, analystClaims())
		token := env.login(t)
		env.oracle.EXPECT().
			Check(gomock.Any(), ports.PermissionQuery{UserID: 42, CompanyID: 7, Module: "dashboard", Action: "read"}).
			Return(true, nil)

		rec := env.do(http.MethodGet, "/api/companies/7/dashboard/sales", token)
		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})

	t.Run("oracle denies", func(t *testing.T) {
		env := newEnv(t, analystClaims())
		token := env.login(t)
		env.oracle.EXPECT().Check(gomock.Any(), gomock.Any()).Return(false, nil)

		rec := env.do(http.MethodGet, "/api/companies/7/dashboard/sales", token)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "forbidden", errorCode(t, rec))
	})

	t.Run("oracle failure denies, never fails open", func(t *testing.T) {
		env := newEnv(t, analystClaims())
		token := env.login(t)
		env.oracle.EXPECT().Check(gomock.Any(), gomock.Any()).
			Return(false, errors.New("timeout"))

		rec := env.do(http.MethodGet, "/api/companies/7/dashboard/sales", token)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "permission_check_failed", errorCode(t, rec))
	})

	t.Run("admin skips the oracle", func(t *testing.T) {
		env := newEnv(t, adminClaims())
		token := env.login(t)
		// No EXPECT on the oracle: a call would fail the test.

		rec := env.do(http.MethodGet, "/api/companies/7/dashboard/sales", token)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestRequireCompanyAccess(t *testing.T) {
	t.Run("cross-company denied", func(t *testing.T) {
		env := newEnv(t, analystClaims())
		token := env.login(t)
		env.oracle.EXPECT().Check(gomock.Any(), gomock.Any()).Return(true, nil)

		rec := env.do(http.MethodGet, "/api/companies/9/dashboard/sales", token)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "company_access_denied", errorCode(t, rec))
		// The loader never ran for the foreign tenant.
		assert.Zero(t, env.source.calls)
	})

	t.Run("admin crosses tenants", func(t *testing.T) {
		env := newEnv(t, adminClaims())
		token := env.login(t)

		rec := env.do(http.MethodGet, "/api/companies/9/dashboard/sales", token)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestDashboard_MemoizedReads(t *testing.T) {
	env := newEnv(t, adminClaims())
	token := env.login(t)

	rec := env.do(http.MethodGet, "/api/companies/7/dashboard/sales", token)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(http.MethodGet, "/api/companies/7/dashboard/sales", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, env.source.calls)

	// A different widget is a different key.
	rec = env.do(http.MethodGet, "/api/companies/7/dashboard/orders", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, env.source.calls)

	t.Run("source errors are not cached", func(t *testing.T) {
		env.source.err = errors.New("warehouse down")
		rec := env.do(http.MethodGet, "/api/companies/7/dashboard/broken", token)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)

		env.source.err = nil
		rec = env.do(http.MethodGet, "/api/companies/7/dashboard/broken", token)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("tenant invalidation evicts memoized reads", func(t *testing.T) {
		before := env.source.calls
		n, err := env.cache.InvalidateTenant(context.Background(), 7)
		require.NoError(t, err)
		assert.Positive(t, n)

		rec := env.do(http.MethodGet, "/api/companies/7/dashboard/sales", token)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, before+1, env.source.calls)
	})
}

func TestLogout(t *testing.T) {
	env := newEnv(t, analystClaims())
	token := env.login(t)

	rec := env.do(http.MethodPost, "/api/auth/logout", token)
	require.Equal(t, http.StatusOK, rec.Code)

	res := rec.Result()
	defer res.Body.Close()
	var cleared bool
	for _, c := range res.Cookies() {
		if c.Name == "session_id" && c.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared)

	rec = env.do(http.MethodGet, "/api/auth/me", token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Logout of an already-dead session still succeeds.
	rec = env.do(http.MethodPost, "/api/auth/logout", token)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSessionsListAndLogoutAll(t *testing.T) {
	env := newEnv(t, analystClaims())
	tokenA := env.login(t)
	tokenB := env.login(t)
	require.NotEqual(t, tokenA, tokenB)

	rec := env.do(http.MethodGet, "/api/auth/sessions", tokenA)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Sessions []struct {
			ID      string `json:"id"`
			Current bool   `json:"current"`
		} `json:"sessions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Sessions, 2)
	currents := 0
	for _, s := range list.Sessions {
		if s.Current {
			currents++
			assert.Equal(t, tokenA, s.ID)
		}
	}
	assert.Equal(t, 1, currents)

	rec = env.do(http.MethodDelete, "/api/auth/sessions", tokenA)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Invalidated int `json:"invalidated"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Invalidated)

	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodGet, "/api/auth/me", tokenA).Code)
	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodGet, "/api/auth/me", tokenB).Code)
}

func TestAdminCacheInvalidation(t *testing.T) {
	env := newEnv(t, adminClaims())
	token := env.login(t)
	ctx := context.Background()

	require.NoError(t, env.cache.Set(ctx, cache.TenantKey(cache.NSDashboard, 7, "sales"), 1))
	require.NoError(t, env.cache.Set(ctx, cache.TenantKey(cache.NSQuery, 7, "q"), 2))
	require.NoError(t, env.cache.Set(ctx, cache.TenantKey(cache.NSDashboard, 8, "sales"), 3))

	t.Run("by namespace", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/admin/cache/invalidate",
			strings.NewReader(`{"namespace":"dashboard"}`))
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var body struct {
			Deleted int `json:"deleted"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, 2, body.Deleted)
	})

	t.Run("company cache", func(t *testing.T) {
		rec := env.do(http.MethodDelete, "/api/admin/companies/7/cache", token)
		require.Equal(t, http.StatusOK, rec.Code)
		var body struct {
			Deleted int `json:"deleted"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, 1, body.Deleted)
	})

	t.Run("both selectors rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/admin/cache/invalidate",
			strings.NewReader(`{"namespace":"query","pattern":"x*"}`))
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHealthz(t *testing.T) {
	env := newEnv(t, analystClaims())

	rec := env.do(http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	env.mr.Close()
	rec = env.do(http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
