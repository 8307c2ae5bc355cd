package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Flyns157/API-recommendation/recommend"
	"github.com/Flyns157/API-recommendation/security"
)

type stubEngine struct {
	ids []string
	err error
}

func (s stubEngine) Recommend(ctx context.Context, kind recommend.Kind, userID string, params recommend.Params) ([]string, error) {
	return s.ids, s.err
}

func newTestFacade() (*Facade, *echo.Echo) {
	e := echo.New()
	f := &Facade{
		Engines: EngineSet{
			JA: stubEngine{ids: []string{"u2", "u3"}},
			MC: stubEngine{ids: []string{"p1"}},
			EM: stubEngine{ids: []string{}},
		},
		JWT:    security.NewJWTService("test-secret"),
		NoAuth: true,
		Status: StatusHealthy,
	}
	g := e.Group("")
	f.Register(g)
	return f, e
}

func TestHealthEndpoint(t *testing.T) {
	_, e := newTestFacade()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestRecommendUsersJAEndpoint(t *testing.T) {
	_, e := newTestFacade()
	req := httptest.NewRequest(http.MethodGet, "/recommend/JA/users?user_id=u1&weights=0.4,0.6", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "u2")
}

func TestRecommendMissingUserIDReturns400(t *testing.T) {
	_, e := newTestFacade()
	req := httptest.NewRequest(http.MethodGet, "/recommend/JA/users", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecommendUnknownEngineReturns400(t *testing.T) {
	_, e := newTestFacade()
	req := httptest.NewRequest(http.MethodGet, "/recommend/ZZ/users?user_id=u1", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTokenEndpointIssuesBearerToken(t *testing.T) {
	_, e := newTestFacade()
	req := httptest.NewRequest(http.MethodPost, "/token?user_id=u1", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "access_token")
}

func TestMeWithoutAuthWhenNoAuthStillRequiresNoToken(t *testing.T) {
	_, e := newTestFacade()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	// NoAuth bypasses token checks but no user is set in context, so /me
	// still reports unauthorized absent a prior SetUser call.
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRecommendRequiresScopeWhenAuthEnforced(t *testing.T) {
	e := echo.New()
	jwtSvc := security.NewJWTService("test-secret")
	f := &Facade{
		Engines: EngineSet{JA: stubEngine{ids: []string{"u2"}}},
		JWT:     jwtSvc,
		NoAuth:  false,
	}
	g := e.Group("")
	f.Register(g)

	token, err := jwtSvc.GenerateToken("u1", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/recommend/JA/users?user_id=u1", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	// Token carries no scope claim, so the scope gate rejects it even
	// though the bearer token itself is valid.
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRecommendSucceedsWithScopedToken(t *testing.T) {
	e := echo.New()
	jwtSvc := security.NewJWTService("test-secret")
	f := &Facade{
		Engines: EngineSet{JA: stubEngine{ids: []string{"u2"}}},
		JWT:     jwtSvc,
		NoAuth:  false,
	}
	g := e.Group("")
	f.Register(g)

	token, err := jwtSvc.GenerateTokenWithClaims("u1", time.Hour, map[string]interface{}{
		"scope": recommendScope,
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/recommend/JA/users?user_id=u1", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "u2")
}

func TestProtectedRouteRejectsMissingTokenWhenAuthEnforced(t *testing.T) {
	e := echo.New()
	f := &Facade{
		Engines: EngineSet{JA: stubEngine{}},
		JWT:     security.NewJWTService("test-secret"),
		NoAuth:  false,
	}
	g := e.Group("")
	f.Register(g)

	req := httptest.NewRequest(http.MethodGet, "/recommend/JA/users?user_id=u1", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
