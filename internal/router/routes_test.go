package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/octobees/places-agent/internal/auth"
	"github.com/octobees/places-agent/internal/config"
	"github.com/octobees/places-agent/internal/emitter"
	"github.com/octobees/places-agent/internal/entity"
	"github.com/octobees/places-agent/internal/handler"
	"github.com/octobees/places-agent/internal/metrics"
)

type runnerStub struct{ calls int }

func (r *runnerStub) Run(ctx context.Context, state *entity.AgentState, emit emitter.Emitter) (*entity.AgentState, error) {
	r.calls++
	return state, nil
}

func newTestServer(t *testing.T, jwtManager *auth.JWTManager, rl config.RateLimitConfig) (*echo.Echo, *runnerStub) {
	t.Helper()
	runner := &runnerStub{}
	e := echo.New()
	Register(e, &config.Config{RateLimitSearch: rl}, jwtManager, Handlers{
		Search:  handler.NewSearchHandler(runner, nil, nil),
		Metrics: metrics.NewCollector(),
	})
	return e, runner
}

func serve(e *echo.Echo, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRegister_PublicRoutes(t *testing.T) {
	e, _ := newTestServer(t, nil, config.RateLimitConfig{})

	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/healthz", "", "").Code)
	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/tools", "", "").Code)

	rec := serve(e, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRegister_SearchWithoutAuth(t *testing.T) {
	e, runner := newTestServer(t, nil, config.RateLimitConfig{})

	rec := serve(e, http.MethodPost, "/copilotkit/search", `{"messages":[]}`, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, runner.calls)
}

func TestRegister_SearchRequiresToken(t *testing.T) {
	manager := auth.NewJWTManager("secret", 0)
	e, runner := newTestServer(t, manager, config.RateLimitConfig{})

	assert.Equal(t, http.StatusUnauthorized, serve(e, http.MethodPost, "/copilotkit/search", `{}`, "").Code)

	wrongScope, err := manager.GenerateToken("runtime", "places:read")
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, serve(e, http.MethodPost, "/copilotkit/search", `{}`, wrongScope).Code)

	token, err := manager.GenerateToken("runtime", auth.ScopeSearch)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, serve(e, http.MethodPost, "/copilotkit/search", `{}`, token).Code)
	assert.Equal(t, 1, runner.calls)
}

func TestRegister_SearchRateLimited(t *testing.T) {
	e, runner := newTestServer(t, nil, config.RateLimitConfig{Requests: 1, Interval: 1 << 62})

	assert.Equal(t, http.StatusOK, serve(e, http.MethodPost, "/copilotkit/search", `{}`, "").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(e, http.MethodPost, "/copilotkit/search", `{}`, "").Code)
	assert.Equal(t, 1, runner.calls)
}
