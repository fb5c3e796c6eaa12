package router

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/octobees/places-agent/internal/auth"
	"github.com/octobees/places-agent/internal/config"
	"github.com/octobees/places-agent/internal/handler"
	"github.com/octobees/places-agent/internal/metrics"
	middlewarepkg "github.com/octobees/places-agent/internal/middleware"
)

// Handlers aggregates HTTP handlers used by the router.
type Handlers struct {
	Search  *handler.SearchHandler
	Metrics *metrics.Collector
}

// Register wires all HTTP routes for the API. A nil jwtManager leaves the search route open.
func Register(e *echo.Echo, cfg *config.Config, jwtManager *auth.JWTManager, handlers Handlers) {
	e.GET("/healthz", func(c echo.Context) error {
		return handler.Success(c, http.StatusOK, "service healthy", map[string]any{"status": "ok"})
	})

	if handlers.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(handlers.Metrics.Handler()))
	}

	e.GET("/tools", handlers.Search.Tools)

	secured := e.Group("/copilotkit")
	secured.Use(middlewarepkg.JWT(jwtManager))
	secured.Use(middlewarepkg.RequireScope(auth.ScopeSearch, jwtManager != nil))

	secured.POST("/search", handlers.Search.Run, middlewarepkg.SearchRateLimiter(cfg.RateLimitSearch))
}
