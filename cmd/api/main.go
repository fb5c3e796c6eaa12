package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/octobees/places-agent/internal/auth"
	"github.com/octobees/places-agent/internal/config"
	"github.com/octobees/places-agent/internal/emitter"
	"github.com/octobees/places-agent/internal/handler"
	"github.com/octobees/places-agent/internal/logger"
	"github.com/octobees/places-agent/internal/metrics"
	middlewarepkg "github.com/octobees/places-agent/internal/middleware"
	"github.com/octobees/places-agent/internal/places"
	"github.com/octobees/places-agent/internal/router"
	"github.com/octobees/places-agent/internal/service"
)

func main() {
	issueToken := flag.String("issue-token", "", "print a search-scoped service token for the given subject and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	var jwtManager *auth.JWTManager
	if cfg.JWTSecret != "" {
		jwtManager = auth.NewJWTManager(cfg.JWTSecret, 0)
	}

	if *issueToken != "" {
		if jwtManager == nil {
			log.Fatal("JWT_SECRET must be set to issue tokens")
		}
		token, err := jwtManager.GenerateToken(*issueToken, auth.ScopeSearch)
		if err != nil {
			log.Fatalf("failed to issue token: %v", err)
		}
		fmt.Println(token)
		return
	}

	zl, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zl.Sync() //nolint:errcheck

	httpClient := &http.Client{Timeout: cfg.PlacesTimeout}
	factory, err := places.NewFactory(cfg.PlacesProvider, httpClient, cfg.PlacesBaseURL)
	if err != nil {
		zl.Fatal("invalid places provider", zap.Error(err))
	}
	accessor := places.NewAccessor(places.CredentialEnv, factory)

	collector := metrics.NewCollector()
	searchService := service.NewSearchService(accessor, zl.Named("search"), collector, cfg.PlacesTimeout)

	var progress emitter.Emitter
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			zl.Fatal("invalid REDIS_URL", zap.Error(err))
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			zl.Warn("redis unreachable, progress will still be streamed over http", zap.Error(err))
		}
		cancel()
		progress = emitter.NewRedisPublisher(rdb, cfg.ProgressChannel)
	}

	searchHandler := handler.NewSearchHandler(searchService, progress, zl.Named("http"))

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middlewarepkg.RequestID())
	e.Use(middlewarepkg.Logging(zl.Named("access")))
	e.Use(echoMiddleware.Recover())

	router.Register(e, cfg, jwtManager, router.Handlers{
		Search:  searchHandler,
		Metrics: collector,
	})

	serverErr := make(chan error, 1)
	go func() {
		zl.Info("listening", zap.String("port", cfg.Port), zap.String("provider", cfg.PlacesProvider))
		serverErr <- e.Start(":" + cfg.Port)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		zl.Info("received signal, shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("server error", zap.Error(err))
		}
		return
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		zl.Error("graceful shutdown failed", zap.Error(err))
	}
}
