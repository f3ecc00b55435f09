package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sahsisunny/xproli-backend/internal/auth"
	"github.com/sahsisunny/xproli-backend/internal/cache"
	"github.com/sahsisunny/xproli-backend/internal/config"
	"github.com/sahsisunny/xproli-backend/internal/database"
	handler "github.com/sahsisunny/xproli-backend/internal/handler/http"
	"github.com/sahsisunny/xproli-backend/internal/preview"
	"github.com/sahsisunny/xproli-backend/internal/repository/postgres"
	"github.com/sahsisunny/xproli-backend/internal/service"
	"github.com/sahsisunny/xproli-backend/internal/tracking"
	"github.com/sahsisunny/xproli-backend/pkg/geoip"
	"github.com/sahsisunny/xproli-backend/pkg/logger"
	"github.com/sahsisunny/xproli-backend/pkg/useragent"

	"go.uber.org/zap"
)

func main() {
	cfg := config.MustLoad()

	log := logger.New(cfg.Env)
	defer log.Sync()

	log.Info("starting xproli backend", zap.String("env", cfg.Env))

	db, err := database.NewConnection(&cfg.Database, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer database.Close(db, log)

	if cfg.Database.AutoMigrate {
		if err := database.AutoMigrate(db, log); err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	storage := postgres.New(db, log)

	var linkCache *cache.LinkCache
	if cfg.Redis.Addr != "" {
		linkCache, err = cache.New(&cfg.Redis, log)
		if err != nil {
			log.Warn("failed to connect to redis, caching disabled", zap.Error(err))
			linkCache = nil
		} else {
			defer linkCache.Close()
		}
	}

	var geoResolver geoip.Resolver = geoip.NoopResolver{}
	if cfg.GeoIP.DBPath != "" {
		maxmind, err := geoip.Open(cfg.GeoIP.DBPath, log)
		if err != nil {
			log.Warn("failed to open geoip database, geo lookups disabled", zap.Error(err))
		} else {
			geoResolver = maxmind
		}
	}
	defer geoResolver.Close()

	uaParser, err := useragent.New(cfg.UserAgent.RegexesPath, log)
	if err != nil {
		log.Fatal("failed to initialize user agent parser", zap.Error(err))
	}

	resolver := tracking.NewResolver(geoResolver, uaParser)
	recorder := tracking.NewRecorder(storage, resolver, log)
	pipeline := tracking.NewPipeline(recorder, log, tracking.PipelineConfig{
		Workers:         cfg.Tracking.Workers,
		BufferSize:      cfg.Tracking.BufferSize,
		ShutdownTimeout: parseDuration(log, "tracking shutdown_timeout", cfg.Tracking.ShutdownTimeout, 30*time.Second),
	})
	if err := pipeline.Start(); err != nil {
		log.Fatal("failed to start click pipeline", zap.Error(err))
	}

	jwtService := auth.NewJWTService(&auth.JWTConfig{
		SecretKey:            []byte(cfg.JWT.Secret),
		AccessTokenDuration:  parseDuration(log, "jwt access_duration", cfg.JWT.AccessDuration, 15*time.Minute),
		RefreshTokenDuration: parseDuration(log, "jwt refresh_duration", cfg.JWT.RefreshDuration, 168*time.Hour),
		Issuer:               cfg.JWT.Issuer,
	})
	passwordService := auth.NewPasswordService()

	previewFetcher := preview.NewFetcher(storage, log)

	linkService := service.NewLinkService(storage, linkCache, previewFetcher, &cfg.Shortener, log)
	redirectService := service.NewRedirectService(storage, linkCache, pipeline, log)
	analyticsService := service.NewAnalyticsService(storage, log)

	handlers := &handler.Handlers{
		Auth:       auth.NewAuthHandlers(storage, jwtService, passwordService, log),
		Middleware: auth.NewMiddleware(jwtService, log),
		Links:      handler.NewLinksHandler(linkService, analyticsService, log, cfg.Shortener.DefaultDomain),
		Clicks:     handler.NewClicksHandler(storage, log),
		Redirect:   handler.NewRedirectHandler(redirectService, log),
		Health:     handler.NewHealthHandler(db, pipeline, log),
	}

	server := handler.NewServer(&cfg.HTTPServer, handlers, log)

	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("HTTP server shutdown failed", zap.Error(err))
	}

	// Drain queued clicks after the listener stops accepting new ones.
	if err := pipeline.Stop(); err != nil {
		log.Error("click pipeline shutdown failed", zap.Error(err))
	}

	log.Info("xproli backend stopped")
}

func parseDuration(log *zap.Logger, name, value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Warn("failed to parse duration, using default",
			zap.String("setting", name), zap.Error(err))
		return fallback
	}
	return d
}
