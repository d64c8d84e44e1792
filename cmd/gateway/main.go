package main

import (
	"context"
	"net/http"
	"net/url"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/interviewai/authgate/config"
	"github.com/interviewai/authgate/internal/core/repository"
	"github.com/interviewai/authgate/internal/logging"
	logicv1 "github.com/interviewai/authgate/internal/logic/v1"
	webv1 "github.com/interviewai/authgate/internal/web/v1"
	"github.com/interviewai/authgate/middleware"
)

func main() {
	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		panic("Configuration validation failed: " + err.Error())
	}

	logging.Setup(cfg.Logging.Level, cfg.Service.Env == "development")

	log.Info().
		Str("service", cfg.Service.Name).
		Str("version", cfg.Service.Version).
		Str("env", cfg.Service.Env).
		Str("port", cfg.Service.Port).
		Str("validator", string(cfg.Gate.Strategy)).
		Msg("Service starting")

	// Initialize OpenTelemetry tracing
	var tp interface{ Shutdown(context.Context) error }
	var err error
	if cfg.Tracing.Enabled {
		tp, err = middleware.InitTracing(cfg)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize tracing")
		} else {
			log.Info().
				Str("endpoint", cfg.Tracing.Endpoint).
				Float64("sample_rate", cfg.Tracing.SampleRate).
				Msg("Tracing initialized")
		}
	} else {
		log.Info().Msg("Tracing disabled (TRACING_ENABLED=false)")
	}

	// Initialize Pyroscope profiling
	if cfg.Profiling.Enabled {
		if err := middleware.InitProfiling(cfg); err != nil {
			log.Warn().Err(err).Msg("Failed to initialize profiling")
		} else {
			log.Info().
				Str("endpoint", cfg.Profiling.Endpoint).
				Msg("Profiling initialized")
			defer middleware.StopProfiling()
		}
	} else {
		log.Info().Msg("Profiling disabled (PROFILING_ENABLED=false)")
	}

	// Authorization service client. The client timeout is a ceiling; the
	// remote validator applies its own tighter per-check deadline.
	authority, err := repository.NewHTTPAuthority(cfg.Upstream.AuthorityURL, 5*time.Second)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create authority client")
	}

	// Gate: classifier + validator strategy + decision engine.
	classifier := logicv1.NewClassifier(cfg.Gate.ProtectedPrefixes, cfg.Gate.AuthOnlyPaths)

	var validator logicv1.Validator
	switch cfg.Gate.Strategy {
	case config.StrategyRemote:
		validator = logicv1.NewRemoteValidator(authority, cfg.Gate.RemoteTimeout)
	default:
		validator = logicv1.NewLocalValidator()
	}

	engine := logicv1.NewEngine(classifier, validator, cfg.Gate.LoginPath, cfg.Gate.HomePath)
	gate := webv1.NewGate(engine, webv1.CookieSettings{
		Name:   cfg.Gate.CookieName,
		Domain: cfg.Gate.CookieDomain,
		Secure: cfg.Gate.CookieSecure,
	})

	authorityURL, err := url.Parse(cfg.Upstream.AuthorityURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid authority URL")
	}
	appURL, err := url.Parse(cfg.Upstream.AppURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid app URL")
	}

	r := gin.Default()

	var isShuttingDown atomic.Bool

	// Tracing middleware
	r.Use(middleware.TracingMiddleware(cfg.Service.Name))

	// Logging middleware
	r.Use(middleware.LoggingMiddleware())

	// Prometheus middleware
	r.Use(middleware.PrometheusMiddleware())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Readiness check
	// Returns 503 once shutdown has started, to drain traffic before HTTP shutdown.
	r.GET("/ready", func(c *gin.Context) {
		if isShuttingDown.Load() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "shutting_down"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Metrics endpoint
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API pass-through to the authorization service, with the gateway's
	// /api namespace stripped: the service is addressed at /auth/*. The
	// gate never judges these; API calls re-validate downstream. Auth
	// endpoints are rate limited to slow credential stuffing.
	r.Any("/api/*proxyPath",
		middleware.RateLimit(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
		webv1.NewUpstreamProxy(authorityURL, "/api"),
	)

	// Every page navigation runs the gate before the app upstream sees it.
	appProxy := webv1.NewUpstreamProxy(appURL, "")
	gateChain := gate.Middleware()
	r.NoRoute(func(c *gin.Context) {
		gateChain(c)
		if !c.IsAborted() {
			appProxy(c)
		}
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Service.Port,
		Handler: r,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", cfg.Service.Port).Msg("Starting auth gateway")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// Wait for shutdown signal
	<-ctx.Done()
	log.Info().Msg("Shutdown signal received")

	// Fail readiness first and wait for propagation before stopping HTTP.
	isShuttingDown.Store(true)
	drainDelay := cfg.GetReadinessDrainDelayDuration()
	if drainDelay > 0 {
		log.Info().Dur("delay", drainDelay).Msg("Readiness drain delay started")
		time.Sleep(drainDelay)
		log.Info().Dur("delay", drainDelay).Msg("Readiness drain delay completed")
	}

	// Shutdown context with configurable timeout
	shutdownTimeout := cfg.GetShutdownTimeoutDuration()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	log.Info().Dur("timeout", shutdownTimeout).Msg("Shutting down server...")

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	} else {
		log.Info().Msg("HTTP server shutdown complete")
	}

	if tp != nil {
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Tracer shutdown error")
		} else {
			log.Info().Msg("Tracer shutdown complete")
		}
	}

	log.Info().Msg("Graceful shutdown complete")
}
