package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/assessiq/backend/internal/assessments"
	"github.com/assessiq/backend/internal/auth"
	"github.com/assessiq/backend/internal/cache"
	"github.com/assessiq/backend/internal/config"
	"github.com/assessiq/backend/internal/database"
	"github.com/assessiq/backend/internal/logging"
	"github.com/assessiq/backend/internal/middleware"
	"github.com/assessiq/backend/internal/models"
	"github.com/assessiq/backend/internal/narrative"
	"github.com/assessiq/backend/internal/results"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger, logCloser := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	defer logCloser.Close()

	fatal := func(msg string, err error) {
		logger.Error(msg, "error", err)
		logCloser.Close()
		os.Exit(1)
	}

	// Database
	db, err := database.Connect(cfg.DB.DSN())
	if err != nil {
		fatal("failed to connect to database", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		fatal("failed to run migrations", err)
	}
	if v, dirty, err := database.Version(db); err == nil {
		logger.Info("database ready", "schema_version", v, "dirty", dirty)
	}

	// Assessment definitions
	registry, err := assessments.Load()
	if err != nil {
		fatal("failed to load assessment definitions", err)
	}
	logger.Info("assessments loaded", "types", registry.Types())

	// Cache
	var resultCache cache.ResultCache = cache.Noop{}
	if cfg.RedisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		rdb, err := cache.Connect(ctx, cfg.RedisURL)
		cancel()
		if err != nil {
			fatal("failed to connect to redis", err)
		}
		defer rdb.Close()
		resultCache = cache.NewResultCache(rdb, cfg.CacheTTL)
		logger.Info("redis cache enabled", "ttl", cfg.CacheTTL.String())
	} else {
		logger.Info("REDIS_URL not set, caching disabled")
	}

	narrator := narrative.New(narrative.Config{
		Mode:    cfg.Narrative.Mode,
		Model:   cfg.Narrative.Model,
		APIKey:  cfg.Narrative.APIKey,
		CLIPath: cfg.Narrative.CLIPath,
	}, logger)

	// Services and handlers
	tokens := auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL)
	authHandler := auth.NewHandler(auth.NewStore(db), tokens, logger)

	resultService := results.NewService(registry, results.NewStore(db), resultCache, narrator, cfg.Narrative.Timeout, logger)
	resultHandler := results.NewHandler(resultService, logger)

	limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	limiter.TrustProxy = cfg.RateLimit.TrustProxy

	// Setup router
	r := mux.NewRouter()
	r.Use(middleware.RequestLogger(logger))
	api := r.PathPrefix("/api/v1").Subrouter()

	// Public routes, limited per IP
	public := api.PathPrefix("").Subrouter()
	public.Use(limiter.Middleware)
	public.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	public.HandleFunc("/auth/login", authHandler.Login).Methods("POST")

	// Protected routes, limited per user
	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth(tokens), limiter.Middleware)
	protected.HandleFunc("/auth/me", authHandler.GetCurrentUser).Methods("GET")
	protected.HandleFunc("/assessments", resultHandler.ListAssessments).Methods("GET")
	protected.HandleFunc("/assessments/{type}/score", resultHandler.Preview).Methods("POST")
	protected.HandleFunc("/results", resultHandler.ListResults).Methods("GET")
	protected.HandleFunc("/results/{id}", resultHandler.GetResult).Methods("GET")

	candidates := protected.PathPrefix("").Subrouter()
	candidates.Use(middleware.RequireRole(models.RoleCandidate))
	candidates.HandleFunc("/assessments/{type}/submit", resultHandler.Submit).Methods("POST")

	employers := protected.PathPrefix("").Subrouter()
	employers.Use(middleware.RequireRole(models.RoleEmployer))
	employers.HandleFunc("/analytics/{type}", resultHandler.Analytics).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := db.PingContext(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"degraded"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           c.Handler(r),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Port, "env", cfg.Env, "narrative", narrator.ModelName())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal("server failed", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	logger.Info("server exited")
}
