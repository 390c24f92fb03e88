// Package main is the entry point for the MarGO learning hub API server.
//
// MarGO is a Russian-learning companion: lessons with quizzes, a progress
// dashboard with streaks and achievements, and a dictionary lookup proxy.
//
// The layout follows Clean Architecture and DDD:
// - Domain: progress aggregation, achievements, quiz sessions
// - Application: use case orchestration (Commands/Queries)
// - Infrastructure: Postgres record store, Redis mirror, Yandex Dictionary
// - Interface: the REST API
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/margo-hub/margo-learning-hub/config"

	// Application layer
	"github.com/margo-hub/margo-learning-hub/internal/application/command"
	"github.com/margo-hub/margo-learning-hub/internal/application/eventhandler"
	"github.com/margo-hub/margo-learning-hub/internal/application/query"

	// Domain layer
	"github.com/margo-hub/margo-learning-hub/internal/domain/profile"
	"github.com/margo-hub/margo-learning-hub/internal/domain/progress"
	"github.com/margo-hub/margo-learning-hub/internal/domain/quiz"
	"github.com/margo-hub/margo-learning-hub/internal/domain/shared"

	// Infrastructure layer
	"github.com/margo-hub/margo-learning-hub/internal/infrastructure/external/dictionary"
	"github.com/margo-hub/margo-learning-hub/internal/infrastructure/messaging"
	"github.com/margo-hub/margo-learning-hub/internal/infrastructure/persistence/postgres"
	rediscache "github.com/margo-hub/margo-learning-hub/internal/infrastructure/persistence/redis"

	// Interface layer
	httpserver "github.com/margo-hub/margo-learning-hub/internal/interface/http"

	// Packages
	"github.com/margo-hub/margo-learning-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────

	// A missing .env is fine, the environment may be set externally.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	slogger := setupSlog(cfg.Observability)
	appLog := logger.New(logger.Options{
		Output:    os.Stdout,
		Level:     logger.ParseLevel(cfg.Observability.LogLevel),
		AddCaller: cfg.Observability.AddCaller,
	})

	slogger.Info("starting MarGO learning hub",
		"env", string(cfg.App.Environment),
		"version", cfg.App.Version,
		"timezone", cfg.App.Timezone,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. DATABASE (PostgreSQL/Supabase)
	// ─────────────────────────────────────────────────────────────────────────
	if cfg.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	slogger.Info("connecting to database...")
	dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		slogger.Info("closing database connection...")
		dbConn.Close()
	}()

	if err := dbConn.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	slogger.Info("database connection established")

	// ─────────────────────────────────────────────────────────────────────────
	// 4. MIGRATIONS
	// ─────────────────────────────────────────────────────────────────────────
	if cfg.Database.AutoMigrate {
		slogger.Info("running database migrations...")
		migrator := postgres.NewMigrator(dbConn)
		if err := migrator.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}

		status, err := migrator.Status(ctx)
		if err != nil {
			slogger.Warn("failed to get migration status", "error", err)
		} else {
			appliedCount := 0
			for _, m := range status {
				if m.IsApplied {
					appliedCount++
				}
			}
			slogger.Info("migrations completed", "applied", appliedCount, "total", len(status))
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. REDIS MIRROR (optional)
	// ─────────────────────────────────────────────────────────────────────────
	// The mirror keeps the dashboard usable when Supabase reads fail; without
	// Redis the dashboard degrades to live reads only.
	var cache *rediscache.Cache
	var mirror profile.Mirror = noopMirror{}

	if cfg.Redis.Disabled {
		slogger.Info("Redis mirror disabled by configuration")
	} else if !cfg.Features.IsEnabled(config.FeatureDashboardMirror, nil) {
		slogger.Info("Redis mirror disabled by feature flag")
	} else {
		slogger.Info("connecting to Redis...")
		cache, err = connectRedis(cfg.Redis)
		if err != nil {
			slogger.Warn("failed to connect to Redis, mirror disabled", "error", err)
			cache = nil
		} else {
			defer cache.Close()
			mirror = rediscache.NewProfileMirror(cache)
			slogger.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. REPOSITORIES
	// ─────────────────────────────────────────────────────────────────────────
	slogger.Info("initializing repositories...")
	profileRepo := postgres.NewProfileRepository(dbConn)
	progressRepo := postgres.NewProgressRepository(dbConn)
	contentRepo := postgres.NewContentRepository(dbConn)

	// ─────────────────────────────────────────────────────────────────────────
	// 7. EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	slogger.Info("initializing event bus...")
	busConfig := messaging.DefaultConfig()
	busConfig.Logger = slogger
	eventBus := messaging.NewInMemoryEventBus(busConfig)
	defer func() {
		slogger.Info("closing event bus...")
		_ = eventBus.Close()
	}()

	eventBus.Subscribe(
		eventhandler.NewOnAchievementUnlockedHandler(slogger),
		shared.EventTypeAchievementUnlocked,
	)
	eventBus.Subscribe(
		eventhandler.NewOnLessonCompletedHandler(profileRepo, mirror, slogger),
		shared.EventTypeLessonCompleted,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 8. EXTERNAL CLIENTS
	// ─────────────────────────────────────────────────────────────────────────
	slogger.Info("initializing dictionary client...")
	dictConfig := dictionary.DefaultClientConfig(cfg.Dictionary.APIKey)
	dictConfig.BaseURL = cfg.Dictionary.BaseURL
	dictConfig.Timeout = cfg.Dictionary.RequestTimeout
	dictConfig.RateLimiterConfig.RequestsPerSecond = float64(cfg.Dictionary.RateLimit)
	dictConfig.RateLimiterConfig.BurstSize = cfg.Dictionary.RateLimitBurst
	dictConfig.Logger = slogger
	dictClient := dictionary.NewClient(dictConfig)

	// ─────────────────────────────────────────────────────────────────────────
	// 9. APPLICATION LAYER (Commands, Queries)
	// ─────────────────────────────────────────────────────────────────────────
	slogger.Info("initializing application layer...")

	sessions := quiz.NewManager(quiz.DefaultSessionTTL)
	aggregator := progress.NewAggregator(cfg.App.Location)
	recorder := command.NewCompletionRecorder(profileRepo, progressRepo, eventBus, appLog)

	dashboardQuery := query.NewGetDashboardHandler(profileRepo, progressRepo, mirror, aggregator, eventBus, appLog).
		WithCelebrationGate(func(userID string) bool {
			return cfg.Features.IsEnabled(config.FeatureDashboardCelebrations, &config.FeatureContext{UserID: userID})
		})
	lessonQuery := query.NewGetLessonHandler(contentRepo, progressRepo)
	lookupQuery := query.NewLookupWordHandler(dictClient, appLog)

	ensureProfileCmd := command.NewEnsureProfileHandler(profileRepo, mirror, eventBus, appLog)
	saveProfileCmd := command.NewSaveProfileHandler(profileRepo, mirror, eventBus, appLog)
	changePasswordCmd := command.NewChangePasswordHandler(profileRepo, appLog)
	startQuizCmd := command.NewStartQuizHandler(contentRepo, sessions, recorder, appLog)
	selectAnswerCmd := command.NewSelectAnswerHandler(sessions)
	submitQuizCmd := command.NewSubmitQuizHandler(sessions, progressRepo, eventBus, appLog)
	closeQuizCmd := command.NewCloseQuizHandler(sessions, appLog)

	logFeatureFlags(slogger, cfg.Features)

	// ─────────────────────────────────────────────────────────────────────────
	// 10. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	slogger.Info("initializing HTTP server...")

	httpConfig := httpserver.DefaultConfig()
	httpConfig.Host = cfg.HTTP.Host
	httpConfig.Port = cfg.HTTP.Port
	httpConfig.ReadTimeout = cfg.HTTP.ReadTimeout
	httpConfig.WriteTimeout = cfg.HTTP.WriteTimeout
	httpConfig.IdleTimeout = cfg.HTTP.IdleTimeout
	httpConfig.EnableCORS = cfg.HTTP.EnableCORS
	httpConfig.AllowedOrigins = cfg.HTTP.AllowedOrigins
	httpConfig.RateLimitPerMinute = cfg.HTTP.RateLimitPerMinute
	httpConfig.JWTSecret = cfg.HTTP.JWTSecret

	httpDeps := httpserver.Dependencies{
		GetDashboardHandler:   dashboardQuery,
		GetLessonHandler:      lessonQuery,
		LookupWordHandler:     lookupQuery,
		EnsureProfileHandler:  ensureProfileCmd,
		SaveProfileHandler:    saveProfileCmd,
		ChangePasswordHandler: changePasswordCmd,
		StartQuizHandler:      startQuizCmd,
		SelectAnswerHandler:   selectAnswerCmd,
		SubmitQuizHandler:     submitQuizCmd,
		CloseQuizHandler:      closeQuizCmd,
		Logger:                appLog,
		HealthChecker:         &healthChecker{db: dbConn, cache: cache},
	}

	server := httpserver.NewServer(httpConfig, httpDeps)

	// ─────────────────────────────────────────────────────────────────────────
	// 11. START + GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	slogger.Info("MarGO learning hub is running", "http_address", server.Address())
	errCh := server.StartAsync()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		slogger.Info("received shutdown signal", "signal", sig.String())
	case err, ok := <-errCh:
		if ok && err != nil {
			slogger.Error("http server error", "error", err)
			return err
		}
	}

	slogger.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slogger.Error("failed to stop HTTP server gracefully", "error", err)
		return err
	}

	// Event bus, Redis, and the database close via defers.
	slogger.Info("shutdown completed successfully")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// setupSlog configures the slog logger used by infrastructure components.
func setupSlog(cfg config.ObservabilityConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level, AddSource: cfg.AddCaller}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)

	return log
}

// connectRedis builds a cache from whichever form of connection settings is
// configured, preferring the URL.
func connectRedis(cfg config.RedisConfig) (*rediscache.Cache, error) {
	if cfg.URL != "" {
		return rediscache.NewCacheFromURL(cfg.URL)
	}

	rc := rediscache.DefaultConfig()
	if cfg.Host != "" {
		rc.Host = cfg.Host
	}
	if cfg.Port != 0 {
		rc.Port = cfg.Port
	}
	rc.Password = cfg.Password
	rc.DB = cfg.DB
	if cfg.PoolSize > 0 {
		rc.PoolSize = cfg.PoolSize
	}
	if cfg.MinIdleConns > 0 {
		rc.MinIdleConns = cfg.MinIdleConns
	}
	if cfg.DialTimeout > 0 {
		rc.DialTimeout = cfg.DialTimeout
	}
	if cfg.ReadTimeout > 0 {
		rc.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.WriteTimeout > 0 {
		rc.WriteTimeout = cfg.WriteTimeout
	}
	return rediscache.NewCache(rc)
}

// logFeatureFlags logs the enabled feature set at startup.
func logFeatureFlags(log *slog.Logger, flags *config.FeatureFlags) {
	enabled := make([]string, 0)
	for name, f := range flags.GetAllFeatures() {
		if f.Enabled {
			enabled = append(enabled, name)
		}
	}
	log.Info("feature flags loaded", "enabled", enabled)
}

// ══════════════════════════════════════════════════════════════════════════════
// ADAPTERS
// These adapt infrastructure implementations to interface-layer contracts.
// ══════════════════════════════════════════════════════════════════════════════

// healthChecker reports backend health for the /health and /ready probes.
// Postgres is required; the Redis mirror is optional and only degrades the
// dashboard's fallback path when down.
type healthChecker struct {
	db    *postgres.Connection
	cache *rediscache.Cache
}

// Check implements httpserver.HealthChecker.
func (h *healthChecker) Check(ctx context.Context) httpserver.HealthStatus {
	components := make(map[string]string)

	dbOK := true
	if err := h.db.Ping(ctx); err != nil {
		dbOK = false
		components["postgres"] = err.Error()
	} else {
		components["postgres"] = "ok"
	}

	switch {
	case h.cache == nil:
		components["redis"] = "disabled"
	default:
		if err := h.cache.Ping(ctx); err != nil {
			components["redis"] = err.Error()
		} else {
			components["redis"] = "ok"
		}
	}

	status := httpserver.HealthStatus{
		Healthy:    dbOK,
		Ready:      dbOK,
		Components: components,
	}
	if !dbOK {
		status.Message = "database unreachable"
	}
	return status
}

// noopMirror satisfies profile.Mirror when Redis is unavailable: every read
// misses and every write is dropped, so dashboard reads fall through to the
// aggregator's synthesized defaults.
type noopMirror struct{}

func (noopMirror) GetProfile(ctx context.Context, userID shared.UserID) (*profile.Profile, error) {
	return nil, shared.ErrProfileNotFound
}

func (noopMirror) SetProfile(ctx context.Context, p *profile.Profile) error { return nil }

func (noopMirror) GetUnlockedCount(ctx context.Context, userID shared.UserID) (int, bool, error) {
	return 0, false, nil
}

func (noopMirror) SetUnlockedCount(ctx context.Context, userID shared.UserID, count int) error {
	return nil
}

func (noopMirror) GetStreak(ctx context.Context, userID shared.UserID) (int, bool, error) {
	return 0, false, nil
}

func (noopMirror) SetStreak(ctx context.Context, userID shared.UserID, days int) error { return nil }
