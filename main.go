package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/codelens-platform/quality-server-go/pkg/monitoring"
	sharedredis "github.com/codelens-platform/quality-server-go/shared/redis"
	"github.com/codelens-platform/quality-server-go/shared/utils"
	v1 "github.com/codelens-platform/quality-server-go/v1"
	v1handlers "github.com/codelens-platform/quality-server-go/v1/handlers"
	v1middleware "github.com/codelens-platform/quality-server-go/v1/middleware"
	"github.com/codelens-platform/quality-server-go/v1/services"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (optional - fails silently if not found)
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{AddSource: true}))
	slog.SetDefault(logger)

	slog.Info("Starting quality server initialization")

	ctx := context.Background()

	shutdownMetrics, err := monitoring.Setup(ctx, monitoring.Config{ServiceName: "quality-server"})
	if err != nil {
		slog.Error("Failed to set up metrics", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdownMetrics(context.Background()); err != nil {
			slog.Error("Failed to shut down metrics", "error", err)
		}
	}()

	// Initialize GORM database connection
	dbConfig := v1.NewDatabaseConfig()
	gormDB, err := v1.ConnectGormDB(dbConfig)
	if err != nil {
		slog.Error("Failed to connect to GORM database", "error", err)
		os.Exit(1)
	}

	// Build the rule indexer; without a Redis endpoint reindex requests are dropped
	var indexer services.RuleIndexer = services.NoopRuleIndexer{}
	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		redisClient, err := sharedredis.NewClient(&sharedredis.Config{
			Addr:     redisAddr,
			Password: os.Getenv("REDIS_PASSWORD"),
		})
		if err != nil {
			slog.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		indexer = services.NewRedisRuleIndexer(redisClient, os.Getenv("RULE_INDEX_STREAM"))
	} else {
		slog.Warn("REDIS_ADDR not set, rule reindex events are disabled")
	}

	// One-shot startup tasks run before the server starts serving
	debtCleanup := services.NewDebtCleanupTask(gormDB, indexer)
	if err := services.RunStartupTasks(ctx, debtCleanup); err != nil {
		slog.Error("Startup task failed", "error", err)
		os.Exit(1)
	}

	// Mutating routes require a bearer token
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		slog.Error("JWT_SECRET is required")
		os.Exit(1)
	}
	jwtAuth := v1middleware.NewJWTAuthMiddleware(v1middleware.JWTAuthConfig{
		Secret:         jwtSecret,
		ExpectedIssuer: os.Getenv("JWT_ISSUER"),
	})

	v1Handler := v1handlers.NewV1Handler(gormDB, indexer)

	mux := http.NewServeMux()
	v1Handler.SetupV1Routes(mux, jwtAuth.AuthenticateJWT)
	mux.HandleFunc("/health", utils.HealthHandler("quality-server"))
	mux.Handle("/metrics", monitoring.Handler())

	// Middleware chain: CORS -> trace ID -> metrics -> routes
	handler := v1middleware.NewCORSMiddleware()(
		v1middleware.TraceIDMiddleware(
			monitoring.HTTPMetricsMiddleware(mux)))

	server := utils.CreateServer(utils.DefaultServerConfig(), handler)
	if err := utils.StartServerWithGracefulShutdown(server, "quality-server"); err != nil {
		os.Exit(1)
	}

	slog.Info("Quality server exited")
}
