package main

import (
	"context"
	"fmt"
	"os"
	"time"

	redisclient "github.com/saehim/attendance-backend/internal/clients/redis"
	dataagg "github.com/saehim/attendance-backend/internal/data/aggregates"
	"github.com/saehim/attendance-backend/internal/data/repos"
	"github.com/saehim/attendance-backend/internal/db"
	"github.com/saehim/attendance-backend/internal/handlers"
	"github.com/saehim/attendance-backend/internal/middleware"
	"github.com/saehim/attendance-backend/internal/observability"
	"github.com/saehim/attendance-backend/internal/platform/envutil"
	"github.com/saehim/attendance-backend/internal/platform/logger"
	"github.com/saehim/attendance-backend/internal/server"
	"github.com/saehim/attendance-backend/internal/services"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Env
	port := envutil.String("PORT", "8080")
	metricsAddr := envutil.String("METRICS_ADDR", ":9100")
	seasonAnchor := envutil.Date("SEASON_ANCHOR", time.Date(time.Now().UTC().Year(), 1, 1, 0, 0, 0, 0, time.UTC))

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Warn("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// Metrics
	ctx := context.Background()
	metrics := observability.NewMetrics(log)
	metrics.StartServer(ctx, log, metricsAddr)
	metrics.StartPostgresCollector(ctx, log, thePG)

	// Redis (best effort; the trend report recomputes on a dead cache)
	var reportCache redisclient.ReportCache
	if cache, err := redisclient.NewReportCache(log); err != nil {
		log.Warn("Redis report cache unavailable", "error", err)
	} else {
		reportCache = cache
		metrics.StartRedisCollector(ctx, log, envutil.String("REDIS_ADDR", ""))
	}

	// Repos
	log.Info("Setting up Repos from main...")
	eventRepo := repos.NewAttendanceEventRepo(thePG, log)
	streakRepo := repos.NewStreakAggregateRepo(thePG, log)
	organizationRepo := repos.NewOrganizationRepo(thePG, log)
	memberRepo := repos.NewMemberRepo(thePG, log)
	memberRoleRepo := repos.NewMemberRoleRepo(thePG, log)

	// Aggregates
	streakAggregate := dataagg.NewAttendanceStreakAggregate(dataagg.StreakAggregateDeps{
		Base: dataagg.BaseDeps{
			DB:    thePG,
			Log:   log,
			Hooks: dataagg.NewObservabilityHooks(metrics),
		},
		Events: eventRepo,
		States: streakRepo,
	})

	// Services
	log.Info("Setting up Services from main...")
	orgScopeService := services.NewOrgScopeService(log, organizationRepo)
	continuityService := services.NewContinuityService(log, orgScopeService, eventRepo, memberRoleRepo)
	weeklyRateService := services.NewWeeklyRateService(log, orgScopeService, eventRepo, memberRoleRepo, memberRepo)
	trendService := services.NewTrendService(log, eventRepo, reportCache, seasonAnchor)
	attendanceService := services.NewAttendanceService(log, eventRepo, streakAggregate)

	// Handlers
	reportHandler := handlers.NewReportHandler(continuityService, weeklyRateService, trendService)
	attendanceHandler := handlers.NewAttendanceHandler(attendanceService)
	metricsMiddleware := middleware.NewMetricsMiddleware(metrics)

	// Router
	router := server.NewRouter(server.RouterConfig{
		ReportHandler:     reportHandler,
		AttendanceHandler: attendanceHandler,
		MetricsMiddleware: metricsMiddleware,
	})

	log.Info("Starting server", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Server exited", "error", err)
	}
}
