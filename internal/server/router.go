package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/saehim/attendance-backend/internal/handlers"
	"github.com/saehim/attendance-backend/internal/middleware"
)

type RouterConfig struct {
	ReportHandler     *handlers.ReportHandler
	AttendanceHandler *handlers.AttendanceHandler
	MetricsMiddleware *middleware.MetricsMiddleware
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	// Cors
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5174",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))
	if cfg.MetricsMiddleware != nil {
		router.Use(cfg.MetricsMiddleware.Track())
	}

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	{
		// Attendance
		api.POST("/attendance", cfg.AttendanceHandler.Record)
		// Reports
		api.GET("/reports/continuity", cfg.ReportHandler.GetContinuousMembers)
		api.GET("/reports/weekly", cfg.ReportHandler.GetWeeklyAggregation)
		api.GET("/reports/trend", cfg.ReportHandler.GetTrend)
	}

	return router
}
