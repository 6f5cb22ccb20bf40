package api

import (
	"net/http"

	"alcyxob/jogging-api/internal/metrics"
	"alcyxob/jogging-api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	metricsManager *metrics.Manager,
	metricsRegistry *prometheus.Registry,
	authService service.AuthService,
	userService service.UserService,
	sessionService service.SessionService,
	reportService service.ReportService,
) {
	authHandler := NewAuthHandler(authService)
	userHandler := NewUserHandler(userService)
	sessionHandler := NewSessionHandler(sessionService, userService)
	reportHandler := NewReportHandler(reportService)

	authMiddleware := AuthMiddleware(jwtSecret)
	optionalAuthMiddleware := OptionalAuthMiddleware(jwtSecret)

	router.Use(metrics.RequestMetrics(metricsManager))

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metricsRegistry, promhttp.HandlerOpts{})))

	apiV1 := router.Group("/api/v1")

	apiV1.POST("/auth/login", authHandler.Login)

	// User creation runs behind optional auth: anonymous callers may sign
	// up as joggers, everything else is decided by the access policy.
	apiV1.POST("/users", optionalAuthMiddleware, userHandler.CreateUser)

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/users", userHandler.ListUsers)
		protected.GET("/users/:id", userHandler.GetUser)
		protected.PUT("/users/:id", userHandler.UpdateUser)
		protected.DELETE("/users/:id", userHandler.DeleteUser)

		protected.GET("/sessions", sessionHandler.ListSessions)
		protected.POST("/sessions", sessionHandler.CreateSession)
		protected.GET("/sessions/:id", sessionHandler.GetSession)
		protected.PUT("/sessions/:id", sessionHandler.UpdateSession)
		protected.DELETE("/sessions/:id", sessionHandler.DeleteSession)

		protected.GET("/report", reportHandler.GetReport)
		protected.POST("/report/export", reportHandler.ExportReport)
	}
}
