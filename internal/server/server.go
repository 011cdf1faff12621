package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/inkhouse/inkhouse/internal/config"
	"github.com/inkhouse/inkhouse/internal/handler"
	"github.com/inkhouse/inkhouse/internal/middleware"
	"github.com/inkhouse/inkhouse/internal/models"
	"github.com/inkhouse/inkhouse/internal/ratelimit"
	"github.com/inkhouse/inkhouse/internal/repository"
	"github.com/inkhouse/inkhouse/internal/service"
	"github.com/inkhouse/inkhouse/internal/storage"
)

type Server struct {
	router     *gin.Engine
	config     *config.Config
	redis      *storage.RedisClient
	postgres   *storage.Postgres
	httpServer *http.Server

	apiKeyService *service.APIKeyService
	authService   *service.AuthService
	postService   *service.PostService

	postHandler      *handler.PostHandler
	apiKeyHandler    *handler.APIKeyHandler
	authHandler      *handler.AuthHandler
	analyticsHandler *handler.AnalyticsHandler
}

func New(cfg *config.Config, redis *storage.RedisClient, postgres *storage.Postgres) *Server {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	apiKeyRepo := repository.NewAPIKeyRepository(postgres)
	userRepo := repository.NewUserRepository(postgres)
	postRepo := repository.NewPostRepository(postgres)
	requestLogRepo := repository.NewRequestLogRepository(postgres)

	apiKeyService := service.NewAPIKeyService(apiKeyRepo, cfg.APIKeys)
	authService := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.ExpiryHours)
	postService := service.NewPostService(postRepo)
	analyticsService := service.NewAnalyticsService(requestLogRepo)

	middleware.InitRequestLogger(requestLogRepo, 1000)

	s := &Server{
		router:        router,
		config:        cfg,
		redis:         redis,
		postgres:      postgres,
		apiKeyService: apiKeyService,
		authService:   authService,
		postService:   postService,

		postHandler:      handler.NewPostHandler(postService),
		apiKeyHandler:    handler.NewAPIKeyHandler(apiKeyService),
		authHandler:      handler.NewAuthHandler(authService),
		analyticsHandler: handler.NewAnalyticsHandler(analyticsService),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recovery())
	s.router.Use(middleware.RequestID())
	s.router.Use(middleware.Logger())
	s.router.Use(middleware.CORS())
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthCheck)

	auth := s.router.Group("/auth")
	{
		auth.POST("/register", s.authHandler.Register)
		auth.POST("/login", s.authHandler.Login)
	}

	account := s.router.Group("/account")
	account.Use(middleware.RequireAuth(s.authService))
	{
		account.POST("/keys", s.apiKeyHandler.Create)
		account.GET("/keys", s.apiKeyHandler.List)
		account.DELETE("/keys/:id", s.apiKeyHandler.Revoke)
	}

	admin := s.router.Group("/admin")
	admin.Use(middleware.RequireAuth(s.authService))
	admin.Use(middleware.RequireRole(models.RoleAdmin, models.RoleSuperAdmin))
	{
		admin.GET("/analytics", s.analyticsHandler.GetSummary)
		admin.GET("/analytics/timeseries", s.analyticsHandler.GetTimeSeries)
		admin.GET("/analytics/keys/:id", s.analyticsHandler.GetAPIKeyStats)
		admin.GET("/logs", s.analyticsHandler.GetLogs)
	}

	limiter := ratelimit.NewLimiter(
		s.redis,
		s.config.RateLimit.Algorithm,
		s.config.RateLimit.Limit,
		s.config.RateLimit.Window(),
	)

	// Public API: log -> authenticate -> rate limit -> handle. The
	// limiter counts every authenticated request, including ones that
	// later fail validation.
	v1 := s.router.Group("/v1")
	v1.Use(middleware.RequestLogger())
	v1.Use(middleware.APIKeyAuth(s.apiKeyService))
	v1.Use(middleware.RateLimit(limiter))
	{
		v1.GET("/posts", s.postHandler.List)
		v1.POST("/posts", s.postHandler.Create)
		v1.GET("/posts/:id", s.postHandler.Get)
		v1.PATCH("/posts/:id", s.postHandler.Update)
		v1.DELETE("/posts/:id", s.postHandler.Delete)
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	redisHealthy := true
	if err := s.redis.Ping(c.Request.Context()); err != nil {
		redisHealthy = false
		log.Printf("Redis health check failed: %v", err)
	}

	dbHealthy := true
	if err := s.postgres.Ping(c.Request.Context()); err != nil {
		dbHealthy = false
		log.Printf("Database health check failed: %v", err)
	}

	status := "healthy"
	statusCode := http.StatusOK

	if !redisHealthy || !dbHealthy {
		status = "degraded"
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, gin.H{
		"status":    status,
		"service":   "inkhouse-api",
		"timestamp": time.Now().Unix(),
		"checks": gin.H{
			"redis":    redisHealthy,
			"database": dbHealthy,
		},
	})
}

func (s *Server) Run(addr string) error {
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Printf("Starting Inkhouse API on %s", addr)
	log.Printf("Environment: %s", s.config.Server.Environment)

	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}

	return nil
}

func (s *Server) Router() *gin.Engine {
	return s.router
}
