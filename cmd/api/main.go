package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/classhub/classhub-api/api/swagger"
	"github.com/classhub/classhub-api/internal/handler"
	"github.com/classhub/classhub-api/internal/middleware"
	"github.com/classhub/classhub-api/internal/models"
	"github.com/classhub/classhub-api/internal/repository"
	"github.com/classhub/classhub-api/internal/service"
	"github.com/classhub/classhub-api/pkg/cache"
	"github.com/classhub/classhub-api/pkg/config"
	"github.com/classhub/classhub-api/pkg/database"
	"github.com/classhub/classhub-api/pkg/logger"
	"github.com/classhub/classhub-api/pkg/mailer"
	corsmiddleware "github.com/classhub/classhub-api/pkg/middleware/cors"
	reqidmiddleware "github.com/classhub/classhub-api/pkg/middleware/requestid"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
)

// @title ClassHub API
// @version 1.0.0
// @description Assignment, submission and evaluation management for a coding class
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	// Redis is optional: without it the API serves every request from the
	// database and the progress cache stays disabled.
	var redisClient *redis.Client
	if cfg.Progress.CacheEnabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, caching disabled", zap.Error(err))
			redisClient = nil
		}
	}
	if redisClient != nil {
		defer redisClient.Close() //nolint:errcheck
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	consultationRepo := repository.NewConsultationRepository(db)
	surveyRepo := repository.NewSurveyRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Progress.CacheTTL, logr, cfg.Progress.CacheEnabled && redisClient != nil)

	var mail service.Mailer
	if cfg.Mail.Enabled {
		mail = mailer.NewSendgrid(cfg.Mail)
	} else {
		mail = mailer.NewConsole(logr)
	}

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "classhub-api",
		Audience:           []string{"classhub"},
	})
	userSvc := service.NewUserService(userRepo, validate, logr)
	progressSvc := service.NewProgressService(userRepo, assignmentRepo, submissionRepo, cacheSvc, metricsSvc, cfg.Progress.CacheTTL, logr)
	assignmentSvc := service.NewAssignmentService(assignmentRepo, cacheSvc, validate, logr)
	submissionSvc := service.NewSubmissionService(submissionRepo, assignmentRepo, userRepo, progressSvc, mail, validate, logr)
	evaluationSvc := service.NewEvaluationService(userRepo, assignmentRepo, submissionRepo, userRepo, progressSvc, logr)
	exportSvc := service.NewExportService(evaluationSvc, nil, nil, logr)
	consultationSvc := service.NewConsultationService(consultationRepo, userRepo, validate, logr)
	surveySvc := service.NewSurveyService(surveyRepo, validate, logr)

	handlers := routeHandlers{
		auth:         handler.NewAuthHandler(authSvc),
		users:        handler.NewUserHandler(userSvc),
		assignments:  handler.NewAssignmentHandler(assignmentSvc),
		submissions:  handler.NewSubmissionHandler(submissionSvc),
		progress:     handler.NewProgressHandler(progressSvc),
		evaluations:  handler.NewEvaluationHandler(evaluationSvc, exportSvc),
		consultation: handler.NewConsultationHandler(consultationSvc),
		surveys:      handler.NewSurveyHandler(surveySvc),
		metrics:      handler.NewMetricsHandler(metricsSvc),
	}

	router := setupRouter(cfg, logr, authSvc, metricsSvc, handlers)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := router.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

type routeHandlers struct {
	auth         *handler.AuthHandler
	users        *handler.UserHandler
	assignments  *handler.AssignmentHandler
	submissions  *handler.SubmissionHandler
	progress     *handler.ProgressHandler
	evaluations  *handler.EvaluationHandler
	consultation *handler.ConsultationHandler
	surveys      *handler.SurveyHandler
	metrics      *handler.MetricsHandler
}

func setupRouter(cfg *config.Config, logr *zap.Logger, authSvc *service.AuthService, metricsSvc *service.MetricsService, h routeHandlers) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", h.metrics.Health)
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", h.metrics.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/register", h.auth.Register)
		auth.POST("/login", h.auth.Login)
		auth.POST("/refresh", h.auth.Refresh)
	}

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))
	{
		authed.POST("/auth/logout", h.auth.Logout)
		authed.POST("/auth/change-password", h.auth.ChangePassword)
		authed.GET("/auth/me", h.auth.Me)

		authed.GET("/assignments", h.assignments.List)
		authed.GET("/assignments/today", h.assignments.ListToday)
		authed.GET("/assignments/:id", h.assignments.Get)

		authed.POST("/submissions", h.submissions.Submit)
		authed.GET("/submissions/me", h.submissions.ListMine)

		authed.GET("/progress", h.progress.Matrix)

		authed.GET("/surveys", h.surveys.List)
		authed.GET("/surveys/:id", h.surveys.Get)
		authed.POST("/surveys/:id/responses", h.surveys.Respond)
	}

	users := api.Group("/users")
	users.Use(middleware.JWT(authSvc))
	{
		users.GET("", middleware.RequireRoles(models.RoleAdmin), h.users.List)
		users.GET("/roster", middleware.RequireRoles(models.RoleAdmin), h.users.Roster)
		users.POST("", middleware.RequireRoles(models.RoleAdmin), h.users.Create)
		users.GET("/:id", middleware.RBAC("ADMIN", "SELF"), h.users.Get)
		users.PUT("/:id", middleware.RequireRoles(models.RoleAdmin), h.users.Update)
		users.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), h.users.Delete)
	}

	admin := api.Group("")
	admin.Use(middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin))
	{
		admin.POST("/assignments", h.assignments.Create)
		admin.PUT("/assignments/:id", h.assignments.Update)
		admin.DELETE("/assignments/:id", h.assignments.Delete)

		admin.GET("/submissions/:userId/:assignmentId", h.submissions.Get)

		admin.GET("/evaluations", h.evaluations.Sheet)
		admin.PATCH("/evaluations/:userId/:assignmentId", h.evaluations.UpdateStatus)
		admin.GET("/evaluations/export", h.evaluations.Export)

		admin.GET("/consultations", h.consultation.Overview)
		admin.GET("/consultations/students/:studentId", h.consultation.ListByStudent)
		admin.POST("/consultations", h.consultation.Create)
		admin.PUT("/consultations/:id", h.consultation.Update)
		admin.DELETE("/consultations/:id", h.consultation.Delete)

		admin.POST("/surveys", h.surveys.Create)
		admin.DELETE("/surveys/:id", h.surveys.Delete)

		admin.GET("/metrics/snapshot", h.metrics.Snapshot)
	}

	return r
}
