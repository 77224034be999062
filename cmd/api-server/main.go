package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/minhlq/uni-registry-api/api/swagger"
	"github.com/minhlq/uni-registry-api/internal/handler"
	"github.com/minhlq/uni-registry-api/internal/middleware"
	"github.com/minhlq/uni-registry-api/internal/models"
	"github.com/minhlq/uni-registry-api/internal/repository"
	"github.com/minhlq/uni-registry-api/internal/service"
	"github.com/minhlq/uni-registry-api/pkg/cache"
	"github.com/minhlq/uni-registry-api/pkg/config"
	"github.com/minhlq/uni-registry-api/pkg/database"
	"github.com/minhlq/uni-registry-api/pkg/logger"
	corsmiddleware "github.com/minhlq/uni-registry-api/pkg/middleware/cors"
	reqidmiddleware "github.com/minhlq/uni-registry-api/pkg/middleware/requestid"
)

// @title Uni Registry API
// @version 1.0.0
// @description Enrollment and class lifecycle service
// @BasePath /
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

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close() //nolint:errcheck

	validate := validator.New()

	enrollmentRepo := repository.NewEnrollmentRepository(db)
	classRepo := repository.NewClassRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	tokenRepo := repository.NewTokenRepository(redisClient)

	eligibilitySvc := service.NewEligibilityService(cfg.Enrollment, nil, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, studentRepo, classRepo, eligibilitySvc, cfg.Enrollment, nil, logr)
	assignmentSvc := service.NewTeacherAssignmentService(classRepo, teacherRepo, scheduleRepo, logr)
	classSvc := service.NewClassService(classRepo, courseRepo, scheduleRepo, studentRepo, assignmentSvc, validate, nil, logr)
	gradeSvc := service.NewGradeService(enrollmentRepo, validate, logr)
	scheduleSvc := service.NewScheduleService(scheduleRepo, studentRepo, teacherRepo, logr)
	authSvc := service.NewAuthService(tokenRepo, cfg.JWT, nil, logr)

	var metricsSvc *service.MetricsService
	if cfg.Metrics.Enabled {
		metricsSvc = service.NewMetricsService()
	}

	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc, metricsSvc)
	classHandler := handler.NewClassHandler(classSvc, assignmentSvc)
	gradeHandler := handler.NewGradeHandler(gradeSvc)
	scheduleHandler := handler.NewScheduleHandler(scheduleSvc)
	authHandler := handler.NewAuthHandler(authSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	if metricsSvc != nil {
		r.Use(middleware.Metrics(metricsSvc))
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
			return
		}
		if err := redisClient.Ping(c.Request.Context()).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "redis": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	if metricsSvc != nil {
		r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))
	}

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(authSvc))

	api.POST("/auth/logout", authHandler.Logout)

	api.POST("/enrollments", middleware.RequireRoles(models.RoleStudent), enrollmentHandler.Enroll)
	api.POST("/enrollments/cancel", middleware.RequireRoles(models.RoleStudent), enrollmentHandler.Cancel)
	api.GET("/enrollments", middleware.RequireRoles(models.RoleManager), enrollmentHandler.List)

	api.GET("/students/me/enrollments", middleware.RequireRoles(models.RoleStudent), enrollmentHandler.ListMine)
	api.GET("/students/me/schedule", middleware.RequireRoles(models.RoleStudent), scheduleHandler.StudentTimetable)
	api.GET("/students/me/available-classes", middleware.RequireRoles(models.RoleStudent), classHandler.Available)

	api.GET("/teachers/me/schedule", middleware.RequireRoles(models.RoleTeacher), scheduleHandler.TeacherTimetable)

	api.GET("/classes", classHandler.List)
	api.GET("/classes/:id", classHandler.Get)
	api.POST("/classes", middleware.RequireRoles(models.RoleManager), classHandler.Create)
	api.PUT("/classes/:id/status", middleware.RequireRoles(models.RoleManager), classHandler.UpdateStatus)
	api.PUT("/classes/:id/teacher", middleware.RequireRoles(models.RoleManager), classHandler.AssignTeacher)

	api.POST("/grades", middleware.RequireRoles(models.RoleTeacher, models.RoleManager), gradeHandler.Finalize)

	api.GET("/admin/enrollment-conflicts", middleware.RequireRoles(models.RoleManager), enrollmentHandler.DepartmentConflicts)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
