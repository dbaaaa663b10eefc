package app

import (
	"database/sql"
	"time"

	"go-skillmatrix/internal/aiplanner"
	"go-skillmatrix/internal/analytics"
	"go-skillmatrix/internal/assignment"
	"go-skillmatrix/internal/auth"
	"go-skillmatrix/internal/config"
	"go-skillmatrix/internal/deliverable"
	"go-skillmatrix/internal/department"
	"go-skillmatrix/internal/employee"
	"go-skillmatrix/internal/messaging/kafka"
	"go-skillmatrix/internal/middleware"
	"go-skillmatrix/internal/project"
	"go-skillmatrix/internal/rbac"
	"go-skillmatrix/internal/rbac/infra"
	"go-skillmatrix/internal/recommendation"
	"go-skillmatrix/internal/shared/lock"
	"go-skillmatrix/internal/skill"
	"go-skillmatrix/internal/skillrating"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	assignmentLockTTL  = 15 * time.Second
	assignmentLockWait = 3 * time.Second
)

type dependencies struct {
	cfg     *config.Config
	db      *sql.DB
	gormDB  *gorm.DB
	rdb     *redis.Client
	planner aiplanner.Planner
	logger  *zap.Logger
}

func registerModules(router *gin.Engine, deps dependencies) error {
	cfg, db, gormDB, rdb, logger := deps.cfg, deps.db, deps.gormDB, deps.rdb, deps.logger

	// --- Repositories ---
	analyticsRepo := analytics.NewRepository(gormDB)
	assignmentRepo := assignment.NewRepository(gormDB)
	authRepo := auth.NewRepository(gormDB)
	deliverableRepo := deliverable.NewRepository(gormDB)
	departmentRepo := department.NewRepository(gormDB)
	employeeRepo := employee.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(db)
	projectRepo := project.NewRepository(gormDB)
	rbacRepo := rbac.NewRepository()
	recommendationRepo := recommendation.NewRepository(gormDB)
	skillRepo := skill.NewRepository(gormDB)
	skillRatingRepo := skillrating.NewRepository(gormDB)

	// --- RBAC Core ---
	enforcer, err := infra.NewEnforcer()
	if err != nil {
		return err
	}
	rbacService, err := rbac.NewService(rbacRepo, enforcer, logger)
	if err != nil {
		return err
	}

	// --- Shared infrastructure ---
	employeeLocker := lock.NewRedis(rdb, "lock:", assignmentLockTTL, assignmentLockWait)
	recommendationCache := recommendation.NewCache(rdb, cfg.Recommendation.CacheTTL, logger)

	// --- Services ---
	analyticsService := analytics.NewService(analyticsRepo, time.Now, logger)
	assignmentService := assignment.NewService(db, assignmentRepo, employeeLocker, outboxRepo, logger)
	authService := auth.NewService(db, authRepo, cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL, logger)
	deliverableService := deliverable.NewService(db, deliverableRepo, outboxRepo, logger)
	departmentService := department.NewService(db, departmentRepo, rdb, logger)
	employeeService := employee.NewService(db, employeeRepo, logger)
	projectService := project.NewService(db, projectRepo, assignmentRepo, deliverableService, deps.planner, outboxRepo, logger)
	recommendationService := recommendation.NewService(recommendationRepo, recommendationCache, logger)
	skillService := skill.NewService(db, skillRepo, rdb, logger)
	skillRatingService := skillrating.NewService(db, skillRatingRepo, outboxRepo, logger)

	// --- Handlers ---
	analyticsHandler := analytics.NewHandler(analyticsService, logger)
	assignmentHandler := assignment.NewHandler(assignmentService, logger)
	authHandler := auth.NewHandler(authService, cfg.Auth.SecureCookie, int(cfg.Auth.AccessTokenTTL.Seconds()), logger)
	deliverableHandler := deliverable.NewHandler(deliverableService, logger)
	departmentHandler := department.NewHandler(departmentService, logger)
	employeeHandler := employee.NewHandler(employeeService, logger)
	projectHandler := project.NewHandler(projectService, logger)
	rbacHandler := rbac.NewHandler(rbacService, logger)
	recommendationHandler := recommendation.NewHandler(recommendationService, cfg.Recommendation.DefaultTopK, logger)
	skillHandler := skill.NewHandler(skillService, logger)
	skillRatingHandler := skillrating.NewHandler(skillRatingService, logger)

	authMiddleware := middleware.AuthMiddleware(cfg.Auth.JWTSecret)

	// --- Routes Registration ---
	api := router.Group("/api/v1")
	{
		auth.RegisterRoutes(api, authHandler, authMiddleware)
		analytics.RegisterRoutes(api, analyticsHandler, rbacService, authMiddleware, logger)
		assignment.RegisterRoutes(api, assignmentHandler, rbacService, authMiddleware, rdb, logger)
		deliverable.RegisterRoutes(api, deliverableHandler, rbacService, authMiddleware, logger)
		department.RegisterRoutes(api, departmentHandler, rbacService, authMiddleware, logger)
		employee.RegisterRoutes(api, employeeHandler, rbacService, authMiddleware, logger)
		project.RegisterRoutes(api, projectHandler, rbacService, authMiddleware, logger)
		recommendation.RegisterRoutes(api, recommendationHandler, rbacService, authMiddleware, logger)
		skill.RegisterRoutes(api, skillHandler, rbacService, authMiddleware, logger)
		skillrating.RegisterRoutes(api, skillRatingHandler, rbacService, authMiddleware, logger)
		rbac.RegisterRoutes(api, rbacHandler, authMiddleware)
	}

	return nil
}
