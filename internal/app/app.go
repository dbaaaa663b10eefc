package app

import (
	"context"
	"net/http"

	"go-skillmatrix/internal/aiplanner"
	"go-skillmatrix/internal/config"
	"go-skillmatrix/internal/database"
	"go-skillmatrix/internal/middleware"
	"go-skillmatrix/internal/shared/connection"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BuildApp connects the infrastructure and returns a router with every
// module registered. cleanup releases the connections it opened.
func BuildApp(cfg *config.Config, logger *zap.Logger) (*gin.Engine, func(), error) {
	log := logger.Named("app.api")
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	gormDB, err := connection.ConnectGORMWithRetry(cfg.Database, logger)
	if err != nil {
		return nil, cleanup, err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, cleanup, err
	}
	closers = append(closers, func() { _ = sqlDB.Close() })
	log.Info("database connection established")

	if cfg.Database.AutoMigrate {
		if err := database.RunMigrations(sqlDB, logger); err != nil {
			cleanup()
			return nil, func() {}, err
		}
	}

	rdb, err := connection.ConnectRedisWithRetry(cfg.Redis, logger)
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}
	closers = append(closers, func() { _ = rdb.Close() })
	log.Info("redis connection established")

	var gen aiplanner.Generator
	if cfg.AI.GeminiAPIKey != "" {
		gemini, err := aiplanner.NewGemini(context.Background(), cfg.AI.GeminiAPIKey, cfg.AI.Model)
		if err != nil {
			cleanup()
			return nil, func() {}, err
		}
		closers = append(closers, func() { _ = gemini.Close() })
		gen = gemini
	} else {
		log.Warn("gemini api key not set, project analysis is disabled")
	}

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID())
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	err = registerModules(router, dependencies{
		cfg:     cfg,
		db:      sqlDB,
		gormDB:  gormDB,
		rdb:     rdb,
		planner: aiplanner.NewPlanner(gen, logger),
		logger:  logger,
	})
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}

	return router, cleanup, nil
}
