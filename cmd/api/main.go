package main

import (
	"os"

	"go-skillmatrix/internal/app"
	"go-skillmatrix/internal/bootstrap"
	"go-skillmatrix/internal/config"
	"go-skillmatrix/internal/shared/apperror"
	"go-skillmatrix/internal/shared/logger"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	zap.ReplaceGlobals(log)

	apperror.Init()
	gin.SetMode(gin.ReleaseMode)

	// build dependency + routes
	r, cleanup, err := app.BuildApp(cfg, log)
	if err != nil {
		log.Fatal("build app failed", zap.Error(err))
	}

	auditLogger := bootstrap.NewStdoutAuditLogger(log)
	bootstrap.StartHTTPServer(r, cfg.Server, auditLogger, log, cleanup)
}
