// cmd/server/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/Corphon/CurriculumDesigner/internal/app"
	"github.com/Corphon/CurriculumDesigner/internal/config"
	"github.com/Corphon/CurriculumDesigner/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("prepare directories: %v", err)
	}

	logger, err := utils.InitLogger(cfg.DebugMode, filepath.Join(cfg.LogDir, "server.log"))
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Fatal("start application", "error", err)
	}
	defer func() {
		if err := application.Close(); err != nil {
			logger.Error("shutdown", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("curriculum designer starting", "port", cfg.Port, "data_dir", cfg.DataDir)
	if err := application.Run(ctx); err != nil {
		logger.Error("server stopped", "error", err)
		return
	}
	logger.Info("server stopped")
}
