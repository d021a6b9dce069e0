// internal/app/app.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Corphon/CurriculumDesigner/internal/api"
	"github.com/Corphon/CurriculumDesigner/internal/config"
	"github.com/Corphon/CurriculumDesigner/internal/export"
	"github.com/Corphon/CurriculumDesigner/internal/services"
	"github.com/Corphon/CurriculumDesigner/internal/storage"
	"github.com/Corphon/CurriculumDesigner/internal/utils"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	// provider registration
	_ "github.com/Corphon/CurriculumDesigner/internal/llm/providers/anthropic"
	_ "github.com/Corphon/CurriculumDesigner/internal/llm/providers/openrouter"
)

const (
	shutdownTimeout  = 30 * time.Second
	taskCleanupEvery = 10 * time.Minute
	taskRetention    = 30 * time.Minute
)

// App owns every long-lived component of the server, built in dependency
// order.
type App struct {
	Config   *config.Config
	Settings *config.Manager
	Logger   *utils.Logger
	Metrics  *utils.PipelineMetrics

	Store      storage.SnapshotStore
	Locks      *services.LockManager
	Progress   *services.ProgressService
	Sessions   *services.SessionService
	Generation *services.GenerationService
	Curriculum *services.CurriculumService
	Enhance    *services.EnhanceService
	Exports    *services.ExportService

	renderer *export.RodRenderer
}

// New wires the services. A missing API key is not an error: the server
// starts and reports the generation service as not ready.
func New(cfg *config.Config, logger *utils.Logger) (*App, error) {
	if logger == nil {
		logger = utils.GetLogger()
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	settings, err := config.NewManager(cfg)
	if err != nil {
		return nil, fmt.Errorf("load llm settings: %w", err)
	}
	store, err := storage.Open(cfg.StorageDriver, cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", cfg.StorageDriver, err)
	}

	a := &App{
		Config:   cfg,
		Settings: settings,
		Logger:   logger,
		Metrics:  utils.NewPipelineMetrics(utils.NewMetricsCollector(), logger),
		Store:    store,
		Locks:    services.NewLockManager(),
		Progress: services.NewProgressService(),
		renderer: export.NewRodRenderer(cfg.ChromeBin),
	}
	a.Sessions = services.NewSessionService(store, a.Locks, logger)
	a.Generation = services.NewGenerationService(settings.LLM(), a.Metrics, logger)
	a.Curriculum = services.NewCurriculumService(a.Sessions, a.Generation, a.Locks, logger)
	a.Enhance = services.NewEnhanceService(a.Sessions, a.Generation, a.Locks, a.Progress, logger)
	a.Exports = services.NewExportService(a.Sessions, a.renderer, services.ExportOptions{
		Author:         cfg.ExportAuthor,
		PDFConcurrency: cfg.PDFConcurrency,
	}, a.Metrics, logger)

	ready, state := a.Generation.Status()
	logger.Info("services initialized",
		"storage", cfg.StorageDriver,
		"llm_provider", a.Generation.ProviderName(),
		"llm_ready", ready,
		"llm_state", state)
	return a, nil
}

// Router builds the HTTP handler over the wired services.
func (a *App) Router() *gin.Engine {
	handler := api.NewHandler(api.Deps{
		Sessions:   a.Sessions,
		Curriculum: a.Curriculum,
		Enhance:    a.Enhance,
		Exports:    a.Exports,
		Progress:   a.Progress,
		Generation: a.Generation,
		Settings:   a.Settings,
		Metrics:    a.Metrics,
		Logger:     a.Logger,
	})
	return api.SetupRouter(handler, api.RouterOptions{
		Debug:              a.Config.DebugMode,
		RateLimitPerMinute: a.Config.RateLimitPerMinute,
	})
}

// Run serves HTTP until ctx is cancelled, then shuts the server down
// gracefully.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + a.Config.Port,
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.Logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.Logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		a.cleanupTasks(gctx)
		return nil
	})
	return g.Wait()
}

// cleanupTasks drops finished progress trackers periodically.
func (a *App) cleanupTasks(ctx context.Context) {
	ticker := time.NewTicker(taskCleanupEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := a.Progress.CleanupCompletedTasks(taskRetention); n > 0 {
				a.Logger.Debug("progress trackers removed", "count", n)
			}
		}
	}
}

// Close stops background work and releases the store and browser.
// Running change pipelines are interrupted and their changes reset.
func (a *App) Close() error {
	a.Enhance.Close()
	a.Locks.Stop()
	var errs []error
	if err := a.renderer.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close renderer: %w", err))
	}
	if err := a.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}
	a.Logger.Sync()
	return errors.Join(errs...)
}
