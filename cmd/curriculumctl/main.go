// cmd/curriculumctl/main.go
package main

import (
	"fmt"
	"os"

	"github.com/Corphon/CurriculumDesigner/internal/config"
	"github.com/Corphon/CurriculumDesigner/internal/services"
	"github.com/Corphon/CurriculumDesigner/internal/storage"
	"github.com/Corphon/CurriculumDesigner/internal/utils"
	"github.com/spf13/cobra"
)

// options are the persistent flags shared by every command.
type options struct {
	dataDir string
	driver  string
	verbose bool
}

// env is what a command runs against. close releases the store.
type env struct {
	store    storage.SnapshotStore
	locks    *services.LockManager
	sessions *services.SessionService
	logger   *utils.Logger
}

func (e *env) close() {
	e.locks.Stop()
	e.store.Close()
}

func (o *options) open() (*env, error) {
	logger := utils.NewNopLogger()
	if o.verbose {
		l, err := utils.NewLogger(true, "")
		if err != nil {
			return nil, err
		}
		logger = l
	}
	store, err := storage.Open(o.driver, o.dataDir)
	if err != nil {
		return nil, fmt.Errorf("open %s storage in %s: %w", o.driver, o.dataDir, err)
	}
	locks := services.NewLockManager()
	return &env{
		store:    store,
		locks:    locks,
		sessions: services.NewSessionService(store, locks, logger),
		logger:   logger,
	}, nil
}

func newRootCmd() *cobra.Command {
	opts := &options{dataDir: "data", driver: config.StorageFile}
	if cfg, err := config.Load(); err == nil {
		opts.dataDir = cfg.DataDir
		opts.driver = cfg.StorageDriver
	}

	root := &cobra.Command{
		Use:           "curriculumctl",
		Short:         "Inspect, migrate and export stored curriculum sessions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.dataDir, "data-dir", opts.dataDir, "data directory (DATA_DIR)")
	root.PersistentFlags().StringVar(&opts.driver, "driver", opts.driver, "storage driver: file or sqlite (STORAGE_DRIVER)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log to stderr")

	root.AddCommand(
		newListCmd(opts),
		newImportCmd(opts),
		newDumpCmd(opts),
		newMigrateCmd(opts),
		newExportCmd(opts),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
