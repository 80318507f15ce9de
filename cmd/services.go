package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/xvierd/speaking-eye/internal/adapters/filestore"
	"github.com/xvierd/speaking-eye/internal/adapters/storage"
	"github.com/xvierd/speaking-eye/internal/config"
	"github.com/xvierd/speaking-eye/internal/domain"
	"github.com/xvierd/speaking-eye/internal/logging"
	"github.com/xvierd/speaking-eye/internal/ports"
	"github.com/xvierd/speaking-eye/internal/services"
)

// appDeps groups all service-layer dependencies initialized at startup.
type appDeps struct {
	config  *config.Config
	logger  *logging.Logger
	files   *filestore.FilesProvider
	reader  *filestore.Reader
	matcher *domain.ApplicationInfoMatcher
	storage ports.Storage
	reports *services.ReportService
	index   *services.IndexService
}

// app holds all initialized service dependencies.
// Populated by initializeServices() and accessible to all commands.
var app appDeps

// initializeServices sets up all the required services and adapters.
func initializeServices() error {
	var err error
	if configPath != "" {
		app.config, err = config.LoadFrom(configPath)
	} else {
		app.config, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	app.logger = logging.Default()
	app.logger.SetDebug(debugMode || app.config.Debug)

	dataDir := app.config.Storage.DataDir
	if err := os.MkdirAll(dataDir, 0750); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	app.files, err = filestore.NewFilesProvider(dataDir, app.config.Storage.FileMask)
	if err != nil {
		return err
	}

	app.matcher, err = app.config.Matcher()
	if err != nil {
		return err
	}

	app.reader = filestore.NewReader(app.files, app.matcher, app.logger)
	app.reports = services.NewReportService(app.reader, app.matcher)

	if app.config.Storage.Index {
		app.storage, err = storage.New(config.GetDBPath(app.config))
		if err != nil {
			return fmt.Errorf("failed to initialize storage: %w", err)
		}
		app.reports.SetRepository(app.storage.Activities())
		app.index = services.NewIndexService(app.reader, app.storage.Activities(), app.matcher, app.logger)
	}

	return nil
}

// cleanupServices closes all resources.
func cleanupServices() error {
	if app.storage != nil {
		err := app.storage.Close()
		app.storage = nil
		return err
	}
	return nil
}

// setupSignalHandler sets up a context that cancels on interrupt signals.
func setupSignalHandler() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		cancel()
	}()

	return ctx
}
