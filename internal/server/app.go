// Package server wires configuration, storage, notification collaborators
// and services together and runs the gRPC endpoint and the release
// scheduler until the process is signalled.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/legacykeeper/internal/logging"
	"github.com/dmitrijs2005/legacykeeper/internal/server/config"
	"github.com/dmitrijs2005/legacykeeper/internal/server/notify"
	"github.com/dmitrijs2005/legacykeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/legacykeeper/internal/server/scheduler"
	"github.com/dmitrijs2005/legacykeeper/internal/server/services"
	"github.com/dmitrijs2005/legacykeeper/internal/server/storage"

	gs "github.com/dmitrijs2005/legacykeeper/internal/server/grpc"
)

type App struct {
	config         *config.Config
	logger         logging.Logger
	db             *sql.DB
	vaultService   *services.VaultService
	releaseService *services.ReleaseService
	unlockService  *services.UnlockService
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.New(os.Stdout, c.LogFormat, c.LogLevel)

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	templates, err := notify.LoadBundle()
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("templates: %w", err)
	}

	store := storage.NewS3Store(storage.S3Config{
		User:         c.S3RootUser,
		Password:     c.S3RootPassword,
		Bucket:       c.S3Bucket,
		Region:       c.S3Region,
		BaseEndpoint: c.S3BaseEndpoint,
	})

	return &App{
		config:         c,
		logger:         logger,
		db:             db,
		vaultService:   services.NewVaultService(db, rm, c, store, logger),
		releaseService: services.NewReleaseService(db, rm, c, notify.NewLogMailer(logger), notify.NewLogShipper(logger), templates, logger),
		unlockService:  services.NewUnlockService(db, rm, c, store, logger),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.vaultService, app.releaseService, app.unlockService)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	if app.config.SchedulerInterval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			scheduler.New(app.releaseService, app.config.SchedulerInterval, app.logger).Start(ctx)
		}()
	}

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
