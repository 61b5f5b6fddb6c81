// Package server initializes and runs the API process: it connects the
// backing stores, waits for them to come up, applies migrations, and serves
// the public HTTP endpoint until a shutdown signal arrives.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/filevault/internal/logging"
	"github.com/dmitrijs2005/filevault/internal/server/blob"
	"github.com/dmitrijs2005/filevault/internal/server/config"
	"github.com/dmitrijs2005/filevault/internal/server/queue"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/filevault/internal/server/rest"
	"github.com/dmitrijs2005/filevault/internal/server/services"
	"github.com/dmitrijs2005/filevault/internal/server/sessions"
	"github.com/gomodule/redigo/redis"
	"github.com/sethvargo/go-retry"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	repos    *repomanager.PostgresRepositoryManager
	pool     *redis.Pool
	sessions sessions.Store
	server   *rest.Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewJSONLogger().With("app", "server")

	repos, err := repomanager.NewPostgresRepositoryManager(cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	pool := sessions.NewPool(cfg.RedisURL)
	sessStore := sessions.NewRedisStore(pool)

	blobs, err := newBlobStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("blob store init error: %w", err)
	}

	jobs := queue.NewClient(pool, logger, cfg.QueueMaxAttempts, cfg.QueueRetryDelay)

	userService := services.NewUserService(repos.Users(), sessStore, jobs, logger, cfg.SessionTTL)
	fileService := services.NewFileService(repos.Files(), blobs, jobs, logger)
	gate := services.NewAccessGate(sessStore, repos.Files())
	appService := services.NewAppService(repos.Users(), repos.Files(), repos, sessStore)

	handler := rest.NewHandler(userService, fileService, gate, appService, logger)
	server := rest.NewServer(cfg.EndpointAddr, handler, logger)

	return &App{
		config:   cfg,
		logger:   logger,
		repos:    repos,
		pool:     pool,
		sessions: sessStore,
		server:   server,
	}, nil
}

func newBlobStore(ctx context.Context, cfg *config.Config) (blob.Store, error) {
	switch cfg.BlobBackend {
	case config.BlobBackendS3:
		return blob.NewS3Store(ctx, blob.S3Config{
			RootUser:     cfg.S3RootUser,
			RootPassword: cfg.S3RootPassword,
			Bucket:       cfg.S3Bucket,
			Region:       cfg.S3Region,
			BaseEndpoint: cfg.S3BaseEndpoint,
		})
	case config.BlobBackendFS:
		return blob.NewFSStore(cfg.StoragePath), nil
	default:
		return nil, fmt.Errorf("unknown blob backend %q", cfg.BlobBackend)
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// waitForStores pings the database and Redis until both answer, with a
// bounded number of attempts so a misconfigured deployment fails fast
// instead of hanging forever.
func (app *App) waitForStores(ctx context.Context) error {
	backoff := retry.WithMaxRetries(9, retry.NewConstant(time.Second))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := app.repos.Ping(ctx); err != nil {
			app.logger.Warn(ctx, "database not ready", "error", err.Error())
			return retry.RetryableError(err)
		}
		if err := app.sessions.Ping(ctx); err != nil {
			app.logger.Warn(ctx, "redis not ready", "error", err.Error())
			return retry.RetryableError(err)
		}
		return nil
	})
}

func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting app")
	app.initSignalHandler(cancelFunc)

	if err := app.waitForStores(ctx); err != nil {
		return fmt.Errorf("backing stores unavailable: %w", err)
	}
	if err := app.repos.RunMigrations(ctx); err != nil {
		return fmt.Errorf("migrations failed: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.server.Run(ctx)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
		cancelFunc()
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := app.server.Shutdown(shutdownCtx); err != nil {
		app.logger.Error(ctx, "http shutdown failed", "error", err.Error())
	}

	app.close(ctx)
	return runErr
}

func (app *App) close(ctx context.Context) {
	if err := app.repos.Close(); err != nil {
		app.logger.Error(ctx, "db close failed", "error", err.Error())
	}
	if err := app.pool.Close(); err != nil {
		app.logger.Error(ctx, "redis close failed", "error", err.Error())
	}
	app.logger.Info(ctx, "app stopped")
}
