// Package worker initializes and runs the background process: it waits for
// the backing stores, then consumes the thumbnail and welcome queues until a
// shutdown signal arrives.
package worker

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/filevault/internal/logging"
	"github.com/dmitrijs2005/filevault/internal/server/blob"
	"github.com/dmitrijs2005/filevault/internal/server/config"
	"github.com/dmitrijs2005/filevault/internal/server/queue"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/filevault/internal/server/sessions"
	"github.com/gomodule/redigo/redis"
	"github.com/sethvargo/go-retry"
)

type App struct {
	config     *config.Config
	logger     logging.Logger
	repos      *repomanager.PostgresRepositoryManager
	pool       *redis.Pool
	cache      sessions.Store
	jobs       *queue.Client
	thumbnails *ThumbnailPipeline
	welcome    *WelcomeHandler
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewJSONLogger().With("app", "worker")

	repos, err := repomanager.NewPostgresRepositoryManager(cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	pool := sessions.NewPool(cfg.RedisURL)

	var blobs blob.Store
	switch cfg.BlobBackend {
	case config.BlobBackendS3:
		blobs, err = blob.NewS3Store(ctx, blob.S3Config{
			RootUser:     cfg.S3RootUser,
			RootPassword: cfg.S3RootPassword,
			Bucket:       cfg.S3Bucket,
			Region:       cfg.S3Region,
			BaseEndpoint: cfg.S3BaseEndpoint,
		})
		if err != nil {
			return nil, fmt.Errorf("blob store init error: %w", err)
		}
	case config.BlobBackendFS:
		blobs = blob.NewFSStore(cfg.StoragePath)
	default:
		return nil, fmt.Errorf("unknown blob backend %q", cfg.BlobBackend)
	}

	return &App{
		config:     cfg,
		logger:     logger,
		repos:      repos,
		pool:       pool,
		cache:      sessions.NewRedisStore(pool),
		jobs:       queue.NewClient(pool, logger, cfg.QueueMaxAttempts, cfg.QueueRetryDelay),
		thumbnails: NewThumbnailPipeline(repos.Files(), blobs, logger),
		welcome:    NewWelcomeHandler(repos.Users(), logger),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) waitForStores(ctx context.Context) error {
	backoff := retry.WithMaxRetries(9, retry.NewConstant(time.Second))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := app.repos.Ping(ctx); err != nil {
			app.logger.Warn(ctx, "database not ready", "error", err.Error())
			return retry.RetryableError(err)
		}
		if err := app.cache.Ping(ctx); err != nil {
			app.logger.Warn(ctx, "redis not ready", "error", err.Error())
			return retry.RetryableError(err)
		}
		return nil
	})
}

// Run consumes both queues until the context is cancelled or a signal
// arrives. The thumbnail queue gets the configured pool size; welcome jobs
// are rare and get a single consumer.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting worker")
	app.initSignalHandler(cancelFunc)

	if err := app.waitForStores(ctx); err != nil {
		return fmt.Errorf("backing stores unavailable: %w", err)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		app.jobs.Consume(ctx, queue.Thumbnails, app.config.WorkerConcurrency, app.thumbnails.Handle)
	}()
	go func() {
		defer wg.Done()
		app.jobs.Consume(ctx, queue.Welcome, 1, app.welcome.Handle)
	}()
	wg.Wait()

	app.close(ctx)
	return nil
}

func (app *App) close(ctx context.Context) {
	if err := app.repos.Close(); err != nil {
		app.logger.Error(ctx, "db close failed", "error", err.Error())
	}
	if err := app.pool.Close(); err != nil {
		app.logger.Error(ctx, "redis close failed", "error", err.Error())
	}
	app.logger.Info(ctx, "worker stopped")
}
