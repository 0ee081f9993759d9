package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vk/seedvault/internal/ctxlog"
	"github.com/vk/seedvault/internal/engine"
	"github.com/vk/seedvault/internal/progress"
	"github.com/vk/seedvault/internal/storage"
)

const s3Prefix = "s3://"

// Run executes the configured command against the database and destination.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.", "command", a.config.Command)

	pool, err := pgxpool.New(ctx, a.config.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()
	a.logger.Debug("Database pool created.")

	dest, err := a.destination()
	if err != nil {
		return err
	}

	eng, err := engine.New(a.model, a.registry, a.converter, pool, dest, engine.Options{
		Concurrency: a.config.Concurrency,
		NoUpdate:    a.config.NoUpdate,
		Sink:        a.sink(),
	})
	if err != nil {
		return err
	}

	switch a.config.Command {
	case CommandExport:
		return eng.Export(ctx)
	case CommandImport:
		return eng.Import(ctx)
	}
	return fmt.Errorf("unknown command %q", a.config.Command)
}

// destination builds the snapshot destination from its locator: an s3://
// bucket, or a local directory.
func (a *App) destination() (storage.Destination, error) {
	locator := a.config.Destination
	if bucket, ok := strings.CutPrefix(locator, s3Prefix); ok {
		a.logger.Debug("Using S3 destination.", "bucket", bucket)
		return storage.NewS3(storage.S3Config{
			Endpoint:  a.config.S3.Endpoint,
			Region:    a.config.S3.Region,
			AccessKey: a.config.S3.AccessKey,
			SecretKey: a.config.S3.SecretKey,
			UseSSL:    a.config.S3.UseSSL,
			Bucket:    bucket,
		})
	}
	a.logger.Debug("Using local destination.", "dir", locator)
	return storage.NewLocal(locator)
}

func (a *App) sink() progress.Sink {
	switch a.config.Progress {
	case "log":
		return progress.NewSlog(a.logger)
	case "none":
		return progress.Noop{}
	default:
		return progress.NewConsole(a.outW)
	}
}
