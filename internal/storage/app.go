// Package storage wires the storage engine: configuration, the blob
// backend, the broker validation client, the engine and its TCP server.
package storage

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/dmitrijs2005/gophguard/internal/filex"
	"github.com/dmitrijs2005/gophguard/internal/logging"
	"github.com/dmitrijs2005/gophguard/internal/storage/blobs"
	"github.com/dmitrijs2005/gophguard/internal/storage/config"
	"github.com/dmitrijs2005/gophguard/internal/storage/engine"
	"github.com/dmitrijs2005/gophguard/internal/storage/server"
	"github.com/dmitrijs2005/gophguard/internal/storage/validator"
)

type App struct {
	config *config.Config
	logger logging.Logger
	server *server.Server
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSON(os.Stdout, c.Verbose)

	store, err := openStore(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("blob store init error: %w", err)
	}

	v := validator.New(c.BrokerAddress, c.ValidateTimeout, logger)
	e, err := engine.New(store, v, c.LockDir, logger)
	if err != nil {
		return nil, fmt.Errorf("engine init error: %w", err)
	}

	srv := server.NewServer(c.Address(), e, c.IdleTimeout, logger)
	return &App{config: c, logger: logger, server: srv}, nil
}

func openStore(ctx context.Context, c *config.Config) (blobs.Store, error) {
	switch c.Backend {
	case config.BackendDisk:
		return blobs.NewDiskStore(c.DataDir)
	case config.BackendS3:
		spool, err := filex.EnsureDir(filepath.Join(c.DataDir, "spool"))
		if err != nil {
			return nil, err
		}
		return blobs.NewS3Store(ctx, blobs.S3Options{
			Bucket:       c.S3Bucket,
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
			AccessKey:    c.S3RootUser,
			SecretKey:    c.S3RootPassword,
			SpoolDir:     spool,
		})
	}
	return nil, fmt.Errorf("unknown backend %q", c.Backend)
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves until a termination signal arrives or ctx is done.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting storage...", "backend", app.config.Backend, "broker", app.config.BrokerAddress)

	app.initSignalHandler(cancelFunc)

	return app.server.Run(ctx)
}
