// Package broker wires the authorization broker: configuration, the
// identity store, the relay client, the broker service and its UDP/TCP
// server.
package broker

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/gophguard/internal/broker/config"
	"github.com/dmitrijs2005/gophguard/internal/broker/relayclient"
	"github.com/dmitrijs2005/gophguard/internal/broker/repositories/identities"
	"github.com/dmitrijs2005/gophguard/internal/broker/server"
	"github.com/dmitrijs2005/gophguard/internal/broker/services"
	"github.com/dmitrijs2005/gophguard/internal/dbx"
	"github.com/dmitrijs2005/gophguard/internal/logging"
)

type App struct {
	config *config.Config
	logger logging.Logger
	repo   identities.Repository
	server *server.Server
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSON(os.Stdout, c.Verbose)

	repo, err := openRepository(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("store init error: %w", err)
	}

	relay := relayclient.New(c.RelayTimeout, logger)
	svc := services.NewBrokerService(repo, relay, c.RelayTimeout, logger)
	srv := server.NewServer(c.Address(), svc, c.SessionIdleTimeout, logger)

	return &App{config: c, logger: logger, repo: repo, server: srv}, nil
}

func openRepository(ctx context.Context, c *config.Config) (identities.Repository, error) {
	switch c.Store {
	case config.StoreFile:
		return identities.NewFileRepository(c.DataDir)
	case config.StoreSQLite:
		return identities.OpenSQL(ctx, dbx.DialectSQLite, c.DatabaseDSN)
	case config.StorePostgres:
		return identities.OpenSQL(ctx, dbx.DialectPostgres, c.DatabaseDSN)
	}
	return nil, fmt.Errorf("unknown store %q", c.Store)
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

	app.logger.Info(ctx, "Starting broker...", "store", app.config.Store)

	app.initSignalHandler(cancelFunc)

	err := app.server.Run(ctx)

	if closer, ok := app.repo.(io.Closer); ok {
		if cerr := closer.Close(); cerr != nil {
			app.logger.Error(ctx, "store close failed", "error", cerr)
		}
	}
	return err
}
