// Package cli is the interactive user front end: log in to the broker,
// request an operation, confirm it with the code delivered to the relay
// device, then run it against the storage engine.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/gophguard/internal/client/client"
	"github.com/dmitrijs2005/gophguard/internal/client/config"
	"github.com/dmitrijs2005/gophguard/internal/common"
	"github.com/dmitrijs2005/gophguard/internal/logging"
	"github.com/dmitrijs2005/gophguard/internal/models"
	"github.com/dmitrijs2005/gophguard/internal/protocol"
	"golang.org/x/term"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// Broker is the session with the authorization broker.
type Broker interface {
	Login(ctx context.Context, req protocol.LoginRequest) (string, error)
	Request(ctx context.Context, req protocol.OperationRequest) (string, error)
	Authenticate(ctx context.Context, req protocol.AuthenticateRequest) (string, error)
	Close() error
}

// Storage runs authorized operations on the storage engine.
type Storage interface {
	List(ctx context.Context, uid, tid string) ([]models.StoredFile, string, error)
	Retrieve(ctx context.Context, uid, tid, name string, w io.Writer) (string, int64, error)
	Upload(ctx context.Context, uid, tid, name string, src io.Reader, size int64) (string, error)
	Delete(ctx context.Context, uid, tid, name string) (string, error)
	Remove(ctx context.Context, uid, tid string) (string, error)
}

// App keeps the user's session state between commands. It is driven by a
// single REPL goroutine.
type App struct {
	config  *config.Config
	logger  logging.Logger
	broker  Broker
	storage Storage
	in      io.Reader

	uid      string
	loggedIn bool
	// rid identifies the last accepted request, tid its confirmed
	// transaction.
	rid string
	tid string
}

func NewApp(c *config.Config) *App {
	return &App{
		config:  c,
		logger:  logging.NewJSON(os.Stderr, c.Verbose).With("module", "user"),
		broker:  client.NewBrokerSession(c.BrokerAddress(), c.Timeout),
		storage: client.NewStorageClient(c.StorageAddress(), c.Timeout),
		in:      os.Stdin,
	}
}

func (a *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run reads commands until exit, EOF or a termination signal, then closes
// the broker session.
func (a *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	a.initSignalHandler(cancelFunc)

	printlnFn("gophguard user client (commands: login, req, val, list|l, retrieve|r, upload|u, delete|d, remove|x, exit)")

	replDone := make(chan struct{})
	go func() {
		runREPL(ctx, a, bufio.NewScanner(a.in))
		close(replDone)
	}()

	select {
	case <-replDone:
	case <-ctx.Done():
	}

	return a.broker.Close()
}

func (a *App) getPassword() (string, error) {
	fmt.Print("Enter password: ")
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(pw)
	return string(pw), nil
}

// logout forgets the session state after the broker dropped it.
func (a *App) logout() {
	a.loggedIn = false
	a.rid, a.tid = "", ""
}

// brokerFailed reports a broker exchange that produced no status.
func (a *App) brokerFailed(ctx context.Context, cmd string, err error) {
	a.logger.Debug(ctx, "broker exchange failed", "command", cmd, "error", err)
	if endsSession(err) {
		a.logout()
	}
	printlnFn(errorMessage(err))
}

// transaction returns the validated transaction the storage commands run
// under, printing a hint when there is none.
func (a *App) transaction() (uid, tid string, ok bool) {
	if a.uid == "" || a.tid == "" {
		printlnFn("Error: No validated transaction. Use req and val first.")
		return "", "", false
	}
	return a.uid, a.tid, true
}
