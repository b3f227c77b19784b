// Package cli is the interactive front end of the relay device: the
// operator registers an identity, codes are printed as they arrive, and
// exit unregisters the device again.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/gophguard/internal/common"
	"github.com/dmitrijs2005/gophguard/internal/logging"
	"github.com/dmitrijs2005/gophguard/internal/models"
	"github.com/dmitrijs2005/gophguard/internal/netx"
	"github.com/dmitrijs2005/gophguard/internal/protocol"
	"github.com/dmitrijs2005/gophguard/internal/relay/config"
	"github.com/dmitrijs2005/gophguard/internal/relay/device"
	"github.com/dmitrijs2005/gophguard/internal/relay/registrar"
	"golang.org/x/term"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// Registrar is the broker side of device registration.
type Registrar interface {
	Register(ctx context.Context, uid, secret string, relay models.Endpoint) error
	Unregister(ctx context.Context, uid, secret string) error
}

type App struct {
	config    *config.Config
	logger    logging.Logger
	registrar Registrar
	device    *device.Device
	in        io.Reader

	mu     sync.Mutex
	uid    string
	secret string
}

func NewApp(c *config.Config) *App {
	logger := logging.NewJSON(os.Stderr, c.Verbose)
	return &App{
		config:    c,
		logger:    logger,
		registrar: registrar.New(c.BrokerAddress(), c.Timeout, logger),
		device:    device.NewDevice(c.ListenAddress(), os.Stdout, logger),
		in:        os.Stdin,
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

// Run listens for codes and reads operator commands until exit, EOF or a
// termination signal. A registered identity is unregistered on the way out.
func (a *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	a.initSignalHandler(cancelFunc)

	if err := a.device.Listen(ctx); err != nil {
		return err
	}
	serveErr := make(chan error, 1)
	go func() { serveErr <- a.device.Serve(ctx) }()

	printlnFn("Relay device listening on port", a.device.Port(), "(commands: reg <uid> [password], exit)")

	replDone := make(chan struct{})
	go func() {
		runREPL(ctx, a, bufio.NewScanner(a.in))
		close(replDone)
	}()

	select {
	case <-replDone:
	case <-ctx.Done():
	}

	a.unregister(context.WithoutCancel(ctx))
	cancelFunc()
	return <-serveErr
}

func (a *App) endpoint() models.Endpoint {
	return models.Endpoint{Host: a.config.RelayHost, Port: a.device.Port()}
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

// Register handles "reg uid [password]". Without a password on the command
// line it is read from the terminal without echo.
func (a *App) Register(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		printlnFn("Usage: reg <uid> [password]")
		return common.ErrMalformedRequest
	}

	uid := args[0]
	if !protocol.IsUID(uid) {
		printlnFn("Error: UID must be 5 characters long and consist only of numbers. Try again!")
		return common.ErrMalformedRequest
	}

	var secret string
	if len(args) == 2 {
		secret = args[1]
	} else {
		pw, err := a.getPassword()
		if err != nil {
			printlnFn("Error: could not read password:", err)
			return err
		}
		secret = pw
	}
	if !protocol.IsSecret(secret) {
		printlnFn("Error: Password must be 8 characters long and consist only of alphanumeric characters. Try again!")
		return common.ErrMalformedRequest
	}

	err := a.registrar.Register(ctx, uid, secret, a.endpoint())
	switch {
	case err == nil:
		a.mu.Lock()
		a.uid, a.secret = uid, secret
		a.mu.Unlock()
		a.device.SetUID(uid)
		printlnFn("Registration successful!")
	case errors.Is(err, common.ErrCredentialMismatch):
		printlnFn("Error: Invalid user ID or password. Try again!")
	case errors.Is(err, protocol.ErrServerError):
		printlnFn("Error: Broker rejected the request as malformed.")
	case errors.Is(err, netx.ErrTimeout):
		printlnFn("Error: Broker did not answer. Try again!")
	default:
		printlnFn("Error: Unexpected protocol message. Might not have performed operation:", err)
	}
	return err
}

func (a *App) unregister(ctx context.Context) {
	a.mu.Lock()
	uid, secret := a.uid, a.secret
	a.uid, a.secret = "", ""
	a.mu.Unlock()

	if uid == "" {
		return
	}
	a.device.SetUID("")

	err := a.registrar.Unregister(ctx, uid, secret)
	switch {
	case err == nil:
		printlnFn("Unregistered", uid)
	case errors.Is(err, common.ErrCredentialMismatch):
		printlnFn("Error: Unregister unsuccessful.")
	case errors.Is(err, netx.ErrTimeout):
		printlnFn("Error: Broker did not answer; device may still be registered.")
	default:
		printlnFn("Error: Unexpected protocol message. Might not have performed operation:", err)
	}
}
