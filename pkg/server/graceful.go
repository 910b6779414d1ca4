// Package server runs the HTTP API with signal-driven shutdown and
// configuration reload.
package server

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/dd0wney/cluso-lessongraph/pkg/logging"
	"github.com/gofiber/fiber/v3"
)

// ConfigReloadFunc is a function that reloads configuration
type ConfigReloadFunc func() error

// ShutdownHook runs after the listener stops, before Start returns
type ShutdownHook func(ctx context.Context) error

// GracefulServer wraps a fiber app with graceful shutdown capabilities
type GracefulServer struct {
	app            *fiber.App
	addr           string
	timeout        time.Duration
	logger         logging.Logger
	stopping       atomic.Bool
	shutdownCh     chan struct{}
	shutdownOnce   sync.Once
	shutdownErr    error
	hooks          []ShutdownHook
	configReloadFn ConfigReloadFunc
	configMu       sync.RWMutex
}

// Option configures a GracefulServer
type Option func(*GracefulServer)

// WithLogger sets the server logger
func WithLogger(l logging.Logger) Option {
	return func(gs *GracefulServer) { gs.logger = l }
}

// WithShutdownTimeout bounds connection draining and shutdown hooks
func WithShutdownTimeout(d time.Duration) Option {
	return func(gs *GracefulServer) { gs.timeout = d }
}

// OnShutdown registers a hook run in registration order during shutdown
func OnShutdown(h ShutdownHook) Option {
	return func(gs *GracefulServer) { gs.hooks = append(gs.hooks, h) }
}

// NewGracefulServer creates a new graceful server for app on addr
func NewGracefulServer(addr string, app *fiber.App, opts ...Option) *GracefulServer {
	gs := &GracefulServer{
		app:        app,
		addr:       addr,
		timeout:    30 * time.Second,
		logger:     logging.NewNopLogger(),
		shutdownCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(gs)
	}
	gs.logger = gs.logger.With(logging.Component("server"))
	return gs
}

// Start serves until Shutdown is called or SIGINT/SIGTERM arrives.
// SIGHUP triggers a configuration reload.
func (gs *GracefulServer) Start() error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)
	go gs.handleSignals(sigCh)

	gs.logger.Info("starting HTTP server", logging.String("addr", gs.addr))
	err := gs.app.Listen(gs.addr, fiber.ListenConfig{DisableStartupMessage: true})
	if err != nil && !gs.stopping.Load() {
		return err
	}
	<-gs.shutdownCh
	return gs.shutdownErr
}

// Shutdown initiates a graceful shutdown: the listener drains within
// timeout, then every hook runs with the same deadline.
func (gs *GracefulServer) Shutdown(timeout time.Duration) error {
	gs.shutdownOnce.Do(func() {
		gs.stopping.Store(true)
		gs.logger.Info("initiating graceful shutdown", logging.Duration("timeout", timeout))

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := gs.app.ShutdownWithContext(ctx); err != nil {
			gs.shutdownErr = err
			gs.logger.Error("error during shutdown", logging.Error(err))
		}
		for _, h := range gs.hooks {
			if err := h(ctx); err != nil {
				gs.logger.Error("shutdown hook failed", logging.Error(err))
				if gs.shutdownErr == nil {
					gs.shutdownErr = err
				}
			}
		}
		if gs.shutdownErr == nil {
			gs.logger.Info("server shutdown complete")
		}
		close(gs.shutdownCh)
	})
	<-gs.shutdownCh
	return gs.shutdownErr
}

// handleSignals listens for OS signals until shutdown
func (gs *GracefulServer) handleSignals(sigCh <-chan os.Signal) {
	for {
		select {
		case <-gs.shutdownCh:
			return
		case sig := <-sigCh:
			switch sig {
			case syscall.SIGINT, syscall.SIGTERM:
				gs.logger.Info("received signal, starting graceful shutdown", logging.String("signal", sig.String()))
				_ = gs.Shutdown(gs.timeout)
				return
			case syscall.SIGHUP:
				gs.logger.Info("received SIGHUP, reloading configuration")
				_ = gs.ReloadConfig()
			}
		}
	}
}

// IsShuttingDown returns true if shutdown has been initiated
func (gs *GracefulServer) IsShuttingDown() bool {
	return gs.stopping.Load()
}

// ShutdownChannel returns a channel that closes when shutdown completes
func (gs *GracefulServer) ShutdownChannel() <-chan struct{} {
	return gs.shutdownCh
}

// SetConfigReloadFunc sets the function to call when configuration reload is triggered
func (gs *GracefulServer) SetConfigReloadFunc(fn ConfigReloadFunc) {
	gs.configMu.Lock()
	defer gs.configMu.Unlock()
	gs.configReloadFn = fn
}

// ReloadConfig triggers a configuration reload
func (gs *GracefulServer) ReloadConfig() error {
	gs.configMu.RLock()
	reloadFn := gs.configReloadFn
	gs.configMu.RUnlock()

	if reloadFn == nil {
		gs.logger.Warn("configuration reload requested, but no reload function configured")
		return nil
	}

	if err := reloadFn(); err != nil {
		gs.logger.Error("configuration reload failed", logging.Error(err))
		return err
	}

	gs.logger.Info("configuration reload complete")
	return nil
}
