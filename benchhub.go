package benchhub

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mfreitag/benchhub/internal/hub"
	"github.com/mfreitag/benchhub/internal/server"
	"github.com/mfreitag/benchhub/internal/store"
)

const (
	defaultPort = 8080
)

// BenchHub is the main orchestrator for the session hub: it owns the
// record store, the event hub, and the HTTP server, and ties their
// lifetimes to one context.
//
// The typical lifecycle is:
//
//	bh, err := benchhub.New(benchhub.WithPort(8080))
//	if err != nil {
//	    slog.Error("failed to create benchhub", "error", err)
//	    os.Exit(1)
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//
//	bh.Start(ctx) // blocks until context cancelled
//
// The caller controls the lifecycle via the context. Cancel the context
// to trigger graceful shutdown. All stored records are volatile and lost
// when Start returns.
type BenchHub struct {
	port           int
	allowedOrigins []string
	sweepInterval  time.Duration
	logger         *slog.Logger
}

// New creates a new [BenchHub] instance with the given options.
//
// All options have defaults: port 8080, no CORS origins, liveness sweep
// disabled, slog.Default() logging. Returns an error if any option is
// invalid.
func New(opts ...Option) (*BenchHub, error) {
	cfg := &bhConfig{
		port: defaultPort,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.port < 1 || cfg.port > 65535 {
		return nil, fmt.Errorf("port must be between 1 and 65535, got %d", cfg.port)
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	return &BenchHub{
		port:           cfg.port,
		allowedOrigins: cfg.allowedOrigins,
		sweepInterval:  cfg.sweepInterval,
		logger:         logger,
	}, nil
}

// Start builds the store, hub, and HTTP server and serves until the
// context is cancelled.
//
// Start is a blocking call. It returns nil on graceful shutdown, or an
// error if the HTTP server fails to start. The in-memory store's
// contents do not survive Start returning.
func (b *BenchHub) Start(ctx context.Context) error {
	b.logger.Info("benchhub starting", "port", b.port)

	if ctx.Err() != nil {
		return nil
	}

	recordStore := store.NewMemoryStore()
	eventHub := hub.New(b.logger)

	// optional liveness sweep; Run returns immediately when disabled
	sweepDone := make(chan struct{})
	go func() {
		defer close(sweepDone)
		eventHub.Run(ctx, b.sweepInterval)
	}()
	if b.sweepInterval > 0 {
		b.logger.Info("liveness sweep enabled", "interval", b.sweepInterval.String())
	}

	httpServer := server.NewServer(recordStore, eventHub, b.port, b.allowedOrigins, b.logger)
	if err := httpServer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	<-ctx.Done()
	<-sweepDone
	b.logger.Info("benchhub stopped")
	return nil
}
