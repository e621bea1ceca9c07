package benchhub

import (
	"fmt"
	"log/slog"
	"time"
)

// bhConfig holds mutable state during BenchHub construction.
type bhConfig struct {
	port           int
	allowedOrigins []string
	sweepInterval  time.Duration
	logger         *slog.Logger
}

// Option is a function that configures a [BenchHub] instance during
// construction.
//
// Option implements the functional options pattern, allowing optional
// configuration to be passed to [New] in a type-safe, extensible way.
// Options return an error if validation fails.
//
// Built-in options: [WithPort], [WithAllowedOrigins], [WithSweepInterval],
// [WithLogger].
type Option func(*bhConfig) error

// WithPort sets the HTTP server port. Defaults to 8080.
func WithPort(port int) Option {
	return func(cfg *bhConfig) error {
		cfg.port = port
		return nil
	}
}

// WithAllowedOrigins sets the CORS allow-list for browser clients.
// Pass "*" to allow any origin. By default no cross-origin requests are
// allowed.
func WithAllowedOrigins(origins ...string) Option {
	return func(cfg *bhConfig) error {
		cfg.allowedOrigins = append(cfg.allowedOrigins, origins...)
		return nil
	}
}

// WithSweepInterval enables the subscriber liveness sweep: at each
// interval every registered connection is pinged and the dead ones are
// pruned. Disabled by default, in which case dead connections are only
// discovered when an event is published to their session.
//
// Returns an error if the interval is negative or shorter than one
// second.
func WithSweepInterval(d time.Duration) Option {
	return func(cfg *bhConfig) error {
		if d < 0 {
			return fmt.Errorf("sweep interval must not be negative, got %s", d)
		}
		if d > 0 && d < time.Second {
			return fmt.Errorf("sweep interval must be at least 1s, got %s", d)
		}
		cfg.sweepInterval = d
		return nil
	}
}

// WithLogger sets the logger used by all components. Defaults to
// slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *bhConfig) error {
		if logger == nil {
			return fmt.Errorf("logger must not be nil")
		}
		cfg.logger = logger
		return nil
	}
}
