package benchhub

import (
	"io"
	"log/slog"
	"testing"
	"time"
)

func TestNew_Defaults(t *testing.T) {
	bh, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if bh.port != 8080 {
		t.Errorf("port = %v, want 8080", bh.port)
	}
	if bh.sweepInterval != 0 {
		t.Errorf("sweepInterval = %v, want disabled", bh.sweepInterval)
	}
	if bh.logger == nil {
		t.Error("logger is nil, want slog.Default fallback")
	}
}

func TestNew_WithOptions(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bh, err := New(
		WithPort(9090),
		WithAllowedOrigins("http://localhost:5173", "http://localhost:3000"),
		WithSweepInterval(30*time.Second),
		WithLogger(logger),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if bh.port != 9090 {
		t.Errorf("port = %v, want 9090", bh.port)
	}
	if len(bh.allowedOrigins) != 2 {
		t.Errorf("allowedOrigins = %v, want 2 entries", bh.allowedOrigins)
	}
	if bh.sweepInterval != 30*time.Second {
		t.Errorf("sweepInterval = %v, want 30s", bh.sweepInterval)
	}
	if bh.logger != logger {
		t.Error("logger not applied")
	}
}

func TestNew_InvalidPort(t *testing.T) {
	for _, port := range []int{-1, 0, 70000} {
		if _, err := New(WithPort(port)); err == nil {
			t.Errorf("New(WithPort(%d)) = nil error, want invalid port", port)
		}
	}
}

func TestWithSweepInterval_Validation(t *testing.T) {
	if _, err := New(WithSweepInterval(-time.Second)); err == nil {
		t.Error("negative interval accepted")
	}
	if _, err := New(WithSweepInterval(100 * time.Millisecond)); err == nil {
		t.Error("sub-second interval accepted")
	}
	if _, err := New(WithSweepInterval(0)); err != nil {
		t.Errorf("zero interval (disabled) rejected: %v", err)
	}
}

func TestWithLogger_Nil(t *testing.T) {
	if _, err := New(WithLogger(nil)); err == nil {
		t.Error("nil logger accepted")
	}
}

func TestWithAllowedOrigins_Accumulates(t *testing.T) {
	bh, err := New(
		WithAllowedOrigins("http://a.example"),
		WithAllowedOrigins("http://b.example"),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if len(bh.allowedOrigins) != 2 {
		t.Errorf("allowedOrigins = %v, want both calls merged", bh.allowedOrigins)
	}
}
