package benchhub

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"
)

func TestStart_CancelledContextReturns(t *testing.T) {
	bh, err := New(WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() { done <- bh.Start(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start = %v, want nil on cancelled context", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after context cancellation")
	}
}
