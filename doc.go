// Package benchhub is a session-scoped data and event hub for hardware
// test benches.
//
// BenchHub stores time-series telemetry, annotated notes, and
// transcription-task records keyed by a test session, and fans change
// events out to live websocket subscribers in real time. Storage is
// in-memory and process-lifetime only; event delivery is fire-and-forget
// (subscribers not connected at publish time never receive the event).
//
// Run it as a library:
//
//	bh, err := benchhub.New(
//	    benchhub.WithPort(8080),
//	    benchhub.WithAllowedOrigins("http://localhost:5173"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//	bh.Start(ctx)
//
// or as a standalone binary with YAML configuration via the benchhub
// command (see cmd/benchhub).
package benchhub
