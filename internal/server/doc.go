// Package server provides the BenchHub HTTP API and the per-session
// websocket channel.
//
// The REST surface covers sessions, notes, telemetry, and transcription
// tasks; field validation is intentionally thin, just enough to keep
// obviously malformed input out of the store. Mutating handlers publish
// change events through the hub after the store mutation succeeds.
//
// GET /ws/sessions/{sid} upgrades to a websocket bound to one session.
// The channel is send-for-events, receive-for-liveness: the server pushes
// event envelopes and answers an inbound "ping" text frame with "pong";
// no other inbound semantics exist.
package server
