// Package store holds all session-scoped records for BenchHub.
//
// This package is internal to BenchHub and manages sessions, notes,
// telemetry samples, and transcription tasks. Every record belongs to
// exactly one session, and every operation validates the owning session
// up front.
//
// The main components are:
//
//   - [Store]: Interface defining all record operations
//   - [MemoryStore]: In-memory implementation of Store
//   - [Session], [Note], [Sample], [TranscriptionTask]: Record types
//
// Partial updates use structs with pointer fields ([SessionUpdate],
// [NoteUpdate], [TaskUpdate]) so that an absent field is never conflated
// with an explicitly supplied value.
//
// The store is deliberately volatile: state lives for the process
// lifetime only. Swapping in a durable backend means implementing [Store]
// and leaves the hub and server untouched.
package store
