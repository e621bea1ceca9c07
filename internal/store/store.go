package store

import (
	"errors"
	"time"
)

// SessionStatus is the lifecycle state of a [Session].
type SessionStatus string

const (
	// SessionActive indicates the session is running and accepting records.
	SessionActive SessionStatus = "active"

	// SessionEnded indicates the session has been closed. EndedAt is set
	// exactly once, on the transition from active to ended.
	SessionEnded SessionStatus = "ended"
)

// NoteType classifies the origin of a [Note].
type NoteType string

const (
	// NoteObservation is a free-form observation (the default).
	NoteObservation NoteType = "observation"

	// NoteCommand records a command issued to the unit under test.
	NoteCommand NoteType = "command"

	// NoteSystem is a machine-generated annotation.
	NoteSystem NoteType = "system"
)

// TaskStatus is the lifecycle state of a [TranscriptionTask].
//
// Tasks are created pending and transition exactly once to done or failed.
// Updates after a terminal state are rejected with [ErrTaskFinished].
type TaskStatus string

const (
	TaskPending TaskStatus = "pending"
	TaskDone    TaskStatus = "done"
	TaskFailed  TaskStatus = "failed"
)

// Sentinel errors returned by [Store] implementations. Callers branch with
// errors.Is; not-found conditions map to HTTP 404 at the API layer,
// conflicts to 409.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrNoteNotFound    = errors.New("note not found")
	ErrTaskNotFound    = errors.New("transcription task not found")
	ErrNoSamples       = errors.New("no telemetry samples for channel")
	ErrTaskFinished    = errors.New("transcription task already finished")
	ErrSessionEnded    = errors.New("session already ended")
)

// Session is a bounded test run that scopes all notes, telemetry, and
// transcription tasks. Sessions are never deleted.
type Session struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description *string       `json:"description"`
	Status      SessionStatus `json:"status"`
	StartedAt   time.Time     `json:"started_at"`

	// EndedAt is non-nil iff Status is [SessionEnded]. Once set it is
	// never cleared or re-stamped.
	EndedAt *time.Time `json:"ended_at"`
}

// Note is a timestamped annotation owned by exactly one session.
//
// Timestamp is the moment the annotated event occurred, supplied by the
// caller; CreatedAt/UpdatedAt are record bookkeeping stamped by the store.
type Note struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Timestamp time.Time `json:"timestamp"`
	Speaker   *string   `json:"speaker"`
	Content   string    `json:"content"`
	Type      NoteType  `json:"type"`

	// Tags preserves caller order and permits duplicates.
	Tags []string `json:"tags"`

	// TelemetrySnapshot is an arbitrary key/value capture attached at
	// creation time, e.g. the channel readings the note refers to.
	TelemetrySnapshot map[string]any `json:"telemetry_snapshot"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Sample is one timestamped numeric channel reading. Samples are
// append-only: never updated or deleted.
type Sample struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Timestamp time.Time `json:"timestamp"`
	Channel   string    `json:"channel"`
	Value     float64   `json:"value"`
	Unit      *string   `json:"unit"`
}

// TranscriptionTask tracks one unit of speech-to-text work on an audio
// chunk, from pending through a single terminal transition.
type TranscriptionTask struct {
	ID              string     `json:"id"`
	SessionID       string     `json:"session_id"`
	AudioChunkID    string     `json:"audio_chunk_id"`
	DurationSeconds *float64   `json:"duration_seconds"`
	Status          TaskStatus `json:"status"`
	Transcript      *string    `json:"transcript"`
	Error           *string    `json:"error"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// NoteCreate holds the caller-supplied fields for a new note.
type NoteCreate struct {
	Timestamp         time.Time      `json:"timestamp"`
	Speaker           *string        `json:"speaker"`
	Content           string         `json:"content"`
	Type              NoteType       `json:"type"`
	Tags              []string       `json:"tags"`
	TelemetrySnapshot map[string]any `json:"telemetry_snapshot"`
}

// SampleCreate holds the caller-supplied fields for a new telemetry sample.
type SampleCreate struct {
	Timestamp time.Time `json:"timestamp"`
	Channel   string    `json:"channel"`
	Value     float64   `json:"value"`
	Unit      *string   `json:"unit"`
}

// TaskCreate holds the caller-supplied fields for a new transcription task.
type TaskCreate struct {
	AudioChunkID    string   `json:"audio_chunk_id"`
	DurationSeconds *float64 `json:"duration_seconds"`
}

// SessionUpdate is a partial update for a session. A nil field means "not
// supplied, leave unchanged"; this is distinct from an explicit value.
type SessionUpdate struct {
	Name        *string        `json:"name"`
	Description *string        `json:"description"`
	Status      *SessionStatus `json:"status"`
}

// NoteUpdate is a partial update for a note. Nil fields are left unchanged.
type NoteUpdate struct {
	Content *string   `json:"content"`
	Speaker *string   `json:"speaker"`
	Type    *NoteType `json:"type"`
	Tags    *[]string `json:"tags"`
}

// TaskUpdate carries the single terminal transition of a transcription
// task. Status is required; Transcript and Error are applied when supplied.
type TaskUpdate struct {
	Status     TaskStatus `json:"status"`
	Transcript *string    `json:"transcript"`
	Error      *string    `json:"error"`
}

// NoteFilter narrows [Store.Notes] results. Conditions are conjunctive;
// From/To bounds are inclusive and compared against the note's event
// timestamp.
type NoteFilter struct {
	Speaker *string
	Type    *NoteType
	From    *time.Time
	To      *time.Time
}

// SampleFilter narrows [Store.Samples] results. Limit truncates the
// (descending) result; zero or negative means the default of 1000.
type SampleFilter struct {
	Channel *string
	From    *time.Time
	To      *time.Time
	Limit   int
}

// Store is the authoritative holder of all session-scoped records.
//
// Every record-bearing operation validates that the owning session exists
// and fails with [ErrSessionNotFound] otherwise. Implementations must be
// safe for concurrent use; the in-memory implementation is [MemoryStore],
// and a durable backend can be substituted behind this interface without
// touching the hub or server.
type Store interface {
	CreateSession(name string, description *string) Session
	Session(id string) (Session, error)
	Sessions() []Session
	UpdateSession(id string, update SessionUpdate) (Session, error)

	CreateNote(sessionID string, create NoteCreate) (Note, error)
	Notes(sessionID string, filter NoteFilter) ([]Note, error)
	Note(sessionID, id string) (Note, error)
	UpdateNote(sessionID, id string, update NoteUpdate) (Note, error)
	DeleteNote(sessionID, id string) error

	CreateSample(sessionID string, create SampleCreate) (Sample, error)
	CreateSamples(sessionID string, creates []SampleCreate) (int, error)
	Samples(sessionID string, filter SampleFilter) ([]Sample, error)
	LatestSample(sessionID, channel string) (Sample, error)
	Channels(sessionID string) ([]string, error)

	CreateTask(sessionID string, create TaskCreate) (TranscriptionTask, error)
	Tasks(sessionID string) ([]TranscriptionTask, error)
	Task(sessionID, id string) (TranscriptionTask, error)
	UpdateTask(sessionID, id string, update TaskUpdate) (TranscriptionTask, error)
}
