package store

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// defaultSampleLimit caps telemetry query results when the caller does not
// supply a limit.
const defaultSampleLimit = 1000

// MemoryStore is an in-memory implementation of [Store].
//
// All state is process-lifetime only and lost on restart. A single RWMutex
// guards every collection; no operation holds the lock across I/O, so the
// store never blocks on a slow consumer.
//
// Insertion order is tracked explicitly so that timestamp sorts can break
// ties deterministically (stable sort over insertion order).
type MemoryStore struct {
	mu sync.RWMutex

	sessions     map[string]*Session
	sessionOrder []string

	notes     map[string]*Note
	noteOrder []string

	// samples is append-only; slice order is insertion order.
	samples []*Sample

	tasks     map[string]*TranscriptionTask
	taskOrder []string
}

// NewMemoryStore creates an empty in-memory [Store] implementation.
//
// The store is immediately ready for use. No cleanup is required when done.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
		notes:    make(map[string]*Note),
		tasks:    make(map[string]*TranscriptionTask),
	}
}

// newID builds a record id like "sess_3fa4c2d1": a short prefix plus the
// first four bytes of a fresh UUID in hex.
func newID(prefix string) string {
	u := uuid.New()
	return fmt.Sprintf("%s_%x", prefix, u[:4])
}

// utc normalizes a timestamp for storage and comparison. The zero time is
// preserved and sorts before any real timestamp.
func utc(t time.Time) time.Time {
	return t.UTC()
}

// within reports whether t lies inside the inclusive [from, to] bounds.
// Nil bounds are open.
func within(t time.Time, from, to *time.Time) bool {
	if from != nil && t.Before(from.UTC()) {
		return false
	}
	if to != nil && t.After(to.UTC()) {
		return false
	}
	return true
}

// CreateSession allocates a fresh session in the active state.
func (m *MemoryStore) CreateSession(name string, description *string) Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := &Session{
		ID:          newID("sess"),
		Name:        name,
		Description: copyPtr(description),
		Status:      SessionActive,
		StartedAt:   time.Now().UTC(),
	}
	m.sessions[s.ID] = s
	m.sessionOrder = append(m.sessionOrder, s.ID)
	return copySession(s)
}

// Session returns the session with the given id, or [ErrSessionNotFound].
func (m *MemoryStore) Session(id string) (Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return Session{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return copySession(s), nil
}

// Sessions returns all sessions, newest start time first.
func (m *MemoryStore) Sessions() []Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Session, 0, len(m.sessionOrder))
	for _, id := range m.sessionOrder {
		out = append(out, copySession(m.sessions[id]))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out
}

// UpdateSession applies the supplied fields to a session.
//
// Transitioning from active to ended stamps EndedAt; re-sending
// status=ended succeeds but keeps the original stamp. Reopening an ended
// session is rejected with [ErrSessionEnded].
func (m *MemoryStore) UpdateSession(id string, update SessionUpdate) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return Session{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	if update.Status != nil {
		switch {
		case *update.Status == SessionEnded && s.Status != SessionEnded:
			now := time.Now().UTC()
			s.Status = SessionEnded
			s.EndedAt = &now
		case *update.Status == SessionActive && s.Status == SessionEnded:
			return Session{}, fmt.Errorf("%w: %s", ErrSessionEnded, id)
		}
	}
	if update.Name != nil {
		s.Name = *update.Name
	}
	if update.Description != nil {
		s.Description = copyPtr(update.Description)
	}
	return copySession(s), nil
}

// CreateNote stores a new note under the given session.
//
// The caller-supplied event timestamp is taken at face value and
// normalized to UTC; CreatedAt and UpdatedAt are stamped with now.
func (m *MemoryStore) CreateNote(sessionID string, create NoteCreate) (Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[sessionID]; !ok {
		return Note{}, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}

	typ := create.Type
	if typ == "" {
		typ = NoteObservation
	}

	now := time.Now().UTC()
	n := &Note{
		ID:                newID("note"),
		SessionID:         sessionID,
		Timestamp:         utc(create.Timestamp),
		Speaker:           copyPtr(create.Speaker),
		Content:           create.Content,
		Type:              typ,
		Tags:              copyTags(create.Tags),
		TelemetrySnapshot: copySnapshot(create.TelemetrySnapshot),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	m.notes[n.ID] = n
	m.noteOrder = append(m.noteOrder, n.ID)
	return copyNote(n), nil
}

// Notes returns the session's notes matching the filter, ascending by
// event timestamp with insertion order breaking ties.
func (m *MemoryStore) Notes(sessionID string, filter NoteFilter) ([]Note, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.sessions[sessionID]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}

	out := make([]Note, 0)
	for _, id := range m.noteOrder {
		n := m.notes[id]
		if n.SessionID != sessionID {
			continue
		}
		if filter.Speaker != nil && (n.Speaker == nil || *n.Speaker != *filter.Speaker) {
			continue
		}
		if filter.Type != nil && n.Type != *filter.Type {
			continue
		}
		if !within(n.Timestamp, filter.From, filter.To) {
			continue
		}
		out = append(out, copyNote(n))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}

// Note returns one note by id, scoped to the session.
func (m *MemoryStore) Note(sessionID, id string) (Note, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.sessions[sessionID]; !ok {
		return Note{}, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	n, ok := m.notes[id]
	if !ok || n.SessionID != sessionID {
		return Note{}, fmt.Errorf("%w: %s", ErrNoteNotFound, id)
	}
	return copyNote(n), nil
}

// UpdateNote applies the supplied fields and refreshes UpdatedAt.
func (m *MemoryStore) UpdateNote(sessionID, id string, update NoteUpdate) (Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[sessionID]; !ok {
		return Note{}, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	n, ok := m.notes[id]
	if !ok || n.SessionID != sessionID {
		return Note{}, fmt.Errorf("%w: %s", ErrNoteNotFound, id)
	}

	if update.Content != nil {
		n.Content = *update.Content
	}
	if update.Speaker != nil {
		n.Speaker = copyPtr(update.Speaker)
	}
	if update.Type != nil {
		n.Type = *update.Type
	}
	if update.Tags != nil {
		n.Tags = copyTags(*update.Tags)
	}
	n.UpdatedAt = time.Now().UTC()
	return copyNote(n), nil
}

// DeleteNote removes a note, scoped to the session.
func (m *MemoryStore) DeleteNote(sessionID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[sessionID]; !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	n, ok := m.notes[id]
	if !ok || n.SessionID != sessionID {
		return fmt.Errorf("%w: %s", ErrNoteNotFound, id)
	}

	delete(m.notes, id)
	for i, nid := range m.noteOrder {
		if nid == id {
			m.noteOrder = append(m.noteOrder[:i], m.noteOrder[i+1:]...)
			break
		}
	}
	return nil
}

// CreateSample appends one telemetry sample. Appends cannot fail once the
// session check passes.
func (m *MemoryStore) CreateSample(sessionID string, create SampleCreate) (Sample, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[sessionID]; !ok {
		return Sample{}, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	s := m.appendSample(sessionID, create)
	return copySample(s), nil
}

// CreateSamples appends a batch of samples and returns the count created.
// The session existence check runs once up front; after that each sample
// is appended independently.
func (m *MemoryStore) CreateSamples(sessionID string, creates []SampleCreate) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[sessionID]; !ok {
		return 0, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	for _, create := range creates {
		m.appendSample(sessionID, create)
	}
	return len(creates), nil
}

// appendSample must be called with the write lock held.
func (m *MemoryStore) appendSample(sessionID string, create SampleCreate) *Sample {
	s := &Sample{
		ID:        newID("tel"),
		SessionID: sessionID,
		Timestamp: utc(create.Timestamp),
		Channel:   create.Channel,
		Value:     create.Value,
		Unit:      copyPtr(create.Unit),
	}
	m.samples = append(m.samples, s)
	return s
}

// Samples returns the session's samples matching the filter, descending by
// timestamp and truncated to the limit.
func (m *MemoryStore) Samples(sessionID string, filter SampleFilter) ([]Sample, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.sessions[sessionID]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}

	out := make([]Sample, 0)
	for _, s := range m.samples {
		if s.SessionID != sessionID {
			continue
		}
		if filter.Channel != nil && s.Channel != *filter.Channel {
			continue
		}
		if !within(s.Timestamp, filter.From, filter.To) {
			continue
		}
		out = append(out, copySample(s))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultSampleLimit
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// LatestSample returns the maximum-timestamp sample on a channel. An exact
// timestamp tie goes to the most recently inserted sample.
func (m *MemoryStore) LatestSample(sessionID, channel string) (Sample, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.sessions[sessionID]; !ok {
		return Sample{}, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}

	var best *Sample
	for _, s := range m.samples {
		if s.SessionID != sessionID || s.Channel != channel {
			continue
		}
		// >= keeps the later insertion on an exact tie
		if best == nil || !s.Timestamp.Before(best.Timestamp) {
			best = s
		}
	}
	if best == nil {
		return Sample{}, fmt.Errorf("%w: %s", ErrNoSamples, channel)
	}
	return copySample(best), nil
}

// Channels returns the distinct channel names seen in the session,
// lexicographically sorted.
func (m *MemoryStore) Channels(sessionID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.sessions[sessionID]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}

	seen := make(map[string]struct{})
	for _, s := range m.samples {
		if s.SessionID == sessionID {
			seen[s.Channel] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for ch := range seen {
		out = append(out, ch)
	}
	sort.Strings(out)
	return out, nil
}

// CreateTask registers a new transcription task in the pending state.
func (m *MemoryStore) CreateTask(sessionID string, create TaskCreate) (TranscriptionTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[sessionID]; !ok {
		return TranscriptionTask{}, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}

	now := time.Now().UTC()
	t := &TranscriptionTask{
		ID:              newID("stt"),
		SessionID:       sessionID,
		AudioChunkID:    create.AudioChunkID,
		DurationSeconds: copyPtr(create.DurationSeconds),
		Status:          TaskPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	m.tasks[t.ID] = t
	m.taskOrder = append(m.taskOrder, t.ID)
	return copyTask(t), nil
}

// Tasks returns the session's transcription tasks, newest created first.
func (m *MemoryStore) Tasks(sessionID string) ([]TranscriptionTask, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.sessions[sessionID]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}

	out := make([]TranscriptionTask, 0)
	for _, id := range m.taskOrder {
		t := m.tasks[id]
		if t.SessionID == sessionID {
			out = append(out, copyTask(t))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Task returns one transcription task by id, scoped to the session.
func (m *MemoryStore) Task(sessionID, id string) (TranscriptionTask, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.sessions[sessionID]; !ok {
		return TranscriptionTask{}, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	t, ok := m.tasks[id]
	if !ok || t.SessionID != sessionID {
		return TranscriptionTask{}, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	return copyTask(t), nil
}

// UpdateTask applies the task's single terminal transition.
//
// A task that has already reached done or failed rejects further updates
// with [ErrTaskFinished].
func (m *MemoryStore) UpdateTask(sessionID, id string, update TaskUpdate) (TranscriptionTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[sessionID]; !ok {
		return TranscriptionTask{}, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	t, ok := m.tasks[id]
	if !ok || t.SessionID != sessionID {
		return TranscriptionTask{}, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	if t.Status != TaskPending {
		return TranscriptionTask{}, fmt.Errorf("%w: %s", ErrTaskFinished, id)
	}

	t.Status = update.Status
	if update.Transcript != nil {
		t.Transcript = copyPtr(update.Transcript)
	}
	if update.Error != nil {
		t.Error = copyPtr(update.Error)
	}
	t.UpdatedAt = time.Now().UTC()
	return copyTask(t), nil
}

// copy helpers return detached values so callers cannot alias store state.

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	out := make([]string, len(tags))
	copy(out, tags)
	return out
}

func copySnapshot(snapshot map[string]any) map[string]any {
	if snapshot == nil {
		return nil
	}
	out := make(map[string]any, len(snapshot))
	for k, v := range snapshot {
		out[k] = v
	}
	return out
}

func copySession(s *Session) Session {
	out := *s
	out.Description = copyPtr(s.Description)
	out.EndedAt = copyPtr(s.EndedAt)
	return out
}

func copyNote(n *Note) Note {
	out := *n
	out.Speaker = copyPtr(n.Speaker)
	out.Tags = copyTags(n.Tags)
	out.TelemetrySnapshot = copySnapshot(n.TelemetrySnapshot)
	return out
}

func copySample(s *Sample) Sample {
	out := *s
	out.Unit = copyPtr(s.Unit)
	return out
}

func copyTask(t *TranscriptionTask) TranscriptionTask {
	out := *t
	out.DurationSeconds = copyPtr(t.DurationSeconds)
	out.Transcript = copyPtr(t.Transcript)
	out.Error = copyPtr(t.Error)
	return out
}
