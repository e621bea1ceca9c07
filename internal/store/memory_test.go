package store

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"
)

func strPtr(s string) *string { return &s }

func typePtr(t NoteType) *NoteType { return &t }

func timePtr(t time.Time) *time.Time { return &t }

func statusPtr(s SessionStatus) *SessionStatus { return &s }

func TestNewMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	if s == nil {
		t.Fatal("NewMemoryStore() = nil")
	}

	// should start empty
	if len(s.Sessions()) != 0 {
		t.Errorf("Sessions() = %v items, want 0", len(s.Sessions()))
	}
}

func TestCreateSession(t *testing.T) {
	s := NewMemoryStore()

	session := s.CreateSession("Rover Test", strPtr("dyno run"))

	if !strings.HasPrefix(session.ID, "sess_") {
		t.Errorf("session ID = %q, want sess_ prefix", session.ID)
	}
	if session.Name != "Rover Test" {
		t.Errorf("Name = %q, want %q", session.Name, "Rover Test")
	}
	if session.Description == nil || *session.Description != "dyno run" {
		t.Errorf("Description = %v, want dyno run", session.Description)
	}
	if session.Status != SessionActive {
		t.Errorf("Status = %q, want %q", session.Status, SessionActive)
	}
	if session.EndedAt != nil {
		t.Errorf("EndedAt = %v, want nil", session.EndedAt)
	}
	if session.StartedAt.IsZero() {
		t.Error("StartedAt is zero")
	}
	if session.StartedAt.Location() != time.UTC {
		t.Errorf("StartedAt location = %v, want UTC", session.StartedAt.Location())
	}
}

func TestSessions_NewestFirst(t *testing.T) {
	s := NewMemoryStore()

	first := s.CreateSession("first", nil)
	time.Sleep(2 * time.Millisecond)
	second := s.CreateSession("second", nil)
	time.Sleep(2 * time.Millisecond)
	third := s.CreateSession("third", nil)

	sessions := s.Sessions()
	if len(sessions) != 3 {
		t.Fatalf("Sessions() = %v items, want 3", len(sessions))
	}
	want := []string{third.ID, second.ID, first.ID}
	for i, session := range sessions {
		if session.ID != want[i] {
			t.Errorf("Sessions()[%d].ID = %q, want %q", i, session.ID, want[i])
		}
	}
}

func TestSession_NotFound(t *testing.T) {
	s := NewMemoryStore()

	_, err := s.Session("sess_missing")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Session() error = %v, want ErrSessionNotFound", err)
	}
}

func TestUpdateSession_PartialFields(t *testing.T) {
	s := NewMemoryStore()
	session := s.CreateSession("before", strPtr("desc"))

	updated, err := s.UpdateSession(session.ID, SessionUpdate{Name: strPtr("after")})
	if err != nil {
		t.Fatalf("UpdateSession() error = %v", err)
	}

	if updated.Name != "after" {
		t.Errorf("Name = %q, want %q", updated.Name, "after")
	}
	// description was not supplied, must be unchanged
	if updated.Description == nil || *updated.Description != "desc" {
		t.Errorf("Description = %v, want desc", updated.Description)
	}
	if updated.Status != SessionActive {
		t.Errorf("Status = %q, want %q", updated.Status, SessionActive)
	}
}

func TestUpdateSession_End(t *testing.T) {
	s := NewMemoryStore()
	session := s.CreateSession("run", nil)

	ended, err := s.UpdateSession(session.ID, SessionUpdate{Status: statusPtr(SessionEnded)})
	if err != nil {
		t.Fatalf("UpdateSession() error = %v", err)
	}

	if ended.Status != SessionEnded {
		t.Errorf("Status = %q, want %q", ended.Status, SessionEnded)
	}
	if ended.EndedAt == nil {
		t.Fatal("EndedAt = nil after ending")
	}
	if ended.EndedAt.Before(ended.StartedAt) {
		t.Errorf("EndedAt %v before StartedAt %v", ended.EndedAt, ended.StartedAt)
	}
}

func TestUpdateSession_ReEndKeepsStamp(t *testing.T) {
	s := NewMemoryStore()
	session := s.CreateSession("run", nil)

	first, err := s.UpdateSession(session.ID, SessionUpdate{Status: statusPtr(SessionEnded)})
	if err != nil {
		t.Fatalf("UpdateSession() error = %v", err)
	}

	time.Sleep(2 * time.Millisecond)
	second, err := s.UpdateSession(session.ID, SessionUpdate{Status: statusPtr(SessionEnded)})
	if err != nil {
		t.Fatalf("UpdateSession() retry error = %v", err)
	}

	if !second.EndedAt.Equal(*first.EndedAt) {
		t.Errorf("EndedAt re-stamped: first %v, second %v", first.EndedAt, second.EndedAt)
	}
}

func TestUpdateSession_ReopenRejected(t *testing.T) {
	s := NewMemoryStore()
	session := s.CreateSession("run", nil)

	if _, err := s.UpdateSession(session.ID, SessionUpdate{Status: statusPtr(SessionEnded)}); err != nil {
		t.Fatalf("UpdateSession() error = %v", err)
	}

	_, err := s.UpdateSession(session.ID, SessionUpdate{Status: statusPtr(SessionActive)})
	if !errors.Is(err, ErrSessionEnded) {
		t.Errorf("UpdateSession() error = %v, want ErrSessionEnded", err)
	}
}

func TestCreateNote_SessionMissing(t *testing.T) {
	s := NewMemoryStore()

	_, err := s.CreateNote("sess_missing", NoteCreate{Content: "orphan"})
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("CreateNote() error = %v, want ErrSessionNotFound", err)
	}
}

func TestCreateNote_Defaults(t *testing.T) {
	s := NewMemoryStore()
	session := s.CreateSession("run", nil)

	note, err := s.CreateNote(session.ID, NoteCreate{
		Timestamp: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Content:   "untyped",
	})
	if err != nil {
		t.Fatalf("CreateNote() error = %v", err)
	}

	if note.Type != NoteObservation {
		t.Errorf("Type = %q, want default %q", note.Type, NoteObservation)
	}
	if note.Tags == nil {
		t.Error("Tags = nil, want empty slice")
	}
	if !note.CreatedAt.Equal(note.UpdatedAt) {
		t.Errorf("CreatedAt %v != UpdatedAt %v on create", note.CreatedAt, note.UpdatedAt)
	}
	if !strings.HasPrefix(note.ID, "note_") {
		t.Errorf("note ID = %q, want note_ prefix", note.ID)
	}
}

func TestCreateNote_TimestampNormalizedToUTC(t *testing.T) {
	s := NewMemoryStore()
	session := s.CreateSession("run", nil)

	pacific := time.FixedZone("PST", -8*3600)
	local := time.Date(2026, 3, 1, 2, 0, 0, 0, pacific)

	note, err := s.CreateNote(session.ID, NoteCreate{Timestamp: local, Content: "tz"})
	if err != nil {
		t.Fatalf("CreateNote() error = %v", err)
	}

	if note.Timestamp.Location() != time.UTC {
		t.Errorf("Timestamp location = %v, want UTC", note.Timestamp.Location())
	}
	if !note.Timestamp.Equal(local) {
		t.Errorf("Timestamp = %v, not the same instant as %v", note.Timestamp, local)
	}
}

// TestNoteLifecycle walks the full create/list/update/delete flow.
func TestNoteLifecycle(t *testing.T) {
	s := NewMemoryStore()
	session := s.CreateSession("Rover Test", nil)

	t1 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	t2 := time.Date(2026, 3, 1, 10, 5, 0, 0, time.UTC)

	// created out of timestamp order on purpose
	stop, err := s.CreateNote(session.ID, NoteCreate{Timestamp: t2, Content: "motor stop"})
	if err != nil {
		t.Fatalf("CreateNote() error = %v", err)
	}
	start, err := s.CreateNote(session.ID, NoteCreate{Timestamp: t1, Content: "motor start"})
	if err != nil {
		t.Fatalf("CreateNote() error = %v", err)
	}

	notes, err := s.Notes(session.ID, NoteFilter{})
	if err != nil {
		t.Fatalf("Notes() error = %v", err)
	}
	if len(notes) != 2 {
		t.Fatalf("Notes() = %v items, want 2", len(notes))
	}
	if notes[0].ID != start.ID || notes[1].ID != stop.ID {
		t.Errorf("Notes() order = [%s, %s], want [%s, %s]", notes[0].ID, notes[1].ID, start.ID, stop.ID)
	}

	time.Sleep(2 * time.Millisecond)
	updated, err := s.UpdateNote(session.ID, start.ID, NoteUpdate{Content: strPtr("motor start confirmed")})
	if err != nil {
		t.Fatalf("UpdateNote() error = %v", err)
	}
	if updated.Content != "motor start confirmed" {
		t.Errorf("Content = %q, want %q", updated.Content, "motor start confirmed")
	}
	if !updated.UpdatedAt.After(updated.CreatedAt) {
		t.Errorf("UpdatedAt %v not after CreatedAt %v", updated.UpdatedAt, updated.CreatedAt)
	}

	got, err := s.Note(session.ID, start.ID)
	if err != nil {
		t.Fatalf("Note() error = %v", err)
	}
	if got.Content != "motor start confirmed" {
		t.Errorf("Note().Content = %q, want updated content", got.Content)
	}

	if err := s.DeleteNote(session.ID, stop.ID); err != nil {
		t.Fatalf("DeleteNote() error = %v", err)
	}
	notes, err = s.Notes(session.ID, NoteFilter{})
	if err != nil {
		t.Fatalf("Notes() error = %v", err)
	}
	if len(notes) != 1 || notes[0].ID != start.ID {
		t.Errorf("Notes() after delete = %v, want only %s", notes, start.ID)
	}
}

func TestNotes_Filters(t *testing.T) {
	s := NewMemoryStore()
	session := s.CreateSession("run", nil)

	t1 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	t2 := time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC)
	t3 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mustCreate := func(create NoteCreate) Note {
		t.Helper()
		n, err := s.CreateNote(session.ID, create)
		if err != nil {
			t.Fatalf("CreateNote() error = %v", err)
		}
		return n
	}

	a := mustCreate(NoteCreate{Timestamp: t1, Speaker: strPtr("ops"), Content: "a", Type: NoteObservation})
	b := mustCreate(NoteCreate{Timestamp: t2, Speaker: strPtr("ops"), Content: "b", Type: NoteCommand})
	c := mustCreate(NoteCreate{Timestamp: t3, Content: "c", Type: NoteSystem})

	tests := []struct {
		name   string
		filter NoteFilter
		want   []string
	}{
		{"no filter", NoteFilter{}, []string{a.ID, b.ID, c.ID}},
		{"speaker", NoteFilter{Speaker: strPtr("ops")}, []string{a.ID, b.ID}},
		{"type", NoteFilter{Type: typePtr(NoteCommand)}, []string{b.ID}},
		{"speaker and type", NoteFilter{Speaker: strPtr("ops"), Type: typePtr(NoteObservation)}, []string{a.ID}},
		{"from inclusive", NoteFilter{From: timePtr(t2)}, []string{b.ID, c.ID}},
		{"to inclusive", NoteFilter{To: timePtr(t2)}, []string{a.ID, b.ID}},
		{"window", NoteFilter{From: timePtr(t2), To: timePtr(t2)}, []string{b.ID}},
		{"unmatched speaker", NoteFilter{Speaker: strPtr("nobody")}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notes, err := s.Notes(session.ID, tt.filter)
			if err != nil {
				t.Fatalf("Notes() error = %v", err)
			}
			got := make([]string, len(notes))
			for i, n := range notes {
				got[i] = n.ID
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Notes() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNote_ScopedToSession(t *testing.T) {
	s := NewMemoryStore()
	one := s.CreateSession("one", nil)
	two := s.CreateSession("two", nil)

	note, err := s.CreateNote(one.ID, NoteCreate{Content: "mine"})
	if err != nil {
		t.Fatalf("CreateNote() error = %v", err)
	}

	// the note must not be reachable through another session
	if _, err := s.Note(two.ID, note.ID); !errors.Is(err, ErrNoteNotFound) {
		t.Errorf("Note() cross-session error = %v, want ErrNoteNotFound", err)
	}
	if err := s.DeleteNote(two.ID, note.ID); !errors.Is(err, ErrNoteNotFound) {
		t.Errorf("DeleteNote() cross-session error = %v, want ErrNoteNotFound", err)
	}
}

func TestCreateSamples_BatchCount(t *testing.T) {
	s := NewMemoryStore()
	session := s.CreateSession("run", nil)

	creates := []SampleCreate{
		{Timestamp: time.Date(2026, 3, 1, 10, 0, 1, 0, time.UTC), Channel: "current", Value: 1.0},
		{Timestamp: time.Date(2026, 3, 1, 10, 0, 2, 0, time.UTC), Channel: "current", Value: 2.0},
		{Timestamp: time.Date(2026, 3, 1, 10, 0, 3, 0, time.UTC), Channel: "current", Value: 3.0},
	}

	count, err := s.CreateSamples(session.ID, creates)
	if err != nil {
		t.Fatalf("CreateSamples() error = %v", err)
	}
	if count != 3 {
		t.Errorf("CreateSamples() = %v, want 3", count)
	}

	if _, err := s.CreateSamples("sess_missing", creates); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("CreateSamples() error = %v, want ErrSessionNotFound", err)
	}
}

func TestSamples_DescendingWithLimit(t *testing.T) {
	s := NewMemoryStore()
	session := s.CreateSession("run", nil)

	for i := 1; i <= 3; i++ {
		_, err := s.CreateSample(session.ID, SampleCreate{
			Timestamp: time.Date(2026, 3, 1, 10, 0, i, 0, time.UTC),
			Channel:   "current",
			Value:     float64(i),
		})
		if err != nil {
			t.Fatalf("CreateSample() error = %v", err)
		}
	}

	samples, err := s.Samples(session.ID, SampleFilter{Limit: 2})
	if err != nil {
		t.Fatalf("Samples() error = %v", err)
	}
	if len(samples) != 2 {
		t.Fatalf("Samples() = %v items, want 2", len(samples))
	}
	if samples[0].Value != 3.0 || samples[1].Value != 2.0 {
		t.Errorf("Samples() values = [%v, %v], want [3, 2]", samples[0].Value, samples[1].Value)
	}
}

func TestSamples_QueryIdempotent(t *testing.T) {
	s := NewMemoryStore()
	session := s.CreateSession("run", nil)

	for i := 0; i < 5; i++ {
		_, err := s.CreateSample(session.ID, SampleCreate{
			Timestamp: time.Date(2026, 3, 1, 10, 0, i, 0, time.UTC),
			Channel:   "voltage",
			Value:     float64(i),
		})
		if err != nil {
			t.Fatalf("CreateSample() error = %v", err)
		}
	}

	filter := SampleFilter{Channel: strPtr("voltage"), Limit: 3}
	first, err := s.Samples(session.ID, filter)
	if err != nil {
		t.Fatalf("Samples() error = %v", err)
	}
	second, err := s.Samples(session.ID, filter)
	if err != nil {
		t.Fatalf("Samples() error = %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("identical queries differ: %v vs %v", first, second)
	}
}

func TestLatestSample(t *testing.T) {
	s := NewMemoryStore()
	session := s.CreateSession("run", nil)

	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i, v := range []float64{1.0, 2.0, 3.0} {
		_, err := s.CreateSample(session.ID, SampleCreate{
			Timestamp: ts.Add(time.Duration(i) * time.Second),
			Channel:   "voltage",
			Value:     v,
		})
		if err != nil {
			t.Fatalf("CreateSample() error = %v", err)
		}
	}

	latest, err := s.LatestSample(session.ID, "voltage")
	if err != nil {
		t.Fatalf("LatestSample() error = %v", err)
	}
	if latest.Value != 3.0 {
		t.Errorf("LatestSample().Value = %v, want 3", latest.Value)
	}

	if _, err := s.LatestSample(session.ID, "pressure"); !errors.Is(err, ErrNoSamples) {
		t.Errorf("LatestSample() error = %v, want ErrNoSamples", err)
	}
}

func TestLatestSample_TieGoesToLatestInsert(t *testing.T) {
	s := NewMemoryStore()
	session := s.CreateSession("run", nil)

	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for _, v := range []float64{1.0, 2.0} {
		_, err := s.CreateSample(session.ID, SampleCreate{Timestamp: ts, Channel: "voltage", Value: v})
		if err != nil {
			t.Fatalf("CreateSample() error = %v", err)
		}
	}

	latest, err := s.LatestSample(session.ID, "voltage")
	if err != nil {
		t.Fatalf("LatestSample() error = %v", err)
	}
	if latest.Value != 2.0 {
		t.Errorf("LatestSample().Value = %v, want the later insert (2)", latest.Value)
	}
}

func TestChannels_SortedDistinct(t *testing.T) {
	s := NewMemoryStore()
	session := s.CreateSession("run", nil)

	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for _, ch := range []string{"voltage", "current", "voltage", "pressure"} {
		if _, err := s.CreateSample(session.ID, SampleCreate{Timestamp: ts, Channel: ch, Value: 1}); err != nil {
			t.Fatalf("CreateSample() error = %v", err)
		}
	}

	channels, err := s.Channels(session.ID)
	if err != nil {
		t.Fatalf("Channels() error = %v", err)
	}
	want := []string{"current", "pressure", "voltage"}
	if !reflect.DeepEqual(channels, want) {
		t.Errorf("Channels() = %v, want %v", channels, want)
	}
}

func TestTaskLifecycle(t *testing.T) {
	s := NewMemoryStore()
	session := s.CreateSession("run", nil)

	task, err := s.CreateTask(session.ID, TaskCreate{AudioChunkID: "chunk-1"})
	if err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}
	if task.Status != TaskPending {
		t.Errorf("Status = %q, want %q", task.Status, TaskPending)
	}
	if !strings.HasPrefix(task.ID, "stt_") {
		t.Errorf("task ID = %q, want stt_ prefix", task.ID)
	}

	done, err := s.UpdateTask(session.ID, task.ID, TaskUpdate{
		Status:     TaskDone,
		Transcript: strPtr("hello world"),
	})
	if err != nil {
		t.Fatalf("UpdateTask() error = %v", err)
	}
	if done.Status != TaskDone {
		t.Errorf("Status = %q, want %q", done.Status, TaskDone)
	}
	if done.Transcript == nil || *done.Transcript != "hello world" {
		t.Errorf("Transcript = %v, want hello world", done.Transcript)
	}
}

func TestUpdateTask_TerminalGuard(t *testing.T) {
	s := NewMemoryStore()
	session := s.CreateSession("run", nil)

	task, err := s.CreateTask(session.ID, TaskCreate{AudioChunkID: "chunk-1"})
	if err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}
	if _, err := s.UpdateTask(session.ID, task.ID, TaskUpdate{Status: TaskFailed, Error: strPtr("whisper crashed")}); err != nil {
		t.Fatalf("UpdateTask() error = %v", err)
	}

	// a second transition must be rejected
	_, err = s.UpdateTask(session.ID, task.ID, TaskUpdate{Status: TaskDone})
	if !errors.Is(err, ErrTaskFinished) {
		t.Errorf("UpdateTask() error = %v, want ErrTaskFinished", err)
	}
}

func TestTasks_NewestFirst(t *testing.T) {
	s := NewMemoryStore()
	session := s.CreateSession("run", nil)

	first, err := s.CreateTask(session.ID, TaskCreate{AudioChunkID: "chunk-1"})
	if err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}
	time.Sleep(2 * time.Millisecond)
	second, err := s.CreateTask(session.ID, TaskCreate{AudioChunkID: "chunk-2"})
	if err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}

	tasks, err := s.Tasks(session.ID)
	if err != nil {
		t.Fatalf("Tasks() error = %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("Tasks() = %v items, want 2", len(tasks))
	}
	if tasks[0].ID != second.ID || tasks[1].ID != first.ID {
		t.Errorf("Tasks() order = [%s, %s], want newest first", tasks[0].ID, tasks[1].ID)
	}
}

func TestReturnedRecordsAreDetached(t *testing.T) {
	s := NewMemoryStore()
	session := s.CreateSession("run", nil)

	note, err := s.CreateNote(session.ID, NoteCreate{Content: "original", Tags: []string{"a"}})
	if err != nil {
		t.Fatalf("CreateNote() error = %v", err)
	}

	// mutating the returned copy must not affect the store
	note.Tags[0] = "mutated"
	got, err := s.Note(session.ID, note.ID)
	if err != nil {
		t.Fatalf("Note() error = %v", err)
	}
	if got.Tags[0] != "a" {
		t.Errorf("stored tag = %q, want %q", got.Tags[0], "a")
	}
}
