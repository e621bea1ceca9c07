package export

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/mfreitag/benchhub/internal/store"
)

func strPtr(s string) *string { return &s }

func testSession() store.Session {
	return store.Session{
		ID:        "sess_ab12cd34",
		Name:      "Rover Test",
		Status:    store.SessionActive,
		StartedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func testNotes() []store.Note {
	return []store.Note{
		{
			ID:        "note_11111111",
			SessionID: "sess_ab12cd34",
			Timestamp: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
			Speaker:   strPtr("ops"),
			Type:      store.NoteObservation,
			Content:   "motor start",
			TelemetrySnapshot: map[string]any{
				"current": 1.5,
			},
			Tags: []string{"motor", "startup"},
		},
		{
			ID:        "note_22222222",
			SessionID: "sess_ab12cd34",
			Timestamp: time.Date(2026, 3, 1, 10, 5, 0, 0, time.UTC),
			Type:      store.NoteSystem,
			Content:   "auto checkpoint",
		},
	}
}

func TestMarkdown(t *testing.T) {
	got := Markdown(testSession(), testNotes())

	for _, want := range []string{
		"# Rover Test",
		"**Session ID:** sess_ab12cd34",
		"**Started:** 2026-03-01T09:00:00Z",
		"**Status:** active",
		"### [10:00:00] ops",
		"motor start",
		`**Telemetry:** {"current":1.5}`,
		"*Tags: motor, startup*",
		// notes without a speaker fall back to a placeholder
		"### [10:05:00] Unknown",
		"auto checkpoint",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("markdown missing %q:\n%s", want, got)
		}
	}

	// the second note has no snapshot or tags, so those blocks appear
	// exactly once
	if strings.Count(got, "**Telemetry:**") != 1 {
		t.Errorf("telemetry block count = %v, want 1", strings.Count(got, "**Telemetry:**"))
	}
	if strings.Count(got, "*Tags:") != 1 {
		t.Errorf("tags block count = %v, want 1", strings.Count(got, "*Tags:"))
	}
}

func TestMarkdown_NoNotes(t *testing.T) {
	got := Markdown(testSession(), nil)
	if !strings.Contains(got, "## Notes") {
		t.Errorf("markdown missing notes heading:\n%s", got)
	}
	if strings.Contains(got, "###") {
		t.Errorf("markdown contains note sections for empty input:\n%s", got)
	}
}

func TestJSON(t *testing.T) {
	exportedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	data, err := JSON(testSession(), testNotes(), exportedAt)
	if err != nil {
		t.Fatalf("JSON: %v", err)
	}

	var doc struct {
		SessionID   string       `json:"session_id"`
		SessionName string       `json:"session_name"`
		ExportedAt  time.Time    `json:"exported_at"`
		Notes       []store.Note `json:"notes"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("unmarshal export: %v", err)
	}
	if doc.SessionID != "sess_ab12cd34" {
		t.Errorf("session_id = %q", doc.SessionID)
	}
	if doc.SessionName != "Rover Test" {
		t.Errorf("session_name = %q", doc.SessionName)
	}
	if !doc.ExportedAt.Equal(exportedAt) {
		t.Errorf("exported_at = %v, want %v", doc.ExportedAt, exportedAt)
	}
	if len(doc.Notes) != 2 {
		t.Fatalf("notes = %v items, want 2", len(doc.Notes))
	}
	if doc.Notes[0].Content != "motor start" {
		t.Errorf("first note content = %q", doc.Notes[0].Content)
	}
}

func TestJSON_NilNotes(t *testing.T) {
	data, err := JSON(testSession(), nil, time.Now().UTC())
	if err != nil {
		t.Fatalf("JSON: %v", err)
	}
	if !strings.Contains(string(data), `"notes": []`) {
		t.Errorf("nil notes should render as an empty array:\n%s", data)
	}
}
