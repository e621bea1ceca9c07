// Package export renders a session's notes for copy/paste into other
// systems, as Markdown or indented JSON.
package export

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mfreitag/benchhub/internal/store"
)

// Markdown renders the session header followed by one section per note,
// in the order given (callers pass notes ascending by event timestamp).
func Markdown(session store.Session, notes []store.Note) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", session.Name)
	fmt.Fprintf(&b, "**Session ID:** %s\n", session.ID)
	fmt.Fprintf(&b, "**Started:** %s\n", session.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "**Status:** %s\n\n", session.Status)
	b.WriteString("---\n\n## Notes\n\n")

	for _, note := range notes {
		speaker := "Unknown"
		if note.Speaker != nil {
			speaker = *note.Speaker
		}
		fmt.Fprintf(&b, "### [%s] %s\n\n", note.Timestamp.Format("15:04:05"), speaker)
		fmt.Fprintf(&b, "%s\n\n", note.Content)

		if len(note.TelemetrySnapshot) > 0 {
			snapshot, err := json.Marshal(note.TelemetrySnapshot)
			if err == nil {
				fmt.Fprintf(&b, "**Telemetry:** %s\n\n", snapshot)
			}
		}
		if len(note.Tags) > 0 {
			fmt.Fprintf(&b, "*Tags: %s*\n\n", strings.Join(note.Tags, ", "))
		}
		b.WriteString("---\n\n")
	}

	return b.String()
}

// document is the top-level JSON export shape.
type document struct {
	SessionID   string       `json:"session_id"`
	SessionName string       `json:"session_name"`
	ExportedAt  time.Time    `json:"exported_at"`
	Notes       []store.Note `json:"notes"`
}

// JSON renders the session's notes as an indented JSON document.
func JSON(session store.Session, notes []store.Note, exportedAt time.Time) ([]byte, error) {
	if notes == nil {
		notes = []store.Note{}
	}
	return json.MarshalIndent(document{
		SessionID:   session.ID,
		SessionName: session.Name,
		ExportedAt:  exportedAt,
		Notes:       notes,
	}, "", "  ")
}
