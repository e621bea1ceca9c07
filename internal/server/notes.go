package server

import (
	"net/http"
	"time"

	"github.com/mfreitag/benchhub/internal/export"
	"github.com/mfreitag/benchhub/internal/hub"
	"github.com/mfreitag/benchhub/internal/store"
)

func (s *Server) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	sid := r.PathValue("sid")

	var create store.NoteCreate
	if err := decodeBody(r, &create); err != nil {
		s.badRequest(w, "invalid request body")
		return
	}
	if create.Content == "" {
		s.badRequest(w, "content is required")
		return
	}

	note, err := s.store.CreateNote(sid, create)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.hub.Publish(sid, hub.EventNoteCreated, note)
	s.writeJSON(w, http.StatusCreated, note)
}

// noteFilterFromQuery parses the conjunctive list filters. All bounds are
// inclusive; timestamps are RFC 3339.
func noteFilterFromQuery(r *http.Request) (store.NoteFilter, error) {
	var filter store.NoteFilter

	if speaker := r.URL.Query().Get("speaker"); speaker != "" {
		filter.Speaker = &speaker
	}
	if raw := r.URL.Query().Get("type"); raw != "" {
		typ := store.NoteType(raw)
		filter.Type = &typ
	}

	var err error
	if filter.From, err = timeParam(r, "from"); err != nil {
		return filter, err
	}
	if filter.To, err = timeParam(r, "to"); err != nil {
		return filter, err
	}
	return filter, nil
}

func (s *Server) handleListNotes(w http.ResponseWriter, r *http.Request) {
	filter, err := noteFilterFromQuery(r)
	if err != nil {
		s.badRequest(w, err.Error())
		return
	}

	notes, err := s.store.Notes(r.PathValue("sid"), filter)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, notes)
}

func (s *Server) handleExportNotes(w http.ResponseWriter, r *http.Request) {
	sid := r.PathValue("sid")

	session, err := s.store.Session(sid)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	notes, err := s.store.Notes(sid, store.NoteFilter{})
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	switch format := r.URL.Query().Get("format"); format {
	case "json":
		doc, err := export.JSON(session, notes, time.Now().UTC())
		if err != nil {
			s.logger.Error("notes export failed", "session_id", sid, "error", err)
			s.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "export failed"})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(doc)
	case "", "markdown":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		_, _ = w.Write([]byte(export.Markdown(session, notes)))
	default:
		s.badRequest(w, "format must be markdown or json")
	}
}

func (s *Server) handleGetNote(w http.ResponseWriter, r *http.Request) {
	note, err := s.store.Note(r.PathValue("sid"), r.PathValue("id"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, note)
}

func (s *Server) handleUpdateNote(w http.ResponseWriter, r *http.Request) {
	sid := r.PathValue("sid")

	var update store.NoteUpdate
	if err := decodeBody(r, &update); err != nil {
		s.badRequest(w, "invalid request body")
		return
	}

	note, err := s.store.UpdateNote(sid, r.PathValue("id"), update)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.hub.Publish(sid, hub.EventNoteUpdated, note)
	s.writeJSON(w, http.StatusOK, note)
}

func (s *Server) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	sid := r.PathValue("sid")
	id := r.PathValue("id")

	if err := s.store.DeleteNote(sid, id); err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.hub.Publish(sid, hub.EventNoteDeleted, hub.DeletedData{ID: id})
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "note " + id + " deleted"})
}
