package server

import (
	"net/http"

	"github.com/mfreitag/benchhub/internal/store"
)

type createSessionRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeBody(r, &req); err != nil {
		s.badRequest(w, "invalid request body")
		return
	}
	if req.Name == "" {
		s.badRequest(w, "name is required")
		return
	}

	session := s.store.CreateSession(req.Name, req.Description)
	s.logger.Info("session created", "session_id", session.ID, "name", session.Name)
	s.writeJSON(w, http.StatusCreated, session)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.store.Sessions())
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.store.Session(r.PathValue("sid"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleUpdateSession(w http.ResponseWriter, r *http.Request) {
	var update store.SessionUpdate
	if err := decodeBody(r, &update); err != nil {
		s.badRequest(w, "invalid request body")
		return
	}
	if update.Status != nil && *update.Status != store.SessionActive && *update.Status != store.SessionEnded {
		s.badRequest(w, "status must be active or ended")
		return
	}

	session, err := s.store.UpdateSession(r.PathValue("sid"), update)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if session.Status == store.SessionEnded {
		s.logger.Info("session ended", "session_id", session.ID)
	}
	s.writeJSON(w, http.StatusOK, session)
}
