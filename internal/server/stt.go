package server

import (
	"net/http"

	"github.com/mfreitag/benchhub/internal/hub"
	"github.com/mfreitag/benchhub/internal/store"
)

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	sid := r.PathValue("sid")

	var create store.TaskCreate
	if err := decodeBody(r, &create); err != nil {
		s.badRequest(w, "invalid request body")
		return
	}
	if create.AudioChunkID == "" {
		s.badRequest(w, "audio_chunk_id is required")
		return
	}

	task, err := s.store.CreateTask(sid, create)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.hub.Publish(sid, hub.EventSTTTaskCreated, task)
	s.writeJSON(w, http.StatusCreated, task)
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.store.Tasks(r.PathValue("sid"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, tasks)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.store.Task(r.PathValue("sid"), r.PathValue("tid"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	sid := r.PathValue("sid")

	var update store.TaskUpdate
	if err := decodeBody(r, &update); err != nil {
		s.badRequest(w, "invalid request body")
		return
	}
	if update.Status != store.TaskDone && update.Status != store.TaskFailed {
		s.badRequest(w, "status must be done or failed")
		return
	}

	task, err := s.store.UpdateTask(sid, r.PathValue("tid"), update)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	switch task.Status {
	case store.TaskDone:
		s.hub.Publish(sid, hub.EventSTTTaskDone, task)
	case store.TaskFailed:
		msg := "transcription failed"
		if task.Error != nil && *task.Error != "" {
			msg = *task.Error
		}
		s.hub.PublishError(sid, msg, "stt")
	}
	s.writeJSON(w, http.StatusOK, task)
}
