package server

import (
	"net/http"

	"github.com/mfreitag/benchhub/internal/store"
)

func (s *Server) handleCreateTelemetry(w http.ResponseWriter, r *http.Request) {
	var create store.SampleCreate
	if err := decodeBody(r, &create); err != nil {
		s.badRequest(w, "invalid request body")
		return
	}
	if create.Channel == "" {
		s.badRequest(w, "channel is required")
		return
	}

	sample, err := s.store.CreateSample(r.PathValue("sid"), create)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, sample)
}

type telemetryBatchRequest struct {
	Data []store.SampleCreate `json:"data"`
}

func (s *Server) handleCreateTelemetryBatch(w http.ResponseWriter, r *http.Request) {
	var batch telemetryBatchRequest
	if err := decodeBody(r, &batch); err != nil {
		s.badRequest(w, "invalid request body")
		return
	}

	created, err := s.store.CreateSamples(r.PathValue("sid"), batch.Data)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]int{"created": created})
}

func (s *Server) handleQueryTelemetry(w http.ResponseWriter, r *http.Request) {
	var filter store.SampleFilter

	if channel := r.URL.Query().Get("channel"); channel != "" {
		filter.Channel = &channel
	}
	var err error
	if filter.From, err = timeParam(r, "from"); err != nil {
		s.badRequest(w, err.Error())
		return
	}
	if filter.To, err = timeParam(r, "to"); err != nil {
		s.badRequest(w, err.Error())
		return
	}
	if filter.Limit, err = intParam(r, "limit", 0); err != nil {
		s.badRequest(w, err.Error())
		return
	}

	samples, err := s.store.Samples(r.PathValue("sid"), filter)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, samples)
}

func (s *Server) handleLatestTelemetry(w http.ResponseWriter, r *http.Request) {
	channel := r.URL.Query().Get("channel")
	if channel == "" {
		s.badRequest(w, "channel is required")
		return
	}

	sample, err := s.store.LatestSample(r.PathValue("sid"), channel)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sample)
}

func (s *Server) handleListChannels(w http.ResponseWriter, r *http.Request) {
	channels, err := s.store.Channels(r.PathValue("sid"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"channels": channels})
}
