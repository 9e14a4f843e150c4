package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"tablesync/internal/logging"
	"tablesync/internal/service"
	"tablesync/internal/web/templates"
)

const (
	msgSyncStarted    = "Synchronization started."
	msgAlreadyRunning = "Synchronization is already running."
	// defaultIntervalSeconds applies when /set_interval omits the interval.
	defaultIntervalSeconds = 3600
	// maxIntervalSeconds is the largest period a time.Duration can hold.
	maxIntervalSeconds = math.MaxInt64 / int64(time.Second)
)

type messageResponse struct {
	Message string `json:"message"`
	RunID   string `json:"run_id,omitempty"`
}

type setIntervalRequest struct {
	Interval *int `json:"interval"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.Dashboard().Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).WithError(err).Error("render dashboard")
	}
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	runID, err := s.syncer.Trigger()
	switch {
	case errors.Is(err, service.ErrRunActive):
		writeJSON(w, http.StatusConflict, messageResponse{Message: msgAlreadyRunning})
		return
	case errors.Is(err, service.ErrStopped):
		writeJSON(w, http.StatusServiceUnavailable, messageResponse{Message: "Synchronization service is shutting down."})
		return
	case err != nil:
		logging.FromContext(r.Context()).WithError(err).Error("trigger synchronization")
		writeJSON(w, http.StatusInternalServerError, messageResponse{Message: "Synchronization could not be started."})
		return
	}

	logging.FromContext(r.Context()).WithField("run_id", runID).Info("synchronization triggered")
	writeJSON(w, http.StatusOK, messageResponse{Message: msgSyncStarted, RunID: runID})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.status.Current())
}

func (s *Server) handleSetInterval(w http.ResponseWriter, r *http.Request) {
	var req setIntervalRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: "Request body must be JSON like {\"interval\": 1800}."})
		return
	}

	seconds := defaultIntervalSeconds
	if req.Interval != nil {
		seconds = *req.Interval
	}
	if seconds <= 0 {
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: "Interval must be a positive number of seconds."})
		return
	}
	if int64(seconds) > maxIntervalSeconds {
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: fmt.Sprintf("Interval must be at most %d seconds.", maxIntervalSeconds)})
		return
	}

	if err := s.scheduler.SetInterval(time.Duration(seconds) * time.Second); err != nil {
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: fmt.Sprintf("Scheduler interval updated to %d seconds.", seconds)})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON encodes v as JSON with the given status code.
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Warn("json encode")
	}
}
