package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/banshee-data/gridhmm/internal/db"
	"github.com/banshee-data/gridhmm/internal/experiment"
	"github.com/banshee-data/gridhmm/internal/grid"
	"github.com/banshee-data/gridhmm/internal/hmm"
)

// RunRequest is the body of POST /api/runs.
type RunRequest struct {
	Name       string `json:"name,omitempty"`
	PathLength *int   `json:"path_length,omitempty"`
	Seed       int64  `json:"seed"`
	Map        string `json:"map,omitempty"`
}

func (s *Server) createRun(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	length := defaultPathLength
	if req.PathLength != nil {
		length = *req.PathLength
	}
	if length > maxPathLength {
		s.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("path_length must be at most %d", maxPathLength))
		return
	}

	world := s.world
	if strings.TrimSpace(req.Map) != "" {
		g, err := grid.Parse(strings.NewReader(req.Map))
		if err != nil {
			s.writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		world = g
	}
	if world == nil {
		s.writeJSONError(w, http.StatusBadRequest, "no map in request and no default map configured")
		return
	}

	res, err := s.runner.Run(world, experiment.Config{Name: req.Name, PathLength: length, Seed: req.Seed})
	if err != nil {
		s.writeJSONError(w, statusFor(err), err.Error())
		return
	}
	rec, err := res.Record()
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := s.store.Insert(rec); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to store run: %v", err))
		return
	}
	s.writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.writeJSONError(w, http.StatusBadRequest, "Invalid 'limit' parameter")
			return
		}
		limit = n
	}
	runs, err := s.store.List(limit)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to retrieve runs: %v", err))
		return
	}
	if runs == nil {
		runs = []*db.Run{}
	}
	s.writeJSON(w, http.StatusOK, runs)
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookup(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, run)
}

func (s *Server) deleteRun(w http.ResponseWriter, r *http.Request) {
	err := s.store.Delete(chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, db.ErrRunNotFound):
		s.writeJSONError(w, http.StatusNotFound, err.Error())
	case err != nil:
		s.writeJSONError(w, http.StatusInternalServerError, err.Error())
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) runChart(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookup(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	res, err := experiment.FromRecord(run)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	var buf bytes.Buffer
	if err := res.WritePage(&buf); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("render error: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) lookup(w http.ResponseWriter, id string) (*db.Run, bool) {
	run, err := s.store.Get(id)
	if errors.Is(err, db.ErrRunNotFound) {
		s.writeJSONError(w, http.StatusNotFound, err.Error())
		return nil, false
	}
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	return run, true
}

// statusFor maps run failures caused by the request to 400.
func statusFor(err error) int {
	var (
		fe *grid.FormatError
		le *hmm.InvalidLengthError
		ne *hmm.NormalizationError
		ue *hmm.UnknownObservationError
	)
	switch {
	case errors.As(err, &fe), errors.As(err, &le), errors.As(err, &ne), errors.As(err, &ue),
		errors.Is(err, hmm.ErrNoFloor):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
