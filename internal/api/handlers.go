package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"credit-risk-workers/internal/common/database"
	"credit-risk-workers/internal/repository"
	"credit-risk-workers/internal/risk"

	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 20

var errNoProfileStore = errors.New("applicant lookup is not configured, send the profile inline")

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	failed := database.PingAll(r.Context(), s.deps)
	if len(failed) == 0 {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
		return
	}

	details := make(map[string]string, len(failed))
	for name, err := range failed {
		details[name] = err.Error()
	}
	respondJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
		"status": "not ready",
		"failed": details,
	})
}

func (s *Server) handleAssess(w http.ResponseWriter, r *http.Request) {
	var req ProfileRequest
	if !s.decode(w, r, &req) {
		return
	}
	profile, ok := s.resolve(w, r, req)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, s.engine.Assess(profile))
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var req SimulateRequest
	if !s.decode(w, r, &req) {
		return
	}
	profile, ok := s.resolve(w, r, req.ProfileRequest)
	if !ok {
		return
	}

	baseline := s.engine.Assess(profile)
	simulated := s.engine.Simulate(profile, req.Overrides)
	respondJSON(w, http.StatusOK, SimulateResponse{
		Baseline:        baseline,
		Simulated:       simulated,
		RiskDelta:       simulated.PredictedRisk - baseline.PredictedRisk,
		DecisionChanged: simulated.Decision != baseline.Decision,
	})
}

func (s *Server) handleCounterfactuals(w http.ResponseWriter, r *http.Request) {
	var req ProfileRequest
	if !s.decode(w, r, &req) {
		return
	}
	profile, ok := s.resolve(w, r, req)
	if !ok {
		return
	}

	baseline := s.engine.Assess(profile)
	respondJSON(w, http.StatusOK, CounterfactualsResponse{
		ApplicantID:      profile.ApplicantID,
		BaselineDecision: baseline.Decision,
		BaselineRisk:     baseline.PredictedRisk,
		Scenarios:        s.engine.CounterfactualsFrom(profile, baseline),
	})
}

func (s *Server) handleLatestAssessment(w http.ResponseWriter, r *http.Request) {
	if s.assessments == nil {
		respondError(w, http.StatusNotImplemented, "assessment history is not configured", nil)
		return
	}
	applicantID := chi.URLParam(r, "applicantID")

	record, err := s.assessments.Latest(r.Context(), applicantID)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, record)
}

// decode reads and validates a JSON body, answering 400 itself on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		respondError(w, http.StatusBadRequest, "validation failed", err)
		return false
	}
	return true
}

func (s *Server) resolve(w http.ResponseWriter, r *http.Request, req ProfileRequest) (risk.ApplicantProfile, bool) {
	if req.Profile != nil {
		p := *req.Profile
		if p.ApplicantID == "" {
			p.ApplicantID = req.ApplicantID
		}
		return p, true
	}
	if s.profiles == nil {
		respondError(w, http.StatusBadRequest, "profile is required", errNoProfileStore)
		return risk.ApplicantProfile{}, false
	}

	p, err := s.profiles.Get(r.Context(), req.ApplicantID)
	if err != nil {
		s.respondStoreError(w, err)
		return risk.ApplicantProfile{}, false
	}
	return *p, true
}

func (s *Server) respondStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrApplicantNotFound), errors.Is(err, repository.ErrAssessmentNotFound):
		respondError(w, http.StatusNotFound, "not found", err)
	case errors.Is(err, repository.ErrProfileParseFailed):
		respondError(w, http.StatusUnprocessableEntity, "stored profile is unreadable", err)
	case errors.Is(err, repository.ErrQueryTimeout):
		respondError(w, http.StatusGatewayTimeout, "lookup timed out", err)
	default:
		s.logger.Error("store lookup failed", map[string]interface{}{"error": err.Error()})
		respondError(w, http.StatusBadGateway, "lookup failed", nil)
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// headers are already written
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	resp := errorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	respondJSON(w, status, resp)
}
