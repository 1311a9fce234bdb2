package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/okian/gigmatch/internal/domain/model"
)

// matchRequest is the body of POST /api/v1/matches.
type matchRequest struct {
	GigID string `json:"gig_id" validate:"required"`
	Limit *int   `json:"limit" validate:"omitempty,min=1"`
	UseAI bool   `json:"use_ai"`
}

type matchResponse struct {
	GigID            string              `json:"gig_id"`
	Matches          []model.MatchResult `json:"matches"`
	TotalMatches     int                 `json:"total_matches"`
	AlgorithmUsed    model.Algorithm     `json:"algorithm_used"`
	ProcessingTimeMs float64             `json:"processing_time_ms"`
}

type listResponse struct {
	Matches      []model.MatchResult `json:"matches"`
	TotalMatches int                 `json:"total_matches"`
}

type rematchResponse struct {
	Status   string `json:"status"`
	GigID    string `json:"gig_id"`
	Limit    int    `json:"limit"`
	Enhanced bool   `json:"use_ai"`
}

func (s *Server) handleFindMatches(w http.ResponseWriter, r *http.Request) {
	var req matchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	req.GigID = strings.TrimSpace(req.GigID)
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", validationError(err))
		return
	}

	limit := s.defaultLimit
	if req.Limit != nil {
		limit = *req.Limit
	}
	if limit > s.maxLimit {
		writeError(w, http.StatusBadRequest, "bad_request",
			fmt.Errorf("%w: limit must be between 1 and %d", ErrBadRequest, s.maxLimit))
		return
	}

	start := time.Now()
	results, err := s.deps.FindMatches(r.Context(), req.GigID, limit, req.UseAI)
	if err != nil {
		s.writeDomainError(r.Context(), w, err)
		return
	}

	algorithm := model.AlgorithmRuleBased
	if req.UseAI {
		algorithm = model.AlgorithmEnhanced
	}
	writeJSON(w, http.StatusOK, matchResponse{
		GigID:            req.GigID,
		Matches:          nonNil(results),
		TotalMatches:     len(results),
		AlgorithmUsed:    algorithm,
		ProcessingTimeMs: float64(time.Since(start).Microseconds()) / 1000,
	})
}

func (s *Server) handleGigMatches(w http.ResponseWriter, r *http.Request) {
	results, err := s.deps.ResultsForGig(r.Context(), chi.URLParam(r, "gigID"))
	if err != nil {
		s.writeDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Matches: nonNil(results), TotalMatches: len(results)})
}

func (s *Server) handleTalentMatches(w http.ResponseWriter, r *http.Request) {
	results, err := s.deps.ResultsForTalent(r.Context(), chi.URLParam(r, "talentID"))
	if err != nil {
		s.writeDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Matches: nonNil(results), TotalMatches: len(results)})
}

func (s *Server) handleRematch(w http.ResponseWriter, r *http.Request) {
	gigID := chi.URLParam(r, "gigID")

	limit := s.defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > s.maxLimit {
			writeError(w, http.StatusBadRequest, "bad_request",
				fmt.Errorf("%w: limit must be between 1 and %d", ErrBadRequest, s.maxLimit))
			return
		}
		limit = n
	}

	useAI := false
	if raw := r.URL.Query().Get("use_ai"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: use_ai must be a boolean", ErrBadRequest))
			return
		}
		useAI = b
	}

	accepted, err := s.deps.Rematch(r.Context(), gigID, limit, useAI)
	if err != nil {
		s.writeDomainError(r.Context(), w, err)
		return
	}
	if !accepted {
		writeError(w, http.StatusTooManyRequests, "backpressure", nil)
		return
	}
	writeJSON(w, http.StatusAccepted, rematchResponse{Status: "accepted", GigID: gigID, Limit: limit, Enhanced: useAI})
}

// validationError flattens validator output into one readable message.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%w: missing %s", ErrBadRequest, jsonName(fe.Field()))
	case "min":
		return fmt.Errorf("%w: %s must be at least %s", ErrBadRequest, jsonName(fe.Field()), fe.Param())
	default:
		return fmt.Errorf("%w: invalid %s", ErrBadRequest, jsonName(fe.Field()))
	}
}

func jsonName(field string) string {
	switch field {
	case "GigID":
		return "gig_id"
	case "Limit":
		return "limit"
	default:
		return strings.ToLower(field)
	}
}

func nonNil(rs []model.MatchResult) []model.MatchResult {
	if rs == nil {
		return []model.MatchResult{}
	}
	return rs
}
