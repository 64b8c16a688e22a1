package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/jonathan/career-metric/internal/collectors"
	"github.com/jonathan/career-metric/internal/db"
	"github.com/jonathan/career-metric/internal/evaluation"
	"github.com/jonathan/career-metric/internal/server/middleware"
)

// AssessmentListResponse is the body of GET /profiles/{profile_id}/assessments.
type AssessmentListResponse struct {
	Assessments []db.Assessment `json:"assessments"`
	Count       int             `json:"count"`
}

// ArtifactListResponse is the body of GET /profiles/{profile_id}/artifacts.
type ArtifactListResponse struct {
	Artifacts []db.IntegrationArtifact `json:"artifacts"`
	Count     int                      `json:"count"`
}

// handleEvaluate scores a profile and returns the committed assessment.
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.callerID(w, r)
	if !ok {
		return
	}
	profileID, err := pathUUID(r, "profile_id")
	if err != nil {
		s.fail(w, r, err)
		return
	}

	req, err := decodeEvaluateRequest(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	result, err := s.engine.Evaluate(r.Context(), userID, profileID, req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, result)
}

// handleGetAssessment returns a persisted assessment with its components
// and feedback. Nothing is recomputed.
func (s *Server) handleGetAssessment(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.callerID(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}

	detail, err := s.store.GetAssessmentDetail(r.Context(), id)
	if err != nil {
		s.fail(w, r, fmt.Errorf("failed to get assessment: %w", err))
		return
	}
	if detail == nil {
		s.fail(w, r, &evaluation.NotFoundError{Resource: "assessment", ID: id.String()})
		return
	}
	if err := s.requireOwnedProfile(r, userID, detail.ProfileID, "assessment", id); err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, detail)
}

// handleListAssessments lists a profile's assessments, newest first.
func (s *Server) handleListAssessments(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.callerID(w, r)
	if !ok {
		return
	}
	profileID, err := pathUUID(r, "profile_id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.requireOwnedProfile(r, userID, profileID, "profile", profileID); err != nil {
		s.fail(w, r, err)
		return
	}

	assessments, err := s.store.ListAssessments(r.Context(), profileID)
	if err != nil {
		s.fail(w, r, fmt.Errorf("failed to list assessments: %w", err))
		return
	}
	if assessments == nil {
		assessments = []db.Assessment{}
	}
	s.jsonResponse(w, http.StatusOK, AssessmentListResponse{Assessments: assessments, Count: len(assessments)})
}

// handleDeleteAssessment removes an assessment with its components and
// feedback.
func (s *Server) handleDeleteAssessment(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.callerID(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}

	assessment, err := s.store.GetAssessment(r.Context(), id)
	if err != nil {
		s.fail(w, r, fmt.Errorf("failed to get assessment: %w", err))
		return
	}
	if assessment == nil {
		s.fail(w, r, &evaluation.NotFoundError{Resource: "assessment", ID: id.String()})
		return
	}
	if err := s.requireOwnedProfile(r, userID, assessment.ProfileID, "assessment", id); err != nil {
		s.fail(w, r, err)
		return
	}

	if err := s.store.DeleteAssessment(r.Context(), id); err != nil {
		s.fail(w, r, fmt.Errorf("failed to delete assessment: %w", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleListArtifacts lists a profile's integration artifacts, oldest first.
func (s *Server) handleListArtifacts(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.callerID(w, r)
	if !ok {
		return
	}
	profileID, err := pathUUID(r, "profile_id")
	if err != nil {
		s.fail(w, r, err)
		return
	}

	filters := db.ArtifactFilters{ProfileID: profileID}
	if source := r.URL.Query().Get("source"); source != "" {
		if !collectors.Source(source).Valid() {
			s.fail(w, r, &ErrValidation{Field: "source", Message: "must be one of resume, github, linkedin, cp"})
			return
		}
		filters.Source = source
	}

	if err := s.requireOwnedProfile(r, userID, profileID, "profile", profileID); err != nil {
		s.fail(w, r, err)
		return
	}

	artifacts, err := s.store.ListArtifacts(r.Context(), filters)
	if err != nil {
		s.fail(w, r, fmt.Errorf("failed to list artifacts: %w", err))
		return
	}
	if artifacts == nil {
		artifacts = []db.IntegrationArtifact{}
	}
	s.jsonResponse(w, http.StatusOK, ArtifactListResponse{Artifacts: artifacts, Count: len(artifacts)})
}

// callerID returns the authenticated user. Routes are wrapped in the auth
// middleware, so a miss means the handler was mounted without it.
func (s *Server) callerID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return uuid.Nil, false
	}
	return userID, true
}

// requireOwnedProfile returns a NotFoundError for resource when the profile
// is missing or belongs to someone else.
func (s *Server) requireOwnedProfile(r *http.Request, userID, profileID uuid.UUID, resource string, id uuid.UUID) error {
	profile, err := s.store.GetProfile(r.Context(), profileID)
	if err != nil {
		return fmt.Errorf("failed to get profile: %w", err)
	}
	if !profile.OwnedBy(userID) {
		return &evaluation.NotFoundError{Resource: resource, ID: id.String()}
	}
	return nil
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	raw := r.PathValue(name)
	if raw == "" {
		return uuid.Nil, &ErrValidation{Field: name, Message: "is required"}
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, &ErrValidation{Field: name, Message: "must be a UUID"}
	}
	return id, nil
}

func decodeEvaluateRequest(w http.ResponseWriter, r *http.Request) (evaluation.Request, error) {
	var req evaluation.Request
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req)
	if err == nil {
		return req, nil
	}

	var typeErr *json.UnmarshalTypeError
	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, io.EOF):
		return req, &ErrValidation{Field: "body", Message: "request body is required"}
	case errors.As(err, &typeErr):
		return req, &ErrValidation{Field: typeErr.Field, Message: "must be of type " + typeErr.Type.String()}
	case errors.As(err, &tooLarge):
		return req, &ErrValidation{Field: "body", Message: "request body too large"}
	default:
		return req, &ErrValidation{Field: "body", Message: "invalid JSON: " + err.Error()}
	}
}
