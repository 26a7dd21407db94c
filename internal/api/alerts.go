package api

import (
	"encoding/json"
	"net/http"

	apperrors "domain-finder/internal/common/errors"
	"domain-finder/internal/store"
)

func (s *Server) handleCreateSubscription(w http.ResponseWriter, r *http.Request) {
	var sub store.AlertSubscription
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		s.errors.WriteHTTPError(w, r, apperrors.NewValidationFailedError("request body is not valid JSON"))
		return
	}
	if sub.MinQualityScore < 0 || sub.MinQualityScore > 100 {
		s.errors.WriteHTTPError(w, r, apperrors.NewValidationFailedError("min_quality_score must be between 0 and 100"))
		return
	}

	stored, err := s.alerts.CreateSubscription(r.Context(), &sub)
	if err != nil {
		s.errors.WriteHTTPError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, stored)
}

func (s *Server) handleListSubscriptions(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("include_inactive") != "true"
	subs, err := s.alerts.ListSubscriptions(r.Context(), activeOnly)
	if err != nil {
		s.errors.WriteHTTPError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"subscriptions": subs})
}

func (s *Server) handleDeleteSubscription(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.errors.WriteHTTPError(w, r, err)
		return
	}
	if err := s.alerts.DeleteSubscription(r.Context(), id); err != nil {
		s.errors.WriteHTTPError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
