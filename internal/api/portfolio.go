package api

import (
	"encoding/json"
	"net/http"
	"time"

	apperrors "domain-finder/internal/common/errors"
	"domain-finder/internal/store"
)

type createPortfolioRequest struct {
	DomainID      int64   `json:"domain_id"`
	PurchasePrice float64 `json:"purchase_price"`
	PurchaseDate  string  `json:"purchase_date"` // RFC 3339, defaults to now
	Status        string  `json:"status"`
	Notes         string  `json:"notes"`
}

func (s *Server) handleCreatePortfolioItem(w http.ResponseWriter, r *http.Request) {
	var req createPortfolioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errors.WriteHTTPError(w, r, apperrors.NewValidationFailedError("request body is not valid JSON"))
		return
	}
	if req.DomainID <= 0 {
		s.errors.WriteHTTPError(w, r, apperrors.NewValidationFailedError("domain_id is required"))
		return
	}
	if req.PurchasePrice < 0 {
		s.errors.WriteHTTPError(w, r, apperrors.NewValidationFailedError("purchase_price must not be negative"))
		return
	}

	item := &store.PortfolioItem{
		DomainID:      req.DomainID,
		PurchasePrice: req.PurchasePrice,
		Status:        req.Status,
		Notes:         req.Notes,
	}
	if req.PurchaseDate != "" {
		parsed, err := time.Parse(time.RFC3339, req.PurchaseDate)
		if err != nil {
			s.errors.WriteHTTPError(w, r, apperrors.NewValidationFailedError("purchase_date must be RFC 3339"))
			return
		}
		item.PurchaseDate = parsed
	}

	stored, err := s.portfolio.Create(r.Context(), item)
	if err != nil {
		s.errors.WriteHTTPError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, stored)
}

func (s *Server) handleListPortfolio(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status != "" && !store.ValidPortfolioStatus(status) {
		s.errors.WriteHTTPError(w, r, apperrors.NewValidationFailedError("unknown portfolio status: "+status))
		return
	}

	items, err := s.portfolio.List(r.Context(), status)
	if err != nil {
		s.errors.WriteHTTPError(w, r, err)
		return
	}

	// Aggregate position stats alongside the rows.
	var invested, realized float64
	for _, item := range items {
		invested += item.PurchasePrice
		if item.SalePrice != nil {
			realized += *item.SalePrice
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"items":          items,
		"total_invested": invested,
		"total_realized": realized,
	})
}

func (s *Server) handleGetPortfolioItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.errors.WriteHTTPError(w, r, err)
		return
	}
	item, err := s.portfolio.GetByID(r.Context(), id)
	if err != nil {
		s.errors.WriteHTTPError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleUpdatePortfolioItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.errors.WriteHTTPError(w, r, err)
		return
	}

	var upd store.PortfolioUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		s.errors.WriteHTTPError(w, r, apperrors.NewValidationFailedError("request body is not valid JSON"))
		return
	}
	if upd.Status != nil && !store.ValidPortfolioStatus(*upd.Status) {
		s.errors.WriteHTTPError(w, r, apperrors.NewValidationFailedError("unknown portfolio status: "+*upd.Status))
		return
	}

	item, err := s.portfolio.Update(r.Context(), id, upd)
	if err != nil {
		s.errors.WriteHTTPError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleDeletePortfolioItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.errors.WriteHTTPError(w, r, err)
		return
	}
	if err := s.portfolio.Delete(r.Context(), id); err != nil {
		s.errors.WriteHTTPError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
