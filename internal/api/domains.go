package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "domain-finder/internal/common/errors"
	"domain-finder/internal/common/validation"
	"domain-finder/internal/scoring"
	"domain-finder/internal/store"
)

const maxBodyBytes = 1 << 20

const createDomainSchema = `{
	"type": "object",
	"required": ["domain_name", "tld"],
	"properties": {
		"domain_name":      {"type": "string", "minLength": 1, "maxLength": 63},
		"tld":              {"type": "string", "minLength": 2, "maxLength": 24},
		"price":            {"type": "number", "minimum": 0},
		"age_days":         {"type": "integer"},
		"backlink_count":   {"type": "integer"},
		"domain_authority": {"type": ["integer", "null"]},
		"traffic_signal":   {"type": ["number", "null"]}
	},
	"additionalProperties": false
}`

type createDomainRequest struct {
	DomainName      string   `json:"domain_name"`
	TLD             string   `json:"tld"`
	Price           *float64 `json:"price"`
	AgeDays         int      `json:"age_days"`
	BacklinkCount   int      `json:"backlink_count"`
	DomainAuthority *int     `json:"domain_authority"`
	TrafficSignal   *float64 `json:"traffic_signal"`
}

// domainResponse pairs the stored row with its current score breakdown so
// clients see the sub-scores without a second request.
type domainResponse struct {
	Domain         *store.Domain          `json:"domain"`
	Breakdown      scoring.ScoreBreakdown `json:"breakdown"`
	Recommendation string                 `json:"recommendation"`
	KeyFactors     []string               `json:"key_factors"`
}

func (s *Server) handleListDomains(w http.ResponseWriter, r *http.Request) {
	minScore, err := queryFloat(r, "min_score")
	if err != nil {
		s.errors.WriteHTTPError(w, r, err)
		return
	}

	filter := store.DomainFilter{
		MinScore: minScore,
		TLD:      strings.ToLower(r.URL.Query().Get("tld")),
		Status:   r.URL.Query().Get("status"),
		SortBy:   r.URL.Query().Get("sort_by"),
		SortDesc: r.URL.Query().Get("order") != "asc",
		Limit:    queryInt(r, "limit", 50),
		Offset:   queryInt(r, "offset", 0),
	}

	domains, total, err := s.domains.List(r.Context(), filter)
	if err != nil {
		s.errors.WriteHTTPError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"domains": domains,
		"total":   total,
		"limit":   filter.Limit,
		"offset":  filter.Offset,
	})
}

func (s *Server) handleTopDomains(w http.ResponseWriter, r *http.Request) {
	domains, err := s.domains.Top(r.Context(), queryInt(r, "limit", 10))
	if err != nil {
		s.errors.WriteHTTPError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"domains": domains})
}

func (s *Server) handleGetDomain(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.errors.WriteHTTPError(w, r, err)
		return
	}
	d, err := s.domains.GetByID(r.Context(), id)
	if err != nil {
		s.errors.WriteHTTPError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, d)
}

// handleCreateDomain scores a caller-supplied domain synchronously and
// stores the result.
func (s *Server) handleCreateDomain(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		s.errors.WriteHTTPError(w, r, apperrors.NewValidationFailedError("unreadable request body"))
		return
	}

	result, err := validation.ValidateJSON(createDomainSchema, body)
	if err != nil {
		s.errors.WriteHTTPError(w, r, apperrors.NewValidationFailedError("request body is not valid JSON"))
		return
	}
	if !result.Valid {
		s.errors.WriteHTTPError(w, r, apperrors.NewValidationFailedError(
			strings.Join(result.GetErrorMessages(), "; ")))
		return
	}

	var req createDomainRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.errors.WriteHTTPError(w, r, apperrors.NewValidationFailedError("request body is not valid JSON"))
		return
	}

	req.DomainName = strings.ToLower(strings.TrimSpace(req.DomainName))
	req.TLD = strings.ToLower(strings.TrimSpace(req.TLD))
	if !validation.ValidateDomainName(req.DomainName) {
		s.errors.WriteHTTPError(w, r, apperrors.NewValidationFailedError("domain_name has invalid characters"))
		return
	}

	attrs := scoring.DomainAttributes{
		DomainName:      req.DomainName,
		TLD:             req.TLD,
		AgeDays:         req.AgeDays,
		BacklinkCount:   req.BacklinkCount,
		DomainAuthority: req.DomainAuthority,
		TrafficSignal:   req.TrafficSignal,
		KeywordHits:     scoring.DetectKeywords(req.DomainName),
	}
	breakdown := scoring.Score(attrs, s.scoringCfg)

	d := &store.Domain{
		DomainName:        req.DomainName,
		TLD:               req.TLD,
		Price:             req.Price,
		AgeDays:           req.AgeDays,
		BacklinkCount:     req.BacklinkCount,
		EstimatedDA:       req.DomainAuthority,
		TrafficSignal:     req.TrafficSignal,
		QualityScore:      breakdown.TotalScore,
		Grade:             string(breakdown.Grade),
		PriceEstimateLow:  breakdown.PriceEstimateLow,
		PriceEstimateHigh: breakdown.PriceEstimateHigh,
		ROIEstimate:       breakdown.ROIEstimate,
		Status:            "available",
		LastChecked:       time.Now().UTC(),
	}

	stored, err := s.domains.Upsert(r.Context(), d)
	if err != nil {
		s.errors.WriteHTTPError(w, r, err)
		return
	}
	if _, err := s.scores.Append(r.Context(), stored.ID, breakdown); err != nil {
		s.logger.WithError(err).Warn("Score history append failed", map[string]interface{}{
			"domain_id": stored.ID,
		})
	}

	s.writeJSON(w, http.StatusCreated, domainResponse{
		Domain:         stored,
		Breakdown:      breakdown,
		Recommendation: scoring.Recommendation(breakdown.TotalScore),
		KeyFactors:     scoring.KeyFactors(breakdown),
	})
}

// handleRecheckDomain re-enriches and rescores a stored domain.
func (s *Server) handleRecheckDomain(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.errors.WriteHTTPError(w, r, err)
		return
	}

	d, err := s.domains.GetByID(r.Context(), id)
	if err != nil {
		s.errors.WriteHTTPError(w, r, err)
		return
	}

	enrichment, err := s.enricher.Analyze(r.Context(), d.FullName())
	if err != nil {
		s.errors.WriteHTTPError(w, r, err)
		return
	}

	if enrichment.AgeDays > 0 {
		d.AgeDays = enrichment.AgeDays
	}
	if enrichment.BacklinkCount > 0 {
		d.BacklinkCount = enrichment.BacklinkCount
	}
	if enrichment.EstimatedDA > 0 {
		da := enrichment.EstimatedDA
		d.EstimatedDA = &da
	}
	if enrichment.TrafficSignal != nil {
		d.TrafficSignal = enrichment.TrafficSignal
	}
	d.WaybackSnapshots = enrichment.WaybackSnapshots
	d.Registered = enrichment.Registered
	d.FirstSeen = enrichment.FirstSeen
	if enrichment.Registered {
		d.Status = "taken"
	} else {
		d.Status = "available"
	}

	attrs := scoring.DomainAttributes{
		DomainName:      d.DomainName,
		TLD:             d.TLD,
		AgeDays:         d.AgeDays,
		BacklinkCount:   d.BacklinkCount,
		DomainAuthority: d.EstimatedDA,
		TrafficSignal:   d.TrafficSignal,
		KeywordHits:     scoring.DetectKeywords(d.DomainName),
	}
	breakdown := scoring.Score(attrs, s.scoringCfg)
	d.QualityScore = breakdown.TotalScore
	d.Grade = string(breakdown.Grade)
	d.PriceEstimateLow = breakdown.PriceEstimateLow
	d.PriceEstimateHigh = breakdown.PriceEstimateHigh
	d.ROIEstimate = breakdown.ROIEstimate
	d.LastChecked = time.Now().UTC()

	stored, err := s.domains.Upsert(r.Context(), d)
	if err != nil {
		s.errors.WriteHTTPError(w, r, err)
		return
	}
	if _, err := s.scores.Append(r.Context(), stored.ID, breakdown); err != nil {
		s.logger.WithError(err).Warn("Score history append failed", map[string]interface{}{
			"domain_id": stored.ID,
		})
	}

	s.writeJSON(w, http.StatusOK, domainResponse{
		Domain:         stored,
		Breakdown:      breakdown,
		Recommendation: scoring.Recommendation(breakdown.TotalScore),
		KeyFactors:     scoring.KeyFactors(breakdown),
	})
}

func (s *Server) handleScoreHistory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.errors.WriteHTTPError(w, r, err)
		return
	}

	// 404 for unknown domains instead of an empty history.
	if _, err := s.domains.GetByID(r.Context(), id); err != nil {
		s.errors.WriteHTTPError(w, r, err)
		return
	}

	history, err := s.scores.History(r.Context(), id, queryInt(r, "limit", 50))
	if err != nil {
		s.errors.WriteHTTPError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"scores": history})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if s.searcher == nil {
		s.errors.WriteHTTPError(w, r, apperrors.NewElasticsearchConnectionFailedError(
			errSearchDisabled))
		return
	}

	minScore, err := queryFloat(r, "min_score")
	if err != nil {
		s.errors.WriteHTTPError(w, r, err)
		return
	}
	var min float64
	if minScore != nil {
		min = *minScore
	}

	docs, err := s.searcher.Search(r.Context(), r.URL.Query().Get("q"), min, queryInt(r, "limit", 25))
	if err != nil {
		s.errors.WriteHTTPError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"results": docs})
}

func (s *Server) handleTriggerScrape(w http.ResponseWriter, r *http.Request) {
	result, err := s.runner.Run(r.Context())
	if err != nil {
		s.errors.WriteHTTPError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}
