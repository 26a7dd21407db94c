package api

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"domain-finder/internal/scoring"
	"domain-finder/internal/store"
)

func (s *Server) beginCSV(w http.ResponseWriter, name string) *csv.Writer {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", name))
	return csv.NewWriter(w)
}

// handleExportDomains streams every domain matching the usual list filters.
func (s *Server) handleExportDomains(w http.ResponseWriter, r *http.Request) {
	minScore, err := queryFloat(r, "min_score")
	if err != nil {
		s.errors.WriteHTTPError(w, r, err)
		return
	}

	domains, _, err := s.domains.List(r.Context(), store.DomainFilter{
		MinScore: minScore,
		TLD:      r.URL.Query().Get("tld"),
		Status:   r.URL.Query().Get("status"),
		SortDesc: true,
		Limit:    queryInt(r, "limit", 500),
	})
	if err != nil {
		s.errors.WriteHTTPError(w, r, err)
		return
	}

	cw := s.beginCSV(w, "domains.csv")
	_ = cw.Write([]string{
		"domain", "tld", "quality_score", "grade", "age_days", "backlinks",
		"price", "price_estimate_low", "price_estimate_high", "roi_estimate",
		"status", "last_checked",
	})
	for _, d := range domains {
		price := ""
		if d.Price != nil {
			price = formatFloat(*d.Price)
		}
		_ = cw.Write([]string{
			d.FullName(),
			d.TLD,
			formatFloat(d.QualityScore),
			d.Grade,
			strconv.Itoa(d.AgeDays),
			strconv.Itoa(d.BacklinkCount),
			price,
			formatFloat(d.PriceEstimateLow),
			formatFloat(d.PriceEstimateHigh),
			formatFloat(d.ROIEstimate),
			d.Status,
			d.LastChecked.UTC().Format(time.RFC3339),
		})
	}
	cw.Flush()
}

// handleExportOpportunities is the buyer-facing view: available domains over
// the score floor, annotated with the recommendation and its drivers.
func (s *Server) handleExportOpportunities(w http.ResponseWriter, r *http.Request) {
	minScore := s.scoringCfg.MinQualityScore
	if override, err := queryFloat(r, "min_score"); err == nil && override != nil {
		minScore = *override
	}

	domains, _, err := s.domains.List(r.Context(), store.DomainFilter{
		MinScore: &minScore,
		Status:   "available",
		SortDesc: true,
		Limit:    queryInt(r, "limit", 500),
	})
	if err != nil {
		s.errors.WriteHTTPError(w, r, err)
		return
	}

	cw := s.beginCSV(w, "opportunities.csv")
	_ = cw.Write([]string{
		"domain", "quality_score", "grade", "recommendation",
		"price_estimate_low", "price_estimate_high", "roi_estimate", "key_factors",
	})
	for _, d := range domains {
		// Recompute the breakdown so key_factors reflects the sub-scores,
		// not just the stored total.
		bd := scoring.Score(scoring.DomainAttributes{
			DomainName:      d.DomainName,
			TLD:             d.TLD,
			AgeDays:         d.AgeDays,
			BacklinkCount:   d.BacklinkCount,
			DomainAuthority: d.EstimatedDA,
			TrafficSignal:   d.TrafficSignal,
			KeywordHits:     scoring.DetectKeywords(d.DomainName),
		}, s.scoringCfg)
		_ = cw.Write([]string{
			d.FullName(),
			formatFloat(d.QualityScore),
			d.Grade,
			scoring.Recommendation(d.QualityScore),
			formatFloat(d.PriceEstimateLow),
			formatFloat(d.PriceEstimateHigh),
			formatFloat(d.ROIEstimate),
			joinFactors(scoring.KeyFactors(bd)),
		})
	}
	cw.Flush()
}

func (s *Server) handleExportPortfolio(w http.ResponseWriter, r *http.Request) {
	items, err := s.portfolio.List(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		s.errors.WriteHTTPError(w, r, err)
		return
	}

	cw := s.beginCSV(w, "portfolio.csv")
	_ = cw.Write([]string{
		"domain", "status", "purchase_price", "purchase_date",
		"sale_price", "sale_date", "realized_roi_pct", "quality_score", "notes",
	})
	for _, item := range items {
		salePrice, saleDate, roi := "", "", ""
		if item.SalePrice != nil {
			salePrice = formatFloat(*item.SalePrice)
		}
		if item.SaleDate != nil {
			saleDate = item.SaleDate.UTC().Format(time.RFC3339)
		}
		if r := item.RealizedROI(); r != nil {
			roi = formatFloat(*r)
		}
		_ = cw.Write([]string{
			item.DomainName + "." + item.TLD,
			item.Status,
			formatFloat(item.PurchasePrice),
			item.PurchaseDate.UTC().Format(time.RFC3339),
			salePrice,
			saleDate,
			roi,
			formatFloat(item.QualityScore),
			item.Notes,
		})
	}
	cw.Flush()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func joinFactors(factors []string) string {
	out := ""
	for i, f := range factors {
		if i > 0 {
			out += "; "
		}
		out += f
	}
	return out
}
