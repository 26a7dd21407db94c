// Package scoring implements the deterministic domain quality engine: six
// independently clamped sub-scores summed into a 0-100 total, plus the
// grade, price-band, and ROI mapping derived from that total. The package
// performs no I/O and holds no state; every function is safe for concurrent
// use.
package scoring

import (
	"math"
	"strings"
)

const daysPerYear = 365.25

// Score computes the full breakdown for one domain. It is total: malformed
// inputs (negative counts, out-of-range authority) are clamped, never
// rejected, and absent optional fields contribute zero.
func Score(attrs DomainAttributes, cfg Config) ScoreBreakdown {
	bd := ScoreBreakdown{
		AgeScore:          ageScore(attrs.AgeDays, cfg),
		BacklinkScore:     backlinkScore(attrs.BacklinkCount, cfg),
		AuthorityScore:    authorityScore(attrs.DomainAuthority, cfg),
		BrandabilityScore: brandabilityScore(attrs.DomainName, cfg),
		KeywordScore:      keywordScore(attrs.KeywordHits, cfg),
		TrafficScore:      trafficScore(attrs.TrafficSignal, cfg),
	}

	total := bd.AgeScore + bd.BacklinkScore + bd.AuthorityScore +
		bd.BrandabilityScore + bd.KeywordScore + bd.TrafficScore
	bd.TotalScore = round2(clamp(total, 0, 100))

	bd.Grade = GradeFor(bd.TotalScore)
	bd.PriceEstimateLow, bd.PriceEstimateHigh = PriceBand(bd.Grade)
	bd.ROIEstimate = ROIEstimate(bd.TotalScore, cfg)

	return bd
}

// ageScore scales registration age onto [0, AgeMax] with a log curve that
// saturates at AgeSaturationYears.
func ageScore(ageDays int, cfg Config) float64 {
	if ageDays <= 0 {
		return 0
	}
	years := float64(ageDays) / daysPerYear
	ratio := math.Log10(years+1) / math.Log10(cfg.AgeSaturationYears+1)
	return round2(cfg.AgeMax * math.Min(1, ratio))
}

// backlinkScore scales the backlink count onto [0, BacklinkMax]; small
// counts contribute little, BacklinkSaturation links reach the ceiling.
func backlinkScore(count int, cfg Config) float64 {
	if count <= 0 {
		return 0
	}
	ratio := math.Log10(float64(count)+1) / math.Log10(cfg.BacklinkSaturation+1)
	return round2(cfg.BacklinkMax * math.Min(1, ratio))
}

// authorityScore maps the 0-100 authority estimate linearly onto
// [0, AuthorityMax]. Unknown authority contributes zero.
func authorityScore(authority *int, cfg Config) float64 {
	if authority == nil {
		return 0
	}
	da := clamp(float64(*authority), 0, 100)
	return round2(da * cfg.AuthorityMax / 100)
}

// brandabilityScore rates the bare name on length, pronounceability, and
// cleanliness. The rules are deliberately explicit so the result is
// reproducible from the table below:
//
//	length 6-12 -> +7, 4-5 -> +5, 13-16 -> +3, 17+ -> +1
//	1-3 chars   -> +7 with a vowel, 0 without (remaining rules skipped)
//	no hyphen and no digit -> +3
//	vowel ratio in [0.3,0.5] -> +5, in [0.2,0.6] -> +3
//	each run of 3+ identical chars -> -2
func brandabilityScore(name string, cfg Config) float64 {
	name = strings.ToLower(name)
	n := len(name)
	if n == 0 {
		return 0
	}

	if n <= 3 {
		if countVowels(name) > 0 {
			return round2(math.Min(7, cfg.BrandabilityMax))
		}
		return 0
	}

	var score float64
	switch {
	case n <= 5:
		score += 5
	case n <= 12:
		score += 7
	case n <= 16:
		score += 3
	default:
		score += 1
	}

	if !strings.Contains(name, "-") && !strings.ContainsAny(name, "0123456789") {
		score += 3
	}

	ratio := float64(countVowels(name)) / float64(n)
	switch {
	case ratio >= 0.3 && ratio <= 0.5:
		score += 5
	case ratio >= 0.2 && ratio <= 0.6:
		score += 3
	}

	score -= 2 * float64(repeatRuns(name))

	return round2(clamp(score, 0, cfg.BrandabilityMax))
}

// keywordScore awards a fixed increment per matched high-value category and
// a fixed penalty per matched spam category, clamped to [0, KeywordMax].
func keywordScore(hits []KeywordCategory, cfg Config) float64 {
	var score float64
	seen := map[KeywordCategory]bool{}
	for _, cat := range hits {
		if seen[cat] {
			continue
		}
		seen[cat] = true
		if cat.IsSpam() {
			score -= cfg.SpamCategoryPenalty
		} else {
			score += cfg.KeywordCategoryPoints
		}
	}
	return round2(clamp(score, 0, cfg.KeywordMax))
}

// trafficScore scales the historical-visits proxy onto [0, TrafficMax],
// saturating at TrafficSaturation. Unknown traffic contributes zero.
func trafficScore(signal *float64, cfg Config) float64 {
	if signal == nil || *signal <= 0 {
		return 0
	}
	ratio := math.Log10(*signal+1) / math.Log10(cfg.TrafficSaturation+1)
	return round2(cfg.TrafficMax * math.Min(1, ratio))
}

func countVowels(s string) int {
	n := 0
	for _, r := range s {
		switch r {
		case 'a', 'e', 'i', 'o', 'u':
			n++
		}
	}
	return n
}

// repeatRuns counts maximal runs of three or more identical characters.
func repeatRuns(s string) int {
	runs := 0
	runLen := 1
	for i := 1; i <= len(s); i++ {
		if i < len(s) && s[i] == s[i-1] {
			runLen++
			continue
		}
		if runLen >= 3 {
			runs++
		}
		runLen = 1
	}
	return runs
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
