package scoring

// GradeFor maps a total score to its letter grade. Bands are closed with
// inclusive lower bounds.
func GradeFor(total float64) Grade {
	switch {
	case total >= 85:
		return GradeA
	case total >= 70:
		return GradeB
	case total >= 55:
		return GradeC
	case total >= 40:
		return GradeD
	case total >= 25:
		return GradeE
	default:
		return GradeF
	}
}

// PriceBand returns the estimated resale range in USD for a grade.
func PriceBand(grade Grade) (low, high float64) {
	switch grade {
	case GradeA:
		return 10000, 100000
	case GradeB:
		return 2000, 15000
	case GradeC:
		return 500, 3000
	case GradeD:
		return 100, 600
	case GradeE:
		return 20, 150
	default:
		return 5, 25
	}
}

// ROIEstimate projects the return percentage against the configured
// acquisition baseline. The band midpoint is discounted by the score so the
// estimate rises with TotalScore inside a band and jumps up at every band
// boundary, keeping the whole mapping monotone.
func ROIEstimate(total float64, cfg Config) float64 {
	low, high := PriceBand(GradeFor(total))
	mid := (low + high) / 2

	acq := cfg.AcquisitionCost
	if acq <= 0 {
		acq = DefaultConfig().AcquisitionCost
	}

	expected := mid * total / 100
	return round1((expected - acq) / acq * 100)
}

// Recommendation buckets a total score for the opportunity export.
func Recommendation(total float64) string {
	switch {
	case total >= 85:
		return "STRONG BUY"
	case total >= 70:
		return "BUY"
	case total >= 55:
		return "HOLD"
	default:
		return "WATCH"
	}
}

// KeyFactors lists the notable drivers behind a breakdown, used in the
// opportunity export and alert emails.
func KeyFactors(bd ScoreBreakdown) []string {
	var factors []string
	if bd.AgeScore >= 14 {
		factors = append(factors, "aged domain")
	}
	if bd.BacklinkScore >= 15 {
		factors = append(factors, "strong backlink profile")
	}
	if bd.AuthorityScore >= 12 {
		factors = append(factors, "high authority estimate")
	}
	if bd.BrandabilityScore >= 12 {
		factors = append(factors, "brandable name")
	}
	if bd.KeywordScore >= 6 {
		factors = append(factors, "premium keywords")
	}
	if bd.TrafficScore >= 3 {
		factors = append(factors, "traffic history")
	}
	if len(factors) == 0 {
		factors = append(factors, "no standout signals")
	}
	return factors
}
