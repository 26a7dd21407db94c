package scoring

// DomainAttributes is the raw input for one scoring evaluation. It is
// assembled by the collection side (scraper + enrichment lookups) and never
// mutated by the engine.
type DomainAttributes struct {
	DomainName string `json:"domainName"`
	TLD        string `json:"tld"`

	AgeDays       int `json:"ageDays"`
	BacklinkCount int `json:"backlinkCount"`

	// DomainAuthority is a 0-100 estimate; nil means unknown.
	DomainAuthority *int `json:"domainAuthority,omitempty"`

	// TrafficSignal is a historical-visits proxy (e.g. Wayback-derived);
	// nil means unknown.
	TrafficSignal *float64 `json:"trafficSignal,omitempty"`

	// KeywordHits is the set of high-value categories matched in the name,
	// produced by DetectKeywords or supplied directly.
	KeywordHits []KeywordCategory `json:"keywordHits"`
}

// ScoreBreakdown is the engine output: six sub-scores, their clamped sum,
// and the derived valuation. Immutable once produced.
type ScoreBreakdown struct {
	AgeScore          float64 `json:"ageScore"`
	BacklinkScore     float64 `json:"backlinkScore"`
	AuthorityScore    float64 `json:"authorityScore"`
	BrandabilityScore float64 `json:"brandabilityScore"`
	KeywordScore      float64 `json:"keywordScore"`
	TrafficScore      float64 `json:"trafficScore"`

	TotalScore float64 `json:"totalScore"`
	Grade      Grade   `json:"grade"`

	PriceEstimateLow  float64 `json:"priceEstimateLow"`
	PriceEstimateHigh float64 `json:"priceEstimateHigh"`
	ROIEstimate       float64 `json:"roiEstimate"`
}

// Grade is the letter bucket derived from TotalScore.
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeE Grade = "E"
	GradeF Grade = "F"
)

// Config carries every tunable constant of the engine. It is passed
// explicitly so scoring stays a pure function of (attributes, config).
type Config struct {
	AgeMax          float64 `json:"ageMax"`
	BacklinkMax     float64 `json:"backlinkMax"`
	AuthorityMax    float64 `json:"authorityMax"`
	BrandabilityMax float64 `json:"brandabilityMax"`
	KeywordMax      float64 `json:"keywordMax"`
	TrafficMax      float64 `json:"trafficMax"`

	// Saturation points: the input value at which a sub-score reaches its
	// ceiling. Age in years, backlinks and traffic in raw units.
	AgeSaturationYears  float64 `json:"ageSaturationYears"`
	BacklinkSaturation  float64 `json:"backlinkSaturation"`
	TrafficSaturation   float64 `json:"trafficSaturation"`

	KeywordCategoryPoints float64 `json:"keywordCategoryPoints"`
	SpamCategoryPenalty   float64 `json:"spamCategoryPenalty"`

	// AcquisitionCost is the assumed purchase baseline the ROI estimate is
	// computed against. Policy constant, not derived.
	AcquisitionCost float64 `json:"acquisitionCost"`

	// MinQualityScore is the alerting threshold carried alongside the
	// engine constants so consumers share one source of truth.
	MinQualityScore float64 `json:"minQualityScore"`
}

// DefaultConfig returns the production constants. Under these values an
// eight-year-old domain with 45 backlinks and no authority, traffic, or
// keyword signal lands at ~45.5 (grade D).
func DefaultConfig() Config {
	return Config{
		AgeMax:          20,
		BacklinkMax:     25,
		AuthorityMax:    20,
		BrandabilityMax: 15,
		KeywordMax:      15,
		TrafficMax:      5,

		AgeSaturationYears: 10,
		BacklinkSaturation: 1000,
		TrafficSaturation:  10000,

		KeywordCategoryPoints: 3,
		SpamCategoryPenalty:   5,

		AcquisitionCost: 50,
		MinQualityScore: 50,
	}
}
