package store

import "time"

// Domain is one tracked expired-domain candidate with its latest score.
type Domain struct {
	ID            int64   `json:"id"`
	DomainName    string  `json:"domain_name"`
	TLD           string  `json:"tld"`
	Price         *float64 `json:"price,omitempty"`
	AgeDays       int     `json:"domain_age_days"`
	BacklinkCount int     `json:"backlink_count"`
	EstimatedDA   *int    `json:"domain_authority,omitempty"`
	TrafficSignal *float64 `json:"traffic_signal,omitempty"`

	WaybackSnapshots int        `json:"wayback_snapshots"`
	Registered       bool       `json:"registered"`
	FirstSeen        *time.Time `json:"first_seen,omitempty"`

	QualityScore      float64 `json:"quality_score"`
	Grade             string  `json:"grade"`
	PriceEstimateLow  float64 `json:"price_estimate_low"`
	PriceEstimateHigh float64 `json:"price_estimate_high"`
	ROIEstimate       float64 `json:"roi_estimate"`

	Status      string    `json:"status"` // available | pending_delete | taken
	LastChecked time.Time `json:"last_checked"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// FullName returns the printable domain.tld form.
func (d Domain) FullName() string {
	return d.DomainName + "." + d.TLD
}

// ScoreRecord is one historical scoring evaluation for a domain.
type ScoreRecord struct {
	ID       int64     `json:"id"`
	DomainID int64     `json:"domain_id"`

	AgeScore          float64 `json:"age_score"`
	BacklinkScore     float64 `json:"backlink_score"`
	AuthorityScore    float64 `json:"authority_score"`
	BrandabilityScore float64 `json:"brandability_score"`
	KeywordScore      float64 `json:"keyword_score"`
	TrafficScore      float64 `json:"traffic_score"`
	TotalScore        float64 `json:"total_score"`
	Grade             string  `json:"grade"`

	ScoredAt time.Time `json:"scored_at"`
}

// PortfolioItem tracks an acquired domain and its position.
type PortfolioItem struct {
	ID            int64      `json:"id"`
	DomainID      int64      `json:"domain_id"`
	PurchasePrice float64    `json:"purchase_price"`
	PurchaseDate  time.Time  `json:"purchase_date"`
	SalePrice     *float64   `json:"sale_price,omitempty"`
	SaleDate      *time.Time `json:"sale_date,omitempty"`
	Status        string     `json:"status"` // holding | sold | monitoring
	Notes         string     `json:"notes,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	// Joined fields, populated on reads.
	DomainName   string  `json:"domain_name,omitempty"`
	TLD          string  `json:"tld,omitempty"`
	QualityScore float64 `json:"quality_score,omitempty"`
}

// RealizedROI returns the percentage return for a sold item, or nil while
// the position is open.
func (p PortfolioItem) RealizedROI() *float64 {
	if p.SalePrice == nil || p.PurchasePrice <= 0 {
		return nil
	}
	roi := (*p.SalePrice - p.PurchasePrice) / p.PurchasePrice * 100
	return &roi
}

// AlertSubscription is one recipient's filter for new-domain alerts.
type AlertSubscription struct {
	ID              int64     `json:"id"`
	Email           string    `json:"email"`
	Phone           *string   `json:"phone,omitempty"` // E.164, enables SMS alerts
	MinQualityScore float64   `json:"min_quality_score"`
	MinDomainAge    *int      `json:"min_domain_age,omitempty"`
	MaxDomainAge    *int      `json:"max_domain_age,omitempty"`
	MinBacklinks    *int      `json:"min_backlinks,omitempty"`
	Active          bool      `json:"active"`
	CreatedAt       time.Time `json:"created_at"`
}

// AlertDelivery records one sent alert for auditing.
type AlertDelivery struct {
	ID             int64     `json:"id"`
	SubscriptionID int64     `json:"subscription_id"`
	Channel        string    `json:"channel"` // email | sms | slack
	DomainCount    int       `json:"domain_count"`
	SentAt         time.Time `json:"sent_at"`
}

// DomainFilter narrows List queries.
type DomainFilter struct {
	MinScore *float64
	TLD      string
	Status   string
	SortBy   string
	SortDesc bool
	Limit    int
	Offset   int
}
