package scraper

import "context"

// SampleSource returns a fixed candidate set. It backs local development,
// the seed tool, and deployments that have no scrape credentials yet; the
// set is deterministic so repeated runs produce identical scores.
type SampleSource struct{}

func NewSampleSource() *SampleSource { return &SampleSource{} }

func (s *SampleSource) Name() string { return "sample" }

var sampleCandidates = []Candidate{
	{DomainName: "techstartup", TLD: "com", Price: 120, AgeDays: 2920, BacklinkCount: 45},
	{DomainName: "cloudbase", TLD: "io", Price: 340, AgeDays: 3650, BacklinkCount: 210},
	{DomainName: "cryptotrader", TLD: "com", Price: 95, AgeDays: 1460, BacklinkCount: 30},
	{DomainName: "aishop", TLD: "net", Price: 60, AgeDays: 730, BacklinkCount: 12},
	{DomainName: "webflowpro", TLD: "dev", Price: 45, AgeDays: 1095, BacklinkCount: 8},
	{DomainName: "mediastream", TLD: "tv", Price: 150, AgeDays: 2555, BacklinkCount: 75},
	{DomainName: "quickpay", TLD: "app", Price: 80, AgeDays: 1825, BacklinkCount: 25},
	{DomainName: "datahub", TLD: "org", Price: 200, AgeDays: 4380, BacklinkCount: 160},
	{DomainName: "my-shop123", TLD: "biz", Price: 10, AgeDays: 365, BacklinkCount: 2},
	{DomainName: "qwrtzxy", TLD: "info", Price: 5, AgeDays: 180, BacklinkCount: 0},
}

func (s *SampleSource) Fetch(_ context.Context, limit int) ([]Candidate, error) {
	out := make([]Candidate, len(sampleCandidates))
	copy(out, sampleCandidates)
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}
