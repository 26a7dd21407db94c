package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"domain-finder/internal/common/config"
	apperrors "domain-finder/internal/common/errors"
	"domain-finder/internal/common/logger"
)

func TestSplitDomain(t *testing.T) {
	cases := []struct {
		in       string
		wantName string
		wantTLD  string
	}{
		{"techstartup.com", "techstartup", "com"},
		{"WWW.CloudBase.IO", "cloudbase", "io"},
		{"example.co.uk", "example", "co.uk"},
		{"  spaced.net  ", "spaced", "net"},
		{"nodot", "nodot", ""},
		{".leadingdot", "", ""},
	}
	for _, tc := range cases {
		name, tld := splitDomain(tc.in)
		assert.Equalf(t, tc.wantName, name, "input %q", tc.in)
		assert.Equalf(t, tc.wantTLD, tld, "input %q", tc.in)
	}
}

func TestNewSource(t *testing.T) {
	log := logger.NewNoOpLogger()

	src, err := NewSource(config.ScraperConfig{Source: "sample"}, log)
	require.NoError(t, err)
	assert.Equal(t, "sample", src.Name())

	src, err = NewSource(config.ScraperConfig{Source: "apify"}, log)
	require.NoError(t, err)
	assert.Equal(t, "apify", src.Name())

	_, err = NewSource(config.ScraperConfig{Source: "darkweb"}, log)
	require.Error(t, err)
	var stdErr *apperrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, apperrors.ErrCodeValidationFailed, stdErr.Code)
}

func TestSampleSource_Deterministic(t *testing.T) {
	src := NewSampleSource()

	first, err := src.Fetch(context.Background(), 0)
	require.NoError(t, err)
	second, err := src.Fetch(context.Background(), 0)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, "techstartup", first[0].DomainName)
	assert.Equal(t, 2920, first[0].AgeDays)
	assert.Equal(t, 45, first[0].BacklinkCount)

	limited, err := src.Fetch(context.Background(), 3)
	require.NoError(t, err)
	assert.Len(t, limited, 3)
}

func TestApifySource_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, "/v2/acts/acme~expired-domains/run-sync-get-dataset-items")
		assert.Equal(t, "tok123", r.URL.Query().Get("token"))
		fmt.Fprint(w, `[
			{"domain":"techstartup.com","price":120,"age_years":8,"backlinks":45},
			{"name":"cloudbase.io","price":340,"age_days":3650,"backlinks":210},
			{"domain":"garbage"},
			{"domain":"mediastream.tv","price":150}
		]`)
	}))
	defer srv.Close()

	src := NewApifySource(config.ApifyConfig{
		BaseURL: srv.URL,
		Token:   "tok123",
		ActorID: "acme~expired-domains",
		Timeout: 5000,
	}, logger.NewTestLogger(t))

	got, err := src.Fetch(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, got, 3, "the item without a dot must be skipped")

	assert.Equal(t, Candidate{DomainName: "techstartup", TLD: "com", Price: 120, AgeDays: 2922, BacklinkCount: 45}, got[0])
	assert.Equal(t, Candidate{DomainName: "cloudbase", TLD: "io", Price: 340, AgeDays: 3650, BacklinkCount: 210}, got[1])
	assert.Equal(t, "mediastream.tv", got[2].FullName())
}

func TestApifySource_Fetch_SourceDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	src := NewApifySource(config.ApifyConfig{BaseURL: srv.URL, ActorID: "a", Timeout: 5000},
		logger.NewTestLogger(t))

	_, err := src.Fetch(context.Background(), 5)
	require.Error(t, err)
	var stdErr *apperrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, apperrors.ErrCodeScrapeSourceDown, stdErr.Code)
	assert.True(t, stdErr.Retryable)
}

const listingHTML = `<html><body>
<table><tr><th>Nav</th></tr><tr><td>ignore me</td></tr></table>
<table>
  <thead><tr><th>Domain Name</th><th>Price (USD)</th><th>Age</th><th>Backlinks</th></tr></thead>
  <tbody>
    <tr><td>techstartup.com</td><td>$120</td><td>8.0</td><td>45</td></tr>
    <tr><td>datahub.org</td><td>$1,250</td><td>12</td><td>1,600</td></tr>
    <tr><td>broken</td><td>$5</td><td>1</td><td>0</td></tr>
  </tbody>
</table>
</body></html>`

func TestExpiredListSource_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, listingHTML)
	}))
	defer srv.Close()

	src := NewExpiredListSource(config.ExpiredListConfig{BaseURL: srv.URL, Timeout: 5000},
		logger.NewTestLogger(t))

	got, err := src.Fetch(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "techstartup", got[0].DomainName)
	assert.Equal(t, "com", got[0].TLD)
	assert.Equal(t, 120.0, got[0].Price)
	assert.Equal(t, 2922, got[0].AgeDays)
	assert.Equal(t, 45, got[0].BacklinkCount)

	assert.Equal(t, 1250.0, got[1].Price)
	assert.Equal(t, 1600, got[1].BacklinkCount)
}

func TestExpiredListSource_Fetch_HonorsLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, listingHTML)
	}))
	defer srv.Close()

	src := NewExpiredListSource(config.ExpiredListConfig{BaseURL: srv.URL, Timeout: 5000},
		logger.NewTestLogger(t))

	got, err := src.Fetch(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
