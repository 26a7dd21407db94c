// test/e2e/e2e_test.go
package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// baseURL points at a running server, e.g. E2E_BASE_URL=http://localhost:8000.
// The suite is skipped when it is unset so unit runs stay hermetic.
var baseURL string

var httpClient = &http.Client{Timeout: 30 * time.Second}

func TestMain(m *testing.M) {
	baseURL = os.Getenv("E2E_BASE_URL")
	os.Exit(m.Run())
}

func requireServer(t *testing.T) {
	t.Helper()
	if baseURL == "" {
		t.Skip("E2E_BASE_URL not set, skipping e2e tests")
	}
}

func getJSON(t *testing.T, path string, out interface{}) int {
	t.Helper()
	resp, err := httpClient.Get(baseURL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func postJSON(t *testing.T, path string, body interface{}, out interface{}) int {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := httpClient.Post(baseURL+path, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestFullE2E(t *testing.T) {
	requireServer(t)

	t.Log("🚀 Starting FULL E2E test against a running server...")

	// 1. Health check
	var health map[string]string
	require.Equal(t, http.StatusOK, getJSON(t, "/health", &health))
	assert.Equal(t, "healthy", health["status"])

	// 2. Create and score a domain synchronously
	name := fmt.Sprintf("e2e-%d", time.Now().UnixNano())
	created := struct {
		Domain struct {
			ID           int64   `json:"id"`
			DomainName   string  `json:"domain_name"`
			QualityScore float64 `json:"quality_score"`
			Grade        string  `json:"grade"`
		} `json:"domain"`
		Recommendation string `json:"recommendation"`
	}{}
	status := postJSON(t, "/api/v1/domains", map[string]interface{}{
		"domain_name":    name,
		"tld":            "com",
		"age_days":       2920,
		"backlink_count": 45,
	}, &created)
	require.Equal(t, http.StatusCreated, status)
	require.NotZero(t, created.Domain.ID)
	assert.Greater(t, created.Domain.QualityScore, 0.0)
	assert.NotEmpty(t, created.Domain.Grade)
	assert.NotEmpty(t, created.Recommendation)
	t.Logf("✅ Created domain %s.com with score %.1f (%s)",
		name, created.Domain.QualityScore, created.Domain.Grade)

	domainPath := fmt.Sprintf("/api/v1/domains/%d", created.Domain.ID)

	// 3. Fetch it back
	fetched := struct {
		DomainName string `json:"domain_name"`
	}{}
	require.Equal(t, http.StatusOK, getJSON(t, domainPath, &fetched))
	assert.Equal(t, name, fetched.DomainName)

	// 4. Score history carries the creation record
	history := struct {
		Scores []map[string]interface{} `json:"scores"`
	}{}
	require.Equal(t, http.StatusOK, getJSON(t, domainPath+"/scores", &history))
	assert.NotEmpty(t, history.Scores)

	// 5. Listing with a filter finds it
	listed := struct {
		Domains []map[string]interface{} `json:"domains"`
		Total   int                      `json:"total"`
	}{}
	require.Equal(t, http.StatusOK,
		getJSON(t, "/api/v1/domains?tld=com&limit=100", &listed))
	assert.NotEmpty(t, listed.Domains)

	// 6. Portfolio lifecycle: buy, mark sold, delete
	item := struct {
		ID int64 `json:"id"`
	}{}
	status = postJSON(t, "/api/v1/portfolio", map[string]interface{}{
		"domain_id":      created.Domain.ID,
		"purchase_price": 50,
		"purchase_date":  time.Now().UTC().Format(time.RFC3339),
	}, &item)
	require.Equal(t, http.StatusCreated, status)

	patch, err := http.NewRequest(http.MethodPatch,
		fmt.Sprintf("%s/api/v1/portfolio/%d", baseURL, item.ID),
		strings.NewReader(`{"status":"sold","sale_price":450,"sale_date":"`+
			time.Now().UTC().Format(time.RFC3339)+`"}`))
	require.NoError(t, err)
	patch.Header.Set("Content-Type", "application/json")
	resp, err := httpClient.Do(patch)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	del, err := http.NewRequest(http.MethodDelete,
		fmt.Sprintf("%s/api/v1/portfolio/%d", baseURL, item.ID), nil)
	require.NoError(t, err)
	resp, err = httpClient.Do(del)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	t.Log("✅ Portfolio lifecycle complete")

	// 7. CSV export streams with the right headers
	resp, err = httpClient.Get(baseURL + "/api/v1/export/domains.csv")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/csv")
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "domain")

	// 8. Search is either live or cleanly disabled
	searchStatus := getJSON(t, "/api/v1/search?q="+name, nil)
	if searchStatus == http.StatusServiceUnavailable {
		t.Log("⚠️  Elasticsearch disabled, search returned 503 as expected")
	} else {
		assert.Equal(t, http.StatusOK, searchStatus)
	}

	t.Log("🎉 FULL E2E test passed")
}

func TestE2E_ValidationErrors(t *testing.T) {
	requireServer(t)

	status := postJSON(t, "/api/v1/domains", map[string]interface{}{
		"domain_name": "bad_name!",
		"tld":         "com",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	assert.Equal(t, http.StatusNotFound, getJSON(t, "/api/v1/domains/999999999", nil))
}
