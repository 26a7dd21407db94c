package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"domain-finder/internal/common/config"
	"domain-finder/internal/common/database"
	"domain-finder/internal/common/logger"
	"domain-finder/internal/store"
)

// newFakeES stands in for an Elasticsearch node. The product header is
// required or the client rejects the server.
func newFakeES(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *database.ElasticsearchClient) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	es, err := database.NewElasticsearch(config.ElasticsearchConfig{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return srv, es
}

func TestIndexer_EnsureIndex_CreatesWhenMissing(t *testing.T) {
	var created bool
	_, es := newFakeES(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodHead && r.URL.Path == "/domains":
			w.WriteHeader(http.StatusNotFound)
		case r.Method == http.MethodPut && r.URL.Path == "/domains":
			body, _ := io.ReadAll(r.Body)
			assert.Contains(t, string(body), `"quality_score"`)
			created = true
			fmt.Fprint(w, `{"acknowledged":true}`)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	})

	idx := NewIndexer(es, "domains", logger.NewTestLogger(t))
	require.NoError(t, idx.EnsureIndex(context.Background()))
	assert.True(t, created)
}

func TestIndexer_EnsureIndex_SkipsWhenPresent(t *testing.T) {
	_, es := newFakeES(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead && r.URL.Path == "/domains" {
			w.WriteHeader(http.StatusOK)
			return
		}
		t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
	})

	idx := NewIndexer(es, "domains", logger.NewTestLogger(t))
	require.NoError(t, idx.EnsureIndex(context.Background()))
}

func TestIndexer_IndexDomain(t *testing.T) {
	price := 120.0
	var got Document
	_, es := newFakeES(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/domains/_doc/7", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		fmt.Fprint(w, `{"result":"created"}`)
	})

	idx := NewIndexer(es, "domains", logger.NewTestLogger(t))
	err := idx.IndexDomain(context.Background(), &store.Domain{
		ID:            7,
		DomainName:    "techstartup",
		TLD:           "com",
		Price:         &price,
		AgeDays:       2920,
		BacklinkCount: 45,
		QualityScore:  45.2,
		Grade:         "D",
		Status:        "available",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(7), got.DomainID)
	assert.Equal(t, "techstartup.com", got.FullName)
	assert.Equal(t, 120.0, got.Price)
	assert.Equal(t, 45.2, got.QualityScore)
	assert.Equal(t, "D", got.Grade)
}

func TestIndexer_Search(t *testing.T) {
	var reqBody map[string]interface{}
	_, es := newFakeES(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/domains/_search", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))
		fmt.Fprint(w, `{"hits":{"hits":[
			{"_source":{"domain_id":1,"full_name":"cloudbase.io","quality_score":91.5,"grade":"A"}},
			{"_source":{"domain_id":2,"full_name":"techstartup.com","quality_score":45.2,"grade":"D"}}
		]}}`)
	})

	idx := NewIndexer(es, "domains", logger.NewTestLogger(t))
	docs, err := idx.Search(context.Background(), "cloud", 40, 10)
	require.NoError(t, err)

	require.Len(t, docs, 2)
	assert.Equal(t, "cloudbase.io", docs[0].FullName)
	assert.Equal(t, 91.5, docs[0].QualityScore)

	// The query must carry both the text match and the score filter.
	payload, _ := json.Marshal(reqBody)
	assert.Contains(t, string(payload), `"multi_match"`)
	assert.Contains(t, string(payload), `"gte":40`)
}

func TestIndexer_Search_ErrorStatus(t *testing.T) {
	_, es := newFakeES(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"type":"parsing_exception"}}`)
	})

	idx := NewIndexer(es, "domains", logger.NewTestLogger(t))
	_, err := idx.Search(context.Background(), "bad", 0, 10)
	require.Error(t, err)
}
