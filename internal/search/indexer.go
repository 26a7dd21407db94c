// Package search maintains the Elasticsearch side index of scored domains.
// Postgres stays the source of truth; the index only powers free-text
// lookups, so every operation here is best-effort from the pipeline's point
// of view.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"domain-finder/internal/common/database"
	apperrors "domain-finder/internal/common/errors"
	"domain-finder/internal/common/logger"
	"domain-finder/internal/store"
)

const indexMapping = `{
  "mappings": {
    "properties": {
      "domain_name":    {"type": "text"},
      "full_name":      {"type": "text"},
      "tld":            {"type": "keyword"},
      "status":         {"type": "keyword"},
      "grade":          {"type": "keyword"},
      "quality_score":  {"type": "float"},
      "price":          {"type": "float"},
      "age_days":       {"type": "integer"},
      "backlink_count": {"type": "integer"},
      "updated_at":     {"type": "date"}
    }
  }
}`

// Document is the indexed projection of a domain row.
type Document struct {
	DomainID      int64     `json:"domain_id"`
	DomainName    string    `json:"domain_name"`
	FullName      string    `json:"full_name"`
	TLD           string    `json:"tld"`
	Status        string    `json:"status"`
	Grade         string    `json:"grade"`
	QualityScore  float64   `json:"quality_score"`
	Price         float64   `json:"price"`
	AgeDays       int       `json:"age_days"`
	BacklinkCount int       `json:"backlink_count"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type Indexer struct {
	es     *database.ElasticsearchClient
	index  string
	logger logger.Logger
}

func NewIndexer(es *database.ElasticsearchClient, index string, log logger.Logger) *Indexer {
	return &Indexer{es: es, index: index, logger: log}
}

// EnsureIndex creates the index with its mapping if it does not exist yet.
func (i *Indexer) EnsureIndex(ctx context.Context) error {
	client := i.es.Client

	res, err := client.Indices.Exists([]string{i.index}, client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return apperrors.NewSearchIndexFailedError(i.index, err)
	}
	res.Body.Close()
	if res.StatusCode == 200 {
		return nil
	}

	res, err = client.Indices.Create(i.index,
		client.Indices.Create.WithContext(ctx),
		client.Indices.Create.WithBody(bytes.NewReader([]byte(indexMapping))),
	)
	if err != nil {
		return apperrors.NewSearchIndexFailedError(i.index, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return apperrors.NewSearchIndexFailedError(i.index,
			fmt.Errorf("create index: %s", res.Status()))
	}

	i.logger.Info("Search index created", map[string]interface{}{"index": i.index})
	return nil
}

// IndexDomain upserts the document for one domain, keyed by its row id.
func (i *Indexer) IndexDomain(ctx context.Context, d *store.Domain) error {
	doc := Document{
		DomainID:      d.ID,
		DomainName:    d.DomainName,
		FullName:      d.FullName(),
		TLD:           d.TLD,
		Status:        d.Status,
		Grade:         d.Grade,
		QualityScore:  d.QualityScore,
		AgeDays:       d.AgeDays,
		BacklinkCount: d.BacklinkCount,
		UpdatedAt:     time.Now().UTC(),
	}
	if d.Price != nil {
		doc.Price = *d.Price
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		return apperrors.NewSearchIndexFailedError(i.index, err)
	}

	client := i.es.Client
	res, err := client.Index(i.index, bytes.NewReader(payload),
		client.Index.WithContext(ctx),
		client.Index.WithDocumentID(strconv.FormatInt(d.ID, 10)),
	)
	if err != nil {
		return apperrors.NewSearchIndexFailedError(i.index, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return apperrors.NewSearchIndexFailedError(i.index,
			fmt.Errorf("index document %d: %s", d.ID, res.Status()))
	}
	return nil
}

// Search runs a free-text match over domain names, optionally filtered by a
// minimum quality score, ordered by score descending.
func (i *Indexer) Search(ctx context.Context, query string, minScore float64, limit int) ([]Document, error) {
	if limit <= 0 || limit > 100 {
		limit = 25
	}

	must := []map[string]interface{}{}
	if query != "" {
		must = append(must, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  query,
				"fields": []string{"full_name", "domain_name"},
			},
		})
	}
	filter := []map[string]interface{}{}
	if minScore > 0 {
		filter = append(filter, map[string]interface{}{
			"range": map[string]interface{}{
				"quality_score": map[string]interface{}{"gte": minScore},
			},
		})
	}

	body := map[string]interface{}{
		"size": limit,
		"sort": []map[string]interface{}{
			{"quality_score": map[string]interface{}{"order": "desc"}},
		},
		"query": map[string]interface{}{
			"bool": map[string]interface{}{"must": must, "filter": filter},
		},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, apperrors.NewSearchQueryFailedError(i.index, err)
	}

	client := i.es.Client
	res, err := client.Search(
		client.Search.WithContext(ctx),
		client.Search.WithIndex(i.index),
		client.Search.WithBody(bytes.NewReader(payload)),
	)
	if err != nil {
		return nil, apperrors.NewSearchQueryFailedError(i.index, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, apperrors.NewSearchQueryFailedError(i.index,
			fmt.Errorf("search: %s", res.Status()))
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source Document `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, apperrors.NewSearchQueryFailedError(i.index, err)
	}

	docs := make([]Document, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		docs = append(docs, hit.Source)
	}
	return docs, nil
}
