// Package store implements the PostgreSQL repositories for domains, score
// history, portfolio items, and alert subscriptions.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"domain-finder/internal/common/database"
	apperrors "domain-finder/internal/common/errors"
	"domain-finder/internal/common/logger"
)

// domainSortWhitelist guards ORDER BY against injection; only these columns
// may be sorted on.
var domainSortWhitelist = map[string]bool{
	"quality_score":   true,
	"domain_age_days": true,
	"backlink_count":  true,
	"price":           true,
	"last_checked":    true,
	"created_at":      true,
}

const domainColumns = `id, domain_name, tld, price, domain_age_days, backlink_count,
	domain_authority, traffic_signal, wayback_snapshots, registered, first_seen,
	quality_score, grade, price_estimate_low, price_estimate_high, roi_estimate,
	status, last_checked, created_at, updated_at`

type DomainStore struct {
	db     *database.PostgresClient
	logger logger.Logger
}

func NewDomainStore(db *database.PostgresClient, log logger.Logger) *DomainStore {
	return &DomainStore{db: db, logger: log}
}

// Upsert inserts a domain or refreshes an existing row keyed on
// (domain_name, tld), returning the stored record.
func (s *DomainStore) Upsert(ctx context.Context, d *Domain) (*Domain, error) {
	query := `
		INSERT INTO domains (
			domain_name, tld, price, domain_age_days, backlink_count,
			domain_authority, traffic_signal, wayback_snapshots, registered, first_seen,
			quality_score, grade, price_estimate_low, price_estimate_high, roi_estimate,
			status, last_checked, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,NOW(),NOW())
		ON CONFLICT (domain_name, tld) DO UPDATE SET
			price = EXCLUDED.price,
			domain_age_days = EXCLUDED.domain_age_days,
			backlink_count = EXCLUDED.backlink_count,
			domain_authority = EXCLUDED.domain_authority,
			traffic_signal = EXCLUDED.traffic_signal,
			wayback_snapshots = EXCLUDED.wayback_snapshots,
			registered = EXCLUDED.registered,
			first_seen = COALESCE(domains.first_seen, EXCLUDED.first_seen),
			quality_score = EXCLUDED.quality_score,
			grade = EXCLUDED.grade,
			price_estimate_low = EXCLUDED.price_estimate_low,
			price_estimate_high = EXCLUDED.price_estimate_high,
			roi_estimate = EXCLUDED.roi_estimate,
			status = EXCLUDED.status,
			last_checked = NOW(),
			updated_at = NOW()
		RETURNING ` + domainColumns

	row := s.db.QueryRow(ctx, query,
		d.DomainName, d.TLD, d.Price, d.AgeDays, d.BacklinkCount,
		d.EstimatedDA, d.TrafficSignal, d.WaybackSnapshots, d.Registered, d.FirstSeen,
		d.QualityScore, d.Grade, d.PriceEstimateLow, d.PriceEstimateHigh, d.ROIEstimate,
		d.Status,
	)

	stored, err := scanDomain(row)
	if err != nil {
		return nil, apperrors.NewDatabaseInsertFailedError(err)
	}
	return stored, nil
}

// GetByID fetches one domain.
func (s *DomainStore) GetByID(ctx context.Context, id int64) (*Domain, error) {
	row := s.db.QueryRow(ctx, `SELECT `+domainColumns+` FROM domains WHERE id = $1`, id)
	d, err := scanDomain(row)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewDomainNotFoundError(id)
	}
	if err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("domains.get", err)
	}
	return d, nil
}

// GetByName fetches one domain by its (name, tld) pair.
func (s *DomainStore) GetByName(ctx context.Context, name, tld string) (*Domain, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+domainColumns+` FROM domains WHERE domain_name = $1 AND tld = $2`,
		name, tld)
	d, err := scanDomain(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("domains.get_by_name", err)
	}
	return d, nil
}

// List returns domains matching the filter plus the total match count for
// pagination.
func (s *DomainStore) List(ctx context.Context, filter DomainFilter) ([]Domain, int, error) {
	where, args := buildDomainWhere(filter)

	var total int
	countQuery := `SELECT COUNT(*) FROM domains` + where
	if err := s.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, apperrors.NewQueryExecutionFailedError("domains.count", err)
	}

	sortBy := filter.SortBy
	if sortBy == "" {
		sortBy = "quality_score"
		filter.SortDesc = true
	}
	if !domainSortWhitelist[sortBy] {
		return nil, 0, apperrors.NewInvalidSortFieldError(sortBy)
	}
	direction := "ASC"
	if filter.SortDesc {
		direction = "DESC"
	}

	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	query := fmt.Sprintf(
		`SELECT %s FROM domains%s ORDER BY %s %s LIMIT $%d OFFSET $%d`,
		domainColumns, where, sortBy, direction, len(args)+1, len(args)+2,
	)
	args = append(args, limit, filter.Offset)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, apperrors.NewQueryExecutionFailedError("domains.list", err)
	}
	defer rows.Close()

	var out []Domain
	for rows.Next() {
		d, err := scanDomainRows(rows)
		if err != nil {
			return nil, 0, apperrors.NewQueryExecutionFailedError("domains.list_scan", err)
		}
		out = append(out, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperrors.NewQueryExecutionFailedError("domains.list_rows", err)
	}
	return out, total, nil
}

// Top returns the highest scoring available domains.
func (s *DomainStore) Top(ctx context.Context, limit int) ([]Domain, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	domains, _, err := s.List(ctx, DomainFilter{
		Status:   "available",
		SortBy:   "quality_score",
		SortDesc: true,
		Limit:    limit,
	})
	return domains, err
}

// MarkChecked bumps last_checked for a domain that was re-verified.
func (s *DomainStore) MarkChecked(ctx context.Context, id int64) error {
	res, err := s.db.Exec(ctx,
		`UPDATE domains SET last_checked = NOW(), updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return apperrors.NewQueryExecutionFailedError("domains.mark_checked", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.NewDomainNotFoundError(id)
	}
	return nil
}

// DeleteStale removes domains not re-checked within the given window and
// returns how many rows were dropped.
func (s *DomainStore) DeleteStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	res, err := s.db.Exec(ctx, `DELETE FROM domains WHERE last_checked < $1`, cutoff)
	if err != nil {
		return 0, apperrors.NewQueryExecutionFailedError("domains.delete_stale", err)
	}
	n, _ := res.RowsAffected()
	s.logger.Info("Stale domains removed", map[string]interface{}{
		"removed": n,
		"cutoff":  cutoff,
	})
	return n, nil
}

func buildDomainWhere(filter DomainFilter) (string, []interface{}) {
	var clauses []string
	var args []interface{}

	if filter.MinScore != nil {
		args = append(args, *filter.MinScore)
		clauses = append(clauses, fmt.Sprintf("quality_score >= $%d", len(args)))
	}
	if filter.TLD != "" {
		args = append(args, filter.TLD)
		clauses = append(clauses, fmt.Sprintf("tld = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		clauses = append(clauses, fmt.Sprintf("status = $%d", len(args)))
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDomain(row *sql.Row) (*Domain, error)   { return scanDomainFrom(row) }
func scanDomainRows(rows *sql.Rows) (*Domain, error) { return scanDomainFrom(rows) }

func scanDomainFrom(r rowScanner) (*Domain, error) {
	var d Domain
	err := r.Scan(
		&d.ID, &d.DomainName, &d.TLD, &d.Price, &d.AgeDays, &d.BacklinkCount,
		&d.EstimatedDA, &d.TrafficSignal, &d.WaybackSnapshots, &d.Registered, &d.FirstSeen,
		&d.QualityScore, &d.Grade, &d.PriceEstimateLow, &d.PriceEstimateHigh, &d.ROIEstimate,
		&d.Status, &d.LastChecked, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
