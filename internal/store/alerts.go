package store

import (
	"context"
	"database/sql"

	"domain-finder/internal/common/database"
	apperrors "domain-finder/internal/common/errors"
	"domain-finder/internal/common/logger"
	"domain-finder/internal/common/validation"
)

// AlertStore manages alert subscriptions and the delivery audit trail.
type AlertStore struct {
	db     *database.PostgresClient
	logger logger.Logger
}

func NewAlertStore(db *database.PostgresClient, log logger.Logger) *AlertStore {
	return &AlertStore{db: db, logger: log}
}

const subscriptionColumns = `id, email, phone, min_quality_score, min_domain_age,
	max_domain_age, min_backlinks, active, created_at`

// CreateSubscription registers a new recipient; an existing email has its
// filter replaced.
func (s *AlertStore) CreateSubscription(ctx context.Context, sub *AlertSubscription) (*AlertSubscription, error) {
	if !validation.ValidateEmail(sub.Email) {
		return nil, apperrors.NewValidationFailedError("invalid email address")
	}

	row := s.db.QueryRow(ctx, `
		INSERT INTO alert_subscriptions (email, phone, min_quality_score, min_domain_age, max_domain_age, min_backlinks, active)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE)
		ON CONFLICT (email) DO UPDATE SET
			phone = EXCLUDED.phone,
			min_quality_score = EXCLUDED.min_quality_score,
			min_domain_age = EXCLUDED.min_domain_age,
			max_domain_age = EXCLUDED.max_domain_age,
			min_backlinks = EXCLUDED.min_backlinks,
			active = TRUE
		RETURNING `+subscriptionColumns,
		sub.Email, sub.Phone, sub.MinQualityScore, sub.MinDomainAge, sub.MaxDomainAge, sub.MinBacklinks)

	stored, err := scanSubscription(row)
	if err != nil {
		return nil, apperrors.NewDatabaseInsertFailedError(err)
	}
	return stored, nil
}

// ListSubscriptions returns subscriptions, active ones only when activeOnly
// is set.
func (s *AlertStore) ListSubscriptions(ctx context.Context, activeOnly bool) ([]AlertSubscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM alert_subscriptions`
	if activeOnly {
		query += ` WHERE active = TRUE`
	}
	query += ` ORDER BY created_at`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("alerts.list", err)
	}
	defer rows.Close()

	var out []AlertSubscription
	for rows.Next() {
		sub, err := scanSubscriptionRows(rows)
		if err != nil {
			return nil, apperrors.NewQueryExecutionFailedError("alerts.list_scan", err)
		}
		out = append(out, *sub)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("alerts.list_rows", err)
	}
	return out, nil
}

// DeleteSubscription deactivates a subscription. Rows are kept so past
// deliveries stay attributable.
func (s *AlertStore) DeleteSubscription(ctx context.Context, id int64) error {
	res, err := s.db.Exec(ctx,
		`UPDATE alert_subscriptions SET active = FALSE WHERE id = $1`, id)
	if err != nil {
		return apperrors.NewQueryExecutionFailedError("alerts.delete", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.NewResourceNotFoundError("Alert subscription", id)
	}
	return nil
}

// RecordDelivery stores one sent alert for auditing.
func (s *AlertStore) RecordDelivery(ctx context.Context, subscriptionID int64, channel string, domainCount int) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO alert_deliveries (subscription_id, channel, domain_count)
		VALUES ($1, $2, $3)`,
		subscriptionID, channel, domainCount)
	if err != nil {
		return apperrors.NewDatabaseInsertFailedError(err)
	}
	return nil
}

func scanSubscription(row *sql.Row) (*AlertSubscription, error)       { return scanSubscriptionFrom(row) }
func scanSubscriptionRows(rows *sql.Rows) (*AlertSubscription, error) { return scanSubscriptionFrom(rows) }

func scanSubscriptionFrom(r rowScanner) (*AlertSubscription, error) {
	var sub AlertSubscription
	err := r.Scan(
		&sub.ID, &sub.Email, &sub.Phone, &sub.MinQualityScore, &sub.MinDomainAge,
		&sub.MaxDomainAge, &sub.MinBacklinks, &sub.Active, &sub.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}
