package store

import (
	"context"
	"fmt"

	"domain-finder/internal/common/database"
	"domain-finder/internal/common/logger"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS domains (
		id BIGSERIAL PRIMARY KEY,
		domain_name TEXT NOT NULL,
		tld TEXT NOT NULL,
		price NUMERIC,
		domain_age_days INTEGER NOT NULL DEFAULT 0,
		backlink_count INTEGER NOT NULL DEFAULT 0,
		domain_authority INTEGER,
		traffic_signal DOUBLE PRECISION,
		wayback_snapshots INTEGER NOT NULL DEFAULT 0,
		registered BOOLEAN NOT NULL DEFAULT FALSE,
		first_seen TIMESTAMPTZ,
		quality_score DOUBLE PRECISION NOT NULL DEFAULT 0,
		grade TEXT NOT NULL DEFAULT 'F',
		price_estimate_low DOUBLE PRECISION NOT NULL DEFAULT 0,
		price_estimate_high DOUBLE PRECISION NOT NULL DEFAULT 0,
		roi_estimate DOUBLE PRECISION NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'available',
		last_checked TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (domain_name, tld)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_domains_quality_score ON domains (quality_score DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_domains_last_checked ON domains (last_checked)`,
	`CREATE TABLE IF NOT EXISTS domain_scores (
		id BIGSERIAL PRIMARY KEY,
		domain_id BIGINT NOT NULL REFERENCES domains(id) ON DELETE CASCADE,
		age_score DOUBLE PRECISION NOT NULL,
		backlink_score DOUBLE PRECISION NOT NULL,
		authority_score DOUBLE PRECISION NOT NULL,
		brandability_score DOUBLE PRECISION NOT NULL,
		keyword_score DOUBLE PRECISION NOT NULL,
		traffic_score DOUBLE PRECISION NOT NULL,
		total_score DOUBLE PRECISION NOT NULL,
		grade TEXT NOT NULL,
		scored_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_domain_scores_domain_id ON domain_scores (domain_id)`,
	`CREATE TABLE IF NOT EXISTS portfolio_items (
		id BIGSERIAL PRIMARY KEY,
		domain_id BIGINT NOT NULL REFERENCES domains(id) ON DELETE CASCADE,
		purchase_price NUMERIC NOT NULL,
		purchase_date TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		sale_price NUMERIC,
		sale_date TIMESTAMPTZ,
		status TEXT NOT NULL DEFAULT 'holding',
		notes TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS alert_subscriptions (
		id BIGSERIAL PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		phone TEXT,
		min_quality_score DOUBLE PRECISION NOT NULL DEFAULT 70,
		min_domain_age INTEGER,
		max_domain_age INTEGER,
		min_backlinks INTEGER,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS alert_deliveries (
		id BIGSERIAL PRIMARY KEY,
		subscription_id BIGINT NOT NULL REFERENCES alert_subscriptions(id) ON DELETE CASCADE,
		channel TEXT NOT NULL,
		domain_count INTEGER NOT NULL,
		sent_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// Migrate creates the schema if it does not exist yet.
func Migrate(ctx context.Context, db *database.PostgresClient, log logger.Logger) error {
	for i, stmt := range schemaStatements {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration statement %d failed: %w", i, err)
		}
	}
	log.Info("Database schema ready", map[string]interface{}{
		"statements": len(schemaStatements),
	})
	return nil
}
