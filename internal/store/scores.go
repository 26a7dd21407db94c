package store

import (
	"context"

	"domain-finder/internal/common/database"
	apperrors "domain-finder/internal/common/errors"
	"domain-finder/internal/common/logger"
	"domain-finder/internal/scoring"
)

// ScoreStore appends and reads per-domain score history. History rows are
// never updated; every re-check adds a new record.
type ScoreStore struct {
	db     *database.PostgresClient
	logger logger.Logger
}

func NewScoreStore(db *database.PostgresClient, log logger.Logger) *ScoreStore {
	return &ScoreStore{db: db, logger: log}
}

// Append records one scoring evaluation.
func (s *ScoreStore) Append(ctx context.Context, domainID int64, bd scoring.ScoreBreakdown) (*ScoreRecord, error) {
	query := `
		INSERT INTO domain_scores (
			domain_id, age_score, backlink_score, authority_score,
			brandability_score, keyword_score, traffic_score, total_score, grade
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING id, domain_id, age_score, backlink_score, authority_score,
			brandability_score, keyword_score, traffic_score, total_score, grade, scored_at`

	var rec ScoreRecord
	err := s.db.QueryRow(ctx, query,
		domainID, bd.AgeScore, bd.BacklinkScore, bd.AuthorityScore,
		bd.BrandabilityScore, bd.KeywordScore, bd.TrafficScore, bd.TotalScore, string(bd.Grade),
	).Scan(
		&rec.ID, &rec.DomainID, &rec.AgeScore, &rec.BacklinkScore, &rec.AuthorityScore,
		&rec.BrandabilityScore, &rec.KeywordScore, &rec.TrafficScore, &rec.TotalScore,
		&rec.Grade, &rec.ScoredAt,
	)
	if err != nil {
		return nil, apperrors.NewDatabaseInsertFailedError(err)
	}
	return &rec, nil
}

// History returns a domain's score records, newest first.
func (s *ScoreStore) History(ctx context.Context, domainID int64, limit int) ([]ScoreRecord, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, domain_id, age_score, backlink_score, authority_score,
			brandability_score, keyword_score, traffic_score, total_score, grade, scored_at
		FROM domain_scores
		WHERE domain_id = $1
		ORDER BY scored_at DESC
		LIMIT $2`, domainID, limit)
	if err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("scores.history", err)
	}
	defer rows.Close()

	var out []ScoreRecord
	for rows.Next() {
		var rec ScoreRecord
		if err := rows.Scan(
			&rec.ID, &rec.DomainID, &rec.AgeScore, &rec.BacklinkScore, &rec.AuthorityScore,
			&rec.BrandabilityScore, &rec.KeywordScore, &rec.TrafficScore, &rec.TotalScore,
			&rec.Grade, &rec.ScoredAt,
		); err != nil {
			return nil, apperrors.NewQueryExecutionFailedError("scores.history_scan", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("scores.history_rows", err)
	}
	return out, nil
}
