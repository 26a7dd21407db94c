package store

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"domain-finder/internal/common/database"
	"domain-finder/internal/common/logger"
	"domain-finder/internal/scoring"
)

var scoreTestColumns = []string{
	"id", "domain_id", "age_score", "backlink_score", "authority_score",
	"brandability_score", "keyword_score", "traffic_score", "total_score", "grade", "scored_at",
}

func newTestScoreStore(t *testing.T) (*ScoreStore, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewScoreStore(&database.PostgresClient{DB: db}, logger.NewTestLogger(t)), mock
}

func TestScoreStore_Append(t *testing.T) {
	store, mock := newTestScoreStore(t)

	bd := scoring.Score(scoring.DomainAttributes{
		DomainName:    "techstartup",
		TLD:           "com",
		AgeDays:       2920,
		BacklinkCount: 45,
	}, scoring.DefaultConfig())

	mock.ExpectQuery(`INSERT INTO domain_scores`).
		WithArgs(
			int64(5), bd.AgeScore, bd.BacklinkScore, bd.AuthorityScore,
			bd.BrandabilityScore, bd.KeywordScore, bd.TrafficScore, bd.TotalScore, "D",
		).
		WillReturnRows(mock.NewRows(scoreTestColumns).AddRow(
			1, 5, bd.AgeScore, bd.BacklinkScore, bd.AuthorityScore,
			bd.BrandabilityScore, bd.KeywordScore, bd.TrafficScore, bd.TotalScore, "D",
			time.Now(),
		))

	rec, err := store.Append(context.Background(), 5, bd)
	require.NoError(t, err)
	assert.Equal(t, bd.TotalScore, rec.TotalScore)
	assert.Equal(t, "D", rec.Grade)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScoreStore_History(t *testing.T) {
	store, mock := newTestScoreStore(t)

	rows := mock.NewRows(scoreTestColumns).
		AddRow(2, 5, 18.32, 13.85, 0.0, 13.0, 0.0, 0.0, 45.17, "D", time.Now()).
		AddRow(1, 5, 17.0, 12.0, 0.0, 13.0, 0.0, 0.0, 42.0, "D", time.Now().Add(-24*time.Hour))

	mock.ExpectQuery(`SELECT .+ FROM domain_scores\s+WHERE domain_id`).
		WithArgs(int64(5), 50).
		WillReturnRows(rows)

	history, err := store.History(context.Background(), 5, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 45.17, history[0].TotalScore)
	assert.NoError(t, mock.ExpectationsWereMet())
}
