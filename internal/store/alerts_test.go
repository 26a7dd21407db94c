package store

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"domain-finder/internal/common/database"
	apperrors "domain-finder/internal/common/errors"
	"domain-finder/internal/common/logger"
)

var subscriptionTestColumns = []string{
	"id", "email", "phone", "min_quality_score", "min_domain_age",
	"max_domain_age", "min_backlinks", "active", "created_at",
}

func newTestAlertStore(t *testing.T) (*AlertStore, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewAlertStore(&database.PostgresClient{DB: db}, logger.NewTestLogger(t)), mock
}

func TestAlertStore_CreateSubscription(t *testing.T) {
	store, mock := newTestAlertStore(t)

	mock.ExpectQuery(`INSERT INTO alert_subscriptions`).
		WithArgs("buyer@example.com", nil, 75.0, nil, nil, nil).
		WillReturnRows(mock.NewRows(subscriptionTestColumns).AddRow(
			1, "buyer@example.com", nil, 75.0, nil, nil, nil, true, time.Now(),
		))

	sub, err := store.CreateSubscription(context.Background(), &AlertSubscription{
		Email:           "buyer@example.com",
		MinQualityScore: 75,
	})

	require.NoError(t, err)
	assert.Equal(t, int64(1), sub.ID)
	assert.True(t, sub.Active)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAlertStore_CreateSubscription_RejectsBadEmail(t *testing.T) {
	store, _ := newTestAlertStore(t)

	_, err := store.CreateSubscription(context.Background(), &AlertSubscription{
		Email: "not-an-email",
	})

	require.Error(t, err)
	stdErr, ok := err.(*apperrors.StandardError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeValidationFailed, stdErr.Code)
}

func TestAlertStore_ListSubscriptions_ActiveOnly(t *testing.T) {
	store, mock := newTestAlertStore(t)

	mock.ExpectQuery(`SELECT .+ FROM alert_subscriptions WHERE active = TRUE`).
		WillReturnRows(mock.NewRows(subscriptionTestColumns).
			AddRow(1, "a@example.com", nil, 70.0, nil, nil, nil, true, time.Now()).
			AddRow(2, "b@example.com", "+15551230000", 85.0, 365, nil, 50, true, time.Now()))

	subs, err := store.ListSubscriptions(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, 85.0, subs[1].MinQualityScore)
	require.NotNil(t, subs[1].MinDomainAge)
	assert.Equal(t, 365, *subs[1].MinDomainAge)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAlertStore_RecordDelivery(t *testing.T) {
	store, mock := newTestAlertStore(t)

	mock.ExpectExec(`INSERT INTO alert_deliveries`).
		WithArgs(int64(1), "email", 4).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := store.RecordDelivery(context.Background(), 1, "email", 4)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
