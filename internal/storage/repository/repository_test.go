package repository_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/membergate/subscription-gatekeeper/internal/migrations"
	"github.com/membergate/subscription-gatekeeper/internal/models"
	"github.com/membergate/subscription-gatekeeper/internal/storage/repository"
)

// Интеграционный тест против реального PostgreSQL. Запускается только
// при заданном GATEKEEPER_TEST_DSN, миграции применяются к указанной базе.
func newTestStorage(t *testing.T) *repository.Storage {
	t.Helper()

	dsn := os.Getenv("GATEKEEPER_TEST_DSN")
	if dsn == "" {
		t.Skip("GATEKEEPER_TEST_DSN is not set")
	}

	db, err := repository.New(dsn)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.DB.Close()
	})

	require.NoError(t, migrations.Run(db.DB, "../../../migrations"))

	_, err = db.DB.Exec(`TRUNCATE app_tokens, subscriptions, users RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
	return db
}

func createUser(t *testing.T, db *repository.Storage, email string) int64 {
	t.Helper()
	var id int64
	err := db.DB.QueryRow(
		`INSERT INTO users (email) VALUES ($1) RETURNING id`, email).Scan(&id)
	require.NoError(t, err)
	return id
}

func createSubscription(t *testing.T, db *repository.Storage, userID int64, paidThrough string) {
	t.Helper()
	_, err := db.DB.Exec(
		`INSERT INTO subscriptions (user_id, amount_due, paid_through)
		 VALUES ($1, 999, $2::date)`, userID, paidThrough)
	require.NoError(t, err)
}

func TestGetSubscriptionStatus(t *testing.T) {
	db := newTestStorage(t)
	ctx := context.Background()

	t.Run("never billed", func(t *testing.T) {
		userID := createUser(t, db, "fresh@example.com")

		status, err := db.GetSubscriptionStatus(ctx, userID)
		require.NoError(t, err)
		assert.False(t, status.Exists)
		assert.False(t, status.Valid)
	})

	t.Run("expired", func(t *testing.T) {
		userID := createUser(t, db, "expired@example.com")
		createSubscription(t, db, userID, "2020-01-01")

		status, err := db.GetSubscriptionStatus(ctx, userID)
		require.NoError(t, err)
		assert.True(t, status.Exists)
		assert.False(t, status.Valid)
	})

	t.Run("active", func(t *testing.T) {
		userID := createUser(t, db, "active@example.com")
		createSubscription(t, db, userID, "2099-01-01")

		status, err := db.GetSubscriptionStatus(ctx, userID)
		require.NoError(t, err)
		assert.True(t, status.Exists)
		assert.True(t, status.Valid)
	})
}

func TestGetExpiredSubscriptions(t *testing.T) {
	db := newTestStorage(t)
	ctx := context.Background()

	expiredID := createUser(t, db, "expired@example.com")
	createSubscription(t, db, expiredID, "2020-01-01")
	activeID := createUser(t, db, "active@example.com")
	createSubscription(t, db, activeID, "2099-01-01")

	records, err := db.GetExpiredSubscriptions(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, expiredID, records[0].UserID)
	assert.Equal(t, "expired@example.com", records[0].Email)
	assert.Equal(t, int64(999), records[0].AmountDue)
	assert.Empty(t, records[0].CustomerRef)

	single, err := db.GetExpiredSubscription(ctx, expiredID)
	require.NoError(t, err)
	assert.Equal(t, expiredID, single.UserID)
}

func TestSaveAndGetCustomerRef(t *testing.T) {
	db := newTestStorage(t)
	ctx := context.Background()

	userID := createUser(t, db, "member@example.com")

	ref, err := db.GetCustomerRef(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, ref)

	require.NoError(t, db.SaveCustomerRef(ctx, userID, "cus_123"))

	ref, err = db.GetCustomerRef(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "cus_123", ref)
}

func TestRecordSubscriptionTransaction(t *testing.T) {
	db := newTestStorage(t)
	ctx := context.Background()

	userID := createUser(t, db, "renewed@example.com")
	createSubscription(t, db, userID, "2020-01-01")

	require.NoError(t, db.RecordSubscriptionTransaction(ctx, userID, "txn_1"))

	// Подписка продлена вперёд от текущей даты, а не от давно истёкшей.
	status, err := db.GetSubscriptionStatus(ctx, userID)
	require.NoError(t, err)
	assert.True(t, status.Valid)

	tokens, err := db.ListTransactions(ctx, userID, models.TokenTypeSubscriptionTransaction)
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, "txn_1", tokens[0].Token)
}

func TestContextCancelled(t *testing.T) {
	db := newTestStorage(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := db.GetSubscriptionStatus(ctx, 1)
	assert.Error(t, err)
}
