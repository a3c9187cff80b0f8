//go:build integration

package consent

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"consentadmin/pkg/requestcontext"
	"consentadmin/pkg/testutil/containers"
)

func newPostgresStore(t *testing.T) *PostgresStore {
	t.Helper()
	pg := containers.NewPostgresContainer(t)
	_, err := pg.DB.ExecContext(context.Background(), Schema)
	require.NoError(t, err)
	return NewPostgres(pg.DB)
}

func TestPostgresStore_SaveAndGet(t *testing.T) {
	store := newPostgresStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveConsent(ctx, "huid-1", "tid-b", "hash-b"))
	require.NoError(t, store.SaveConsent(ctx, "huid-1", "tid-a", "hash-a"))
	require.NoError(t, store.SaveConsent(ctx, "huid-2", "tid-a", "other"))

	records, err := store.GetConsents(ctx, "huid-1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, Record{TargetedID: "tid-a", AttributeHash: "hash-a"}, records[0])
	assert.Equal(t, Record{TargetedID: "tid-b", AttributeHash: "hash-b"}, records[1])

	records, err = store.GetConsents(ctx, "huid-unknown")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestPostgresStore_SaveUpserts(t *testing.T) {
	store := newPostgresStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveConsent(ctx, "huid-1", "tid-a", "stale"))
	require.NoError(t, store.SaveConsent(ctx, "huid-1", "tid-a", "fresh"))

	records, err := store.GetConsents(ctx, "huid-1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "fresh", records[0].AttributeHash)
}

func TestPostgresStore_UpsertKeepsConsentDate(t *testing.T) {
	store := newPostgresStore(t)
	first := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	second := first.Add(48 * time.Hour)

	require.NoError(t, store.SaveConsent(
		requestcontext.WithTime(context.Background(), first), "huid-1", "tid-a", "hash-a"))
	require.NoError(t, store.SaveConsent(
		requestcontext.WithTime(context.Background(), second), "huid-1", "tid-a", "hash-b"))

	var consentDate, usageDate time.Time
	err := store.db.QueryRowContext(context.Background(),
		`SELECT consent_date, usage_date FROM consent WHERE hashed_user_id = $1 AND targeted_id = $2`,
		"huid-1", "tid-a").Scan(&consentDate, &usageDate)
	require.NoError(t, err)

	assert.True(t, consentDate.Equal(first), "first grant's timestamp survives re-confirmation")
	assert.True(t, usageDate.Equal(second))
}

func TestPostgresStore_DeleteReportsRemovedCount(t *testing.T) {
	store := newPostgresStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveConsent(ctx, "huid-1", "tid-a", "hash-a"))

	removed, err := store.DeleteConsent(ctx, "huid-1", "tid-a")
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)

	removed, err = store.DeleteConsent(ctx, "huid-1", "tid-a")
	require.NoError(t, err)
	assert.Zero(t, removed)
}
