package intel

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsbolt/opsbolt/errors"
)

func sampleReport(domain string, fetchedAt time.Time) *Report {
	return &Report{
		Domain:    domain,
		FetchedAt: fetchedAt,
		Whois: WhoisRecord{
			Registered: true,
			Registrar:  "Example Registrar",
			Expires:    "2027-01-01",
		},
		DNS:  DNSRecord{Addrs: []string{"192.0.2.1"}},
		HTTP: LivenessRecord{Alive: true, StatusCode: 200, Latency: 42 * time.Millisecond},
	}
}

func TestStoreRoundTrip(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	base := time.Date(2026, 8, 26, 3, 0, 0, 0, time.UTC)

	require.NoError(t, store.Save(ctx, sampleReport("example.com", base)))
	require.NoError(t, store.Save(ctx, sampleReport("example.com", base.Add(time.Hour))))
	require.NoError(t, store.Save(ctx, sampleReport("other.org", base)))

	history, err := store.History(ctx, "example.com", 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.True(t, history[0].FetchedAt.After(history[1].FetchedAt), "newest first")

	latest, err := store.Latest(ctx, "example.com")
	require.NoError(t, err)
	assert.Equal(t, base.Add(time.Hour), latest.FetchedAt.UTC())
	assert.Equal(t, "Example Registrar", latest.Whois.Registrar)
}

func TestStoreHistoryNotFound(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	_, err = store.History(context.Background(), "never-fetched.com", 5)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestStoreSaveArgs(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO domain_snapshots").
		WithArgs("example.com", sqlmock.AnyArg(), "Example Registrar", "2027-01-01", 1, 200, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	store := NewStore(db)
	err = store.Save(context.Background(), sampleReport("example.com", time.Now()))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreSavePropagatesError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO domain_snapshots").
		WillReturnError(errors.New("disk I/O error"))

	store := NewStore(db)
	err = store.Save(context.Background(), sampleReport("example.com", time.Now()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk I/O error")
}
