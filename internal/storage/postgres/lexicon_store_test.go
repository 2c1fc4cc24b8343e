package postgres_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/coref/internal/storage"
	"github.com/scrypster/coref/internal/storage/postgres"
	"github.com/scrypster/coref/pkg/types"
)

// postgresTestDSN returns the DSN for the test database.
// If POSTGRES_TEST_DSN is not set, tests are skipped.
func postgresTestDSN(t *testing.T) string {
	t.Helper()

	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set; skipping PostgreSQL integration tests")
	}
	return dsn
}

// newTestStore creates a LexiconStore connected to the test database with
// an empty lexicon table.
func newTestStore(t *testing.T) *postgres.LexiconStore {
	t.Helper()

	store, err := postgres.NewLexiconStore(postgresTestDSN(t))
	require.NoError(t, err, "NewLexiconStore should succeed")
	require.NoError(t, store.TruncateForTest(context.Background()))

	t.Cleanup(func() {
		store.Close()
	})
	return store
}

func TestLexiconStore_ImportAndLookup(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	n, err := store.Import(ctx, []storage.Entry{
		{Term: "sister", Gender: types.GenderFemale, Multiplicity: types.MultiplicitySingular},
		{Term: "corporation", Match: storage.MatchSuffix, Gender: types.GenderNeuter},
		{Term: "corporation", Match: storage.MatchSuffix, Multiplicity: types.MultiplicitySingular},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n, "duplicate (term, match) pairs collapse")

	e, err := store.Lookup(ctx, "Sister")
	require.NoError(t, err)
	assert.Equal(t, types.GenderFemale, e.Gender)

	e, err = store.Lookup(ctx, "Acme Corporation")
	require.NoError(t, err)
	assert.Equal(t, types.MultiplicitySingular, e.Multiplicity)
	assert.Equal(t, types.GenderUnknown, e.Gender)

	_, err = store.Lookup(ctx, "brother")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
