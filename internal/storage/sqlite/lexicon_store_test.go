package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/coref/internal/storage"
	"github.com/scrypster/coref/pkg/types"
)

// newTestStore creates an in-memory SQLite store for testing.
func newTestStore(t *testing.T) *LexiconStore {
	t.Helper()
	store, err := NewLexiconStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestLexiconStore_ImportAndLookup(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	n, err := store.Import(ctx, []storage.Entry{
		{Term: "Sister", Gender: types.GenderFemale, Multiplicity: types.MultiplicitySingular},
		{Term: "corporation", Match: storage.MatchSuffix, Gender: types.GenderNeuter},
		{Term: "king", Match: storage.MatchPrefix, Gender: types.GenderMale},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	e, err := store.Lookup(ctx, "sister")
	require.NoError(t, err)
	assert.Equal(t, types.GenderFemale, e.Gender)
	assert.Equal(t, types.MultiplicitySingular, e.Multiplicity)

	e, err = store.Lookup(ctx, "Acme  Corporation")
	require.NoError(t, err)
	assert.Equal(t, "corporation", e.Term)
	assert.Equal(t, types.GenderNeuter, e.Gender)

	e, err = store.Lookup(ctx, "King Arthur")
	require.NoError(t, err)
	assert.Equal(t, types.GenderMale, e.Gender)

	_, err = store.Lookup(ctx, "sisters")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = store.Lookup(ctx, "  ")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestLexiconStore_ImportUpserts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Import(ctx, []storage.Entry{{Term: "chris", Gender: types.GenderMale}})
	require.NoError(t, err)
	_, err = store.Import(ctx, []storage.Entry{{Term: "Chris", Gender: types.GenderFemale}})
	require.NoError(t, err)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	e, err := store.Lookup(ctx, "chris")
	require.NoError(t, err)
	assert.Equal(t, types.GenderFemale, e.Gender)
}

func TestLexiconStore_ImportRejectsInvalid(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Import(ctx, []storage.Entry{
		{Term: "ok", Gender: types.GenderMale},
		{Term: "bad", Gender: "robot"},
	})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count, "nothing is written when any entry is invalid")
}

func TestLexiconStore_PersistsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gazetteer.db")
	ctx := context.Background()

	store, err := NewLexiconStore(path)
	require.NoError(t, err)
	_, err = store.Import(ctx, []storage.Entry{{Term: "london", Gender: types.GenderNeuter}})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := NewLexiconStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	e, err := reopened.Lookup(ctx, "London")
	require.NoError(t, err)
	assert.Equal(t, types.GenderNeuter, e.Gender)
}

func TestDBPathFromDSN(t *testing.T) {
	assert.Equal(t, "", dbPathFromDSN(":memory:"))
	assert.Equal(t, "", dbPathFromDSN("file::memory:?cache=shared"))
	assert.Equal(t, "/tmp/x.db", dbPathFromDSN("file:/tmp/x.db?_pragma=busy_timeout(5000)"))
	assert.Equal(t, "x.db", dbPathFromDSN("x.db"))
}

func TestIsRecoverableWALError(t *testing.T) {
	assert.False(t, isRecoverableWALError(nil))
	assert.False(t, isRecoverableWALError(assert.AnError))
	assert.True(t, isRecoverableWALError(errors.New("disk I/O error (5898)")))
}
