package repo_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/travel-diary/internal/repo"
	"github.com/pkordes/travel-diary/testutil"
)

// blobStores returns every BlobStore implementation so each behaviour test
// runs against both.
func blobStores(t *testing.T) map[string]repo.BlobStore {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	require.NoError(t, repo.Migrate(context.Background(), db))
	return map[string]repo.BlobStore{
		"memory": repo.NewMemoryBlobStore(),
		"sqlite": repo.NewSQLiteBlobStore(db),
	}
}

func TestBlobStore_GetMissing(t *testing.T) {
	for name, s := range blobStores(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := s.Get(context.Background(), "nothing")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestBlobStore_UpdateCommits(t *testing.T) {
	for name, s := range blobStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			err := s.Update(ctx, func(tx repo.BlobTx) error {
				if err := tx.Put("a", []byte("1")); err != nil {
					return err
				}
				// A Put is visible to later reads in the same transaction.
				v, ok, err := tx.Get("a")
				require.NoError(t, err)
				assert.True(t, ok)
				assert.Equal(t, "1", string(v))
				return tx.Put("b", []byte("2"))
			})
			require.NoError(t, err)

			v, ok, err := s.Get(ctx, "b")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "2", string(v))

			// Overwrite keeps one row per key.
			require.NoError(t, s.Update(ctx, func(tx repo.BlobTx) error { return tx.Put("a", []byte("3")) }))
			v, _, err = s.Get(ctx, "a")
			require.NoError(t, err)
			assert.Equal(t, "3", string(v))
		})
	}
}

func TestBlobStore_UpdateRollsBackOnError(t *testing.T) {
	for name, s := range blobStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			boom := errors.New("boom")

			err := s.Update(ctx, func(tx repo.BlobTx) error {
				require.NoError(t, tx.Put("a", []byte("1")))
				require.NoError(t, tx.Put("b", []byte("2")))
				return boom
			})
			require.ErrorIs(t, err, boom)

			for _, key := range []string{"a", "b"} {
				_, ok, err := s.Get(ctx, key)
				require.NoError(t, err)
				assert.False(t, ok, "key %q must not be written by a failed update", key)
			}
		})
	}
}
