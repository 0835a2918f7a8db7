package blob

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	store := NewLocalStore(t.TempDir())

	require.NoError(t, store.Put(context.Background(), "a/b.csv", []byte("id,mrr\n")))
	got, err := store.Get(context.Background(), "a/b.csv")
	require.NoError(t, err)
	assert.Equal(t, []byte("id,mrr\n"), got)

	_, err = store.Get(context.Background(), "missing.csv")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemStoreCopiesData(t *testing.T) {
	store := NewMemStore()

	data := []byte("abc")
	require.NoError(t, store.Put(context.Background(), "k", data))
	data[0] = 'z'

	got, err := store.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), got)

	_, err = store.Get(context.Background(), "other")
	assert.ErrorIs(t, err, ErrNotFound)
}
