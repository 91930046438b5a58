package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fruitshop/backend/internal/storage"
)

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := New(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	_, err = s.Get(ctx, "fruitshop-enterprise-state")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.Set(ctx, "fruitshop-enterprise-state", []byte(`{"products":[]}`)))
	require.NoError(t, s.Set(ctx, "fruitshop-enterprise-state", []byte(`{"products":[{"id":"prod-1"}]}`)))

	got, err := s.Get(ctx, "fruitshop-enterprise-state")
	require.NoError(t, err)
	assert.JSONEq(t, `{"products":[{"id":"prod-1"}]}`, string(got))

	require.NoError(t, s.Remove(ctx, "fruitshop-enterprise-state"))
	_, err = s.Get(ctx, "fruitshop-enterprise-state")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "fruitshop.db")

	first, err := New(ctx, path)
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, "k", []byte(`1`)))
	require.NoError(t, first.Close())

	second, err := New(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = second.Close() })
	got, err := second.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "1", string(got))
}
