package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStorage(t *testing.T, s Storage) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, "fruitshop-auth", []byte(`{"token":"a"}`)))
	require.NoError(t, s.Set(ctx, "fruitshop-auth", []byte(`{"token":"b"}`)))

	got, err := s.Get(ctx, "fruitshop-auth")
	require.NoError(t, err)
	assert.JSONEq(t, `{"token":"b"}`, string(got))

	require.NoError(t, s.Remove(ctx, "fruitshop-auth"))
	_, err = s.Get(ctx, "fruitshop-auth")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Remove(ctx, "fruitshop-auth"))
}

func TestMemory(t *testing.T) {
	exerciseStorage(t, NewMemory())
}

func TestMemoryReturnsCopies(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	value := []byte("abc")
	require.NoError(t, m.Set(ctx, "k", value))
	value[0] = 'z'

	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestFile(t *testing.T) {
	f, err := NewFile(t.TempDir())
	require.NoError(t, err)
	exerciseStorage(t, f)
}

func TestFileSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	first, err := NewFile(dir)
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, "fruitshop-backend-state-v2", []byte(`{"stores":[]}`)))

	second, err := NewFile(dir)
	require.NoError(t, err)
	got, err := second.Get(ctx, "fruitshop-backend-state-v2")
	require.NoError(t, err)
	assert.JSONEq(t, `{"stores":[]}`, string(got))
}
