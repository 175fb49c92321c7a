package adapter

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "afluent.dev/pkg/afluent/internal/model"
)

func TestBoltTiebreakCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache", "tiebreaks.db")

	cache, err := NewBoltTiebreakCache(path)
	require.NoError(t, err)

	_, ok, err := cache.Get("abc", m.TiebreakLogical)
	require.NoError(t, err)
	assert.False(t, ok)

	scores := m.LineScores{1: 0, 2: 3, 7: 1.5}
	require.NoError(t, cache.Put("abc", m.TiebreakLogical, scores))

	got, ok, err := cache.Get("abc", m.TiebreakLogical)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, scores, got)

	_, ok, err = cache.Get("abc", m.TiebreakCyclomatic)
	require.NoError(t, err)
	assert.False(t, ok, "strategies do not share entries")

	require.NoError(t, cache.Close())

	reopened, err := NewBoltTiebreakCache(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, ok, err = reopened.Get("abc", m.TiebreakLogical)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, scores, got)
}

func TestNopTiebreakCache(t *testing.T) {
	var cache TiebreakCache = NopTiebreakCache{}

	require.NoError(t, cache.Put("abc", m.TiebreakLogical, m.LineScores{1: 1}))

	_, ok, err := cache.Get("abc", m.TiebreakLogical)
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, cache.Close())
}
