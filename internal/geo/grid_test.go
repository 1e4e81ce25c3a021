package geo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeAssets(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "grid.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadGridIndexAndNearest(t *testing.T) {
	path := writeAssets(t, `[
		{"name": "Madrid 400kV", "lat": 40.45, "lon": -3.60, "voltage_kv": 400},
		{"name": "Toledo 220kV", "lat": 39.86, "lon": -4.02, "voltage_kv": 220}
	]`)

	idx, err := LoadGridIndex(path)
	require.NoError(t, err)

	name, km, ok := idx.Nearest(40.4168, -3.7038)
	require.True(t, ok)
	assert.Equal(t, "Madrid 400kV", name)
	assert.InDelta(t, 9.2, km, 1.0)
}

func TestLoadGridIndexMissingFileIsEmpty(t *testing.T) {
	idx, err := LoadGridIndex(filepath.Join(t.TempDir(), "does-not-exist.json"))
	require.NoError(t, err)

	_, _, ok := idx.Nearest(0, 0)
	assert.False(t, ok)
}

func TestLoadGridIndexEmptyPath(t *testing.T) {
	idx, err := LoadGridIndex("")
	require.NoError(t, err)

	_, _, ok := idx.Nearest(40, -3)
	assert.False(t, ok)
}

func TestLoadGridIndexRejectsMalformedJSON(t *testing.T) {
	path := writeAssets(t, `{"not": "a list"}`)

	_, err := LoadGridIndex(path)
	assert.Error(t, err)
}

func TestHaversine(t *testing.T) {
	// Madrid to Barcelona is roughly 505 km great-circle.
	got := haversineKM(40.4168, -3.7038, 41.3874, 2.1686)
	assert.InDelta(t, 505, got, 5)

	assert.Zero(t, haversineKM(10, 10, 10, 10))
}
