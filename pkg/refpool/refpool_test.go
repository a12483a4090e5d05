package refpool

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte("%PDF-fake"), 0o600))
}

func TestExpand_MatchesNestedGlobPattern(t *testing.T) {
	dir := t.TempDir()

	writeFile(t, filepath.Join(dir, "a.pdf"))
	writeFile(t, filepath.Join(dir, "sub", "b.pdf"))
	writeFile(t, filepath.Join(dir, "sub", "c.txt"))

	got, err := Expand([]string{filepath.Join(dir, "**", "*.pdf")})
	require.NoError(t, err)
	require.Len(t, got, 2)

	for _, p := range got {
		assert.True(t, filepath.IsAbs(p))
	}
}

func TestExpand_PlainPathIsReturnedAsIs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "only.pdf")
	writeFile(t, path)

	got, err := Expand([]string{path})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, path, got[0])
}

func TestExpand_DeduplicatesAcrossOverlappingPatterns(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.pdf"))

	got, err := Expand([]string{
		filepath.Join(dir, "*.pdf"),
		filepath.Join(dir, "a.pdf"),
	})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestExpand_NoMatchesReturnsEmptyNotError(t *testing.T) {
	dir := t.TempDir()

	got, err := Expand([]string{filepath.Join(dir, "*.pdf")})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestExpand_ResultIsSorted(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "z.pdf"))
	writeFile(t, filepath.Join(dir, "a.pdf"))

	got, err := Expand([]string{filepath.Join(dir, "*.pdf")})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0] < got[1])
}
