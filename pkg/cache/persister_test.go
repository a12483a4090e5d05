package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TillBeemelmanns/PDFCompare/pkg/pdfmodel"
)

func sampleDoc() *pdfmodel.NormalizedDocument {
	return &pdfmodel.NormalizedDocument{
		DocID:     "ref1",
		Path:      "/docs/ref1.pdf",
		PageDims:  []pdfmodel.PageDim{{Width: 612, Height: 792}},
		UpdatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Words: []pdfmodel.NormalizedWord{
			{
				Raw:   "Quick",
				Token: "quick",
				Page:  0,
				BBox:  pdfmodel.Rectangle{X0: 10, Y0: 20, X1: 30, Y1: 40},
			},
			{
				Raw:         "long-term",
				Token:       "longterm",
				Page:        0,
				BBox:        pdfmodel.Rectangle{X0: 40, Y0: 20, X1: 60, Y1: 40},
				MergedFrom:  []pdfmodel.Rectangle{{X0: 40, Y0: 20, X1: 50, Y1: 40}, {X0: 0, Y0: 700, X1: 20, Y1: 720}},
				MergedPages: []int{0, 1},
			},
		},
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	p, err := New(t.TempDir())
	require.NoError(t, err)

	doc := sampleDoc()
	require.NoError(t, p.Save("key1", doc))

	got, err := p.Load("key1")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, doc.DocID, got.DocID)
	assert.Equal(t, doc.Path, got.Path)
	assert.True(t, doc.UpdatedAt.Equal(got.UpdatedAt))
	assert.Equal(t, doc.PageDims, got.PageDims)
	require.Len(t, got.Words, 2)
	assert.Equal(t, "quick", got.Words[0].Token)
	assert.Equal(t, "longterm", got.Words[1].Token)
	assert.Len(t, got.Words[1].MergedFrom, 2)
	assert.Equal(t, doc.Words[1].MergedFrom[1], got.Words[1].MergedFrom[1])
}

func TestLoad_Miss(t *testing.T) {
	p, err := New(t.TempDir())
	require.NoError(t, err)

	got, err := p.Load("missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestLoad_CorruptEntryIsRemoved(t *testing.T) {
	dir := t.TempDir()
	p, err := New(dir)
	require.NoError(t, err)

	entryPath := filepath.Join(dir, "key1.dat")
	require.NoError(t, os.WriteFile(entryPath, []byte("not a cache file"), 0o600))

	_, err = p.Load("key1")
	require.ErrorIs(t, err, pdfmodel.ErrCorruptCache)

	_, statErr := os.Stat(entryPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestLoad_UnsupportedVersionIsRemoved(t *testing.T) {
	dir := t.TempDir()
	p, err := New(dir)
	require.NoError(t, err)

	require.NoError(t, p.Save("key1", sampleDoc()))

	raw, err := os.ReadFile(filepath.Join(dir, "key1.dat"))
	require.NoError(t, err)
	raw[len(magic)] = 0xff // corrupt the low byte of the version field
	require.NoError(t, os.WriteFile(filepath.Join(dir, "key1.dat"), raw, 0o600))

	_, err = p.Load("key1")
	require.ErrorIs(t, err, pdfmodel.ErrCorruptCache)

	_, statErr := os.Stat(filepath.Join(dir, "key1.dat"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestSave_NoPartialFileVisibleDuringWrite(t *testing.T) {
	dir := t.TempDir()
	p, err := New(dir)
	require.NoError(t, err)

	require.NoError(t, p.Save("key1", sampleDoc()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "key1.dat", entries[0].Name())
}

func TestDelete_MissingIsNotError(t *testing.T) {
	p, err := New(t.TempDir())
	require.NoError(t, err)

	assert.NoError(t, p.Delete("does-not-exist"))
}

func TestContentKey_ChangesWithMtimeOrSize(t *testing.T) {
	t0 := time.Unix(1000, 0)

	a := ContentKey("/docs/x.pdf", t0, 100)
	b := ContentKey("/docs/x.pdf", t0.Add(time.Second), 100)
	c := ContentKey("/docs/x.pdf", t0, 101)
	d := ContentKey("/docs/x.pdf", t0, 100)

	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Equal(t, a, d)
}
