package align

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TillBeemelmanns/PDFCompare/pkg/pdfmodel"
)

func docFromTokens(tokens []string) *pdfmodel.NormalizedDocument {
	words := make([]pdfmodel.NormalizedWord, len(tokens))
	for i, tok := range tokens {
		words[i] = pdfmodel.NormalizedWord{
			Raw:          tok,
			Token:        tok,
			Page:         0,
			BBox:         pdfmodel.Rectangle{X0: float64(i) * 10, Y0: 100, X1: float64(i)*10 + 8, Y1: 112},
			DocWordIndex: i,
			OrigIndex:    i,
		}
	}

	return &pdfmodel.NormalizedDocument{DocID: "doc", Words: words, PageDims: []pdfmodel.PageDim{{Width: 600, Height: 800}}}
}

func TestRefine_IdentityBlockYieldsFullConfidence(t *testing.T) {
	tokens := []string{"the", "quick", "brown", "fox", "jumps", "over", "the", "lazy", "dog", "today"}
	target := docFromTokens(tokens)

	block := pdfmodel.CandidateBlock{RefDoc: "refA", TStart: 0, TEnd: len(tokens) - 1, RStart: 0, REnd: len(tokens) - 1, SeedCount: 6}

	rec, err := Refine(context.Background(), block, target, tokens, pdfmodel.DefaultParams())
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, 0, rec.TStart)
	assert.Equal(t, len(tokens)-1, rec.TEnd)
	assert.GreaterOrEqual(t, rec.Confidence, 0.9)
}

func TestRefine_DegenerateBlockIsDroppedNotError(t *testing.T) {
	target := docFromTokens([]string{"alpha", "beta", "gamma"})
	refTokens := []string{"zulu", "yankee", "xray"}

	block := pdfmodel.CandidateBlock{RefDoc: "refA", TStart: 0, TEnd: 2, RStart: 0, REnd: 2, SeedCount: 1}

	rec, err := Refine(context.Background(), block, target, refTokens, pdfmodel.DefaultParams())
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestRefine_LowConfidenceIsRejected(t *testing.T) {
	target := docFromTokens([]string{"a", "b", "c", "d", "e", "f", "g", "h"})
	refTokens := []string{"z", "y", "c", "x", "w", "v", "u", "t"}

	block := pdfmodel.CandidateBlock{RefDoc: "refA", TStart: 2, TEnd: 2, RStart: 2, REnd: 2, SeedCount: 1}

	params := pdfmodel.DefaultParams()
	params.SeedSize = 1

	rec, err := Refine(context.Background(), block, target, refTokens, params)
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestProjectRectangles_UnionsAdjacentSameLineWords(t *testing.T) {
	doc := &pdfmodel.NormalizedDocument{
		Words: []pdfmodel.NormalizedWord{
			{Page: 0, BBox: pdfmodel.Rectangle{X0: 0, Y0: 100, X1: 10, Y1: 112}},
			{Page: 0, BBox: pdfmodel.Rectangle{X0: 12, Y0: 100, X1: 22, Y1: 112}},
		},
	}

	rects := projectRectangles(doc, 0, 1)
	require.Len(t, rects, 1)
	assert.Equal(t, 0.0, rects[0].X0)
	assert.Equal(t, 22.0, rects[0].X1)
}

func TestProjectRectangles_HyphenWordYieldsTwoRectsOnDifferentPages(t *testing.T) {
	doc := &pdfmodel.NormalizedDocument{
		Words: []pdfmodel.NormalizedWord{
			{
				Page:        0,
				BBox:        pdfmodel.Rectangle{X0: 560, Y0: 100, X1: 598, Y1: 112},
				MergedFrom:  []pdfmodel.Rectangle{{X0: 560, Y0: 100, X1: 598, Y1: 112}, {X0: 2, Y0: 700, X1: 40, Y1: 712}},
				MergedPages: []int{0, 1},
			},
		},
	}

	rects := projectRectangles(doc, 0, 0)
	require.Len(t, rects, 2)
	assert.Equal(t, 0, rects[0].Page)
	assert.Equal(t, 1, rects[1].Page)
}

func TestRefineAll_EmptyBlocksYieldsNoMatches(t *testing.T) {
	target := docFromTokens([]string{"a", "b"})
	refTokensFor := func(string) []string { return []string{"a", "b"} }

	matches, err := RefineAll(context.Background(), nil, target, refTokensFor, pdfmodel.DefaultParams())
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestRefineAll_RunsBlocksConcurrentlyAndFiltersRejected(t *testing.T) {
	tokens := []string{"the", "quick", "brown", "fox", "jumps", "over", "the", "lazy", "dog", "today"}
	target := docFromTokens(tokens)
	refTokensFor := func(string) []string { return tokens }

	good := pdfmodel.CandidateBlock{RefDoc: "refA", TStart: 0, TEnd: len(tokens) - 1, RStart: 0, REnd: len(tokens) - 1, SeedCount: 6}
	bad := pdfmodel.CandidateBlock{RefDoc: "refA", TStart: 0, TEnd: 0, RStart: 0, REnd: 0, SeedCount: 1}

	matches, err := RefineAll(context.Background(), []pdfmodel.CandidateBlock{good, bad}, target, refTokensFor, pdfmodel.DefaultParams())
	require.NoError(t, err)
	require.Len(t, matches, 1)
}
