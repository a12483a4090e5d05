// Package align implements Phase B of the comparison pipeline: Smith-Waterman
// local alignment over each candidate block's extended context, producing a
// refined word range, confidence score, and per-page highlight rectangles.
package align

import (
	"context"
	"crypto/md5" //nolint:gosec // deterministic id, not a security boundary
	"fmt"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/TillBeemelmanns/PDFCompare/pkg/pdfmodel"
)

const (
	matchScore    = 2
	mismatchScore = -1
	gapScore      = -1

	minConfidence = 0.4
)

// Refine runs Smith-Waterman over block's extended context and returns the
// refined match record, or (nil, nil) if the alignment does not meet the
// acceptance threshold. refTokens is the full token stream of
// the reference document named by block.RefDoc, as retained by
// index.Store.Tokens; only the target side needs full word geometry, since
// match records carry target-side highlight rectangles only.
func Refine(ctx context.Context, block pdfmodel.CandidateBlock, target *pdfmodel.NormalizedDocument, refTokens []string, params pdfmodel.Params) (*pdfmodel.MatchRecord, error) {
	if ctx.Err() != nil {
		return nil, pdfmodel.ErrCancelled
	}

	l := params.ContextLookahead

	tStart := clampLo(block.TStart-l, 0)
	tEnd := clampHi(block.TEnd+l, len(target.Words)-1)
	rStart := clampLo(block.RStart-l, 0)
	rEnd := clampHi(block.REnd+l, len(refTokens)-1)

	if tStart > tEnd || rStart > rEnd {
		return nil, nil
	}

	tSlice := tokenSlice(target, tStart, tEnd)
	rSlice := append([]string(nil), refTokens[rStart:rEnd+1]...)

	if len(tSlice) == 0 || len(rSlice) == 0 {
		return nil, nil
	}

	aln := smithWaterman(tSlice, rSlice)
	if aln == nil {
		return nil, nil
	}

	minLen := len(tSlice)
	if len(rSlice) < minLen {
		minLen = len(rSlice)
	}

	confidence := float64(aln.score) / float64(2*minLen)
	if confidence < 0 {
		confidence = 0
	}

	if confidence > 1 {
		confidence = 1
	}

	refinedTStart := tStart + aln.tFrom
	refinedTEnd := tStart + aln.tTo
	refinedRStart := rStart + aln.rFrom
	refinedREnd := rStart + aln.rTo

	if confidence < minConfidence {
		return nil, nil
	}

	if refinedTEnd-refinedTStart+1 < params.SeedSize {
		return nil, nil
	}

	rects := projectRectangles(target, refinedTStart, refinedTEnd)

	return &pdfmodel.MatchRecord{
		MatchID:    matchID(block.RefDoc, refinedTStart, refinedRStart, aln.score),
		RefDoc:     block.RefDoc,
		TStart:     refinedTStart,
		TEnd:       refinedTEnd,
		RStart:     refinedRStart,
		REnd:       refinedREnd,
		Score:      float64(aln.score),
		Confidence: confidence,
		Rects:      rects,
	}, nil
}

// RefineAll runs Refine over every block concurrently, bounded to
// runtime.GOMAXPROCS(0) workers, and returns the accepted matches in block
// order. Blocks whose widened context refines to the same alignment yield
// one match: later records with an already-seen MatchID are dropped.
// Cooperative cancellation is checked once per block.
func RefineAll(ctx context.Context, blocks []pdfmodel.CandidateBlock, target *pdfmodel.NormalizedDocument, refTokensFor func(refDoc string) []string, params pdfmodel.Params) ([]pdfmodel.MatchRecord, error) {
	if len(blocks) == 0 {
		return nil, nil
	}

	workers := runtime.GOMAXPROCS(0)
	if workers > len(blocks) {
		workers = len(blocks)
	}

	results := make([]*pdfmodel.MatchRecord, len(blocks))

	g, gctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, workers)

	for i, b := range blocks {
		i, b := i, b

		g.Go(func() error {
			sem <- struct{}{}
			defer func() { <-sem }()

			refTokens := refTokensFor(b.RefDoc)

			rec, err := Refine(gctx, b, target, refTokens, params)
			if err != nil {
				return err
			}

			results[i] = rec

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]pdfmodel.MatchRecord, 0, len(results))
	seen := make(map[string]struct{}, len(results))

	for _, r := range results {
		if r == nil {
			continue
		}

		if _, dup := seen[r.MatchID]; dup {
			continue
		}

		seen[r.MatchID] = struct{}{}
		out = append(out, *r)
	}

	return out, nil
}

func matchID(refDoc string, tStart, rStart int, score int) string {
	h := md5.New() //nolint:gosec // deterministic id, not a security boundary
	fmt.Fprintf(h, "%s|%d|%d|%d", refDoc, tStart, rStart, score)

	return fmt.Sprintf("%x", h.Sum(nil))
}

func clampLo(v, lo int) int {
	if v < lo {
		return lo
	}

	return v
}

func clampHi(v, hi int) int {
	if v > hi {
		return hi
	}

	return v
}

func tokenSlice(doc *pdfmodel.NormalizedDocument, from, to int) []string {
	out := make([]string, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, doc.Words[i].Token)
	}

	return out
}

type alignment struct {
	score      int
	tFrom, tTo int
	rFrom, rTo int
}

// smithWaterman computes local alignment over token equality. The matrix is
// filled row by row; each row only depends on the row above and the running
// left-neighbour cell, a layout that vectorises cleanly to SIMD lanes should
// a platform-specific fast path ever be added, though only the portable
// scalar path is implemented here.
func smithWaterman(a, b []string) *alignment {
	rows := len(a) + 1
	cols := len(b) + 1

	h := make([][]int32, rows)
	for i := range h {
		h[i] = make([]int32, cols)
	}

	var best int32

	bestI, bestJ := 0, 0

	for i := 1; i < rows; i++ {
		for j := 1; j < cols; j++ {
			var diag int32
			if a[i-1] == b[j-1] {
				diag = h[i-1][j-1] + matchScore
			} else {
				diag = h[i-1][j-1] + mismatchScore
			}

			up := h[i-1][j] + gapScore
			left := h[i][j-1] + gapScore

			cell := max3(0, diag, up, left)
			h[i][j] = cell

			if cell > best {
				best = cell
				bestI, bestJ = i, j
			}
		}
	}

	if best == 0 {
		return nil
	}

	i, j := bestI, bestJ
	for i > 0 && j > 0 && h[i][j] != 0 {
		var diag int32
		if a[i-1] == b[j-1] {
			diag = h[i-1][j-1] + matchScore
		} else {
			diag = h[i-1][j-1] + mismatchScore
		}

		switch {
		case h[i][j] == diag:
			i--
			j--
		case h[i][j] == h[i-1][j]+gapScore:
			i--
		default:
			j--
		}
	}

	return &alignment{
		score: int(best),
		tFrom: i,
		tTo:   bestI - 1,
		rFrom: j,
		rTo:   bestJ - 1,
	}
}

func max3(a, b, c, d int32) int32 {
	m := a
	if b > m {
		m = b
	}

	if c > m {
		m = c
	}

	if d > m {
		m = d
	}

	return m
}

// halfLineHeight approximates half a line height for a word as half of its
// own bbox height, the only per-word geometry signal available without a
// separate line-detection pass.
func halfLineHeight(r pdfmodel.Rectangle) float64 {
	h := r.Y1 - r.Y0
	if h <= 0 {
		return 0
	}

	return h / 2
}

// projectRectangles maps the refined target word range back to original
// (pre-filter) geometry and unions adjacent same-page rectangles whose
// y-midpoints fall within half a line height of one another.
func projectRectangles(doc *pdfmodel.NormalizedDocument, from, to int) []pdfmodel.HighlightRect {
	type tagged struct {
		page int
		rect pdfmodel.Rectangle
	}

	var raw []tagged

	for i := from; i <= to && i < len(doc.Words); i++ {
		w := doc.Words[i]

		if len(w.MergedFrom) > 0 {
			for k, r := range w.MergedFrom {
				page := w.Page
				if k < len(w.MergedPages) {
					page = w.MergedPages[k]
				}

				raw = append(raw, tagged{page: page, rect: r})
			}

			continue
		}

		raw = append(raw, tagged{page: w.Page, rect: w.BBox})
	}

	sort.SliceStable(raw, func(i, j int) bool {
		if raw[i].page != raw[j].page {
			return raw[i].page < raw[j].page
		}

		if raw[i].rect.Y0 != raw[j].rect.Y0 {
			return raw[i].rect.Y0 > raw[j].rect.Y0
		}

		return raw[i].rect.X0 < raw[j].rect.X0
	})

	var unioned []tagged

	for _, t := range raw {
		if n := len(unioned); n > 0 && unioned[n-1].page == t.page && sameLine(unioned[n-1].rect, t.rect) {
			unioned[n-1].rect = union(unioned[n-1].rect, t.rect)
			continue
		}

		unioned = append(unioned, t)
	}

	out := make([]pdfmodel.HighlightRect, 0, len(unioned))
	for _, t := range unioned {
		out = append(out, pdfmodel.HighlightRect{
			Page: t.page,
			X0:   t.rect.X0, Y0: t.rect.Y0, X1: t.rect.X1, Y1: t.rect.Y1,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Page != out[j].Page {
			return out[i].Page < out[j].Page
		}

		if out[i].Y0 != out[j].Y0 {
			return out[i].Y0 < out[j].Y0
		}

		return out[i].X0 < out[j].X0
	})

	return out
}

func sameLine(a, b pdfmodel.Rectangle) bool {
	aMid := (a.Y0 + a.Y1) / 2
	bMid := (b.Y0 + b.Y1) / 2

	threshold := halfLineHeight(a)
	if hb := halfLineHeight(b); hb > threshold {
		threshold = hb
	}

	diff := aMid - bMid
	if diff < 0 {
		diff = -diff
	}

	return diff <= threshold
}

func union(a, b pdfmodel.Rectangle) pdfmodel.Rectangle {
	out := a

	if b.X0 < out.X0 {
		out.X0 = b.X0
	}

	if b.Y0 < out.Y0 {
		out.Y0 = b.Y0
	}

	if b.X1 > out.X1 {
		out.X1 = b.X1
	}

	if b.Y1 > out.Y1 {
		out.Y1 = b.Y1
	}

	return out
}
