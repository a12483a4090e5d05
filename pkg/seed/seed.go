// Package seed implements Phase A of the comparison pipeline: scanning the
// target token stream for n-gram collisions against the reference index and
// clustering the resulting hits into gap-tolerant candidate blocks.
package seed

import (
	"context"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/TillBeemelmanns/PDFCompare/pkg/fingerprint"
	"github.com/TillBeemelmanns/PDFCompare/pkg/fuzzy"
	"github.com/TillBeemelmanns/PDFCompare/pkg/index"
	"github.com/TillBeemelmanns/PDFCompare/pkg/pdfmodel"
)

// maxFuzzyVariants bounds the Cartesian product of positional alternatives
// scanned per n-gram in fuzzy mode.
const maxFuzzyVariants = 8

// Detect scans target for n-gram collisions against idx and clusters the
// resulting hits into candidate blocks. fuzzyMap is required (and used) only
// when params.Mode is pdfmodel.ModeFuzzy.
func Detect(ctx context.Context, target []string, idx *index.Store, fuzzyMap *fuzzy.EquivalenceMap, params pdfmodel.Params) ([]pdfmodel.CandidateBlock, error) {
	n := params.SeedSize
	if len(target) < n {
		return nil, nil
	}

	positions := len(target) - n + 1

	workers := runtime.GOMAXPROCS(0)
	if workers > positions {
		workers = positions
	}

	if workers < 1 {
		workers = 1
	}

	chunks := make([][]pdfmodel.SeedHit, workers)

	g, gctx := errgroup.WithContext(ctx)

	chunkSize := (positions + workers - 1) / workers

	for w := 0; w < workers; w++ {
		w := w
		lo := w * chunkSize
		hi := lo + chunkSize

		if hi > positions {
			hi = positions
		}

		if lo >= hi {
			continue
		}

		g.Go(func() error {
			hits, err := scanRange(gctx, target, idx, fuzzyMap, params, lo, hi)
			if err != nil {
				return err
			}

			chunks[w] = hits

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var hits []pdfmodel.SeedHit

	for _, c := range chunks {
		hits = append(hits, c...)
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].RefDoc != hits[j].RefDoc {
			return hits[i].RefDoc < hits[j].RefDoc
		}

		return hits[i].TargetStart < hits[j].TargetStart
	})

	return cluster(hits, n, params.MergeGap), nil
}

func scanRange(ctx context.Context, target []string, idx *index.Store, fuzzyMap *fuzzy.EquivalenceMap, params pdfmodel.Params, lo, hi int) ([]pdfmodel.SeedHit, error) {
	n := params.SeedSize

	var hits []pdfmodel.SeedHit

	for i := lo; i < hi; i++ {
		if i%64 == 0 && ctx.Err() != nil {
			return nil, pdfmodel.ErrCancelled
		}

		for _, variant := range variants(target[i:i+n], fuzzyMap, params.Mode) {
			fp := fingerprint.Hash(variant)
			for _, p := range idx.Lookup(fp) {
				hits = append(hits, pdfmodel.SeedHit{RefDoc: p.DocID, TargetStart: i, RefStart: p.Start})
			}
		}
	}

	return hits, nil
}

// variants returns the n-gram exactly as given when mode is exact, or the
// capped Cartesian product of per-position equivalence classes in fuzzy
// mode. The all-identity combination (the exact n-gram) is always first.
func variants(ngram []string, fuzzyMap *fuzzy.EquivalenceMap, mode pdfmodel.Mode) [][]string {
	if mode != pdfmodel.ModeFuzzy || fuzzyMap == nil {
		exact := make([]string, len(ngram))
		copy(exact, ngram)

		return [][]string{exact}
	}

	choices := make([][]string, len(ngram))

	for i, tok := range ngram {
		choices[i] = identityFirst(tok, fuzzyMap.Expand(tok))
	}

	return cartesianCapped(choices, maxFuzzyVariants)
}

func identityFirst(tok string, expanded []string) []string {
	out := make([]string, 0, len(expanded))
	out = append(out, tok)

	for _, e := range expanded {
		if e != tok {
			out = append(out, e)
		}
	}

	return out
}

func cartesianCapped(choices [][]string, cap int) [][]string {
	result := [][]string{{}}

	for _, options := range choices {
		next := make([][]string, 0, cap)

	outer:
		for _, prefix := range result {
			for _, opt := range options {
				seq := make([]string, len(prefix)+1)
				copy(seq, prefix)
				seq[len(prefix)] = opt

				next = append(next, seq)

				if len(next) >= cap {
					break outer
				}
			}
		}

		result = next
	}

	return result
}

// openBlock is a candidate block still eligible to absorb further hits.
type openBlock struct {
	block pdfmodel.CandidateBlock
}

func cluster(hits []pdfmodel.SeedHit, n, mergeGap int) []pdfmodel.CandidateBlock {
	var finalized []pdfmodel.CandidateBlock

	i := 0
	for i < len(hits) {
		j := i
		for j < len(hits) && hits[j].RefDoc == hits[i].RefDoc {
			j++
		}

		finalized = append(finalized, clusterOneDoc(hits[i:j], n, mergeGap)...)
		i = j
	}

	sort.Slice(finalized, func(a, b int) bool {
		if finalized[a].RefDoc != finalized[b].RefDoc {
			return finalized[a].RefDoc < finalized[b].RefDoc
		}

		return finalized[a].TStart < finalized[b].TStart
	})

	return finalized
}

func clusterOneDoc(hits []pdfmodel.SeedHit, n, mergeGap int) []pdfmodel.CandidateBlock {
	var open []openBlock

	var closed []pdfmodel.CandidateBlock

	gap := mergeGap + n

	closeStale := func(targetStart int) {
		kept := open[:0]

		for _, ob := range open {
			if targetStart-ob.block.TEnd > gap {
				closed = append(closed, ob.block)
				continue
			}

			kept = append(kept, ob)
		}

		open = kept
	}

	for _, h := range hits {
		closeStale(h.TargetStart)

		best := -1
		bestDelta := 0

		for idx, ob := range open {
			if h.TargetStart-ob.block.TEnd > gap {
				continue
			}

			if h.RefStart-ob.block.REnd > gap {
				continue
			}

			if h.RefStart < ob.block.RStart {
				continue
			}

			delta := h.TargetStart - ob.block.TEnd
			if delta < 0 {
				delta = -delta
			}

			if best == -1 || delta < bestDelta {
				best = idx
				bestDelta = delta
			}
		}

		if best == -1 {
			open = append(open, openBlock{block: pdfmodel.CandidateBlock{
				RefDoc:    h.RefDoc,
				TStart:    h.TargetStart,
				TEnd:      h.TargetStart + n - 1,
				RStart:    h.RefStart,
				REnd:      h.RefStart + n - 1,
				SeedCount: 1,
			}})

			continue
		}

		b := &open[best].block
		if h.TargetStart+n-1 > b.TEnd {
			b.TEnd = h.TargetStart + n - 1
		}

		if h.RefStart+n-1 > b.REnd {
			b.REnd = h.RefStart + n - 1
		}

		b.SeedCount++
	}

	for _, ob := range open {
		closed = append(closed, ob.block)
	}

	out := closed[:0]

	for _, b := range closed {
		if b.SeedCount >= 1 && b.TEnd-b.TStart+1 >= n {
			out = append(out, b)
		}
	}

	return out
}
