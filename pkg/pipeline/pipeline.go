// Package pipeline wires together the comparison stages (extraction,
// normalisation, caching, indexing, seed detection, and alignment) into the
// two operations the rest of the system drives: BuildIndex and Compare.
package pipeline

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/TillBeemelmanns/PDFCompare/pkg/align"
	"github.com/TillBeemelmanns/PDFCompare/pkg/cache"
	"github.com/TillBeemelmanns/PDFCompare/pkg/fuzzy"
	"github.com/TillBeemelmanns/PDFCompare/pkg/index"
	"github.com/TillBeemelmanns/PDFCompare/pkg/normalize"
	"github.com/TillBeemelmanns/PDFCompare/pkg/pdfmodel"
	"github.com/TillBeemelmanns/PDFCompare/pkg/pdfword"
	"github.com/TillBeemelmanns/PDFCompare/pkg/seed"
)

// Mirror is the subset of cache.S3Mirror that Pipeline depends on, so tests
// can run without a network round trip.
type Mirror interface {
	Fetch(ctx context.Context, key string) (*pdfmodel.NormalizedDocument, error)
	Publish(ctx context.Context, key string, doc *pdfmodel.NormalizedDocument) error
}

// Pipeline holds the collaborators every compare run needs: a word
// extractor, an on-disk cache, and an optional remote mirror.
type Pipeline struct {
	extractor pdfword.Extractor
	persister *cache.Persister
	mirror    Mirror
}

// New creates a Pipeline. m may be nil; when absent, cache misses fall
// straight through to extraction.
func New(extractor pdfword.Extractor, persister *cache.Persister, m Mirror) *Pipeline {
	return &Pipeline{extractor: extractor, persister: persister, mirror: m}
}

// BuildIndex loads, caches, normalises, and indexes every reference document
// named by refPaths, fanning out across min(GOMAXPROCS, len(refPaths))
// workers. A per-document failure is logged and the document is skipped; it
// never aborts the run.
func (p *Pipeline) BuildIndex(ctx context.Context, refPaths []string, params pdfmodel.Params, progress pdfmodel.ProgressFunc) (*index.Store, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	if len(refPaths) == 0 {
		return nil, pdfmodel.NewFatal(pdfmodel.FatalEmptyPool, "no reference documents given")
	}

	idx := index.New(params.SeedSize)

	workers := runtime.GOMAXPROCS(0)
	if workers > len(refPaths) {
		workers = len(refPaths)
	}

	sem := make(chan struct{}, workers)

	g, gctx := errgroup.WithContext(ctx)

	var done atomic.Int64

	for i, path := range refPaths {
		path := path
		i := i

		g.Go(func() error {
			sem <- struct{}{}
			defer func() { <-sem }()

			if gctx.Err() != nil {
				return pdfmodel.ErrCancelled
			}

			doc, err := p.loadDocument(gctx, path)
			if err != nil {
				slog.WarnContext(gctx, "skipping unreadable reference document", "path", path, "err", err)
				report(progress, "index", fmt.Sprintf("skipped %s: %v", filepath.Base(path), err), i+1, len(refPaths))

				return nil
			}

			idx.AddDocument(doc.DocID, doc.Tokens(), params.SeedSize)

			report(progress, "index", fmt.Sprintf("indexed %s", filepath.Base(path)), int(done.Add(1)), len(refPaths))

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if err == pdfmodel.ErrCancelled { //nolint:errorlint // sentinel returned directly, never wrapped
			return nil, err
		}

		return nil, fmt.Errorf("failed to build reference index: %w", err)
	}

	idx.Finalize()

	return idx, nil
}

// Compare extracts and normalises the target document, runs Phase A seed
// detection and Phase B alignment against idx, and returns the finalised
// result.
func (p *Pipeline) Compare(ctx context.Context, targetPath string, idx *index.Store, params pdfmodel.Params, progress pdfmodel.ProgressFunc) (*pdfmodel.CompareResult, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	if targetPath == "" {
		return nil, pdfmodel.NewFatal(pdfmodel.FatalNoTarget, "no target document given")
	}

	if idx == nil {
		return nil, pdfmodel.NewFatal(pdfmodel.FatalEmptyPool, "no reference index given")
	}

	target, err := p.loadDocument(ctx, targetPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load target document: %w", err)
	}

	report(progress, "compare", "scanning for candidate overlaps", 0, 1)

	var fuzzyMap *fuzzy.EquivalenceMap
	if params.Mode == pdfmodel.ModeFuzzy {
		fuzzyMap = fuzzy.Build(idx.Vocabulary())
	}

	blocks, err := seed.Detect(ctx, target.Tokens(), idx, fuzzyMap, params)
	if err != nil {
		return nil, fmt.Errorf("failed to detect candidate blocks: %w", err)
	}

	report(progress, "align", "refining candidate blocks", 0, len(blocks))

	var matches []pdfmodel.MatchRecord

	if params.SmithWaterman {
		matches, err = align.RefineAll(ctx, blocks, target, idx.Tokens, params)
		if err != nil {
			return nil, fmt.Errorf("failed to refine candidate blocks: %w", err)
		}
	} else {
		matches = matchesWithoutRefinement(blocks)
	}

	result := finalize(matches, idx.Docs(), len(target.Words))

	report(progress, "done", "comparison complete", len(matches), len(matches))

	return result, nil
}

// loadDocument resolves a document through the cache/mirror chain before
// falling back to extraction + normalisation, and writes the result back to
// both the local cache and the mirror so future runs skip re-parsing.
func (p *Pipeline) loadDocument(ctx context.Context, path string) (*pdfmodel.NormalizedDocument, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to stat document: %w", err)
	}

	key := cache.ContentKey(abs, info.ModTime(), info.Size())

	if p.persister != nil {
		doc, err := p.persister.Load(key)

		switch {
		case err != nil:
			slog.WarnContext(ctx, "discarded corrupt cache entry", "path", abs, "err", err)
		case doc != nil:
			return doc, nil
		}
	}

	if p.mirror != nil {
		if doc, err := p.mirror.Fetch(ctx, key); err == nil && doc != nil {
			if p.persister != nil {
				if err := p.persister.Save(key, doc); err != nil {
					slog.WarnContext(ctx, "failed to warm local cache from mirror", "path", abs, "err", err)
				}
			}

			return doc, nil
		}
	}

	raw, err := p.extractor.ExtractWords(ctx, abs)
	if err != nil {
		return nil, err
	}

	doc := normalize.Normalize(raw, key, abs)
	doc.UpdatedAt = info.ModTime()

	if p.persister != nil {
		if err := p.persister.Save(key, doc); err != nil {
			slog.WarnContext(ctx, "failed to write cache entry", "path", abs, "err", err)
		}
	}

	if p.mirror != nil {
		if err := p.mirror.Publish(ctx, key, doc); err != nil {
			slog.WarnContext(ctx, "failed to publish cache entry to mirror", "path", abs, "err", err)
		}
	}

	return doc, nil
}

func report(progress pdfmodel.ProgressFunc, phase, message string, current, total int) {
	if progress == nil {
		return
	}

	progress(pdfmodel.ProgressEvent{Phase: phase, Message: message, Current: current, Total: total})
}

// matchesWithoutRefinement accepts candidate blocks as-is when Smith-Waterman
// refinement is disabled (params.SmithWaterman == false): the
// fast, coarse-match mode.
func matchesWithoutRefinement(blocks []pdfmodel.CandidateBlock) []pdfmodel.MatchRecord {
	out := make([]pdfmodel.MatchRecord, 0, len(blocks))

	for _, b := range blocks {
		out = append(out, pdfmodel.MatchRecord{
			MatchID:    coarseMatchID(b),
			RefDoc:     b.RefDoc,
			TStart:     b.TStart,
			TEnd:       b.TEnd,
			RStart:     b.RStart,
			REnd:       b.REnd,
			Score:      float64(b.SeedCount),
			Confidence: 1,
		})
	}

	return out
}

func coarseMatchID(b pdfmodel.CandidateBlock) string {
	return fmt.Sprintf("%s:%d:%d", b.RefDoc, b.TStart, b.RStart)
}

// finalize stable-sorts matches by (RefDoc, TStart) and computes the
// per-reference-document aggregate score used by the summary view. Every
// indexed reference gets an entry, zero when nothing matched; a target word
// covered by several matches from the same reference counts once for that
// reference, while the same word may count again for a different reference.
func finalize(matches []pdfmodel.MatchRecord, refDocs []string, targetWordCount int) *pdfmodel.CompareResult {
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].RefDoc != matches[j].RefDoc {
			return matches[i].RefDoc < matches[j].RefDoc
		}

		return matches[i].TStart < matches[j].TStart
	})

	perRef := make(map[string]float64, len(refDocs))
	for _, doc := range refDocs {
		perRef[doc] = 0
	}

	i := 0
	for i < len(matches) {
		j := i
		for j < len(matches) && matches[j].RefDoc == matches[i].RefDoc {
			j++
		}

		if targetWordCount > 0 {
			covered := coveredWords(matches[i:j])
			perRef[matches[i].RefDoc] = float64(covered) / float64(targetWordCount)
		}

		i = j
	}

	return &pdfmodel.CompareResult{
		Matches:         matches,
		PerRefScore:     perRef,
		TargetWordCount: targetWordCount,
	}
}

// coveredWords counts the distinct target words covered by a single
// reference's matches, merging overlapping ranges. The matches are already
// sorted by TStart.
func coveredWords(matches []pdfmodel.MatchRecord) int {
	total := 0
	end := -1

	for _, m := range matches {
		lo := m.TStart
		if lo <= end {
			lo = end + 1
		}

		if m.TEnd >= lo {
			total += m.TEnd - lo + 1
			end = m.TEnd
		}
	}

	return total
}

// paletteSize bounds the deterministic colour assignment offered to callers
// that render matches; PDFCompare has no UI of its own and its CLI table
// prints no colours, so this just hands callers a stable index.
const paletteSize = 16

// PaletteIndex deterministically maps a reference document id to a palette
// slot via an FNV-32a hash, so the same document is always drawn in the same
// colour across runs. finalize does not call it; CompareResult carries no
// colour.
func PaletteIndex(refDoc string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(refDoc))

	return int(h.Sum32() % paletteSize)
}
