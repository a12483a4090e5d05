// Package pdfmodel holds the data types shared across the comparison
// pipeline: word geometry, candidate blocks, match records, and the
// parameters and errors every stage agrees on.
package pdfmodel

import "time"

// Rectangle is an axis-aligned box in PDF points (origin bottom-left).
type Rectangle struct {
	X0, Y0, X1, Y1 float64
}

// RawWord is a single glyph-run as reported by the word extractor, before
// normalisation. Geometry is preserved exactly as read.
type RawWord struct {
	Raw  string
	BBox Rectangle
	Page int
}

// RawPage is one page's ordered word stream plus its dimensions.
type RawPage struct {
	Words  []RawWord
	Width  float64
	Height float64
	Index  int
}

// RawDocument is the unprocessed output of word extraction.
type RawDocument struct {
	Pages []RawPage
}

// PageDim records a page's size for a normalised document.
type PageDim struct {
	Width  float64
	Height float64
}

// OriginalWord is one entry of the pre-filter word stream, retained in
// parallel with the surviving-token stream so a match over normalised
// indices can be projected back to page geometry.
type OriginalWord struct {
	Raw         string
	Page        int
	BBox        Rectangle
	MergedFrom  []Rectangle
	MergedPages []int // page index for each entry in MergedFrom; nil when MergedFrom is empty
	SurvivingAt int   // index into NormalizedDocument.Words, or -1 if filtered out
}

// NormalizedWord is one surviving, densely-indexed word after normalisation.
type NormalizedWord struct {
	Raw          string
	Token        string
	Page         int
	BBox         Rectangle
	MergedFrom   []Rectangle
	MergedPages  []int // page index for each entry in MergedFrom; nil when MergedFrom is empty
	DocWordIndex int
	OrigIndex    int // index into NormalizedDocument.Original
}

// NormalizedDocument is a fully ingested, normalised document ready for
// indexing or comparison.
type NormalizedDocument struct {
	DocID     string
	Path      string
	Words     []NormalizedWord // dense, doc_word_idx order
	Original  []OriginalWord   // pre-filter order, parallel geometry lookup
	PageDims  []PageDim
	UpdatedAt time.Time
}

// Tokens returns the normalised token stream, in doc_word_idx order.
func (d *NormalizedDocument) Tokens() []string {
	tokens := make([]string, len(d.Words))
	for i, w := range d.Words {
		tokens[i] = w.Token
	}

	return tokens
}

// Mode selects whether SeedDetector performs exact or fuzzy n-gram scanning.
type Mode string

const (
	ModeExact Mode = "exact"
	ModeFuzzy Mode = "fuzzy"
)

// Params configures a compare run.
// JSON tags keep the wire representation snake_case for API clients.
type Params struct {
	Mode             Mode `json:"mode"`
	SeedSize         int  `json:"seed_size"`
	MergeGap         int  `json:"merge_gap"`
	ContextLookahead int  `json:"context_lookahead"`
	SmithWaterman    bool `json:"smith_waterman"`
}

// DefaultParams returns the documented defaults.
func DefaultParams() Params {
	return Params{
		SeedSize:         5,
		MergeGap:         3,
		Mode:             ModeExact,
		SmithWaterman:    true,
		ContextLookahead: 10,
	}
}

// Validate reports an InvalidParam fatal error when a field is out of its
// documented range.
func (p Params) Validate() error {
	if p.SeedSize < 2 {
		return NewFatal(FatalInvalidParam, "seed_size must be >= 2, got %d", p.SeedSize)
	}

	if p.MergeGap < 0 {
		return NewFatal(FatalInvalidParam, "merge_gap must be >= 0, got %d", p.MergeGap)
	}

	if p.ContextLookahead < 0 {
		return NewFatal(FatalInvalidParam, "context_lookahead must be >= 0, got %d", p.ContextLookahead)
	}

	if p.Mode != ModeExact && p.Mode != ModeFuzzy {
		return NewFatal(FatalInvalidParam, "mode must be %q or %q, got %q", ModeExact, ModeFuzzy, p.Mode)
	}

	return nil
}

// SeedHit is a single fingerprint collision between the target and a
// reference document at the given positions.
type SeedHit struct {
	RefDoc      string
	TargetStart int
	RefStart    int
}

// CandidateBlock is a gap-tolerant, diagonally-coherent cluster of seed hits
// against a single reference document.
type CandidateBlock struct {
	RefDoc    string
	TStart    int
	TEnd      int
	RStart    int
	REnd      int
	SeedCount int
}

// HighlightRect is a page-tagged highlight rectangle on the target side.
type HighlightRect struct {
	Page           int `json:"page"`
	X0, Y0, X1, Y1 float64
}

// MatchRecord is the refined, Phase-B output for one candidate block.
type MatchRecord struct {
	MatchID    string          `json:"match_id"`
	RefDoc     string          `json:"ref_doc"`
	TStart     int             `json:"t_start"`
	TEnd       int             `json:"t_end"`
	RStart     int             `json:"r_start"`
	REnd       int             `json:"r_end"`
	Score      float64         `json:"score"`
	Confidence float64         `json:"confidence"`
	Rects      []HighlightRect `json:"rects"`
}

// CompareResult is the final output of a compare run.
type CompareResult struct {
	PerRefScore     map[string]float64 `json:"per_ref_score"`
	Matches         []MatchRecord      `json:"matches"`
	TargetWordCount int                `json:"target_word_count"`
}

// ProgressEvent reports pipeline progress to the host application.
type ProgressEvent struct {
	Phase   string `json:"phase"`
	Message string `json:"message"`
	Current int    `json:"current"`
	Total   int    `json:"total"`
}

// ProgressFunc receives progress events. It must not block for long; the
// pipeline promises at least one event per 500ms during long phases.
type ProgressFunc func(ProgressEvent)
