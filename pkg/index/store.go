// Package index implements the inverted n-gram index (IndexStore): a
// mapping from 64-bit fingerprint to a compact, sorted posting list over the
// reference pool.
package index

import (
	"sort"
	"sync"

	"github.com/TillBeemelmanns/PDFCompare/pkg/fingerprint"
)

// Posting is one occurrence of an n-gram: a reference document and the word
// index where the n-gram starts.
type Posting struct {
	DocID string
	Start int
}

// approxBytesPerPosting estimates the in-memory footprint of one posting for
// ApproxMemoryBytes, accounting for the string header and slice overhead of
// the backing store.
const approxBytesPerPosting = 32

// Store is the inverted index over a fixed n-gram size. It is populated
// during the index phase and is read-only (no locking required) during
// Phase A/B — the mutex here only protects concurrent
// AddDocument calls made while building the index.
type Store struct {
	postings map[uint64][]Posting
	docs     map[string][]string
	vocab    map[string]struct{}
	mu       sync.Mutex
	n        int
}

// New creates an empty IndexStore for n-grams of size n.
func New(n int) *Store {
	return &Store{
		postings: make(map[uint64][]Posting),
		docs:     make(map[string][]string),
		vocab:    make(map[string]struct{}),
		n:        n,
	}
}

// N returns the seed size this store was built with.
func (s *Store) N() int {
	return s.n
}

// AddDocument indexes every n-gram of tokens under docID and retains the
// token stream itself so Phase B alignment can later re-read the reference
// document's words without re-extracting or re-normalising it. Safe for
// concurrent use by different callers indexing different documents.
func (s *Store) AddDocument(docID string, tokens []string, n int) {
	type entry struct {
		fp    uint64
		start int
	}

	var local []entry

	if len(tokens) >= n {
		local = make([]entry, 0, len(tokens)-n+1)

		for i := 0; i+n <= len(tokens); i++ {
			fp := fingerprint.Hash(tokens[i : i+n])
			local = append(local, entry{fp: fp, start: i})
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range local {
		s.postings[e.fp] = append(s.postings[e.fp], Posting{DocID: docID, Start: e.start})
	}

	s.docs[docID] = tokens

	for _, t := range tokens {
		s.vocab[t] = struct{}{}
	}
}

// Tokens returns the token stream previously indexed under docID, or nil if
// unknown.
func (s *Store) Tokens(docID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.docs[docID]
}

// Vocabulary returns the distinct set of tokens seen across every indexed
// document, sorted for determinism. Used to build the FuzzyMatcher
// equivalence map once per compare run.
func (s *Store) Vocabulary() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.vocab))
	for t := range s.vocab {
		out = append(out, t)
	}

	sort.Strings(out)

	return out
}

// Finalize sorts every posting list by (DocID, Start) so that downstream
// consumers never depend on map-iteration or append order. Call once after
// the index phase completes and before Phase A begins.
func (s *Store) Finalize() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for fp, list := range s.postings {
		sort.Slice(list, func(i, j int) bool {
			if list[i].DocID != list[j].DocID {
				return list[i].DocID < list[j].DocID
			}

			return list[i].Start < list[j].Start
		})
		s.postings[fp] = list
	}
}

// Lookup returns the posting list for a fingerprint, or nil if absent.
func (s *Store) Lookup(fp uint64) []Posting {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.postings[fp]
}

// ApproxMemoryBytes estimates the store's memory footprint, for UI display.
func (s *Store) ApproxMemoryBytes() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total int64

	for _, list := range s.postings {
		total += int64(len(list)) * approxBytesPerPosting
	}

	return total
}

// Docs returns the ids of every document added to the store, sorted, so
// result maps can carry a zero score for references that never matched.
func (s *Store) Docs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.docs))
	for id := range s.docs {
		out = append(out, id)
	}

	sort.Strings(out)

	return out
}

// DocCount returns the number of distinct documents added to the store,
// including any too short to contribute a posting. Useful for progress
// reporting.
func (s *Store) DocCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.docs)
}
