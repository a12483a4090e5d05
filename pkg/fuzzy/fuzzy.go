// Package fuzzy builds the token equivalence map used by SeedDetector's
// fuzzy mode: tolerate single-character rewrites (a typo fix, a pluralised
// noun) without losing a seed match.
package fuzzy

import (
	"sort"

	"github.com/agext/levenshtein"
)

const maxDistance = 1

// EquivalenceMap groups a reference vocabulary into classes of tokens that
// are within Levenshtein distance 1 and length difference <= 1 of one
// another. Built once per compare run over the reference token vocabulary.
type EquivalenceMap struct {
	byLength map[int][]string
	classes  map[string][]string
}

// Build constructs an EquivalenceMap over the given vocabulary. Duplicate
// tokens are ignored.
func Build(vocab []string) *EquivalenceMap {
	seen := make(map[string]struct{}, len(vocab))
	distinct := make([]string, 0, len(vocab))

	for _, v := range vocab {
		if _, ok := seen[v]; ok {
			continue
		}

		seen[v] = struct{}{}
		distinct = append(distinct, v)
	}

	sort.Strings(distinct)

	byLength := make(map[int][]string)
	for _, v := range distinct {
		l := len(v)
		byLength[l] = append(byLength[l], v)
	}

	em := &EquivalenceMap{byLength: byLength, classes: make(map[string][]string, len(distinct))}

	for _, v := range distinct {
		em.classes[v] = em.near(v)
	}

	return em
}

// near returns every vocabulary token (including tok itself) within the
// length-difference and edit-distance bounds of tok, scanning only the
// length buckets that could possibly qualify.
func (em *EquivalenceMap) near(tok string) []string {
	out := []string{tok}

	for l := len(tok) - maxDistance; l <= len(tok)+maxDistance; l++ {
		for _, cand := range em.byLength[l] {
			if cand == tok {
				continue
			}

			if levenshtein.Distance(tok, cand, nil) <= maxDistance {
				out = append(out, cand)
			}
		}
	}

	sort.Strings(out)

	return out
}

// Expand returns the union of equivalence classes containing any vocabulary
// token within the distance/length bound of u, deduplicated and sorted for
// determinism. The result always contains u itself even if u is absent from
// the vocabulary built by Build.
func (em *EquivalenceMap) Expand(u string) []string {
	seen := map[string]struct{}{u: {}}
	out := []string{u}

	for l := len(u) - maxDistance; l <= len(u)+maxDistance; l++ {
		for _, cand := range em.byLength[l] {
			if levenshtein.Distance(u, cand, nil) > maxDistance {
				continue
			}

			for _, member := range em.classes[cand] {
				if _, ok := seen[member]; ok {
					continue
				}

				seen[member] = struct{}{}
				out = append(out, member)
			}
		}
	}

	sort.Strings(out)

	return out
}
