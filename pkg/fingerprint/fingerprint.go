// Package fingerprint computes process-stable 64-bit n-gram fingerprints.
// The hash must never be process-salted — the same token sequence must hash
// identically across separate process invocations, since fingerprints key
// the on-disk-cacheable inverted index.
package fingerprint

import "github.com/cespare/xxhash/v2"

// sep separates tokens inside an n-gram before hashing, so that the boundary
// between, say, ["ab", "c"] and ["a", "bc"] cannot collide.
const sep = 0x1f // unit separator

// Hash returns a stable 64-bit fingerprint for the given n-gram, computed
// over the concatenation of its tokens joined by a single separator byte.
func Hash(tokens []string) uint64 {
	var d xxhash.Digest

	d.Reset()

	for i, t := range tokens {
		if i > 0 {
			d.Write([]byte{sep})
		}

		d.WriteString(t)
	}

	return d.Sum64()
}
