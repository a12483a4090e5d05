// Package refpool expands reference-pool glob patterns into a concrete,
// deterministic list of PDF paths for the index phase.
package refpool

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// Expand resolves each pattern to a set of files and returns the union as
// absolute paths, de-duplicated and sorted so BuildIndex always sees the
// reference pool in the same order regardless of how patterns overlap. A
// pattern may be a plain existing file path or a doublestar glob such as
// "refs/**/*.pdf".
func Expand(patterns []string) ([]string, error) {
	seen := make(map[string]struct{})

	var out []string

	for _, pattern := range patterns {
		matches, err := expandOne(pattern)
		if err != nil {
			return nil, fmt.Errorf("failed to expand pattern %q: %w", pattern, err)
		}

		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}

			seen[m] = struct{}{}

			out = append(out, m)
		}
	}

	sort.Strings(out)

	return out, nil
}

// expandOne resolves a single pattern. A plain, existing file is returned
// as its absolute path; anything else is treated as a doublestar glob over
// the local filesystem.
func expandOne(pattern string) ([]string, error) {
	if info, err := os.Stat(pattern); err == nil && !info.IsDir() {
		abs, err := filepath.Abs(pattern)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve absolute path for %s: %w", pattern, err)
		}

		return []string{abs}, nil
	}

	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid glob pattern: %w", err)
	}

	out := make([]string, 0, len(matches))

	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			return nil, fmt.Errorf("failed to stat matched file %s: %w", m, err)
		}

		if info.IsDir() {
			continue
		}

		abs, err := filepath.Abs(m)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve absolute path for %s: %w", m, err)
		}

		out = append(out, abs)
	}

	return out, nil
}
