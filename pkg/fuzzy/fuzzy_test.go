package fuzzy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpand_IncludesSingleEditNeighbours(t *testing.T) {
	em := Build([]string{"color", "colour", "colors", "dog"})

	got := em.Expand("color")

	assert.Contains(t, got, "color")
	assert.Contains(t, got, "colour") // substitution distance 1
	assert.Contains(t, got, "colors") // insertion distance 1
	assert.NotContains(t, got, "dog")
}

func TestExpand_ExcludesDistanceTwo(t *testing.T) {
	em := Build([]string{"cat", "cattle"})

	got := em.Expand("cat")

	assert.NotContains(t, got, "cattle")
}

func TestExpand_TokenAbsentFromVocabStillReturnsItself(t *testing.T) {
	em := Build([]string{"apple", "banana"})

	got := em.Expand("zzz")

	assert.Equal(t, []string{"zzz"}, got)
}

func TestExpand_IsDeterministic(t *testing.T) {
	em := Build([]string{"run", "ran", "rung", "fun"})

	a := em.Expand("run")
	b := em.Expand("run")

	assert.Equal(t, a, b)
}

func TestBuild_DeduplicatesVocabulary(t *testing.T) {
	em := Build([]string{"alpha", "alpha", "alpha"})

	got := em.Expand("alpha")

	assert.Equal(t, []string{"alpha"}, got)
}
