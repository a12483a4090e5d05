package pdfword

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/unidoc/unipdf/v3/extractor"
)

func TestWordsFromText_SplitsOnWhitespace(t *testing.T) {
	words := wordsFromText("quick brown  fox\tjumps", &extractor.TextMarkArray{}, 0)

	var raws []string
	for _, w := range words {
		raws = append(raws, w.Raw)
	}

	assert.Equal(t, []string{"quick", "brown", "fox", "jumps"}, raws)
}

func TestWordsFromText_TagsEveryWordWithThePageIndex(t *testing.T) {
	words := wordsFromText("alpha beta", &extractor.TextMarkArray{}, 3)

	for _, w := range words {
		assert.Equal(t, 3, w.Page)
	}
}

func TestWordsFromText_EmptyTextYieldsNoWords(t *testing.T) {
	words := wordsFromText("   \n\t ", &extractor.TextMarkArray{}, 0)
	assert.Empty(t, words)
}

func TestWordBBox_EmptyMarkArrayYieldsZeroRect(t *testing.T) {
	rect := wordBBox(&extractor.TextMarkArray{}, 0, 3)
	assert.Equal(t, float64(0), rect.X0)
	assert.Equal(t, float64(0), rect.X1)
}
