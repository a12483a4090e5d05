// Package normalize implements the Normaliser: de-hyphenation across
// line/page breaks, lower-casing and punctuation stripping, stop-word
// filtering, and dense re-indexing of the surviving token stream. The
// pre-filter word stream is retained in parallel so a match over normalised
// indices can be projected back to page geometry.
package normalize

import (
	"strings"
	"unicode"

	"github.com/TillBeemelmanns/PDFCompare/pkg/normalize/stopwords"
	"github.com/TillBeemelmanns/PDFCompare/pkg/pdfmodel"
)

// marginEpsilon is how close, in PDF points, a word's bbox must be to a
// page's left/right edge to be considered a line-break candidate. 36pt is
// half an inch, a generous margin for the varied page sizes PDFs carry.
const marginEpsilon = 36.0

// minNumericTokenLen is the shortest a purely numeric token may be before
// the token filter drops it.
const minNumericTokenLen = 2

// Normalize runs the full normalisation pipeline over a raw extracted
// document and returns a NormalizedDocument. It is a pure function: calling
// it twice on the same input, or calling it on its own output's original
// words, yields an identical token stream (idempotence).
func Normalize(doc *pdfmodel.RawDocument, docID, path string) *pdfmodel.NormalizedDocument {
	flat, pageDims := flatten(doc)
	merged := dehyphenate(flat)

	out := &pdfmodel.NormalizedDocument{
		DocID:    docID,
		Path:     path,
		PageDims: pageDims,
		Original: make([]pdfmodel.OriginalWord, len(merged)),
		Words:    make([]pdfmodel.NormalizedWord, 0, len(merged)),
	}

	for i, m := range merged {
		token := Token(m.raw)

		orig := pdfmodel.OriginalWord{
			Raw:         m.raw,
			Page:        m.page,
			BBox:        m.bbox,
			MergedFrom:  m.mergedFrom,
			MergedPages: m.mergedPages,
			SurvivingAt: -1,
		}

		if !keep(token) {
			out.Original[i] = orig
			continue
		}

		docWordIdx := len(out.Words)
		orig.SurvivingAt = docWordIdx
		out.Original[i] = orig

		out.Words = append(out.Words, pdfmodel.NormalizedWord{
			Raw:          m.raw,
			Token:        token,
			Page:         m.page,
			BBox:         m.bbox,
			MergedFrom:   m.mergedFrom,
			MergedPages:  m.mergedPages,
			DocWordIndex: docWordIdx,
			OrigIndex:    i,
		})
	}

	return out
}

// flatWord is a raw word tagged with its page's dimensions, used while
// scanning for de-hyphenation candidates.
type flatWord struct {
	raw         string
	bbox        pdfmodel.Rectangle
	page        int
	pageWidth   float64
	mergedFrom  []pdfmodel.Rectangle
	mergedPages []int
}

func flatten(doc *pdfmodel.RawDocument) ([]flatWord, []pdfmodel.PageDim) {
	var out []flatWord

	dims := make([]pdfmodel.PageDim, len(doc.Pages))

	for _, p := range doc.Pages {
		dims[p.Index] = pdfmodel.PageDim{Width: p.Width, Height: p.Height}

		for _, w := range p.Words {
			out = append(out, flatWord{
				raw:       w.Raw,
				bbox:      w.BBox,
				page:      p.Index,
				pageWidth: p.Width,
			})
		}
	}

	return out, dims
}

// dehyphenate fuses a hyphen-terminated word with the following word when
// the first ends near its page's right margin and the second begins near a
// left margin, on the same or the next page.
func dehyphenate(words []flatWord) []flatWord {
	out := make([]flatWord, 0, len(words))

	for i := 0; i < len(words); i++ {
		w := words[i]

		if i+1 < len(words) && isHyphenBreak(w, words[i+1]) {
			next := words[i+1]
			fused := flatWord{
				raw:         strings.TrimSuffix(w.raw, "-") + next.raw,
				bbox:        w.bbox,
				page:        w.page,
				pageWidth:   w.pageWidth,
				mergedFrom:  []pdfmodel.Rectangle{w.bbox, next.bbox},
				mergedPages: []int{w.page, next.page},
			}
			out = append(out, fused)
			i++ // consume next.

			continue
		}

		out = append(out, w)
	}

	return out
}

func isHyphenBreak(w, next flatWord) bool {
	if !strings.HasSuffix(w.raw, "-") || len(w.raw) < 2 {
		return false
	}

	if next.page != w.page && next.page != w.page+1 {
		return false
	}

	nearRightMargin := w.pageWidth-w.bbox.X1 <= marginEpsilon
	nearLeftMargin := next.bbox.X0 <= marginEpsilon

	return nearRightMargin && nearLeftMargin
}

// Token lower-cases and strips leading/trailing punctuation, collapsing
// internal whitespace. It is idempotent:
// Token(Token(x)) == Token(x) for any x.
func Token(raw string) string {
	lowered := strings.ToLower(raw)
	trimmed := strings.TrimFunc(lowered, func(r rune) bool { return isPunct(r) || unicode.IsSpace(r) })

	var b strings.Builder

	lastWasSpace := false

	for _, r := range trimmed {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				b.WriteRune(' ')
			}

			lastWasSpace = true

			continue
		}

		b.WriteRune(r)
		lastWasSpace = false
	}

	return strings.TrimSpace(b.String())
}

func isPunct(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSymbol(r)
}

// keep applies the token filter: drop empty tokens, short purely-numeric
// tokens, and stop words.
func keep(token string) bool {
	if token == "" {
		return false
	}

	if isNumeric(token) && len(token) < minNumericTokenLen {
		return false
	}

	return !stopwords.Contains(token)
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}

	return true
}
