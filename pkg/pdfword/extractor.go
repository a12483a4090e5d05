// Package pdfword extracts word-level text and geometry from PDF files,
// implementing the only interface the comparison pipeline depends on for
// reading documents off disk.
package pdfword

import (
	"context"
	"fmt"
	"os"
	"strings"
	"unicode"

	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"

	"github.com/TillBeemelmanns/PDFCompare/pkg/pdfmodel"
)

// Extractor reads a PDF file and returns its word stream in reading order.
type Extractor interface {
	ExtractWords(ctx context.Context, path string) (*pdfmodel.RawDocument, error)
}

// UniPDFExtractor implements Extractor on top of unidoc/unipdf.
type UniPDFExtractor struct{}

// NewUniPDFExtractor returns a ready-to-use UniPDFExtractor.
func NewUniPDFExtractor() *UniPDFExtractor {
	return &UniPDFExtractor{}
}

// ExtractWords reads path and returns its per-page word stream. Encrypted or
// unreadable files return pdfmodel.ErrEncryptedPDF/pdfmodel.ErrUnreadablePDF
// so the caller can skip the document instead of aborting the run.
func (e *UniPDFExtractor) ExtractWords(ctx context.Context, path string) (*pdfmodel.RawDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", pdfmodel.ErrUnreadablePDF, err)
	}
	defer f.Close()

	reader, err := model.NewPdfReader(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", pdfmodel.ErrUnreadablePDF, err)
	}

	encrypted, err := reader.IsEncrypted()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", pdfmodel.ErrUnreadablePDF, err)
	}

	if encrypted {
		ok, err := reader.Decrypt(nil)
		if err != nil || !ok {
			return nil, pdfmodel.ErrEncryptedPDF
		}
	}

	numPages, err := reader.GetNumPages()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", pdfmodel.ErrUnreadablePDF, err)
	}

	doc := &pdfmodel.RawDocument{Pages: make([]pdfmodel.RawPage, 0, numPages)}

	for i := 1; i <= numPages; i++ {
		if ctx.Err() != nil {
			return nil, pdfmodel.ErrCancelled
		}

		page, err := reader.GetPage(i)
		if err != nil {
			return nil, fmt.Errorf("%w: page %d: %s", pdfmodel.ErrUnreadablePDF, i, err)
		}

		rawPage, err := extractPage(page, i-1)
		if err != nil {
			return nil, fmt.Errorf("%w: page %d: %s", pdfmodel.ErrUnreadablePDF, i, err)
		}

		doc.Pages = append(doc.Pages, rawPage)
	}

	return doc, nil
}

func extractPage(page *model.PdfPage, index int) (pdfmodel.RawPage, error) {
	mbox, err := page.GetMediaBox()
	if err != nil {
		return pdfmodel.RawPage{}, fmt.Errorf("failed to read media box: %w", err)
	}

	ext, err := extractor.New(page)
	if err != nil {
		return pdfmodel.RawPage{}, fmt.Errorf("failed to create page extractor: %w", err)
	}

	pageText, _, _, err := ext.ExtractPageText()
	if err != nil {
		return pdfmodel.RawPage{}, fmt.Errorf("failed to extract page text: %w", err)
	}

	text := pageText.Text()
	marks := pageText.Marks()

	words := wordsFromText(text, marks, index)

	return pdfmodel.RawPage{
		Words:  words,
		Width:  mbox.Urx - mbox.Llx,
		Height: mbox.Ury - mbox.Lly,
		Index:  index,
	}, nil
}

// wordsFromText splits the page's extracted text on runs of whitespace and
// resolves each word's bounding box via the character-level mark array.
func wordsFromText(text string, marks *extractor.TextMarkArray, page int) []pdfmodel.RawWord {
	var words []pdfmodel.RawWord

	start := -1

	flush := func(end int) {
		if start < 0 || end <= start {
			start = -1
			return
		}

		raw := strings.TrimSpace(text[start:end])
		if raw == "" {
			start = -1
			return
		}

		bbox := wordBBox(marks, start, end)
		words = append(words, pdfmodel.RawWord{Raw: raw, BBox: bbox, Page: page})
		start = -1
	}

	for i, r := range text {
		if unicode.IsSpace(r) {
			flush(i)
			continue
		}

		if start < 0 {
			start = i
		}
	}

	flush(len(text))

	return words
}

func wordBBox(marks *extractor.TextMarkArray, start, end int) pdfmodel.Rectangle {
	span, err := marks.RangeOffset(start, end)
	if err != nil {
		return pdfmodel.Rectangle{}
	}

	rect, ok := span.BBox()
	if !ok {
		return pdfmodel.Rectangle{}
	}

	return pdfmodel.Rectangle{X0: rect.Llx, Y0: rect.Lly, X1: rect.Urx, Y1: rect.Ury}
}
