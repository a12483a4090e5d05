package pdfword

import (
	"context"

	"github.com/TillBeemelmanns/PDFCompare/pkg/pdfmodel"
)

// FakeExtractor is a test double for Extractor: it serves pre-built
// documents keyed by path instead of touching the filesystem.
type FakeExtractor struct {
	Docs map[string]*pdfmodel.RawDocument
	Errs map[string]error
}

// NewFakeExtractor returns an empty FakeExtractor ready for Docs/Errs to be
// populated by the caller.
func NewFakeExtractor() *FakeExtractor {
	return &FakeExtractor{
		Docs: make(map[string]*pdfmodel.RawDocument),
		Errs: make(map[string]error),
	}
}

// ExtractWords implements Extractor.
func (f *FakeExtractor) ExtractWords(ctx context.Context, path string) (*pdfmodel.RawDocument, error) {
	if ctx.Err() != nil {
		return nil, pdfmodel.ErrCancelled
	}

	if err, ok := f.Errs[path]; ok {
		return nil, err
	}

	doc, ok := f.Docs[path]
	if !ok {
		return nil, pdfmodel.ErrUnreadablePDF
	}

	return doc, nil
}
