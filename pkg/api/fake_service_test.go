package api

import (
	"context"

	"github.com/TillBeemelmanns/PDFCompare/pkg/index"
	"github.com/TillBeemelmanns/PDFCompare/pkg/pdfmodel"
)

// fakeService is a hand-written Service test double: no network, no PDF
// parsing, just canned results and recorded calls.
type fakeService struct {
	buildIndexStore *index.Store
	buildIndexErr   error
	buildProgress   []pdfmodel.ProgressEvent

	compareResult *pdfmodel.CompareResult
	compareErr    error
}

func (f *fakeService) BuildIndex(_ context.Context, _ []string, _ pdfmodel.Params, progress pdfmodel.ProgressFunc) (*index.Store, error) {
	for _, ev := range f.buildProgress {
		if progress != nil {
			progress(ev)
		}
	}

	return f.buildIndexStore, f.buildIndexErr
}

func (f *fakeService) Compare(_ context.Context, _ string, _ *index.Store, _ pdfmodel.Params, _ pdfmodel.ProgressFunc) (*pdfmodel.CompareResult, error) {
	return f.compareResult, f.compareErr
}
