package pdfmodel

import (
	"errors"
	"fmt"
)

// Per-document errors. These are logged and cause the affected document to
// be skipped; they never abort the pipeline.
var (
	ErrUnreadablePDF = errors.New("unreadable pdf")
	ErrEncryptedPDF  = errors.New("encrypted pdf")
	ErrCorruptCache  = errors.New("corrupt cache entry")
)

// ErrCancelled is returned instead of an error when the pipeline observes a
// cancelled context. It is not itself an error condition.
var ErrCancelled = errors.New("pdfcompare: cancelled")

// FatalKind classifies an internal or input-validation failure that aborts
// the whole run.
type FatalKind string

const (
	FatalNoTarget     FatalKind = "NoTarget"
	FatalEmptyPool    FatalKind = "EmptyPool"
	FatalInvalidParam FatalKind = "InvalidParam"
	FatalInternal     FatalKind = "Internal"
)

// FatalError surfaces input errors and internal invariant violations. There
// is no silent fallback for these; broad catch-alls are disallowed
// outside of the cache-write site.
type FatalError struct {
	Kind    FatalKind
	Message string
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewFatal constructs a FatalError with a formatted message.
func NewFatal(kind FatalKind, format string, args ...any) error {
	return &FatalError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// AsFatal reports whether err is a *FatalError and returns it.
func AsFatal(err error) (*FatalError, bool) {
	var fe *FatalError
	if errors.As(err, &fe) {
		return fe, true
	}

	return nil, false
}
