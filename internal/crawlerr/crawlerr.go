// Package crawlerr gives every stage of the pipeline (fetch, classify,
// download, storage) the same small vocabulary of error kinds, so the
// worker pool and the journal can decide "retry or drop" without knowing
// the internals of whichever package raised the error.
//
// Kind is for logging and retry routing only — it must never gate
// business logic. Whether a PDF is recorded in the report is decided by
// its own success/failure, not by which Kind an error carried.
package crawlerr

import (
	"errors"
	"fmt"

	"github.com/rohmanhakim/pdfcrawler/pkg/failure"
)

// Kind classifies why an operation failed.
type Kind int

const (
	KindUnknown Kind = iota
	KindTransientNetwork
	KindPermanentHTTP
	KindParse
	KindClassifierProbe
	KindDownloadValidation
	KindIO
	KindShutdown
)

func (k Kind) String() string {
	switch k {
	case KindTransientNetwork:
		return "transient_network"
	case KindPermanentHTTP:
		return "permanent_http"
	case KindParse:
		return "parse"
	case KindClassifierProbe:
		return "classifier_probe"
	case KindDownloadValidation:
		return "download_validation"
	case KindIO:
		return "io"
	case KindShutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// Error is a Kind-tagged, classified error that can be retried by
// pkg/retry and unwrapped with errors.Is/errors.As like any other error.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Severity satisfies failure.ClassifiedError: only transient network
// failures are recoverable by retrying the same operation.
func (e *Error) Severity() failure.Severity {
	if e.Kind == KindTransientNetwork {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

// IsRetryable satisfies the interface pkg/retry checks for.
func (e *Error) IsRetryable() bool {
	return e.Kind == KindTransientNetwork
}

// Is lets two *Error values compare equal by Kind, so errors.Is(err,
// crawlerr.New(KindX, "", nil)) matches any error of Kind KindX. A bare
// Kind is not an error and cannot be passed to errors.Is.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Kind == other.Kind
	}
	return false
}

// Of reports the Kind carried by err, or KindUnknown if err is not (or
// does not wrap) a *Error.
func Of(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
