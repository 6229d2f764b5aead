package job

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is wrapped by builder errors caused by bad input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrUnresolved is the cause of a failure due to missing references.
	ErrUnresolved = errors.New("unresolved references")
	// ErrNoProgress is the cause used when a build reaches a fixed point
	// with jobs still delayed.
	ErrNoProgress = errors.New("no progress")
)

// FailureKind classifies a terminal job failure.
type FailureKind int

const (
	// KindInvalid is a malformed or permanently missing input.
	KindInvalid FailureKind = iota
	// KindDomainError is a failure reported by the builder.
	KindDomainError
	// KindCrash is an unexpected failure inside a builder.
	KindCrash
)

// String returns the lowercase name of the kind.
func (k FailureKind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindDomainError:
		return "error"
	case KindCrash:
		return "crash"
	default:
		return "unknown"
	}
}

// State returns the job state a failure of this kind leads to.
func (k FailureKind) State() State {
	switch k {
	case KindInvalid:
		return Invalid
	case KindCrash:
		return Crashed
	default:
		return Errored
	}
}

// Failure is the terminal failure of a job.
type Failure struct {
	Kind       FailureKind
	Err        error
	Message    string
	Unresolved []string
	Stack      string
}

// Error implements the error interface.
func (f *Failure) Error() string {
	if f.Message != "" {
		return f.Message
	}
	if f.Err == nil {
		return f.Kind.String()
	}
	return f.Err.Error()
}

// Unwrap returns the underlying error.
func (f *Failure) Unwrap() error {
	return f.Err
}

// AsFailure extracts a *Failure from err's chain.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// IsInvalid reports whether err is an Invalid failure or wraps
// ErrInvalidArgument.
func IsInvalid(err error) bool {
	if f, ok := AsFailure(err); ok {
		return f.Kind == KindInvalid
	}
	return errors.Is(err, ErrInvalidArgument)
}

// InvalidArgument wraps a builder message as an argument error.
func InvalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// classify maps a builder error onto a failure. A nil error is success.
func classify(err error) *Failure {
	if err == nil {
		return nil
	}
	if f, ok := AsFailure(err); ok {
		return f
	}
	if errors.Is(err, ErrInvalidArgument) {
		return &Failure{Kind: KindInvalid, Err: err}
	}
	return &Failure{Kind: KindDomainError, Err: err}
}
