// Package detection holds the error kinds shared by the language identification
// packages: normalize, ngram, profile, detector and training.
package detection

import (
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// Kind classifies a detection failure.
type Kind int

const (
	KindUnknown Kind = iota
	// KindConfiguration covers malformed profiles, duplicate or missing profiles,
	// invalid priors and misuse of a detector.
	KindConfiguration
	// KindNoFeatures means the input produced no usable n-grams.
	KindNoFeatures
	// KindIO covers read failures on profile sources and input streams.
	KindIO
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindNoFeatures:
		return "no_features"
	case KindIO:
		return "io"
	default:
		return "unknown"
	}
}

// Error is a classified detection error.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	case e.Msg != "":
		return e.Msg
	case e.Err != nil:
		return e.Err.Error()
	default:
		return e.Kind.String() + " error"
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same kind, so the sentinels
// below can be used with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Msg == "" && t.Err == nil
}

// Sentinels for errors.Is.
var (
	ErrConfiguration = &Error{Kind: KindConfiguration}
	ErrNoFeatures    = &Error{Kind: KindNoFeatures}
	ErrIO            = &Error{Kind: KindIO}
)

// ConfigError returns a configuration error with a stack trace.
func ConfigError(format string, args ...any) error {
	return pkgerrors.WithStack(&Error{Kind: KindConfiguration, Msg: fmt.Sprintf(format, args...)})
}

// WrapConfig classifies err as a configuration error.
func WrapConfig(err error, format string, args ...any) error {
	return pkgerrors.WithStack(&Error{Kind: KindConfiguration, Msg: fmt.Sprintf(format, args...), Err: err})
}

// NoFeatures returns the error raised when a text yields no known n-grams.
func NoFeatures() error {
	return pkgerrors.WithStack(&Error{Kind: KindNoFeatures, Msg: "no features in text"})
}

// WrapIO classifies err as an I/O error.
func WrapIO(err error, format string, args ...any) error {
	return pkgerrors.WithStack(&Error{Kind: KindIO, Msg: fmt.Sprintf(format, args...), Err: err})
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUnknown
}
