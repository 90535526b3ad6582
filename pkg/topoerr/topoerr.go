// Package topoerr defines the error taxonomy shared by the contour pipeline.
//
// Every fatal pipeline error carries a Kind and a human-readable message.
// The underlying cause, if any, is reachable through errors.Unwrap so callers
// can still match parser sentinels with errors.Is.
package topoerr

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure.
type Kind int

const (
	KindUnknown   Kind = iota
	KindLoad           // unreadable file, unsupported format, empty scene
	KindTransform      // invalid transform parameters
	KindGeometry       // no contour lines produced
	KindRender         // contour lines cannot be serialized
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindLoad:
		return "LoadError"
	case KindTransform:
		return "TransformError"
	case KindGeometry:
		return "GeometryError"
	case KindRender:
		return "RenderError"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// Error is a classified pipeline error.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap classifies err under kind. A nil err yields nil.
func Wrap(kind Kind, err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err is classified as kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
