package thumbnail

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a request failed.
type ErrorKind string

const (
	// InvalidParameters means the request was rejected before any I/O.
	InvalidParameters ErrorKind = "InvalidParameters"
	// UnsupportedSource means the source scheme or content can't be handled.
	UnsupportedSource ErrorKind = "UnsupportedSource"
	// SourceUnavailable means the referenced file or asset doesn't exist.
	SourceUnavailable ErrorKind = "SourceUnavailable"
	// DecodeFailed means the source exists but produced no usable frame.
	DecodeFailed ErrorKind = "DecodeFailed"
	// PersistFailed means the thumbnail couldn't be encoded or written.
	PersistFailed ErrorKind = "PersistFailed"
)

// Code returns the error code the mobile bridge reports for this kind.
func (k ErrorKind) Code() string {
	switch k {
	case InvalidParameters:
		return "E_INVALID_PARAMETERS"
	case UnsupportedSource:
		return "E_UNSUPPORTED_URL"
	case SourceUnavailable:
		return "E_FILE_DOES_NOT_EXIST"
	default:
		return "E_UNABLE_TO_GENERATE_THUMBNAIL"
	}
}

// Error is the tagged failure returned by every stage of the pipeline.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

// NewError builds a tagged error. cause may be nil.
func NewError(kind ErrorKind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Code is shorthand for e.Kind.Code().
func (e *Error) Code() string {
	return e.Kind.Code()
}

// KindOf returns the ErrorKind carried by err. Untagged errors are reported
// as DecodeFailed, nil as "".
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	return DecodeFailed
}

// asError tags err with fallback unless it already carries a kind.
func asError(err error, fallback ErrorKind, message string) *Error {
	var te *Error
	if errors.As(err, &te) {
		return te
	}
	return NewError(fallback, message, err)
}
