package xmlrpc

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedCall means the request document could not be understood as a methodCall
	ErrMalformedCall = errors.New("malformed call")
	// ErrMalformedValue means a value node had an unknown tag or unparseable content
	ErrMalformedValue = errors.New("malformed value")
	// ErrMissingField means a required struct member is absent
	ErrMissingField = errors.New("missing field")
	// ErrWrongType means a struct member is present but holds another kind of value
	ErrWrongType = errors.New("wrong type")
)

// FieldError describes a failed struct member lookup
type FieldError struct {
	Field string
	Want  Kind
	Got   Kind
	Err   error // ErrMissingField or ErrWrongType
}

func (e *FieldError) Error() string {
	if errors.Is(e.Err, ErrMissingField) {
		return fmt.Sprintf("missing field %q", e.Field)
	}
	return fmt.Sprintf("field %q: want %s, got %s", e.Field, e.Want, e.Got)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// Fault is an application-level error carried in a methodResponse
type Fault struct {
	Code    int
	Message string
}

func (f *Fault) Error() string {
	return fmt.Sprintf("fault %d: %s", f.Code, f.Message)
}
