package dispatch

import (
	"errors"
	"fmt"

	"github.com/csantero/MetaWeblogPortable/builder/xmlrpc"
)

// ErrWrongParameterType is returned when a positional parameter is missing or
// holds another kind of value than the method expects.
var ErrWrongParameterType = errors.New("wrong parameter type")

// ParamError names the method and parameter that failed extraction
type ParamError struct {
	Method string
	Index  int
	Want   xmlrpc.Kind
	Got    string // kind name, or "nothing" when the parameter is absent
	Err    error
}

func (e *ParamError) Error() string {
	if e.Err != nil && !errors.Is(e.Err, ErrWrongParameterType) {
		return fmt.Sprintf("%s: param %d: %v", e.Method, e.Index, e.Err)
	}
	return fmt.Sprintf("%s: param %d: want %s, got %s", e.Method, e.Index, e.Want, e.Got)
}

func (e *ParamError) Unwrap() error {
	return e.Err
}

// Params gives typed access to a call's positional parameters
type Params struct {
	method string
	values []xmlrpc.Value
}

func NewParams(method string, values []xmlrpc.Value) Params {
	return Params{method: method, values: values}
}

func (p Params) Len() int {
	return len(p.values)
}

func param[T xmlrpc.Value](p Params, i int, want xmlrpc.Kind) (T, error) {
	var zero T
	if i >= len(p.values) {
		return zero, &ParamError{Method: p.method, Index: i, Want: want, Got: "nothing", Err: ErrWrongParameterType}
	}
	v, ok := p.values[i].(T)
	if !ok {
		return zero, &ParamError{Method: p.method, Index: i, Want: want, Got: p.values[i].Kind().String(), Err: ErrWrongParameterType}
	}
	return v, nil
}

// String returns parameter i as a string. Integers are accepted too since
// some clients send numeric post and blog ids.
func (p Params) String(i int) (string, error) {
	if i < len(p.values) {
		if n, ok := p.values[i].(xmlrpc.Int); ok {
			return fmt.Sprintf("%d", int64(n)), nil
		}
	}
	s, err := param[xmlrpc.String](p, i, xmlrpc.KindString)
	return string(s), err
}

func (p Params) Bool(i int) (bool, error) {
	b, err := param[xmlrpc.Boolean](p, i, xmlrpc.KindBoolean)
	return bool(b), err
}

func (p Params) Struct(i int) (*xmlrpc.Struct, error) {
	return param[*xmlrpc.Struct](p, i, xmlrpc.KindStruct)
}

// field wraps a struct member failure with the parameter position
func (p Params) field(i int, err error) error {
	if err == nil {
		return nil
	}
	return &ParamError{Method: p.method, Index: i, Want: xmlrpc.KindStruct, Err: err}
}

// Credentials returns the username and password at positions i and i+1
func (p Params) Credentials(i int) (user, password string, err error) {
	if user, err = p.String(i); err != nil {
		return "", "", err
	}
	if password, err = p.String(i + 1); err != nil {
		return "", "", err
	}
	return user, password, nil
}
