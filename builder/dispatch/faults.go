package dispatch

import (
	"errors"
	"fmt"

	"github.com/csantero/MetaWeblogPortable/builder/media"
	"github.com/csantero/MetaWeblogPortable/builder/services"
	"github.com/csantero/MetaWeblogPortable/builder/store"
	"github.com/csantero/MetaWeblogPortable/builder/xmlrpc"
)

// Fault codes. The HTTP-like values make the category readable in client logs.
const (
	FaultUnsupportedMethod = 0
	FaultMalformed         = 400
	FaultUnauthorized      = 401
	FaultNotFound          = 404
	FaultInvalidParams     = 422
	FaultInternal          = 500
)

// storageMessage never contains paths or driver errors
const storageMessage = "internal storage error"

// notFoundError reports a missing post or media object
type notFoundError struct {
	what string
	id   string
}

func (e *notFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.what, e.id)
}

func (e *notFoundError) Unwrap() error {
	return store.ErrNotFound
}

func errPostNotFound(id string) error {
	return &notFoundError{what: "post", id: id}
}

// toFault maps a handler error to the fault sent to the client.
// internal is true when the error should be logged at error level.
func toFault(err error) (fault *xmlrpc.Fault, internal bool) {
	var f *xmlrpc.Fault
	switch {
	case errors.As(err, &f):
		return f, false
	case errors.Is(err, xmlrpc.ErrMalformedCall), errors.Is(err, xmlrpc.ErrMalformedValue):
		return &xmlrpc.Fault{Code: FaultMalformed, Message: err.Error()}, false
	case errors.Is(err, services.ErrUnauthorized):
		return &xmlrpc.Fault{Code: FaultUnauthorized, Message: "invalid username or password"}, false
	case errors.Is(err, store.ErrNotFound), errors.Is(err, media.ErrNotFound):
		return &xmlrpc.Fault{Code: FaultNotFound, Message: err.Error()}, false
	case errors.Is(err, ErrWrongParameterType),
		errors.Is(err, xmlrpc.ErrMissingField),
		errors.Is(err, xmlrpc.ErrWrongType),
		errors.Is(err, store.ErrInvalidCategory):
		return &xmlrpc.Fault{Code: FaultInvalidParams, Message: err.Error()}, false
	}
	return &xmlrpc.Fault{Code: FaultInternal, Message: storageMessage}, true
}
