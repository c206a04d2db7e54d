package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a post id does not exist
	ErrNotFound = errors.New("post not found")
	// ErrInvalidCategory is returned for category names containing the delimiter
	ErrInvalidCategory = errors.New("invalid category")
	// ErrStorage marks failures of the durability layer
	ErrStorage = errors.New("storage failure")
)

// StorageError wraps an I/O or encoding failure. errors.Is(err, ErrStorage)
// holds for every StorageError.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() []error {
	return []error{ErrStorage, e.Err}
}

// asStorageError leaves domain errors alone and wraps everything else
func asStorageError(op string, err error) error {
	if err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidCategory) || errors.Is(err, ErrStorage) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}
