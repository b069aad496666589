package entries

import (
	"errors"
	"fmt"
)

var (
	ErrEntryNotFound = errors.New("entry not found")
	ErrInvalidMood   = errors.New("invalid mood")

	// ErrStorage matches every *StorageError through errors.Is.
	ErrStorage = errors.New("storage error")
)

// StorageError reports an I/O failure of the local store. Callers should keep
// showing their previous snapshot and offer a retry.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}
