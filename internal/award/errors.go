package award

import (
	"errors"
	"fmt"
)

// ErrInvalidScore rejects a negative score before any side effect.
var ErrInvalidScore = errors.New("score must not be negative")

// TransportError means the award endpoint could not be reached or read.
// The attempt is in the audit log; the user record is unchanged.
type TransportError struct {
	UserID int
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("send award for user %d: %v", e.UserID, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// PersistenceError means the state could not be read or written.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s state: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
