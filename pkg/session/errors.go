package session

import (
	"errors"
	"fmt"
)

// ErrInvalidStateTransition indicates a caller attempted an operation that
// is not legal in the session's current phase. State is never mutated when
// this is returned.
var ErrInvalidStateTransition = errors.New("invalid state transition")

// ValidationError indicates bad user input. The session phase is unchanged
// and the same operation may be retried with corrected input.
type ValidationError struct {
	Field  string
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Detail)
}

// WrongTurnError indicates an action was submitted for a character other
// than the one currently being prompted.
type WrongTurnError struct {
	Prompted  int
	Submitted int
}

func (e *WrongTurnError) Error() string {
	return fmt.Sprintf("wrong turn: character %d submitted an action, but character %d is being prompted", e.Submitted, e.Prompted)
}
