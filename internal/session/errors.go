package session

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownOperation is wrapped by a DispatchError for names outside the allow-list.
	ErrUnknownOperation = errors.New("unknown operation")

	// ErrArgumentCount is wrapped by a DispatchError when an operation gets too few or too many arguments.
	ErrArgumentCount = errors.New("wrong number of arguments")

	// ErrOperationPanicked is wrapped by a DispatchError when an operation panics.
	ErrOperationPanicked = errors.New("operation panicked")

	// ErrInterrupted is returned by a LineReader when the terminal sends an interrupt.
	ErrInterrupted = errors.New("interrupted")
)

// ParseError reports an input line that cannot be split into an operation
// name and arguments.
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse %q: %s", e.Input, e.Reason)
}

// DispatchError reports an operation that could not be resolved or that
// failed while running.
type DispatchError struct {
	Name string
	Err  error
}

func (e *DispatchError) Error() string {
	if errors.Is(e.Err, ErrUnknownOperation) {
		return fmt.Sprintf("unknown operation: %s", e.Name)
	}
	return fmt.Sprintf("%s: %v", e.Name, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}
