package task

import (
	"errors"
	"fmt"
)

// Error reports the failure of a leaf task.
type Error struct {
	Task string
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("task %s: %v", e.Task, e.Err)
}

// Unwrap returns the leaf's own error.
func (e *Error) Unwrap() error {
	return e.Err
}

// FailedTask returns the name of the leaf that produced err, if any.
func FailedTask(err error) (string, bool) {
	var te *Error
	if errors.As(err, &te) {
		return te.Task, true
	}
	return "", false
}
