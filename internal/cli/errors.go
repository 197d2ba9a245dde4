package cli

import (
	"errors"
	"fmt"
)

var (
	errAborted           = errors.New("aborted")
	errDoctorIssuesFound = errors.New("doctor found errors")
)

type notFoundError struct {
	kind string
	id   string
}

func (e notFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.kind, e.id)
}

func errNotFound(kind, id string) error {
	return notFoundError{kind: kind, id: id}
}

// invalidMoveError is returned when a move would put a task inside its own subtree.
type invalidMoveError struct {
	taskID   string
	parentID string
}

func (e invalidMoveError) Error() string {
	if e.taskID == e.parentID {
		return fmt.Sprintf("cannot move task %s under itself", e.taskID)
	}
	return fmt.Sprintf("cannot move task %s under its descendant %s", e.taskID, e.parentID)
}
