package nonstop

import (
	"errors"
	"fmt"
)

var (
	// ErrNoDefs, ErrNoGroup and ErrNoStops describe why a document was left
	// unchanged. They are reported, never returned by Process.
	ErrNoDefs  = errors.New("no 'defs' node found, possibly this file does not contain gradients")
	ErrNoGroup = errors.New("no 'g' nodes, stops not found")
	ErrNoStops = errors.New("gradient stops not found")

	// ErrMissingID is wrapped by the PreconditionError returned for a gradient
	// that has stops but no id to be referenced by.
	ErrMissingID = errors.New("gradient with stops has no id")
)

// PreconditionError reports a document that breaks an assumption the repair
// depends on. Processing stops at the first one.
type PreconditionError struct {
	Tag   string // tag of the offending node
	Index int    // position among its parent's children
	Err   error
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s at child %d: %v", e.Tag, e.Index, e.Err)
}

func (e *PreconditionError) Unwrap() error { return e.Err }
