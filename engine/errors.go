package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrRendered is returned when a working set is rendered twice. A
	// rendered working set is spent and must be discarded.
	ErrRendered = errors.New("working set already rendered")

	// ErrNotFound is the base error for lookups of names or IDs that the
	// state does not have.
	ErrNotFound = errors.New("not found")

	// ErrMergeDir is the base error for environment merges whose origin
	// directory is missing or not absolute.
	ErrMergeDir = errors.New("invalid environment merge directory")
)

// IntegrityError reports a delta that references state the session does not
// have, e.g. a declaration pointing at a block ID past the end of the block
// table. The merge that produced it applied nothing.
type IntegrityError struct {
	Table string // table the dangling reference points into
	ID    int
	Limit int // entries visible at validation time, committed plus staged
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("state integrity: %s id %d out of range (%d entries)", e.Table, e.ID, e.Limit)
}

func integrityErr(table string, id, limit int) error {
	return &IntegrityError{Table: table, ID: id, Limit: limit}
}
