package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

var (
	// ErrAlreadyAllocated is the exactly-once guard: a landed-cost doc
	// allocates one time, and a repeat call is rejected explicitly.
	ErrAlreadyAllocated = errors.New("already_allocated")
)

// Allocator redistributes a landed-cost total across purchase lines by
// quantity and folds it into unit and moving-average costs.
type Allocator interface {
	// Allocate returns true when an allocation was performed, false for
	// the benign zero-quantity no-op.
	Allocate(ctx context.Context, docID snowflake.ID) (bool, error)
}
