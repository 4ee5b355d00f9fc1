package tree

import (
	"errors"
	"fmt"
)

// Sentinel causes carried by RejectionError; match with errors.Is.
var (
	ErrCycle            = errors.New("block would become its own ancestor")
	ErrSelfParent       = errors.New("block cannot be its own parent")
	ErrInvalidContainer = errors.New("parent component does not accept children")
	ErrParentNotFound   = errors.New("parent block not found")
	ErrBlockNotFound    = errors.New("block not found")
	ErrEmptyComponent   = errors.New("component name is empty")
	ErrCorruptTree      = errors.New("block list violates tree invariants")
)

// RejectionError reports a mutation refused because it would break a tree
// invariant. The store is unchanged when one is returned.
type RejectionError struct {
	Op       string
	BlockID  string
	TargetID string
	Err      error
}

func (e *RejectionError) Error() string {
	msg := fmt.Sprintf("%s %s", e.Op, e.BlockID)
	if e.TargetID != "" {
		msg += " -> " + e.TargetID
	}
	return msg + ": " + e.Err.Error()
}

func (e *RejectionError) Unwrap() error { return e.Err }

func reject(op, blockID, targetID string, err error) error {
	return &RejectionError{Op: op, BlockID: blockID, TargetID: targetID, Err: err}
}
