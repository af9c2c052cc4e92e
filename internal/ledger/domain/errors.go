package domain

import "errors"

var (
	// ErrUnbalancedEntry means total debits != total credits. It is an
	// internal invariant violation and must never be swallowed.
	ErrUnbalancedEntry = errors.New("unbalanced_entry")

	ErrInvalidLineAmount   = errors.New("invalid_line_amount")
	ErrEmptyEntryGroup     = errors.New("empty_entry_group")
	ErrDuplicateEntryGroup = errors.New("duplicate_entry_group")
	ErrEntryGroupNotFound  = errors.New("entry_group_not_found")
)
