package domain

import "errors"

var (
	ErrNotFound        = errors.New("transaction_not_found")
	ErrNoLines         = errors.New("purchase_has_no_lines")
	ErrInvalidAmount   = errors.New("invalid_amount")
	ErrInvalidQuantity = errors.New("invalid_quantity")
	ErrInvalidBranches = errors.New("invalid_branches")
	ErrMissingRelated  = errors.New("missing_related_transaction")
	ErrKindMismatch    = errors.New("transaction_kind_mismatch")
)
