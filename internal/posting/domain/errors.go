package domain

import "errors"

var (
	// ErrAlreadyPosted is the idempotency guard: re-posting a posted
	// transaction is rejected explicitly so duplicate submissions stay
	// diagnosable.
	ErrAlreadyPosted = errors.New("already_posted")

	// ErrNotPostable covers transactions in the terminal failed state.
	ErrNotPostable = errors.New("transaction_not_postable")

	// ErrOverpayment is a business-rule violation: the payment exceeds the
	// outstanding payable balance. No lines are produced.
	ErrOverpayment = errors.New("overpayment")

	// ErrMissingDimension is raised when a deployment marks a dimension
	// mandatory and the transaction omits it.
	ErrMissingDimension = errors.New("missing_required_dimension")

	ErrUnsupportedKind = errors.New("unsupported_transaction_kind")
	ErrRelatedNotFound = errors.New("related_transaction_not_found")
	ErrAlreadyReversed = errors.New("entry_group_already_reversed")
)
