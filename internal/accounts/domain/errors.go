package domain

import "errors"

var (
	// ErrNoAccountForRole is a configuration failure: no account could be
	// resolved for a semantic role. The engine never substitutes an
	// unrelated account silently.
	ErrNoAccountForRole = errors.New("no_account_for_role")
)
