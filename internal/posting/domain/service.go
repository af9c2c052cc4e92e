package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

// PostResult reports one successful posting. Warnings carry non-fatal
// side-effect failures (best-effort bookkeeping after the commit) so callers
// can act on them instead of losing them to a log line.
type PostResult struct {
	Success        bool     `json:"success"`
	EntryGroupID   string   `json:"entry_group_id"`
	EntriesCreated int      `json:"entries_created"`
	JournalLineIDs []string `json:"journal_line_ids"`
	TotalAmount    int64    `json:"total_amount"`
	Warnings       []string `json:"warnings,omitempty"`
}

// Service posts draft transactions into immutable ledger entries.
type Service interface {
	// Post converts one draft transaction into a persisted, balanced
	// EntryGroup, atomically. draft -> posted on success, draft -> failed
	// on error, with zero partial writes either way.
	Post(ctx context.Context, transactionID snowflake.ID, postedBy string) (*PostResult, error)

	// Reverse emits a new entry group with debit and credit sides swapped.
	// Corrections never edit posted lines in place.
	Reverse(ctx context.Context, entryGroupID snowflake.ID, memo, requestedBy string) (*PostResult, error)
}
