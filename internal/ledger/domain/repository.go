package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// DimensionDebitTotal is the summed debit side for one dimension value
// within a period. A nil DimensionID bucket collects untagged lines.
type DimensionDebitTotal struct {
	DimensionID *snowflake.ID
	Total       int64
}

// Repository persists entry groups. Journal lines are append-only; there is
// deliberately no update or delete.
type Repository interface {
	// AppendEntryGroup validates balance and writes the group and its
	// lines inside tx. A second group for the same source returns
	// ErrDuplicateEntryGroup.
	AppendEntryGroup(ctx context.Context, tx *gorm.DB, group *EntryGroup, lines []JournalLine) error

	FindGroup(ctx context.Context, sourceType SourceType, sourceID snowflake.ID) (*EntryGroup, error)
	FindGroupByID(ctx context.Context, id snowflake.ID) (*EntryGroup, error)
	LinesByGroup(ctx context.Context, groupID snowflake.ID) ([]JournalLine, error)

	// DebitTotalsByDimension sums debit amounts of lines dated within
	// [from, to) for the given source types, grouped by one dimension
	// axis.
	DebitTotalsByDimension(ctx context.Context, from, to time.Time, sources []SourceType, dim DimensionType) ([]DimensionDebitTotal, error)
}
