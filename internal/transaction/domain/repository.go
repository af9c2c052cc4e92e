package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	ledger "github.com/smallbiznis/kontera/internal/ledger/domain"
	"gorm.io/gorm"
)

// SubledgerTotal is the summed posted transaction value for one dimension
// value within a period. A nil DimensionID bucket collects untagged
// transactions.
type SubledgerTotal struct {
	DimensionID *snowflake.ID
	Total       int64
}

// Repository is the transaction store the posting engine consumes.
type Repository interface {
	CreatePurchase(ctx context.Context, p *Purchase) error
	CreatePayment(ctx context.Context, p *Payment) error
	CreateTransfer(ctx context.Context, t *Transfer) error
	CreateLandedCost(ctx context.Context, lc *LandedCost) error

	FindHeader(ctx context.Context, id snowflake.ID) (*Transaction, error)
	LoadPurchase(ctx context.Context, id snowflake.ID) (*Purchase, error)
	LoadPayment(ctx context.Context, id snowflake.ID) (*Payment, error)
	LoadTransfer(ctx context.Context, id snowflake.ID) (*Transfer, error)
	LoadLandedCost(ctx context.Context, id snowflake.ID) (*LandedCost, error)

	// MarkPosted claims the draft->posted transition. It reports false when
	// the row was not in draft, which serializes concurrent posts of the
	// same transaction without a global lock.
	MarkPosted(ctx context.Context, tx *gorm.DB, id snowflake.ID, at time.Time, by string) (bool, error)
	MarkFailed(ctx context.Context, id snowflake.ID, reason string) error

	// MarkAllocated claims the landed-cost draft->allocated transition.
	MarkAllocated(ctx context.Context, tx *gorm.DB, transactionID snowflake.ID, at time.Time) (bool, error)
	UpdateLineUnitCost(ctx context.Context, tx *gorm.DB, lineID snowflake.ID, unitCost decimal.Decimal) error

	// SettledAmount sums posted payments applied against a purchase.
	SettledAmount(ctx context.Context, tx *gorm.DB, purchaseID snowflake.ID) (int64, error)

	// PostedTotalsByDimension sums Total() of posted transactions dated
	// within [from, to), grouped by one dimension axis.
	PostedTotalsByDimension(ctx context.Context, from, to time.Time, dim ledger.DimensionType) ([]SubledgerTotal, error)
}
