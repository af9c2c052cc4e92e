package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("product_not_found")

type Repository interface {
	Create(ctx context.Context, p *Product) error
	FindByID(ctx context.Context, id snowflake.ID) (*Product, error)

	// ReceiveStock increases quantity on hand and folds receivedCost (the
	// total value of the receipt) into the moving average.
	ReceiveStock(ctx context.Context, tx *gorm.DB, id snowflake.ID, quantity, receivedCost decimal.Decimal) error

	// AbsorbCost folds allocatedCost into the moving average without a
	// quantity change (landed-cost absorption). A zero quantity on hand
	// leaves the average untouched.
	AbsorbCost(ctx context.Context, tx *gorm.DB, id snowflake.ID, allocatedCost decimal.Decimal) error
}
