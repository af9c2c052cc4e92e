package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Product tracks stock for costing purposes. QuantityOnHand is the single
// canonical stock-quantity field; every code path reads and writes only it.
type Product struct {
	ID             snowflake.ID    `gorm:"primaryKey"`
	SKU            string          `gorm:"type:text;not null;uniqueIndex"`
	Name           string          `gorm:"type:text;not null"`
	QuantityOnHand decimal.Decimal `gorm:"type:numeric(20,6);not null"`
	AverageCost    decimal.Decimal `gorm:"type:numeric(20,6);not null"`
	CreatedAt      time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt      time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Product) TableName() string { return "products" }
