package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Supplier is a procurement counterparty.
type Supplier struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	Name      string       `gorm:"type:text;not null"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Supplier) TableName() string { return "suppliers" }

// PurchaseOrder captures the procurement events scoring reads: delivery
// punctuality, approval state and an optional received-goods quality rating
// on a 0..100 scale.
type PurchaseOrder struct {
	ID                 snowflake.ID `gorm:"primaryKey"`
	SupplierID         snowflake.ID `gorm:"not null;index"`
	OrderedAt          time.Time    `gorm:"not null;index"`
	ExpectedDeliveryAt time.Time    `gorm:"not null"`
	ReceivedAt         *time.Time
	Approved           bool `gorm:"not null"`
	QualityRating      *float64
	CreatedAt          time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (PurchaseOrder) TableName() string { return "purchase_orders" }

// Solicitation is a quote invite issued to a supplier.
type Solicitation struct {
	ID         snowflake.ID `gorm:"primaryKey"`
	SupplierID snowflake.ID `gorm:"not null;index"`
	IssuedAt   time.Time    `gorm:"not null;index"`
	CreatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Solicitation) TableName() string { return "solicitations" }

// Quote is a supplier's answer to a solicitation. Complete means every
// requested field was filled in.
type Quote struct {
	ID             snowflake.ID `gorm:"primaryKey"`
	SolicitationID snowflake.ID `gorm:"not null;index"`
	SupplierID     snowflake.ID `gorm:"not null;index"`
	SubmittedAt    time.Time    `gorm:"not null"`
	Complete       bool         `gorm:"not null"`
	CreatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Quote) TableName() string { return "quotes" }

// PerformanceSnapshot is the immutable scored record for a supplier over a
// period. Scores are percentages (0..100). One snapshot per
// (supplier, period); later evaluations never overwrite an earlier one.
type PerformanceSnapshot struct {
	ID          snowflake.ID `gorm:"primaryKey"`
	SupplierID  snowflake.ID `gorm:"not null;uniqueIndex:ux_performance_snapshots_period,priority:1"`
	PeriodStart time.Time    `gorm:"not null;uniqueIndex:ux_performance_snapshots_period,priority:2"`
	PeriodEnd   time.Time    `gorm:"not null;uniqueIndex:ux_performance_snapshots_period,priority:3"`

	OnTime         float64 `gorm:"not null"`
	Quality        float64 `gorm:"not null"`
	Responsiveness float64 `gorm:"not null"`
	Compliance     float64 `gorm:"not null"`
	Overall        float64 `gorm:"not null"`

	AsOf      time.Time `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (PerformanceSnapshot) TableName() string { return "performance_snapshots" }
