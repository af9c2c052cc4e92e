package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrSupplierNotFound = errors.New("supplier_not_found")
	// ErrSnapshotExists guards snapshot immutability: one evaluation per
	// supplier and period, never overwritten.
	ErrSnapshotExists = errors.New("performance_snapshot_exists")
)

// Fixed score weights. Documented here so the blend is auditable.
const (
	WeightOnTime         = 0.40
	WeightQuality        = 0.20
	WeightResponsiveness = 0.25
	WeightCompliance     = 0.15

	// QuoteResponseWindow is how long after a solicitation issue a quote
	// still counts as responsive.
	QuoteResponseWindow = 7 * 24 * time.Hour
)

// Evaluator derives scored analytics from procurement events. Read-only
// against the procurement data; its only write is the snapshot insert.
type Evaluator interface {
	Evaluate(ctx context.Context, supplierID snowflake.ID, periodStart, periodEnd time.Time) (*PerformanceSnapshot, error)
}

// Repository is the procurement-event store scoring reads from.
type Repository interface {
	FindSupplier(ctx context.Context, id snowflake.ID) (*Supplier, error)
	OrdersInPeriod(ctx context.Context, supplierID snowflake.ID, start, end time.Time) ([]PurchaseOrder, error)
	SolicitationsInPeriod(ctx context.Context, supplierID snowflake.ID, start, end time.Time) ([]Solicitation, error)
	QuotesBySolicitation(ctx context.Context, supplierID snowflake.ID, solicitationIDs []snowflake.ID) (map[snowflake.ID][]Quote, error)

	// InsertSnapshot persists a new snapshot; a second snapshot for the
	// same supplier and period returns ErrSnapshotExists.
	InsertSnapshot(ctx context.Context, snapshot *PerformanceSnapshot) error
	FindSnapshot(ctx context.Context, supplierID snowflake.ID, start, end time.Time) (*PerformanceSnapshot, error)
}
