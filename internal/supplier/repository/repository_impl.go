package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	supplierdomain "github.com/smallbiznis/kontera/internal/supplier/domain"
	"github.com/smallbiznis/kontera/pkg/db"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(gdb *gorm.DB) supplierdomain.Repository {
	return &repository{db: gdb}
}

func (r *repository) FindSupplier(ctx context.Context, id snowflake.ID) (*supplierdomain.Supplier, error) {
	var supplier supplierdomain.Supplier
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&supplier).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, supplierdomain.ErrSupplierNotFound
	}
	if err != nil {
		return nil, err
	}
	return &supplier, nil
}

func (r *repository) OrdersInPeriod(ctx context.Context, supplierID snowflake.ID, start, end time.Time) ([]supplierdomain.PurchaseOrder, error) {
	var orders []supplierdomain.PurchaseOrder
	err := r.db.WithContext(ctx).
		Where("supplier_id = ? AND ordered_at >= ? AND ordered_at < ?", supplierID, start.UTC(), end.UTC()).
		Order("ordered_at ASC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) SolicitationsInPeriod(ctx context.Context, supplierID snowflake.ID, start, end time.Time) ([]supplierdomain.Solicitation, error) {
	var invites []supplierdomain.Solicitation
	err := r.db.WithContext(ctx).
		Where("supplier_id = ? AND issued_at >= ? AND issued_at < ?", supplierID, start.UTC(), end.UTC()).
		Order("issued_at ASC").
		Find(&invites).Error
	if err != nil {
		return nil, err
	}
	return invites, nil
}

func (r *repository) QuotesBySolicitation(ctx context.Context, supplierID snowflake.ID, solicitationIDs []snowflake.ID) (map[snowflake.ID][]supplierdomain.Quote, error) {
	result := make(map[snowflake.ID][]supplierdomain.Quote, len(solicitationIDs))
	if len(solicitationIDs) == 0 {
		return result, nil
	}

	var quotes []supplierdomain.Quote
	err := r.db.WithContext(ctx).
		Where("supplier_id = ? AND solicitation_id IN ?", supplierID, solicitationIDs).
		Find(&quotes).Error
	if err != nil {
		return nil, err
	}
	for _, quote := range quotes {
		result[quote.SolicitationID] = append(result[quote.SolicitationID], quote)
	}
	return result, nil
}

func (r *repository) InsertSnapshot(ctx context.Context, snapshot *supplierdomain.PerformanceSnapshot) error {
	err := r.db.WithContext(ctx).Exec(
		`INSERT INTO performance_snapshots (
			id, supplier_id, period_start, period_end,
			on_time, quality, responsiveness, compliance, overall,
			as_of, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snapshot.ID,
		snapshot.SupplierID,
		snapshot.PeriodStart.UTC(),
		snapshot.PeriodEnd.UTC(),
		snapshot.OnTime,
		snapshot.Quality,
		snapshot.Responsiveness,
		snapshot.Compliance,
		snapshot.Overall,
		snapshot.AsOf.UTC(),
		time.Now().UTC(),
	).Error
	if db.IsDuplicateKeyErr(err) {
		return supplierdomain.ErrSnapshotExists
	}
	return err
}

func (r *repository) FindSnapshot(ctx context.Context, supplierID snowflake.ID, start, end time.Time) (*supplierdomain.PerformanceSnapshot, error) {
	var snapshot supplierdomain.PerformanceSnapshot
	err := r.db.WithContext(ctx).
		Where("supplier_id = ? AND period_start = ? AND period_end = ?", supplierID, start.UTC(), end.UTC()).
		First(&snapshot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}
