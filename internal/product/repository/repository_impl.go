package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	productdomain "github.com/smallbiznis/kontera/internal/product/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) productdomain.Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, p *productdomain.Product) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO products (
			id, sku, name, quantity_on_hand, average_cost, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID,
		p.SKU,
		p.Name,
		p.QuantityOnHand,
		p.AverageCost,
		now,
		now,
	).Error
}

func (r *repository) FindByID(ctx context.Context, id snowflake.ID) (*productdomain.Product, error) {
	var p productdomain.Product
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, productdomain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) findForUpdate(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*productdomain.Product, error) {
	var p productdomain.Product
	err := tx.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, productdomain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) save(ctx context.Context, tx *gorm.DB, p *productdomain.Product) error {
	return tx.WithContext(ctx).Exec(
		`UPDATE products SET quantity_on_hand = ?, average_cost = ?, updated_at = ? WHERE id = ?`,
		p.QuantityOnHand,
		p.AverageCost,
		time.Now().UTC(),
		p.ID,
	).Error
}

func (r *repository) ReceiveStock(ctx context.Context, tx *gorm.DB, id snowflake.ID, quantity, receivedCost decimal.Decimal) error {
	if quantity.Sign() <= 0 {
		return nil
	}
	p, err := r.findForUpdate(ctx, tx, id)
	if err != nil {
		return err
	}

	newQty := p.QuantityOnHand.Add(quantity)
	// newAvg = (oldQty*oldAvg + receivedCost) / newQty
	p.AverageCost = p.QuantityOnHand.Mul(p.AverageCost).Add(receivedCost).Div(newQty)
	p.QuantityOnHand = newQty
	if err := r.save(ctx, tx, p); err != nil {
		return fmt.Errorf("receive stock: %w", err)
	}
	return nil
}

func (r *repository) AbsorbCost(ctx context.Context, tx *gorm.DB, id snowflake.ID, allocatedCost decimal.Decimal) error {
	p, err := r.findForUpdate(ctx, tx, id)
	if err != nil {
		return err
	}
	if p.QuantityOnHand.Sign() == 0 {
		return nil
	}

	// newAvg = (qty*oldAvg + allocatedCost) / qty
	p.AverageCost = p.QuantityOnHand.Mul(p.AverageCost).Add(allocatedCost).Div(p.QuantityOnHand)
	if err := r.save(ctx, tx, p); err != nil {
		return fmt.Errorf("absorb cost: %w", err)
	}
	return nil
}
