package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	ledgerdomain "github.com/smallbiznis/kontera/internal/ledger/domain"
	txdomain "github.com/smallbiznis/kontera/internal/transaction/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type repository struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewRepository(db *gorm.DB, log *zap.Logger) txdomain.Repository {
	return &repository{db: db, log: log.Named("transaction.repository")}
}

func (r *repository) createHeader(ctx context.Context, tx *gorm.DB, t *txdomain.Transaction) error {
	now := time.Now().UTC()
	return tx.WithContext(ctx).Exec(
		`INSERT INTO transactions (
			id, kind, posting_status, amount, tax_amount, vat_rate, currency,
			occurred_at, payment_method, supplier_id, related_id,
			cost_center_id, project_id, department_id,
			failure_reason, posted_by, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID,
		string(t.Kind),
		string(t.PostingStatus),
		t.Amount,
		t.TaxAmount,
		t.VatRate,
		t.Currency,
		t.OccurredAt.UTC(),
		string(t.PaymentMethod),
		t.SupplierID,
		t.RelatedID,
		t.CostCenterID,
		t.ProjectID,
		t.DepartmentID,
		"",
		"",
		now,
		now,
	).Error
}

func (r *repository) CreatePurchase(ctx context.Context, p *txdomain.Purchase) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := r.createHeader(ctx, tx, &p.Transaction); err != nil {
			return fmt.Errorf("create purchase header: %w", err)
		}
		for _, line := range p.Lines {
			if err := tx.WithContext(ctx).Exec(
				`INSERT INTO purchase_lines (
					id, transaction_id, product_id, description, quantity,
					unit_cost, line_total, is_inventory, taxable, created_at
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				line.ID,
				line.TransactionID,
				line.ProductID,
				line.Description,
				line.Quantity,
				line.UnitCost,
				line.LineTotal,
				line.IsInventory,
				line.Taxable,
				time.Now().UTC(),
			).Error; err != nil {
				return fmt.Errorf("create purchase line: %w", err)
			}
		}
		return nil
	})
}

func (r *repository) CreatePayment(ctx context.Context, p *txdomain.Payment) error {
	return r.createHeader(ctx, r.db, &p.Transaction)
}

func (r *repository) CreateTransfer(ctx context.Context, t *txdomain.Transfer) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := r.createHeader(ctx, tx, &t.Transaction); err != nil {
			return fmt.Errorf("create transfer header: %w", err)
		}
		return tx.WithContext(ctx).Exec(
			`INSERT INTO transfer_details (
				transaction_id, product_id, quantity, source_cost_center_id, dest_cost_center_id
			) VALUES (?, ?, ?, ?, ?)`,
			t.Detail.TransactionID,
			t.Detail.ProductID,
			t.Detail.Quantity,
			t.Detail.SourceCostCenterID,
			t.Detail.DestCostCenterID,
		).Error
	})
}

func (r *repository) CreateLandedCost(ctx context.Context, lc *txdomain.LandedCost) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := r.createHeader(ctx, tx, &lc.Transaction); err != nil {
			return fmt.Errorf("create landed cost header: %w", err)
		}
		return tx.WithContext(ctx).Exec(
			`INSERT INTO landed_cost_docs (
				transaction_id, purchase_id, status
			) VALUES (?, ?, ?)`,
			lc.Doc.TransactionID,
			lc.Doc.PurchaseID,
			string(lc.Doc.Status),
		).Error
	})
}

func (r *repository) FindHeader(ctx context.Context, id snowflake.ID) (*txdomain.Transaction, error) {
	var t txdomain.Transaction
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, txdomain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *repository) LoadPurchase(ctx context.Context, id snowflake.ID) (*txdomain.Purchase, error) {
	header, err := r.FindHeader(ctx, id)
	if err != nil {
		return nil, err
	}
	if header.Kind != txdomain.KindPurchase {
		return nil, txdomain.ErrKindMismatch
	}

	var lines []txdomain.PurchaseLine
	if err := r.db.WithContext(ctx).
		Where("transaction_id = ?", id).
		Order("id ASC").
		Find(&lines).Error; err != nil {
		return nil, err
	}
	return &txdomain.Purchase{Transaction: *header, Lines: lines}, nil
}

func (r *repository) LoadPayment(ctx context.Context, id snowflake.ID) (*txdomain.Payment, error) {
	header, err := r.FindHeader(ctx, id)
	if err != nil {
		return nil, err
	}
	if header.Kind != txdomain.KindPayment {
		return nil, txdomain.ErrKindMismatch
	}
	if header.RelatedID == nil {
		return nil, txdomain.ErrMissingRelated
	}
	return &txdomain.Payment{Transaction: *header, AppliesTo: *header.RelatedID}, nil
}

func (r *repository) LoadTransfer(ctx context.Context, id snowflake.ID) (*txdomain.Transfer, error) {
	header, err := r.FindHeader(ctx, id)
	if err != nil {
		return nil, err
	}
	if header.Kind != txdomain.KindTransfer {
		return nil, txdomain.ErrKindMismatch
	}

	var detail txdomain.TransferDetail
	if err := r.db.WithContext(ctx).Where("transaction_id = ?", id).First(&detail).Error; err != nil {
		return nil, err
	}
	return &txdomain.Transfer{Transaction: *header, Detail: detail}, nil
}

func (r *repository) LoadLandedCost(ctx context.Context, id snowflake.ID) (*txdomain.LandedCost, error) {
	header, err := r.FindHeader(ctx, id)
	if err != nil {
		return nil, err
	}
	if header.Kind != txdomain.KindLandedCost {
		return nil, txdomain.ErrKindMismatch
	}

	var doc txdomain.LandedCostDoc
	if err := r.db.WithContext(ctx).Where("transaction_id = ?", id).First(&doc).Error; err != nil {
		return nil, err
	}
	return &txdomain.LandedCost{Transaction: *header, Doc: doc}, nil
}

func (r *repository) MarkPosted(ctx context.Context, tx *gorm.DB, id snowflake.ID, at time.Time, by string) (bool, error) {
	result := tx.WithContext(ctx).Exec(
		`UPDATE transactions
		 SET posting_status = ?, last_posted_date = ?, posted_by = ?, updated_at = ?
		 WHERE id = ? AND posting_status = ?`,
		string(txdomain.StatusPosted),
		at.UTC(),
		by,
		time.Now().UTC(),
		id,
		string(txdomain.StatusDraft),
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) MarkFailed(ctx context.Context, id snowflake.ID, reason string) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE transactions
		 SET posting_status = ?, failure_reason = ?, updated_at = ?
		 WHERE id = ? AND posting_status = ?`,
		string(txdomain.StatusFailed),
		reason,
		time.Now().UTC(),
		id,
		string(txdomain.StatusDraft),
	).Error
}

func (r *repository) MarkAllocated(ctx context.Context, tx *gorm.DB, transactionID snowflake.ID, at time.Time) (bool, error) {
	result := tx.WithContext(ctx).Exec(
		`UPDATE landed_cost_docs
		 SET status = ?, allocated_at = ?
		 WHERE transaction_id = ? AND status = ?`,
		string(txdomain.LandedCostAllocated),
		at.UTC(),
		transactionID,
		string(txdomain.LandedCostDraft),
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) UpdateLineUnitCost(ctx context.Context, tx *gorm.DB, lineID snowflake.ID, unitCost decimal.Decimal) error {
	return tx.WithContext(ctx).Exec(
		`UPDATE purchase_lines SET unit_cost = ? WHERE id = ?`,
		unitCost,
		lineID,
	).Error
}

func (r *repository) SettledAmount(ctx context.Context, tx *gorm.DB, purchaseID snowflake.ID) (int64, error) {
	var settled int64
	err := tx.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(amount), 0)
		 FROM transactions
		 WHERE kind = ? AND related_id = ? AND posting_status = ?`,
		string(txdomain.KindPayment),
		purchaseID,
		string(txdomain.StatusPosted),
	).Scan(&settled).Error
	if err != nil {
		return 0, err
	}
	return settled, nil
}

func (r *repository) PostedTotalsByDimension(ctx context.Context, from, to time.Time, dim ledgerdomain.DimensionType) ([]txdomain.SubledgerTotal, error) {
	column := dim.Column()
	if column == "" {
		return nil, fmt.Errorf("unknown dimension %q", dim)
	}
	var totals []txdomain.SubledgerTotal
	err := r.db.WithContext(ctx).Raw(fmt.Sprintf(
		`SELECT %[1]s AS dimension_id, SUM(amount + tax_amount) AS total
		 FROM transactions
		 WHERE posting_status = ? AND occurred_at >= ? AND occurred_at < ?
		 GROUP BY %[1]s`, column),
		string(txdomain.StatusPosted),
		from.UTC(),
		to.UTC(),
	).Scan(&totals).Error
	if err != nil {
		return nil, err
	}
	return totals, nil
}
