package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/kontera/internal/ledger/domain"
	"github.com/smallbiznis/kontera/internal/tax"
)

// Kind tags the closed set of postable transaction variants.
type Kind string

const (
	KindPurchase   Kind = "purchase"
	KindPayment    Kind = "payment"
	KindTransfer   Kind = "transfer"
	KindLandedCost Kind = "landed_cost"
)

type PostingStatus string

const (
	StatusDraft  PostingStatus = "draft"
	StatusPosted PostingStatus = "posted"
	StatusFailed PostingStatus = "failed"
)

type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "cash"
	PaymentMethodBank   PaymentMethod = "bank"
	PaymentMethodCredit PaymentMethod = "credit"
)

// Transaction is the shared header of every business transaction. Amounts
// are minor units; Amount excludes tax. Only the posting service mutates a
// header once created, and only its status/audit fields after posting.
type Transaction struct {
	ID            snowflake.ID    `gorm:"primaryKey"`
	Kind          Kind            `gorm:"type:text;not null;index"`
	PostingStatus PostingStatus   `gorm:"type:text;not null;index"`
	Amount        int64           `gorm:"not null"`
	TaxAmount     int64           `gorm:"not null"`
	VatRate       decimal.Decimal `gorm:"type:numeric(6,3)"`
	Currency      string          `gorm:"type:text;not null"`
	OccurredAt    time.Time       `gorm:"not null;index"`
	PaymentMethod PaymentMethod   `gorm:"type:text"`

	SupplierID *snowflake.ID `gorm:"index"`
	// RelatedID points a payment or landed-cost doc at its purchase.
	RelatedID *snowflake.ID `gorm:"index"`

	CostCenterID *snowflake.ID `gorm:"index"`
	ProjectID    *snowflake.ID
	DepartmentID *snowflake.ID

	FailureReason  string     `gorm:"type:text"`
	LastPostedDate *time.Time `gorm:"column:last_posted_date"`
	PostedBy       string     `gorm:"type:text"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Transaction) TableName() string { return "transactions" }

// PurchaseLine is one received purchase line. LineTotal is the rounded
// quantity*unit-cost in minor units; IsInventory partitions inventory from
// expense postings.
type PurchaseLine struct {
	ID            snowflake.ID    `gorm:"primaryKey"`
	TransactionID snowflake.ID    `gorm:"not null;index"`
	ProductID     snowflake.ID    `gorm:"not null;index"`
	Description   string          `gorm:"type:text"`
	Quantity      decimal.Decimal `gorm:"type:numeric(20,6);not null"`
	UnitCost      decimal.Decimal `gorm:"type:numeric(20,6);not null"`
	LineTotal     int64           `gorm:"not null"`
	IsInventory   bool            `gorm:"not null"`
	Taxable       bool            `gorm:"not null"`
	CreatedAt     time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (PurchaseLine) TableName() string { return "purchase_lines" }

// TransferDetail carries the stock-movement specifics of a transfer.
type TransferDetail struct {
	TransactionID      snowflake.ID    `gorm:"primaryKey"`
	ProductID          snowflake.ID    `gorm:"not null;index"`
	Quantity           decimal.Decimal `gorm:"type:numeric(20,6);not null"`
	SourceCostCenterID snowflake.ID    `gorm:"not null"`
	DestCostCenterID   snowflake.ID    `gorm:"not null"`
}

func (TransferDetail) TableName() string { return "transfer_details" }

type LandedCostStatus string

const (
	LandedCostDraft     LandedCostStatus = "draft"
	LandedCostAllocated LandedCostStatus = "allocated"
)

// LandedCostDoc attaches ancillary acquisition cost to a purchase. Its
// header row carries the total amount; allocation flips Status exactly once.
type LandedCostDoc struct {
	TransactionID snowflake.ID     `gorm:"primaryKey"`
	PurchaseID    snowflake.ID     `gorm:"not null;index"`
	Status        LandedCostStatus `gorm:"type:text;not null"`
	AllocatedAt   *time.Time
}

func (LandedCostDoc) TableName() string { return "landed_cost_docs" }

// Dimensions bundles the optional cost-attribution tags of a transaction.
type Dimensions struct {
	CostCenterID *snowflake.ID
	ProjectID    *snowflake.ID
	DepartmentID *snowflake.ID
}

// Purchase is the typed purchase variant: header plus received lines.
type Purchase struct {
	Transaction
	Lines []PurchaseLine
}

// Payment settles part of a purchase's payable balance.
type Payment struct {
	Transaction
	AppliesTo snowflake.ID
}

// Transfer moves inventory value between two branches (cost centers).
type Transfer struct {
	Transaction
	Detail TransferDetail
}

// LandedCost is the typed landed-cost variant: header plus doc row.
type LandedCost struct {
	Transaction
	Doc LandedCostDoc
}

// NewPurchase validates and builds a draft purchase. Line totals, the ex-tax
// amount and the per-line VAT are computed here so malformed payloads never
// reach the journal builder.
func NewPurchase(genID *snowflake.Node, supplierID snowflake.ID, occurredAt time.Time, method PaymentMethod, vatRate decimal.Decimal, dims Dimensions, lines []PurchaseLine) (*Purchase, error) {
	if len(lines) == 0 {
		return nil, ErrNoLines
	}
	if method == "" {
		method = PaymentMethodCredit
	}

	id := genID.Generate()
	var amount, taxTotal int64
	for i := range lines {
		line := &lines[i]
		if line.Quantity.Sign() < 0 || line.UnitCost.Sign() < 0 {
			return nil, ErrInvalidQuantity
		}
		line.ID = genID.Generate()
		line.TransactionID = id
		lineAmount := tax.Round2(line.Quantity.Mul(line.UnitCost))
		line.LineTotal = domain.Cents(lineAmount)
		amount += line.LineTotal
		taxTotal += domain.Cents(tax.Compute(lineAmount, vatRate, line.Taxable))
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	supplier := supplierID
	return &Purchase{
		Transaction: Transaction{
			ID:            id,
			Kind:          KindPurchase,
			PostingStatus: StatusDraft,
			Amount:        amount,
			TaxAmount:     taxTotal,
			VatRate:       vatRate,
			Currency:      "USD",
			OccurredAt:    occurredAt.UTC(),
			PaymentMethod: method,
			SupplierID:    &supplier,
			CostCenterID:  dims.CostCenterID,
			ProjectID:     dims.ProjectID,
			DepartmentID:  dims.DepartmentID,
		},
		Lines: lines,
	}, nil
}

// NewPayment validates and builds a draft payment against a purchase.
func NewPayment(genID *snowflake.Node, appliesTo snowflake.ID, amount int64, method PaymentMethod, occurredAt time.Time, dims Dimensions) (*Payment, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if appliesTo == 0 {
		return nil, ErrMissingRelated
	}
	if method == "" {
		method = PaymentMethodBank
	}

	related := appliesTo
	return &Payment{
		Transaction: Transaction{
			ID:            genID.Generate(),
			Kind:          KindPayment,
			PostingStatus: StatusDraft,
			Amount:        amount,
			Currency:      "USD",
			OccurredAt:    occurredAt.UTC(),
			PaymentMethod: method,
			RelatedID:     &related,
			CostCenterID:  dims.CostCenterID,
			ProjectID:     dims.ProjectID,
			DepartmentID:  dims.DepartmentID,
		},
		AppliesTo: appliesTo,
	}, nil
}

// NewTransfer validates and builds a draft branch transfer. The header cost
// center is the destination branch, which is also the dimension the debit
// side reconciles under.
func NewTransfer(genID *snowflake.Node, productID snowflake.ID, quantity decimal.Decimal, value int64, sourceCC, destCC snowflake.ID, occurredAt time.Time) (*Transfer, error) {
	if value <= 0 {
		return nil, ErrInvalidAmount
	}
	if quantity.Sign() <= 0 {
		return nil, ErrInvalidQuantity
	}
	if sourceCC == 0 || destCC == 0 || sourceCC == destCC {
		return nil, ErrInvalidBranches
	}

	id := genID.Generate()
	dest := destCC
	return &Transfer{
		Transaction: Transaction{
			ID:            id,
			Kind:          KindTransfer,
			PostingStatus: StatusDraft,
			Amount:        value,
			Currency:      "USD",
			OccurredAt:    occurredAt.UTC(),
			CostCenterID:  &dest,
		},
		Detail: TransferDetail{
			TransactionID:      id,
			ProductID:          productID,
			Quantity:           quantity,
			SourceCostCenterID: sourceCC,
			DestCostCenterID:   destCC,
		},
	}, nil
}

// NewLandedCost validates and builds a draft landed-cost doc for a purchase.
func NewLandedCost(genID *snowflake.Node, purchaseID snowflake.ID, total int64, occurredAt time.Time, dims Dimensions) (*LandedCost, error) {
	if total <= 0 {
		return nil, ErrInvalidAmount
	}
	if purchaseID == 0 {
		return nil, ErrMissingRelated
	}

	id := genID.Generate()
	related := purchaseID
	return &LandedCost{
		Transaction: Transaction{
			ID:            id,
			Kind:          KindLandedCost,
			PostingStatus: StatusDraft,
			Amount:        total,
			Currency:      "USD",
			OccurredAt:    occurredAt.UTC(),
			RelatedID:     &related,
			CostCenterID:  dims.CostCenterID,
			ProjectID:     dims.ProjectID,
			DepartmentID:  dims.DepartmentID,
		},
		Doc: LandedCostDoc{
			TransactionID: id,
			PurchaseID:    purchaseID,
			Status:        LandedCostDraft,
		},
	}, nil
}

// Total is the full economic value of the transaction including tax.
func (t Transaction) Total() int64 { return t.Amount + t.TaxAmount }
