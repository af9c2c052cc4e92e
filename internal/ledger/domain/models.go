package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// AccountType classifies a chart-of-accounts entry.
type AccountType string

const (
	AccountTypeAsset     AccountType = "asset"
	AccountTypeLiability AccountType = "liability"
	AccountTypeEquity    AccountType = "equity"
	AccountTypeRevenue   AccountType = "revenue"
	AccountTypeExpense   AccountType = "expense"
)

// SourceType identifies the business document an entry group was posted from.
type SourceType string

const (
	SourceTypePurchase   SourceType = "purchase"
	SourceTypePayment    SourceType = "payment"
	SourceTypeTransfer   SourceType = "transfer"
	SourceTypeLandedCost SourceType = "landed_cost"
	SourceTypeReversal   SourceType = "reversal"
)

// DimensionType is a named axis of cost attribution.
type DimensionType string

const (
	DimensionCostCenter DimensionType = "cost_center"
	DimensionProject    DimensionType = "project"
	DimensionDepartment DimensionType = "department"
)

// Column is the storage column backing the dimension on transactions and
// journal lines, or "" for an unknown axis.
func (d DimensionType) Column() string {
	switch d {
	case DimensionCostCenter:
		return "cost_center_id"
	case DimensionProject:
		return "project_id"
	case DimensionDepartment:
		return "department_id"
	}
	return ""
}

// AccountingCode is a chart-of-accounts entry. Name is what semantic-role
// resolution matches against; ReportingTag is an optional IFRS-style label.
type AccountingCode struct {
	ID           snowflake.ID `gorm:"primaryKey"`
	Code         string       `gorm:"type:text;not null;uniqueIndex"`
	Name         string       `gorm:"type:text;not null;index"`
	Type         AccountType  `gorm:"type:text;not null;index"`
	ReportingTag string       `gorm:"type:text"`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (AccountingCode) TableName() string { return "accounting_codes" }

// DimensionValue is a (dimension_type, value) pair journal lines can be
// tagged with.
type DimensionValue struct {
	ID        snowflake.ID  `gorm:"primaryKey"`
	Type      DimensionType `gorm:"column:dimension_type;type:text;not null;uniqueIndex:ux_dimension_values_type_value,priority:1"`
	Value     string        `gorm:"type:text;not null;uniqueIndex:ux_dimension_values_type_value,priority:2"`
	CreatedAt time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (DimensionValue) TableName() string { return "dimension_values" }

// EntryGroup is the atomic, balanced output of one posting operation. One
// group per (source_type, source_id); corrections are new reversing groups.
type EntryGroup struct {
	ID         snowflake.ID `gorm:"primaryKey"`
	SourceType SourceType   `gorm:"type:text;not null;uniqueIndex:ux_entry_groups_source,priority:1"`
	SourceID   snowflake.ID `gorm:"not null;uniqueIndex:ux_entry_groups_source,priority:2"`
	EntryDate  time.Time    `gorm:"not null;index"`
	Memo       string       `gorm:"type:text"`
	CreatedBy  string       `gorm:"type:text"`
	CreatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (EntryGroup) TableName() string { return "entry_groups" }

// JournalLine is one immutable double-entry posting line. Amounts are minor
// units (cents); exactly one of DebitAmount/CreditAmount is non-zero.
// Quantity and UnitCost carry audit detail on zero-quantity cost-adjustment
// lines.
type JournalLine struct {
	ID           snowflake.ID    `gorm:"primaryKey"`
	EntryGroupID snowflake.ID    `gorm:"not null;index"`
	AccountID    snowflake.ID    `gorm:"not null;index"`
	DebitAmount  int64           `gorm:"not null"`
	CreditAmount int64           `gorm:"not null"`
	EntryDate    time.Time       `gorm:"not null;index"`
	Quantity     decimal.Decimal `gorm:"type:numeric(20,6)"`
	UnitCost     decimal.Decimal `gorm:"type:numeric(20,6)"`
	Memo         string          `gorm:"type:text"`

	CostCenterID *snowflake.ID `gorm:"index"`
	ProjectID    *snowflake.ID
	DepartmentID *snowflake.ID

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (JournalLine) TableName() string { return "journal_lines" }

// ValidateBalanced enforces the double-entry invariant: every line carries
// exactly one positive side and total debits equal total credits to the cent.
func ValidateBalanced(lines []JournalLine) error {
	if len(lines) < 2 {
		return ErrEmptyEntryGroup
	}
	var debits, credits int64
	for _, line := range lines {
		if line.DebitAmount < 0 || line.CreditAmount < 0 {
			return ErrInvalidLineAmount
		}
		if (line.DebitAmount == 0) == (line.CreditAmount == 0) {
			return ErrInvalidLineAmount
		}
		debits += line.DebitAmount
		credits += line.CreditAmount
	}
	if debits != credits {
		return ErrUnbalancedEntry
	}
	return nil
}

// Cents converts a currency decimal into minor units, after rounding
// half-up to two places. This is the only decimal-to-ledger conversion.
func Cents(d decimal.Decimal) int64 {
	return d.Round(2).Shift(2).IntPart()
}

// FromCents converts minor units back to a currency decimal.
func FromCents(c int64) decimal.Decimal {
	return decimal.New(c, -2)
}
