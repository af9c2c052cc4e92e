package seed

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	ledgerdomain "github.com/smallbiznis/kontera/internal/ledger/domain"
	"gorm.io/gorm"
)

type account struct {
	Code string
	Name string
	Type ledgerdomain.AccountType
	Tag  string
}

// defaultAccounts is the chart of accounts new installs start with. The
// names line up with the default role map so role resolution works out of
// the box.
var defaultAccounts = []account{
	{"1100", "Cash", ledgerdomain.AccountTypeAsset, "current_assets"},
	{"1110", "Bank", ledgerdomain.AccountTypeAsset, "current_assets"},
	{"1200", "Inventory", ledgerdomain.AccountTypeAsset, "current_assets"},
	{"1300", "VAT Receivable", ledgerdomain.AccountTypeAsset, "current_assets"},
	{"2100", "Accounts Payable", ledgerdomain.AccountTypeLiability, "current_liabilities"},
	{"2200", "Landed Cost Clearing", ledgerdomain.AccountTypeLiability, "current_liabilities"},
	{"3100", "Retained Earnings", ledgerdomain.AccountTypeEquity, "equity"},
	{"4100", "Sales Revenue", ledgerdomain.AccountTypeRevenue, "revenue"},
	{"5100", "Operating Expenses", ledgerdomain.AccountTypeExpense, "operating_expenses"},
	{"5200", "Cost of Goods Sold", ledgerdomain.AccountTypeExpense, "cost_of_sales"},
}

var defaultDimensions = []ledgerdomain.DimensionValue{
	{Type: ledgerdomain.DimensionCostCenter, Value: "HQ"},
	{Type: ledgerdomain.DimensionDepartment, Value: "General"},
}

// EnsureChartOfAccounts installs the default accounts and dimension values
// when they are missing. Safe to run on every startup.
func EnsureChartOfAccounts(db *gorm.DB, node *snowflake.Node) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, a := range defaultAccounts {
			var existing ledgerdomain.AccountingCode
			err := tx.WithContext(ctx).Where("code = ?", a.Code).First(&existing).Error
			if err == nil {
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			row := ledgerdomain.AccountingCode{
				ID:           node.Generate(),
				Code:         a.Code,
				Name:         a.Name,
				Type:         a.Type,
				ReportingTag: a.Tag,
			}
			if err := tx.WithContext(ctx).Create(&row).Error; err != nil {
				return err
			}
		}

		for _, d := range defaultDimensions {
			var existing ledgerdomain.DimensionValue
			err := tx.WithContext(ctx).
				Where("dimension_type = ? AND value = ?", d.Type, d.Value).
				First(&existing).Error
			if err == nil {
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			d.ID = node.Generate()
			if err := tx.WithContext(ctx).Create(&d).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
