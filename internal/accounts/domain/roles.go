package domain

import (
	"fmt"

	"github.com/spf13/viper"
)

// Semantic account roles the posting engine resolves.
const (
	RoleInventory          = "inventory"
	RoleExpenseDefault     = "expense_default"
	RoleVATReceivable      = "vat_receivable"
	RoleCash               = "cash"
	RoleBank               = "bank"
	RoleAccountsPayable    = "accounts_payable"
	RoleLandedCostClearing = "landed_cost_clearing"
)

// RoleMap declares, per semantic role, the ordered account names acceptable
// as fallbacks when no account carries the role name itself. It is data, not
// code, so deployments can reorder or extend it without a release.
type RoleMap map[string][]string

// Fallbacks returns the declared fallback names for a role, in order.
func (m RoleMap) Fallbacks(role string) []string {
	if m == nil {
		return nil
	}
	return m[role]
}

// DefaultRoleMap mirrors the chart of accounts the seeder installs.
func DefaultRoleMap() RoleMap {
	return RoleMap{
		RoleInventory:          {"Inventory", "Stock on Hand", "Merchandise Inventory"},
		RoleExpenseDefault:     {"Operating Expenses", "General Expenses", "Miscellaneous Expense"},
		RoleVATReceivable:      {"VAT Receivable", "Input VAT", "Tax Receivable"},
		RoleCash:               {"Cash", "Petty Cash", "Cash on Hand"},
		RoleBank:               {"Bank", "Bank Account", "Checking Account"},
		RoleAccountsPayable:    {"Accounts Payable", "Trade Payables", "Creditors"},
		RoleLandedCostClearing: {"Landed Cost Clearing", "Freight Clearing", "Cost Accrual"},
	}
}

// LoadRoleMap reads a YAML role map from path, layered over the defaults.
// An empty path returns the defaults unchanged.
func LoadRoleMap(path string) (RoleMap, error) {
	roles := DefaultRoleMap()
	if path == "" {
		return roles, nil
	}

	// Role names may contain dots (supplier_expense.<id>), so the default
	// "." key delimiter would split them into nested maps.
	v := viper.NewWithOptions(viper.KeyDelimiter("::"))
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read account roles file %s: %w", path, err)
	}

	var declared map[string][]string
	if err := v.Unmarshal(&declared); err != nil {
		return nil, fmt.Errorf("parse account roles file %s: %w", path, err)
	}
	for role, names := range declared {
		roles[role] = names
	}
	return roles, nil
}
