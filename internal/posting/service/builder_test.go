package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	accountsdomain "github.com/smallbiznis/kontera/internal/accounts/domain"
	ledgerdomain "github.com/smallbiznis/kontera/internal/ledger/domain"
	postingdomain "github.com/smallbiznis/kontera/internal/posting/domain"
	txdomain "github.com/smallbiznis/kontera/internal/transaction/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubResolver hands out a fixed account per role without touching a store.
type stubResolver struct {
	accounts map[string]*ledgerdomain.AccountingCode
}

func newStubResolver() *stubResolver {
	roles := []string{
		accountsdomain.RoleInventory,
		accountsdomain.RoleExpenseDefault,
		accountsdomain.RoleVATReceivable,
		accountsdomain.RoleCash,
		accountsdomain.RoleBank,
		accountsdomain.RoleAccountsPayable,
		accountsdomain.RoleLandedCostClearing,
	}
	accounts := make(map[string]*ledgerdomain.AccountingCode, len(roles))
	for i, role := range roles {
		accounts[role] = &ledgerdomain.AccountingCode{
			ID:   snowflake.ID(1000 + i),
			Code: fmt.Sprintf("acct-%s", role),
			Name: role,
		}
	}
	return &stubResolver{accounts: accounts}
}

func (s *stubResolver) Resolve(ctx context.Context, role string, accountType ledgerdomain.AccountType) (*ledgerdomain.AccountingCode, error) {
	account, ok := s.accounts[role]
	if !ok {
		return nil, accountsdomain.ErrNoAccountForRole
	}
	return account, nil
}

func (s *stubResolver) id(role string) snowflake.ID {
	return s.accounts[role].ID
}

func newPurchase(t *testing.T, method txdomain.PaymentMethod, vatRate decimal.Decimal, lines []txdomain.PurchaseLine) *txdomain.Purchase {
	t.Helper()
	node, err := snowflake.NewNode(2)
	require.NoError(t, err)
	p, err := txdomain.NewPurchase(node, node.Generate(), time.Now(), method, vatRate, txdomain.Dimensions{}, lines)
	require.NoError(t, err)
	return p
}

func sideTotals(lines []ledgerdomain.JournalLine) (debits, credits int64) {
	for _, line := range lines {
		debits += line.DebitAmount
		credits += line.CreditAmount
	}
	return debits, credits
}

func amountFor(lines []ledgerdomain.JournalLine, accountID snowflake.ID) (debit, credit int64) {
	for _, line := range lines {
		if line.AccountID == accountID {
			debit += line.DebitAmount
			credit += line.CreditAmount
		}
	}
	return debit, credit
}

func TestBuildPurchaseEntriesMixedLines(t *testing.T) {
	resolver := newStubResolver()
	builder := NewJournalBuilder(resolver, accountsdomain.DefaultRoleMap())

	// 850.00 inventory + 150.00 freight expense on credit, no VAT.
	purchase := newPurchase(t, txdomain.PaymentMethodCredit, decimal.Zero, []txdomain.PurchaseLine{
		{ProductID: 1, Quantity: decimal.NewFromInt(10), UnitCost: decimal.RequireFromString("85.00"), IsInventory: true},
		{ProductID: 2, Quantity: decimal.NewFromInt(1), UnitCost: decimal.RequireFromString("150.00"), IsInventory: false},
	})

	lines, err := builder.BuildPurchaseEntries(context.Background(), purchase)
	require.NoError(t, err)
	require.Len(t, lines, 3)

	invDebit, _ := amountFor(lines, resolver.id(accountsdomain.RoleInventory))
	expDebit, _ := amountFor(lines, resolver.id(accountsdomain.RoleExpenseDefault))
	_, apCredit := amountFor(lines, resolver.id(accountsdomain.RoleAccountsPayable))
	assert.Equal(t, int64(85000), invDebit)
	assert.Equal(t, int64(15000), expDebit)
	assert.Equal(t, int64(100000), apCredit)

	debits, credits := sideTotals(lines)
	assert.Equal(t, debits, credits)
}

func TestBuildPurchaseEntriesWithVAT(t *testing.T) {
	resolver := newStubResolver()
	builder := NewJournalBuilder(resolver, accountsdomain.DefaultRoleMap())

	// Two 200.00 taxable lines at 10% VAT, settled in cash.
	purchase := newPurchase(t, txdomain.PaymentMethodCash, decimal.NewFromInt(10), []txdomain.PurchaseLine{
		{ProductID: 1, Quantity: decimal.NewFromInt(4), UnitCost: decimal.RequireFromString("50.00"), IsInventory: true, Taxable: true},
		{ProductID: 2, Quantity: decimal.NewFromInt(2), UnitCost: decimal.RequireFromString("100.00"), IsInventory: true, Taxable: true},
	})

	lines, err := builder.BuildPurchaseEntries(context.Background(), purchase)
	require.NoError(t, err)
	require.Len(t, lines, 3)

	invDebit, _ := amountFor(lines, resolver.id(accountsdomain.RoleInventory))
	vatDebit, _ := amountFor(lines, resolver.id(accountsdomain.RoleVATReceivable))
	_, cashCredit := amountFor(lines, resolver.id(accountsdomain.RoleCash))
	assert.Equal(t, int64(40000), invDebit)
	assert.Equal(t, int64(4000), vatDebit)
	assert.Equal(t, int64(44000), cashCredit)
}

func TestBuildPurchaseEntriesNonTaxableLineSkipsVAT(t *testing.T) {
	resolver := newStubResolver()
	builder := NewJournalBuilder(resolver, accountsdomain.DefaultRoleMap())

	purchase := newPurchase(t, txdomain.PaymentMethodCredit, decimal.NewFromInt(10), []txdomain.PurchaseLine{
		{ProductID: 1, Quantity: decimal.NewFromInt(1), UnitCost: decimal.RequireFromString("100.00"), IsInventory: true, Taxable: true},
		{ProductID: 2, Quantity: decimal.NewFromInt(1), UnitCost: decimal.RequireFromString("100.00"), IsInventory: true, Taxable: false},
	})

	lines, err := builder.BuildPurchaseEntries(context.Background(), purchase)
	require.NoError(t, err)

	vatDebit, _ := amountFor(lines, resolver.id(accountsdomain.RoleVATReceivable))
	_, apCredit := amountFor(lines, resolver.id(accountsdomain.RoleAccountsPayable))
	assert.Equal(t, int64(1000), vatDebit)
	assert.Equal(t, int64(21000), apCredit)
}

func TestBuildPaymentEntries(t *testing.T) {
	resolver := newStubResolver()
	builder := NewJournalBuilder(resolver, accountsdomain.DefaultRoleMap())
	node, err := snowflake.NewNode(2)
	require.NoError(t, err)

	payment, err := txdomain.NewPayment(node, node.Generate(), 30000, txdomain.PaymentMethodBank, time.Now(), txdomain.Dimensions{})
	require.NoError(t, err)

	lines, err := builder.BuildPaymentEntries(context.Background(), payment, 69000)
	require.NoError(t, err)
	require.Len(t, lines, 2)

	apDebit, _ := amountFor(lines, resolver.id(accountsdomain.RoleAccountsPayable))
	_, bankCredit := amountFor(lines, resolver.id(accountsdomain.RoleBank))
	assert.Equal(t, int64(30000), apDebit)
	assert.Equal(t, int64(30000), bankCredit)
}

func TestBuildPaymentEntriesOverpayment(t *testing.T) {
	resolver := newStubResolver()
	builder := NewJournalBuilder(resolver, accountsdomain.DefaultRoleMap())
	node, err := snowflake.NewNode(2)
	require.NoError(t, err)

	payment, err := txdomain.NewPayment(node, node.Generate(), 70000, txdomain.PaymentMethodBank, time.Now(), txdomain.Dimensions{})
	require.NoError(t, err)

	_, err = builder.BuildPaymentEntries(context.Background(), payment, 69000)
	assert.ErrorIs(t, err, postingdomain.ErrOverpayment)
}

func TestBuildTransferEntriesSymmetric(t *testing.T) {
	resolver := newStubResolver()
	builder := NewJournalBuilder(resolver, accountsdomain.DefaultRoleMap())
	node, err := snowflake.NewNode(2)
	require.NoError(t, err)

	source := node.Generate()
	dest := node.Generate()
	transfer, err := txdomain.NewTransfer(node, node.Generate(), decimal.NewFromInt(5), 25000, source, dest, time.Now())
	require.NoError(t, err)

	lines, err := builder.BuildTransferEntries(context.Background(), transfer)
	require.NoError(t, err)
	require.Len(t, lines, 2)

	inventoryID := resolver.id(accountsdomain.RoleInventory)
	for _, line := range lines {
		assert.Equal(t, inventoryID, line.AccountID)
		require.NotNil(t, line.CostCenterID)
	}
	assert.Equal(t, dest, *lines[0].CostCenterID)
	assert.Equal(t, int64(25000), lines[0].DebitAmount)
	assert.Equal(t, source, *lines[1].CostCenterID)
	assert.Equal(t, int64(25000), lines[1].CreditAmount)
}
