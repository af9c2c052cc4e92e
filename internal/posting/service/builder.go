package service

import (
	"context"
	"fmt"

	accountsdomain "github.com/smallbiznis/kontera/internal/accounts/domain"
	ledgerdomain "github.com/smallbiznis/kontera/internal/ledger/domain"
	postingdomain "github.com/smallbiznis/kontera/internal/posting/domain"
	"github.com/smallbiznis/kontera/internal/tax"
	txdomain "github.com/smallbiznis/kontera/internal/transaction/domain"
)

// JournalBuilder builds the balanced line set for each transaction kind. It
// resolves accounts through the semantic-role resolver and re-derives tax
// from the lines rather than trusting the stored header.
type JournalBuilder struct {
	resolver accountsdomain.Resolver
	roles    accountsdomain.RoleMap
}

func NewJournalBuilder(resolver accountsdomain.Resolver, roles accountsdomain.RoleMap) *JournalBuilder {
	return &JournalBuilder{resolver: resolver, roles: roles}
}

// BuildPurchaseEntries partitions purchase lines into inventory and expense,
// debits recomputed VAT when positive, and credits cash or accounts payable
// for the tax-inclusive total.
func (b *JournalBuilder) BuildPurchaseEntries(ctx context.Context, p *txdomain.Purchase) ([]ledgerdomain.JournalLine, error) {
	var invTotal, expTotal, taxTotal int64
	for _, line := range p.Lines {
		if line.IsInventory {
			invTotal += line.LineTotal
		} else {
			expTotal += line.LineTotal
		}
		lineTax := tax.Compute(ledgerdomain.FromCents(line.LineTotal), p.VatRate, line.Taxable)
		taxTotal += ledgerdomain.Cents(lineTax)
	}

	lines := make([]ledgerdomain.JournalLine, 0, 4)

	if invTotal > 0 {
		inventory, err := b.resolver.Resolve(ctx, accountsdomain.RoleInventory, ledgerdomain.AccountTypeAsset)
		if err != nil {
			return nil, err
		}
		lines = append(lines, ledgerdomain.JournalLine{
			AccountID:   inventory.ID,
			DebitAmount: invTotal,
			Memo:        "purchase inventory",
		})
	}

	if expTotal > 0 {
		expense, err := b.resolver.Resolve(ctx, b.expenseRole(p), ledgerdomain.AccountTypeExpense)
		if err != nil {
			return nil, err
		}
		lines = append(lines, ledgerdomain.JournalLine{
			AccountID:   expense.ID,
			DebitAmount: expTotal,
			Memo:        "purchase expense",
		})
	}

	if taxTotal > 0 {
		vat, err := b.resolver.Resolve(ctx, accountsdomain.RoleVATReceivable, ledgerdomain.AccountTypeAsset)
		if err != nil {
			return nil, err
		}
		lines = append(lines, ledgerdomain.JournalLine{
			AccountID:   vat.ID,
			DebitAmount: taxTotal,
			Memo:        "VAT receivable",
		})
	}

	creditRole, creditType := accountsdomain.RoleAccountsPayable, ledgerdomain.AccountTypeLiability
	if p.PaymentMethod == txdomain.PaymentMethodCash {
		creditRole, creditType = accountsdomain.RoleCash, ledgerdomain.AccountTypeAsset
	}
	credit, err := b.resolver.Resolve(ctx, creditRole, creditType)
	if err != nil {
		return nil, err
	}
	lines = append(lines, ledgerdomain.JournalLine{
		AccountID:    credit.ID,
		CreditAmount: invTotal + expTotal + taxTotal,
		Memo:         "purchase settlement",
	})

	if err := ledgerdomain.ValidateBalanced(lines); err != nil {
		return nil, fmt.Errorf("purchase %s: %w", p.ID, err)
	}
	return lines, nil
}

// expenseRole prefers a supplier-specific expense role when one is declared
// in the role map, otherwise the default expense role.
func (b *JournalBuilder) expenseRole(p *txdomain.Purchase) string {
	if p.SupplierID != nil {
		supplierRole := "supplier_expense." + p.SupplierID.String()
		if len(b.roles.Fallbacks(supplierRole)) > 0 {
			return supplierRole
		}
	}
	return accountsdomain.RoleExpenseDefault
}

// BuildPaymentEntries debits the payable account and credits cash or bank.
// Precondition: the payment does not exceed the outstanding balance.
func (b *JournalBuilder) BuildPaymentEntries(ctx context.Context, p *txdomain.Payment, outstanding int64) ([]ledgerdomain.JournalLine, error) {
	if p.Amount > outstanding {
		return nil, fmt.Errorf("payment %d exceeds outstanding %d: %w", p.Amount, outstanding, postingdomain.ErrOverpayment)
	}

	payable, err := b.resolver.Resolve(ctx, accountsdomain.RoleAccountsPayable, ledgerdomain.AccountTypeLiability)
	if err != nil {
		return nil, err
	}

	creditRole := accountsdomain.RoleBank
	if p.PaymentMethod == txdomain.PaymentMethodCash {
		creditRole = accountsdomain.RoleCash
	}
	cash, err := b.resolver.Resolve(ctx, creditRole, ledgerdomain.AccountTypeAsset)
	if err != nil {
		return nil, err
	}

	lines := []ledgerdomain.JournalLine{
		{AccountID: payable.ID, DebitAmount: p.Amount, Memo: "payable settlement"},
		{AccountID: cash.ID, CreditAmount: p.Amount, Memo: "payment out"},
	}
	if err := ledgerdomain.ValidateBalanced(lines); err != nil {
		return nil, fmt.Errorf("payment %s: %w", p.ID, err)
	}
	return lines, nil
}

// BuildTransferEntries emits a symmetric debit at the destination branch and
// credit at the source branch against the same inventory account, each line
// tagged with its own branch.
func (b *JournalBuilder) BuildTransferEntries(ctx context.Context, t *txdomain.Transfer) ([]ledgerdomain.JournalLine, error) {
	inventory, err := b.resolver.Resolve(ctx, accountsdomain.RoleInventory, ledgerdomain.AccountTypeAsset)
	if err != nil {
		return nil, err
	}

	dest := t.Detail.DestCostCenterID
	source := t.Detail.SourceCostCenterID
	lines := []ledgerdomain.JournalLine{
		{
			AccountID:    inventory.ID,
			DebitAmount:  t.Amount,
			Quantity:     t.Detail.Quantity,
			CostCenterID: &dest,
			Memo:         "transfer in",
		},
		{
			AccountID:    inventory.ID,
			CreditAmount: t.Amount,
			Quantity:     t.Detail.Quantity,
			CostCenterID: &source,
			Memo:         "transfer out",
		},
	}
	if err := ledgerdomain.ValidateBalanced(lines); err != nil {
		return nil, fmt.Errorf("transfer %s: %w", t.ID, err)
	}
	return lines, nil
}
