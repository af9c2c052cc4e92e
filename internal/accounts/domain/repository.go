package domain

import (
	"context"

	ledgerdomain "github.com/smallbiznis/kontera/internal/ledger/domain"
)

// Repository looks up chart-of-accounts entries. All methods return
// (nil, nil) when nothing matches.
type Repository interface {
	FindByNameAndType(ctx context.Context, name string, accountType ledgerdomain.AccountType) (*ledgerdomain.AccountingCode, error)
	FindByCode(ctx context.Context, code string) (*ledgerdomain.AccountingCode, error)
	// FirstByNames returns the first account whose name appears in names,
	// honoring the order of names rather than table order.
	FirstByNames(ctx context.Context, names []string, accountType ledgerdomain.AccountType) (*ledgerdomain.AccountingCode, error)
	AnyOfType(ctx context.Context, accountType ledgerdomain.AccountType) (*ledgerdomain.AccountingCode, error)
}

// Resolver resolves a canonical ledger account by semantic role with ordered
// fallback.
type Resolver interface {
	Resolve(ctx context.Context, role string, accountType ledgerdomain.AccountType) (*ledgerdomain.AccountingCode, error)
}
