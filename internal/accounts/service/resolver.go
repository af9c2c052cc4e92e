package service

import (
	"context"
	"fmt"

	accountsdomain "github.com/smallbiznis/kontera/internal/accounts/domain"
	ledgerdomain "github.com/smallbiznis/kontera/internal/ledger/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Repo  accountsdomain.Repository
	Roles accountsdomain.RoleMap
	Log   *zap.Logger
}

type Resolver struct {
	repo  accountsdomain.Repository
	roles accountsdomain.RoleMap
	log   *zap.Logger
}

func NewResolver(p Params) accountsdomain.Resolver {
	return &Resolver{
		repo:  p.Repo,
		roles: p.Roles,
		log:   p.Log.Named("accounts.resolver"),
	}
}

// Resolve finds the ledger account for a semantic role. Resolution order:
// exact (name, type) match, then the declared fallback names for the role
// in order, then any account of the requested type. No match is a
// configuration failure, never a silent substitution.
func (r *Resolver) Resolve(ctx context.Context, role string, accountType ledgerdomain.AccountType) (*ledgerdomain.AccountingCode, error) {
	account, err := r.repo.FindByNameAndType(ctx, role, accountType)
	if err != nil {
		return nil, err
	}
	if account != nil {
		return account, nil
	}

	if fallbacks := r.roles.Fallbacks(role); len(fallbacks) > 0 {
		account, err = r.repo.FirstByNames(ctx, fallbacks, accountType)
		if err != nil {
			return nil, err
		}
		if account != nil {
			return account, nil
		}
	}

	account, err = r.repo.AnyOfType(ctx, accountType)
	if err != nil {
		return nil, err
	}
	if account != nil {
		r.log.Warn("role resolved by account type only",
			zap.String("role", role),
			zap.String("account_type", string(accountType)),
			zap.String("account_code", account.Code),
		)
		return account, nil
	}

	return nil, fmt.Errorf("resolve role %q (%s): %w", role, accountType, accountsdomain.ErrNoAccountForRole)
}
