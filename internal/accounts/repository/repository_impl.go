package repository

import (
	"context"

	accountsdomain "github.com/smallbiznis/kontera/internal/accounts/domain"
	ledgerdomain "github.com/smallbiznis/kontera/internal/ledger/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) accountsdomain.Repository {
	return &repository{db: db}
}

func (r *repository) FindByNameAndType(ctx context.Context, name string, accountType ledgerdomain.AccountType) (*ledgerdomain.AccountingCode, error) {
	var account ledgerdomain.AccountingCode
	err := r.db.WithContext(ctx).Raw(
		`SELECT id, code, name, type, reporting_tag, created_at
		 FROM accounting_codes
		 WHERE name = ? AND type = ?
		 ORDER BY id ASC
		 LIMIT 1`,
		name,
		string(accountType),
	).Scan(&account).Error
	if err != nil {
		return nil, err
	}
	if account.ID == 0 {
		return nil, nil
	}
	return &account, nil
}

func (r *repository) FindByCode(ctx context.Context, code string) (*ledgerdomain.AccountingCode, error) {
	var account ledgerdomain.AccountingCode
	err := r.db.WithContext(ctx).Raw(
		`SELECT id, code, name, type, reporting_tag, created_at
		 FROM accounting_codes
		 WHERE code = ?`,
		code,
	).Scan(&account).Error
	if err != nil {
		return nil, err
	}
	if account.ID == 0 {
		return nil, nil
	}
	return &account, nil
}

func (r *repository) FirstByNames(ctx context.Context, names []string, accountType ledgerdomain.AccountType) (*ledgerdomain.AccountingCode, error) {
	if len(names) == 0 {
		return nil, nil
	}

	var accounts []ledgerdomain.AccountingCode
	err := r.db.WithContext(ctx).
		Where("name IN ? AND type = ?", names, string(accountType)).
		Find(&accounts).Error
	if err != nil {
		return nil, err
	}

	byName := make(map[string]*ledgerdomain.AccountingCode, len(accounts))
	for i := range accounts {
		if _, ok := byName[accounts[i].Name]; !ok {
			byName[accounts[i].Name] = &accounts[i]
		}
	}
	for _, name := range names {
		if account, ok := byName[name]; ok {
			return account, nil
		}
	}
	return nil, nil
}

func (r *repository) AnyOfType(ctx context.Context, accountType ledgerdomain.AccountType) (*ledgerdomain.AccountingCode, error) {
	var account ledgerdomain.AccountingCode
	err := r.db.WithContext(ctx).Raw(
		`SELECT id, code, name, type, reporting_tag, created_at
		 FROM accounting_codes
		 WHERE type = ?
		 ORDER BY id ASC
		 LIMIT 1`,
		string(accountType),
	).Scan(&account).Error
	if err != nil {
		return nil, err
	}
	if account.ID == 0 {
		return nil, nil
	}
	return &account, nil
}
