package accounts

import (
	accountsdomain "github.com/smallbiznis/kontera/internal/accounts/domain"
	"github.com/smallbiznis/kontera/internal/accounts/repository"
	"github.com/smallbiznis/kontera/internal/accounts/service"
	"github.com/smallbiznis/kontera/internal/config"
	"go.uber.org/fx"
)

func newRoleMap(cfg config.Config) (accountsdomain.RoleMap, error) {
	return accountsdomain.LoadRoleMap(cfg.AccountRolesFile)
}

var Module = fx.Module("accounts",
	fx.Provide(repository.NewRepository),
	fx.Provide(newRoleMap),
	fx.Provide(service.NewResolver),
)
