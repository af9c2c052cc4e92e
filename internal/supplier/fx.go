package supplier

import (
	"github.com/smallbiznis/kontera/internal/supplier/repository"
	"github.com/smallbiznis/kontera/internal/supplier/service"
	"go.uber.org/fx"
)

var Module = fx.Module("supplier",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
