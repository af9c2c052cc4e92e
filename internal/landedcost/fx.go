package landedcost

import (
	"github.com/smallbiznis/kontera/internal/landedcost/service"
	"go.uber.org/fx"
)

var Module = fx.Module("landedcost",
	fx.Provide(service.NewService),
)
