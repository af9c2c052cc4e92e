package posting

import (
	"github.com/smallbiznis/kontera/internal/posting/service"
	"go.uber.org/fx"
)

var Module = fx.Module("posting",
	fx.Provide(service.NewDimensionAssigner),
	fx.Provide(service.NewService),
)
