package seed

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("seed",
	fx.Invoke(func(db *gorm.DB, node *snowflake.Node) error {
		return EnsureChartOfAccounts(db, node)
	}),
)
