package migration

import (
	"github.com/smallbiznis/kontera/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func runOnStartup(gdb *gorm.DB, cfg config.Config, log *zap.Logger) error {
	// Embedded migrations target postgres. Other dialects (sqlite in
	// tests, mysql) create their schema via AutoMigrate or fixtures.
	if cfg.DBType != "postgres" {
		log.Info("skipping migrations", zap.String("db_type", cfg.DBType))
		return nil
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return RunMigrations(sqlDB)
}

var Module = fx.Module("migration",
	fx.Invoke(runOnStartup),
)
