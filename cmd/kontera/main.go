package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/kontera/internal/clock"
	"github.com/smallbiznis/kontera/internal/config"
	"github.com/smallbiznis/kontera/internal/logger"
	"github.com/smallbiznis/kontera/internal/migration"
	"github.com/smallbiznis/kontera/internal/observability"
	"github.com/smallbiznis/kontera/internal/seed"
	"github.com/smallbiznis/kontera/internal/server"
	"github.com/smallbiznis/kontera/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		logger.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,

		// Schema and bootstrap data
		migration.Module,
		seed.Module,

		// HTTP surface; pulls in the functional domain modules.
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
