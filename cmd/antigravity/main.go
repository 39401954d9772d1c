package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/antigravity/internal/migration"
	"github.com/smallbiznis/antigravity/internal/observability"
	"github.com/smallbiznis/antigravity/internal/server"
	"github.com/smallbiznis/antigravity/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure. config.Module is pulled in by server.Module.
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,

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
