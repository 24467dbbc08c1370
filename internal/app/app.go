package app

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/telcostore/internal/clock"
	"github.com/smallbiznis/telcostore/internal/config"
	"github.com/smallbiznis/telcostore/internal/observability"
	"github.com/smallbiznis/telcostore/internal/pipeline"
	"github.com/smallbiznis/telcostore/internal/runmetrics"
	"github.com/smallbiznis/telcostore/pkg/db"
	"go.uber.org/fx"
)

// Core is the infrastructure every batch binary shares.
var Core = fx.Options(
	config.Module,
	observability.Module,
	fx.Provide(RegisterSnowflake),
	db.Module,
	clock.Module,
	runmetrics.Module,
	pipeline.Module,
)

func RegisterSnowflake() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}
