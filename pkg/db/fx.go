package db

import (
	"github.com/smallbiznis/telcostore/internal/config"
	"github.com/smallbiznis/telcostore/internal/observability/tracing"
	"go.uber.org/fx"
)

var Module = fx.Module("db",
	fx.Provide(provideConfig),
)

func provideConfig(cfg config.Config, tp *tracing.Provider) Config {
	out := NewConfig(cfg)
	out.Tracing = tp.Enabled()
	return out
}
