package runmetrics

import "go.uber.org/fx"

var Module = fx.Module("run.metrics",
	fx.Provide(NewRecorder),
	fx.Provide(NewPusher),
)
