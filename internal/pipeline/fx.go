package pipeline

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("pipeline",
	fx.Provide(New),
)

// StartJob runs job once after the app starts and shuts the app down with
// exit code 1 when it fails.
func StartJob(lc fx.Lifecycle, shutdowner fx.Shutdowner, log *zap.Logger, job func(context.Context) error) {
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				code := 0
				if err := job(ctx); err != nil {
					log.Error("job failed", zap.Error(err))
					code = 1
				}
				if err := shutdowner.Shutdown(fx.ExitCode(code)); err != nil {
					log.Error("shutdown failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}
