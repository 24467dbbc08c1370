package main

import (
	"github.com/smallbiznis/telcostore/internal/app"
	"github.com/smallbiznis/telcostore/internal/pipeline"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func main() {
	fx.New(
		app.Core,
		fx.Invoke(func(lc fx.Lifecycle, sd fx.Shutdowner, log *zap.Logger, r *pipeline.Runner) {
			pipeline.StartJob(lc, sd, log, r.RunAll)
		}),
	).Run()
}
