package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/telcostore/internal/clock"
	"github.com/smallbiznis/telcostore/internal/config"
	"github.com/smallbiznis/telcostore/internal/interchange"
	"github.com/smallbiznis/telcostore/internal/loader"
	netmetrics "github.com/smallbiznis/telcostore/internal/netmetrics/domain"
	netmetricsservice "github.com/smallbiznis/telcostore/internal/netmetrics/service"
	"github.com/smallbiznis/telcostore/internal/observability/tracing"
	"github.com/smallbiznis/telcostore/internal/randstream"
	"github.com/smallbiznis/telcostore/internal/referencedata"
	"github.com/smallbiznis/telcostore/internal/report"
	"github.com/smallbiznis/telcostore/internal/retail/domain"
	"github.com/smallbiznis/telcostore/internal/runmetrics"
	"github.com/smallbiznis/telcostore/internal/simulation"
	"github.com/smallbiznis/telcostore/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

type Params struct {
	fx.In

	Config   config.Config
	Rules    config.Rules
	Store    db.Config
	Log      *zap.Logger
	GormLog  gormlogger.Interface `optional:"true"`
	Clock    clock.Clock
	GenID    *snowflake.Node
	Tracing  *tracing.Provider    `optional:"true"`
	Recorder *runmetrics.Recorder `optional:"true"`
	Pusher   runmetrics.Pusher    `optional:"true"`
}

// Runner executes the batch stages: simulate, export, build and report.
type Runner struct {
	cfg      config.Config
	store    db.Config
	log      *zap.Logger
	gormLog  gormlogger.Interface
	clock    clock.Clock
	genID    *snowflake.Node
	tracer   *tracing.Provider
	recorder *runmetrics.Recorder
	pusher   runmetrics.Pusher

	factory *referencedata.Factory
	engine  *simulation.Engine
	loader  *loader.Loader
}

func New(p Params) (*Runner, error) {
	if p.Log == nil || p.Clock == nil || p.GenID == nil {
		return nil, fmt.Errorf("%w: pipeline requires a logger, a clock and an id generator", domain.ErrInvalidConfig)
	}
	if err := p.Rules.Validate(); err != nil {
		return nil, err
	}
	policy, err := simulation.NewPolicy(p.Rules)
	if err != nil {
		return nil, err
	}

	log := p.Log.Named("pipeline").With(zap.String("component", "pipeline"))
	return &Runner{
		cfg:      p.Config,
		store:    p.Store,
		log:      log,
		gormLog:  p.GormLog,
		clock:    p.Clock,
		genID:    p.GenID,
		tracer:   p.Tracing,
		recorder: p.Recorder,
		pusher:   p.Pusher,
		factory:  referencedata.NewFactory(p.Rules),
		engine:   simulation.NewEngine(policy),
		loader:   loader.New(p.Store, p.Log, p.GormLog),
	}, nil
}

// Simulate builds reference data and transactions from one seeded stream.
func (r *Runner) Simulate(ctx context.Context) (domain.Dataset, error) {
	var ds domain.Dataset
	err := r.stage(ctx, stageSimulate, func(ctx context.Context) ([]zap.Field, error) {
		sim := r.cfg.Sim
		anchor := sim.Anchor(r.clock.Now())
		rs := randstream.New(sim.Seed)

		ref, err := r.factory.Build(rs, sim.Customers, anchor)
		if err != nil {
			return nil, err
		}
		tx, err := r.engine.Generate(ref, simulation.Params{
			Days:           sim.Days,
			SalesPerDayMin: sim.SalesPerDayMin,
			SalesPerDayMax: sim.SalesPerDayMax,
			Anchor:         anchor,
		}, rs)
		if err != nil {
			return nil, err
		}

		ds = domain.Dataset{ReferenceData: ref, Transactions: tx}
		counts := ds.RowCounts()
		r.recorder.RecordRows(counts)
		return []zap.Field{
			zap.Uint64("seed", sim.Seed),
			zap.String("anchor_date", anchor.Format("2006-01-02")),
			zap.Any("rows", counts),
		}, nil
	})
	return ds, err
}

// Export writes ds as CSV interchange files into the data directory.
func (r *Runner) Export(ctx context.Context, ds domain.Dataset) error {
	return r.stage(ctx, stageExport, func(ctx context.Context) ([]zap.Field, error) {
		if err := interchange.Write(r.cfg.DataDir, ds); err != nil {
			return nil, err
		}
		return []zap.Field{zap.String("dir", r.cfg.DataDir)}, nil
	})
}

// Import reads a dataset back from the data directory.
func (r *Runner) Import(ctx context.Context) (domain.Dataset, error) {
	var ds domain.Dataset
	err := r.stage(ctx, stageImport, func(ctx context.Context) ([]zap.Field, error) {
		var err error
		ds, err = interchange.Read(r.cfg.DataDir)
		if err != nil {
			return nil, err
		}
		r.recorder.RecordRows(ds.RowCounts())
		return []zap.Field{zap.String("dir", r.cfg.DataDir), zap.Any("rows", ds.RowCounts())}, nil
	})
	return ds, err
}

// Build replaces the relational store with ds.
func (r *Runner) Build(ctx context.Context, ds domain.Dataset) error {
	return r.stage(ctx, stageBuild, func(ctx context.Context) ([]zap.Field, error) {
		if err := r.loader.Build(ctx, ds); err != nil {
			return nil, err
		}
		return []zap.Field{zap.String("store", r.store.Type), zap.Int("sales", len(ds.Sales))}, nil
	})
}

// Report computes net metrics from the store and writes every artifact.
func (r *Runner) Report(ctx context.Context) (netmetrics.Report, error) {
	var out netmetrics.Report
	err := r.stage(ctx, stageReport, func(ctx context.Context) ([]zap.Field, error) {
		if r.store.IsSQLite() {
			if _, err := os.Stat(r.store.Path); errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("%w: %s", domain.ErrStoreNotFound, r.store.Path)
			}
		}

		conn, err := db.Open(r.store, r.gormLog)
		if err != nil {
			return nil, err
		}
		defer db.Close(conn)

		out, err = netmetricsservice.NewService(conn, r.log, r.cfg.CommissionRate).Compute(ctx)
		if err != nil {
			return nil, err
		}
		r.recorder.RecordSummary(out.Summary)

		paths, err := report.NewWriter(r.cfg.InsightsDir, r.log).WriteAll(ctx, out, report.Meta{
			RunID:       runIDFrom(ctx),
			GeneratedAt: r.clock.Now(),
		})
		if err != nil {
			return nil, err
		}
		return []zap.Field{
			zap.String("total_net_revenue", out.Summary.TotalNetRevenue.StringFixed(2)),
			zap.String("average_order_value", report.FormatValue(out.Summary.AverageOrderValue)),
			zap.String("attach_rate", report.FormatValue(out.Summary.AttachRate)),
			zap.Strings("artifacts", paths),
		}, nil
	})
	return out, err
}

// RunSimulate generates a dataset and exports it.
func (r *Runner) RunSimulate(ctx context.Context) error {
	return r.run(ctx, jobSimulate, func(ctx context.Context) error {
		ds, err := r.Simulate(ctx)
		if err != nil {
			return err
		}
		return r.Export(ctx, ds)
	})
}

// RunBuild loads the exported dataset into the store.
func (r *Runner) RunBuild(ctx context.Context) error {
	return r.run(ctx, jobBuild, func(ctx context.Context) error {
		ds, err := r.Import(ctx)
		if err != nil {
			return err
		}
		return r.Build(ctx, ds)
	})
}

// RunReport computes metrics from an existing store.
func (r *Runner) RunReport(ctx context.Context) error {
	return r.run(ctx, jobReport, func(ctx context.Context) error {
		_, err := r.Report(ctx)
		return err
	})
}

// RunAll executes every stage in order under a single run id.
func (r *Runner) RunAll(ctx context.Context) error {
	return r.run(ctx, jobPipeline, func(ctx context.Context) error {
		ds, err := r.Simulate(ctx)
		if err != nil {
			return err
		}
		if err := r.Export(ctx, ds); err != nil {
			return err
		}
		if err := r.Build(ctx, ds); err != nil {
			return err
		}
		_, err = r.Report(ctx)
		return err
	})
}
