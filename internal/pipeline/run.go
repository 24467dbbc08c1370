package pipeline

import (
	"context"
	"fmt"
	"time"

	obslogger "github.com/smallbiznis/telcostore/internal/observability/logger"
	"github.com/smallbiznis/telcostore/internal/runmetrics"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

const (
	jobPipeline = "pipeline"
	jobSimulate = "simulate"
	jobBuild    = "build"
	jobReport   = "report"

	stageSimulate = "simulate"
	stageExport   = "export"
	stageImport   = "import"
	stageBuild    = "build"
	stageReport   = "report"
)

const pushTimeout = 10 * time.Second

type jobRun struct {
	job       string
	runID     string
	startedAt time.Time
}

type jobRunKey struct{}

func jobRunFromContext(ctx context.Context) *jobRun {
	if ctx == nil {
		return nil
	}
	if run, ok := ctx.Value(jobRunKey{}).(*jobRun); ok {
		return run
	}
	return nil
}

func runIDFrom(ctx context.Context) string {
	if run := jobRunFromContext(ctx); run != nil {
		return run.runID
	}
	return ""
}

// run wraps a job: it mints the run id, traces the job and pushes run
// metrics once at the end. Nested calls reuse the outer run.
func (r *Runner) run(parent context.Context, job string, fn func(ctx context.Context) error) error {
	if parent == nil {
		parent = context.Background()
	}
	if jobRunFromContext(parent) != nil {
		return fn(parent)
	}

	run := &jobRun{
		job:       job,
		runID:     r.genID.Generate().String(),
		startedAt: r.clock.Now(),
	}
	ctx := context.WithValue(parent, jobRunKey{}, run)
	ctx = obslogger.ContextWithRunID(ctx, run.runID)

	ctx, span := r.tracer.Tracer().Start(ctx, "job."+job)
	span.SetAttributes(
		attribute.String("job", job),
		attribute.String("run_id", run.runID),
	)
	defer span.End()

	log := r.logger(ctx).With(zap.String("job", job))
	log.Info(job + ".start")
	r.recorder.RecordRun(run.runID)

	err := fn(ctx)
	finishedAt := r.clock.Now()
	r.recorder.RecordOutcome(err, finishedAt)
	r.push(ctx)

	duration := finishedAt.Sub(run.startedAt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Error(job+".failed", zap.Duration("duration", duration), zap.Error(err))
		return fmt.Errorf("%s: %w", job, err)
	}
	log.Info(job+".finish", zap.Duration("duration", duration))
	return nil
}

// stage logs <stage>.start and <stage>.finish around fn and records its
// duration. fn returns the fields to attach to the finish line.
func (r *Runner) stage(ctx context.Context, name string, fn func(ctx context.Context) ([]zap.Field, error)) error {
	ctx = obslogger.ContextWithStage(ctx, name)
	ctx, span := r.tracer.Tracer().Start(ctx, "stage."+name)
	span.SetAttributes(attribute.String("stage", name))
	defer span.End()

	log := r.logger(ctx)
	log.Info(name + ".start")

	start := time.Now()
	fields, err := fn(ctx)
	elapsed := time.Since(start)
	r.recorder.RecordStage(name, elapsed)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Error(name+".failed", zap.Duration("duration", elapsed), zap.Error(err))
		return fmt.Errorf("%s: %w", name, err)
	}
	log.Info(name+".finish", append(fields, zap.Duration("duration", elapsed))...)
	return nil
}

// push never fails the run; a broken metrics backend is only logged.
func (r *Runner) push(ctx context.Context) {
	if r.pusher == nil || r.recorder == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), pushTimeout)
	defer cancel()
	batch := runmetrics.Batch{Registry: r.recorder.Registry()}
	if run := jobRunFromContext(ctx); run != nil {
		batch.Job, batch.RunID = run.job, run.runID
	}
	if err := r.pusher.Push(ctx, batch); err != nil {
		r.logger(ctx).Warn("run metrics push failed", zap.Error(err))
	}
}

func (r *Runner) logger(ctx context.Context) *zap.Logger {
	return obslogger.WithContext(ctx, r.log)
}
