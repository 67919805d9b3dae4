package task

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/vango-dev/sitepipe/internal/errors"
	"github.com/vango-dev/sitepipe/internal/metrics"
)

const defaultTracerName = "github.com/vango-dev/sitepipe/internal/task"

// Result is the outcome of one leaf run.
type Result struct {
	Task     string
	Started  time.Time
	Duration time.Duration
	Err      error
}

// RunnerOptions configures a Runner.
type RunnerOptions struct {
	// Logger receives start/finish records. Defaults to slog.Default().
	Logger *slog.Logger

	// Metrics records leaf durations and outcomes. May be nil.
	Metrics *metrics.Metrics

	// Tracer creates a span per task. Defaults to the global tracer provider.
	Tracer trace.Tracer
}

// Runner executes task graphs. It is safe for concurrent use; the watch
// scheduler runs tasks on the same Runner the build used.
type Runner struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer

	mu      sync.Mutex
	lastRun map[string]time.Time
	results []Result
}

// NewRunner creates a new runner.
func NewRunner(opts RunnerOptions) *Runner {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Tracer == nil {
		opts.Tracer = otel.Tracer(defaultTracerName)
	}
	return &Runner{
		logger:  opts.Logger,
		metrics: opts.Metrics,
		tracer:  opts.Tracer,
		lastRun: make(map[string]time.Time),
	}
}

// Run executes t and blocks until it completes.
func (r *Runner) Run(ctx context.Context, t *Task) error {
	if t == nil {
		return nil
	}

	ctx, span := r.tracer.Start(ctx, "task "+t.name, trace.WithAttributes(
		attribute.String("task.name", t.name),
		attribute.String("task.kind", t.kind.String()),
	))
	defer span.End()

	started := time.Now()
	var err error
	switch t.kind {
	case KindSeries:
		err = r.runSeries(ctx, t)
	case KindParallel:
		err = r.runParallel(ctx, t)
	default:
		err = r.runLeaf(ctx, t)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	r.mu.Lock()
	r.lastRun[t.name] = started
	r.mu.Unlock()
	return nil
}

func (r *Runner) runSeries(ctx context.Context, t *Task) error {
	for _, child := range t.children {
		if err := r.Run(ctx, child); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) runParallel(ctx context.Context, t *Task) error {
	// A plain Group: a failing child must not cancel its siblings.
	var g errgroup.Group
	for _, child := range t.children {
		g.Go(func() error {
			return r.Run(ctx, child)
		})
	}
	return g.Wait()
}

func (r *Runner) runLeaf(ctx context.Context, t *Task) error {
	started := time.Now()
	r.logger.Info(fmt.Sprintf("Starting '%s'...", t.name))

	err := r.call(ctx, t)
	elapsed := time.Since(started)

	r.metrics.ObserveTask(t.name, elapsed, err)
	r.mu.Lock()
	r.results = append(r.results, Result{Task: t.name, Started: started, Duration: elapsed, Err: err})
	r.mu.Unlock()

	if err != nil {
		r.logger.Error(fmt.Sprintf("'%s' errored after %s", t.name, round(elapsed)), "err", err)
		return &Error{Task: t.name, Err: err}
	}
	r.logger.Info(fmt.Sprintf("Finished '%s' after %s", t.name, round(elapsed)))
	return nil
}

func (r *Runner) call(ctx context.Context, t *Task) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = errors.New("E202").
				WithDetail(fmt.Sprintf("%v\n\n%s", p, debug.Stack()))
		}
	}()
	return t.fn(ctx)
}

// LastRun returns the start time of the last successful run of the named task.
func (r *Runner) LastRun(name string) (time.Time, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ts, ok := r.lastRun[name]
	return ts, ok
}

// Since returns a function reporting LastRun of the named task, or the zero
// time when it has not completed yet. Pipelines use it to skip unchanged files.
func (r *Runner) Since(name string) func() time.Time {
	return func() time.Time {
		ts, _ := r.LastRun(name)
		return ts
	}
}

// Results returns the leaf results recorded so far, in completion order.
func (r *Runner) Results() []Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Result(nil), r.results...)
}

func round(d time.Duration) time.Duration {
	switch {
	case d >= time.Second:
		return d.Round(10 * time.Millisecond)
	case d >= time.Millisecond:
		return d.Round(time.Millisecond)
	default:
		return d.Round(time.Microsecond)
	}
}
