package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nao1215/pagescore/internal/model"
)

// DefaultQuiescentDelay is the pause after each iteration.
const DefaultQuiescentDelay = 60 * time.Second

// ErrInvalidIterations is returned by Run for a non-positive iteration count.
var ErrInvalidIterations = errors.New("iterations must be at least 1")

// IterationFunc is called after each iteration has been reconciled.
type IterationFunc func(report *model.IterationReport) error

// Loop runs a fixed number of audit iterations against one sheet.
type Loop struct {
	batch      *BatchProcessor
	reconcile  *ReconcileStep
	categories []model.Category

	delay       time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
	onIteration IterationFunc
	runID       string
	now         func() time.Time
	logger      *slog.Logger
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithLoopLogger sets the logger.
func WithLoopLogger(logger *slog.Logger) LoopOption {
	return func(l *Loop) {
		l.logger = logger
	}
}

// WithQuiescentDelay sets the pause after each iteration. Negative values
// are treated as zero.
func WithQuiescentDelay(d time.Duration) LoopOption {
	return func(l *Loop) {
		l.delay = max(d, 0)
	}
}

// WithSleeper replaces the function used for the quiescent delay.
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) LoopOption {
	return func(l *Loop) {
		l.sleep = sleep
	}
}

// WithIterationHook sets a callback run after each reconciled iteration.
// An error from the callback stops the loop.
func WithIterationHook(fn IterationFunc) LoopOption {
	return func(l *Loop) {
		l.onIteration = fn
	}
}

// WithRunID sets the run identifier stamped on reports. A random UUID is
// used by default.
func WithRunID(id string) LoopOption {
	return func(l *Loop) {
		l.runID = id
	}
}

// WithLoopClock sets the clock used for report timestamps.
func WithLoopClock(now func() time.Time) LoopOption {
	return func(l *Loop) {
		l.now = now
	}
}

// NewLoop creates a Loop auditing categories with batch and writing through
// reconcile.
func NewLoop(batch *BatchProcessor, reconcile *ReconcileStep, categories []model.Category, opts ...LoopOption) *Loop {
	l := &Loop{
		batch:      batch,
		reconcile:  reconcile,
		categories: append([]model.Category(nil), categories...),
		delay:      DefaultQuiescentDelay,
		sleep:      sleepContext,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.runID == "" {
		l.runID = uuid.NewString()
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	return l
}

// RunID returns the identifier of the run.
func (l *Loop) RunID() string {
	return l.runID
}

// Run audits targets iterations times and merges each batch into sheet.
//
// Iteration i+1 starts only after iteration i has been committed. The
// quiescent delay follows every iteration, including the last. Run returns
// the first fatal error; iterations committed before it stay in the sheet.
func (l *Loop) Run(ctx context.Context, targets []model.Target, iterations int, sheet string) error {
	if iterations < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidIterations, iterations)
	}

	p := New(WithLogger(l.logger))
	p.AddSteps(NewAuditStep(l.batch, targets), l.reconcile)

	l.logger.Info("starting run",
		"run_id", l.runID,
		"sheet", sheet,
		"targets", len(targets),
		"iterations", iterations,
		"steps", p.StepNames(),
	)

	for i := 1; i <= iterations; i++ {
		report := &model.IterationReport{
			RunID:      l.runID,
			Sheet:      sheet,
			Iteration:  i,
			Iterations: iterations,
			StartedAt:  l.now(),
			Categories: l.categories,
		}

		if err := p.Execute(ctx, report); err != nil {
			return fmt.Errorf("iteration %d/%d: %w", i, iterations, err)
		}
		report.FinishedAt = l.now()

		l.logger.Info("iteration complete",
			"run_id", l.runID,
			"iteration", i,
			"failures", report.Failures(),
			"elapsed", report.Elapsed(),
		)

		if l.onIteration != nil {
			if err := l.onIteration(report); err != nil {
				return fmt.Errorf("iteration %d/%d: %w", i, iterations, err)
			}
		}

		if err := l.sleep(ctx, l.delay); err != nil {
			return err
		}
	}
	return nil
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
