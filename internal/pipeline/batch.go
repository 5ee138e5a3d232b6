package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/pagescore/internal/model"
	"github.com/nao1215/pagescore/internal/netgate"
)

// DefaultConcurrency is the number of analyzer processes run at once.
// It is kept small so neither the analyzer nor the network is overloaded.
const DefaultConcurrency = 2

// Auditor audits one target. It reports failures as results, not errors.
type Auditor interface {
	Audit(ctx context.Context, target model.Target) model.AuditResult
}

// ProgressFunc is called after each target of a batch completes, from the
// worker goroutine that completed it.
type ProgressFunc func(done, total int, entry model.Entry)

// BatchProcessor audits a list of targets with a fixed-size worker pool.
// Every audit runs behind the connectivity gate.
type BatchProcessor struct {
	auditor Auditor
	gate    netgate.Checker

	// concurrency is the maximum number of concurrent audits.
	concurrency int

	logger   *slog.Logger
	progress ProgressFunc
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent audits.
// Non-positive values keep DefaultConcurrency.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// WithProgress sets a callback invoked as targets complete.
func WithProgress(fn ProgressFunc) BatchOption {
	return func(b *BatchProcessor) {
		b.progress = fn
	}
}

// NewBatchProcessor creates a BatchProcessor. A nil gate means the network
// is assumed reachable.
func NewBatchProcessor(auditor Auditor, gate netgate.Checker, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		auditor:     auditor,
		gate:        gate,
		concurrency: DefaultConcurrency,
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.gate == nil {
		bp.gate = netgate.Always{}
	}
	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// Concurrency returns the worker pool size.
func (bp *BatchProcessor) Concurrency() int {
	return bp.concurrency
}

// ProcessBatch audits all targets and returns one entry per target in input
// order, whatever order the workers finish in.
//
// A failed audit never aborts the batch. When the gate gives up waiting for
// the network the target is recorded as a failure. The error is non-nil only
// when ctx is cancelled, in which case the batch is incomplete.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, targets []model.Target) (model.Batch, error) {
	results := make(model.Batch, len(targets))
	err := bp.ProcessBatchWithCallback(ctx, targets, func(entry model.Entry, index int) {
		// Each worker writes only its own index.
		results[index] = entry
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// ProcessBatchWithCallback audits all targets and calls callback for each
// completed target with the target's index in the input. The callback runs
// on worker goroutines.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	targets []model.Target,
	callback func(entry model.Entry, index int),
) error {
	bp.logger.Info("starting batch",
		"targets", len(targets),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()
	var done atomic.Int32

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, target := range targets {
		i, target := i, target
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			bp.logger.Debug("auditing target",
				"target", target,
				"index", i+1,
				"total", len(targets),
			)

			result, err := netgate.Call(ctx, bp.gate, func(ctx context.Context) model.AuditResult {
				return bp.auditor.Audit(ctx, target)
			})
			if err != nil {
				if !errors.Is(err, netgate.ErrWaitTimeout) {
					return err
				}
				result = model.Failure(err.Error())
			}
			if err := ctx.Err(); err != nil {
				return err
			}

			entry := model.Entry{Target: target, Result: result}
			callback(entry, i)

			n := int(done.Add(1))
			if bp.progress != nil {
				bp.progress(n, len(targets), entry)
			}
			if result.Failed() {
				bp.logger.Warn("audit failed",
					"target", target,
					"message", result.Message(),
				)
			}
			return nil
		})
	}

	err := g.Wait()

	bp.logger.Info("batch complete",
		"targets", len(targets),
		"elapsed", time.Since(startTime),
		"cancelled", err != nil,
	)

	return err
}
