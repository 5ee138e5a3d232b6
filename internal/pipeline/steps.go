package pipeline

import (
	"context"
	"log/slog"

	"github.com/nao1215/pagescore/internal/model"
	"github.com/nao1215/pagescore/internal/netgate"
	"github.com/nao1215/pagescore/internal/reconcile"
)

// AuditStep audits every target and stores the batch in the report.
type AuditStep struct {
	batch   *BatchProcessor
	targets []model.Target
}

// NewAuditStep creates an AuditStep over a fixed target list.
func NewAuditStep(batch *BatchProcessor, targets []model.Target) *AuditStep {
	return &AuditStep{
		batch:   batch,
		targets: append([]model.Target(nil), targets...),
	}
}

// Name implements Step.
func (s *AuditStep) Name() string {
	return "audit"
}

// Do implements Step.
func (s *AuditStep) Do(ctx context.Context, report *model.IterationReport) error {
	entries, err := s.batch.ProcessBatch(ctx, s.targets)
	if err != nil {
		return err
	}
	report.Entries = entries
	return nil
}

// Reconciler merges a batch into a sheet.
type Reconciler interface {
	Reconcile(ctx context.Context, sheet string, categories []model.Category, batch model.Batch) (reconcile.Outcome, error)
}

// ReconcileStep writes the report's batch to the sheet behind the
// connectivity gate.
type ReconcileStep struct {
	reconciler Reconciler
	gate       netgate.Checker
	logger     *slog.Logger
}

// ReconcileStepOption configures a ReconcileStep.
type ReconcileStepOption func(*ReconcileStep)

// WithReconcileLogger sets the logger.
func WithReconcileLogger(logger *slog.Logger) ReconcileStepOption {
	return func(s *ReconcileStep) {
		s.logger = logger
	}
}

// NewReconcileStep creates a ReconcileStep. A nil gate means the network is
// assumed reachable.
func NewReconcileStep(reconciler Reconciler, gate netgate.Checker, opts ...ReconcileStepOption) *ReconcileStep {
	s := &ReconcileStep{
		reconciler: reconciler,
		gate:       gate,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.gate == nil {
		s.gate = netgate.Always{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Name implements Step.
func (s *ReconcileStep) Name() string {
	return "reconcile"
}

// Do implements Step. Store errors are not retried; only a lost connection
// delays the write.
func (s *ReconcileStep) Do(ctx context.Context, report *model.IterationReport) error {
	var out reconcile.Outcome
	err := netgate.Run(ctx, s.gate, func(ctx context.Context) error {
		var err error
		out, err = s.reconciler.Reconcile(ctx, report.Sheet, report.Categories, report.Entries)
		return err
	})
	if err != nil {
		return err
	}

	report.Aggregates = out.Aggregates
	report.RowsAdded = out.RowsAdded
	s.logger.Debug("batch written",
		"sheet", report.Sheet,
		"rows_added", out.RowsAdded,
	)
	return nil
}
