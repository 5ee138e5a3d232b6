package audit

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nao1215/pagescore/internal/model"
)

// maxMessageLen bounds failure messages written into store cells.
const maxMessageLen = 200

// Runner audits single targets with an Analyzer.
type Runner struct {
	analyzer   Analyzer
	categories []model.Category
	logger     *slog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithRunnerLogger sets the logger.
func WithRunnerLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// NewRunner creates a Runner reading the given categories from each report.
func NewRunner(analyzer Analyzer, categories []model.Category, opts ...RunnerOption) *Runner {
	r := &Runner{
		analyzer:   analyzer,
		categories: append([]model.Category(nil), categories...),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Categories returns the categories read from each report.
func (r *Runner) Categories() []model.Category {
	return append([]model.Category(nil), r.categories...)
}

// Audit runs the analyzer once for target.
func (r *Runner) Audit(ctx context.Context, target model.Target) model.AuditResult {
	start := time.Now()

	inv, err := r.analyzer.Invoke(ctx, target.String())
	if err != nil {
		r.logger.Warn("analyzer did not run", "target", target, "error", err)
		return model.Failure(truncate("analyzer did not run: " + err.Error()))
	}

	if inv.ExitCode != 0 {
		msg := exitMessage(inv)
		r.logger.Warn("analyzer failed", "target", target, "exit_code", inv.ExitCode, "message", msg)
		return model.Failure(msg)
	}

	result, err := ParseReport(inv.Stdout, r.categories)
	if err != nil {
		r.logger.Warn("analyzer report rejected", "target", target, "error", err)
		return model.Failure(truncate(err.Error()))
	}

	r.logger.Debug("audit finished",
		"target", target,
		"failed", result.Failed(),
		"elapsed", time.Since(start),
	)
	return result
}

// exitMessage builds "exit N" followed by the last diagnostic line, if any.
func exitMessage(inv Invocation) string {
	msg := fmt.Sprintf("exit %d", inv.ExitCode)
	if line := lastLine(string(inv.Stderr)); line != "" {
		msg += ": " + line
	}
	return truncate(msg)
}

// lastLine returns the last non-blank line of s.
func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return ""
}

func truncate(s string) string {
	if len(s) <= maxMessageLen {
		return s
	}
	return s[:maxMessageLen-3] + "..."
}
