package targets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/nao1215/pagescore/internal/model"
)

var (
	// ErrNoTargets is returned when a target set holds no valid target.
	ErrNoTargets = errors.New("no valid targets")

	// ErrNoKeyColumn is returned when a table has no column naming the
	// sites.
	ErrNoKeyColumn = errors.New("no Website, Domain or URL column")
)

// Provider loads the raw entries of a named target set.
type Provider interface {
	Entries(ctx context.Context, name string) ([]string, error)
}

// Reason explains why an entry was dropped.
type Reason string

const (
	// ReasonInvalid marks an entry that is not a URL even with a scheme.
	ReasonInvalid Reason = "invalid URL"
	// ReasonDuplicate marks an entry equal to an earlier one after
	// normalization.
	ReasonDuplicate Reason = "duplicate"
)

// Diagnostic describes one dropped entry.
type Diagnostic struct {
	// Index is the 1-based position of the entry in the source.
	Index  int
	Raw    string
	Reason Reason
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("entry %d %q: %s", d.Index, d.Raw, d.Reason)
}

// Set is a loaded target set.
type Set struct {
	Targets []model.Target
	// Corrected counts entries that were accepted after adding a scheme.
	Corrected int
	Skipped   []Diagnostic
}

// Normalize turns raw entries into targets, keeping input order. Blank
// entries are ignored silently.
func Normalize(raw []string) Set {
	var set Set
	seen := make(map[model.Target]struct{}, len(raw))
	for i, r := range raw {
		target, err := model.NormalizeTarget(r)
		if errors.Is(err, model.ErrEmptyTarget) {
			continue
		}
		if err != nil {
			set.Skipped = append(set.Skipped, Diagnostic{Index: i + 1, Raw: r, Reason: ReasonInvalid})
			continue
		}
		if _, dup := seen[target]; dup {
			set.Skipped = append(set.Skipped, Diagnostic{Index: i + 1, Raw: r, Reason: ReasonDuplicate})
			continue
		}
		seen[target] = struct{}{}
		if !hasScheme(r) {
			set.Corrected++
		}
		set.Targets = append(set.Targets, target)
	}
	return set
}

func hasScheme(raw string) bool {
	return strings.Contains(strings.TrimSpace(raw), "://")
}

// Loader resolves a target set name to a file or a sheet.
type Loader struct {
	files  Provider
	sheets Provider
	logger *slog.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLogger sets the logger used for diagnostics.
func WithLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) {
		l.logger = logger
	}
}

// NewLoader returns a Loader. sheets may be nil when only files are
// accepted.
func NewLoader(sheets Provider, opts ...LoaderOption) *Loader {
	l := &Loader{
		files:  FileProvider{},
		sheets: sheets,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	return l
}

// Load reads the target set name. An existing file path is read as a file;
// anything else is looked up as a sheet. Dropped entries are logged.
func (l *Loader) Load(ctx context.Context, name string) (Set, error) {
	provider := l.files
	if _, err := os.Stat(name); err != nil {
		if l.sheets == nil {
			return Set{}, fmt.Errorf("target file %s: %w", name, err)
		}
		provider = l.sheets
	}

	raw, err := provider.Entries(ctx, name)
	if err != nil {
		return Set{}, err
	}

	set := Normalize(raw)
	for _, d := range set.Skipped {
		l.logger.Warn("target skipped",
			"source", name,
			"index", d.Index,
			"entry", d.Raw,
			"reason", string(d.Reason),
		)
	}
	if len(set.Targets) == 0 {
		return set, fmt.Errorf("%w in %s", ErrNoTargets, name)
	}
	return set, nil
}
