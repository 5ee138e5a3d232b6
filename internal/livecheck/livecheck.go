package livecheck

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/nao1215/pagescore/internal/targets"
)

const (
	// DefaultWorkers is the number of concurrent requests.
	DefaultWorkers = 20

	// DefaultTimeout bounds each request.
	DefaultTimeout = 5 * time.Second
)

// Checker probes domains over HTTP.
type Checker struct {
	client   *http.Client
	workers  int
	limiter  *rate.Limiter
	logger   *slog.Logger
	progress func(done, total int)
}

// Option configures a Checker.
type Option func(*Checker)

// WithHTTPClient sets the client used for probes.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Checker) {
		c.client = client
	}
}

// WithWorkers sets the number of concurrent probes.
func WithWorkers(n int) Option {
	return func(c *Checker) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithRate limits probes to rps requests per second. Zero or negative
// means unlimited.
func WithRate(rps float64) Option {
	return func(c *Checker) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), max(1, int(rps)))
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Checker) {
		c.logger = logger
	}
}

// WithProgress sets a callback invoked after each probe.
func WithProgress(fn func(done, total int)) Option {
	return func(c *Checker) {
		c.progress = fn
	}
}

// New returns a Checker with DefaultWorkers, DefaultTimeout and no rate
// limit unless overridden.
func New(opts ...Option) *Checker {
	c := &Checker{
		client:  &http.Client{Timeout: DefaultTimeout},
		workers: DefaultWorkers,
		limiter: rate.NewLimiter(rate.Inf, 0),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// IsWebsite reports whether http://domain answers 200. Any transport error
// counts as false.
func (c *Checker) IsWebsite(ctx context.Context, domain string) bool {
	domain = strings.TrimSpace(domain)
	if domain == "" {
		return false
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+domain, nil)
	if err != nil {
		return false
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Debug("probe failed", "domain", domain, "error", err)
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024)) //nolint:errcheck // drain for reuse

	return resp.StatusCode == http.StatusOK
}

// Check probes every domain and returns the verdicts in input order. The
// error is non-nil only when ctx is cancelled.
func (c *Checker) Check(ctx context.Context, domains []string) ([]bool, error) {
	live := make([]bool, len(domains))
	var done atomic.Int32

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for i, d := range domains {
		i, d := i, d
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			live[i] = c.IsWebsite(ctx, d)
			n := int(done.Add(1))
			if c.progress != nil {
				c.progress(n, len(domains))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return live, nil
}

// Summary counts the rows of a filter run.
type Summary struct {
	Total int
	Kept  int
}

// FilterCSV copies the header and every row whose domain is live from r to
// w. The domain is read from the Website, Domain or URL column.
func (c *Checker) FilterCSV(ctx context.Context, r io.Reader, w io.Writer) (Summary, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return Summary{}, fmt.Errorf("%w: empty input", targets.ErrNoKeyColumn)
	}
	if err != nil {
		return Summary{}, fmt.Errorf("failed to read CSV header: %w", err)
	}
	col := targets.KeyColumn(header)
	if col < 0 {
		return Summary{}, fmt.Errorf("%w: header %v", targets.ErrNoKeyColumn, header)
	}

	records, err := cr.ReadAll()
	if err != nil {
		return Summary{}, fmt.Errorf("failed to read CSV: %w", err)
	}
	domains := make([]string, len(records))
	for i, rec := range records {
		if col < len(rec) {
			domains[i] = hostOf(rec[col])
		}
	}

	c.logger.Info("checking domains", "total", len(domains), "workers", c.workers)
	live, err := c.Check(ctx, domains)
	if err != nil {
		return Summary{}, err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return Summary{}, err
	}
	sum := Summary{Total: len(records)}
	for i, rec := range records {
		if !live[i] {
			continue
		}
		if err := cw.Write(rec); err != nil {
			return Summary{}, err
		}
		sum.Kept++
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return Summary{}, err
	}
	return sum, nil
}

// hostOf strips a scheme and path so that URL cells can be probed too.
func hostOf(v string) string {
	v = strings.TrimSpace(v)
	if i := strings.Index(v, "://"); i >= 0 {
		v = v[i+3:]
	}
	if i := strings.IndexAny(v, "/?#"); i >= 0 {
		v = v[:i]
	}
	return v
}
