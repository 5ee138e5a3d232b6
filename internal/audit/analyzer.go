package audit

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"

	"github.com/nao1215/pagescore/internal/model"
)

// DefaultAnalyzerPath is the analyzer executable looked up in PATH.
const DefaultAnalyzerPath = "lighthouse"

// maxStderr caps how much diagnostic output is kept per invocation.
const maxStderr = 64 * 1024

// Invocation is the raw outcome of one analyzer process.
type Invocation struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

// Analyzer invokes the external analyzer for one URL. An error means the
// process could not be run at all; a process that ran and exited non-zero
// is reported through Invocation.ExitCode.
type Analyzer interface {
	Invoke(ctx context.Context, url string) (Invocation, error)
}

// ExecAnalyzer runs the analyzer as a subprocess.
type ExecAnalyzer struct {
	path       string
	args       []string
	categories []model.Category
}

// NewExecAnalyzer returns an analyzer that runs path with the target URL,
// JSON output, an --only-categories filter for categories, and the extra
// args (for example "--quiet" or "--chrome-flags=--headless").
func NewExecAnalyzer(path string, categories []model.Category, args ...string) *ExecAnalyzer {
	if path == "" {
		path = DefaultAnalyzerPath
	}
	return &ExecAnalyzer{
		path:       path,
		args:       append([]string(nil), args...),
		categories: append([]model.Category(nil), categories...),
	}
}

// Args returns the command line arguments used for url.
func (a *ExecAnalyzer) Args(url string) []string {
	args := []string{url, "--output=json"}
	if len(a.categories) > 0 {
		ids := make([]string, len(a.categories))
		for i, c := range a.categories {
			ids[i] = c.String()
		}
		args = append(args, "--only-categories="+strings.Join(ids, ","))
	}
	return append(args, a.args...)
}

// Invoke runs the analyzer and waits for it to exit.
func (a *ExecAnalyzer) Invoke(ctx context.Context, url string) (Invocation, error) {
	cmd := exec.CommandContext(ctx, a.path, a.Args(url)...) //nolint:gosec // analyzer path comes from user configuration

	var stdout bytes.Buffer
	stderr := &cappedBuffer{limit: maxStderr}
	cmd.Stdout = &stdout
	cmd.Stderr = stderr

	err := cmd.Run()
	inv := Invocation{
		Stdout: stdout.Bytes(),
		Stderr: stderr.Bytes(),
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			inv.ExitCode = exitErr.ExitCode()
			return inv, nil
		}
		return inv, err
	}
	return inv, nil
}

// cappedBuffer keeps the last limit bytes written to it.
type cappedBuffer struct {
	buf   []byte
	limit int
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	b.buf = append(b.buf, p...)
	if over := len(b.buf) - b.limit; over > 0 {
		b.buf = b.buf[over:]
	}
	return len(p), nil
}

func (b *cappedBuffer) Bytes() []byte {
	return b.buf
}
