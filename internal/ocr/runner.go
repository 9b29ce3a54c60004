// Package ocr orchestrates the external recognition process. The tool is an
// opaque collaborator: it receives one filesystem path argument and must
// print a single JSON object with the extracted fields on stdout and exit 0.
// Anything else is a failure.
package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"invoiceapi/internal/config"
	"invoiceapi/internal/model"
)

var (
	// ErrExtractionFailed means the process exited non-zero, could not be
	// started, or exceeded the timeout. Captured stderr is included in the
	// wrapped error for server-side diagnostics only.
	ErrExtractionFailed = errors.New("ocr extraction failed")

	// ErrMalformedOutput means the process exited 0 but its stdout was not
	// a parseable JSON object.
	ErrMalformedOutput = errors.New("ocr output malformed")
)

// Extractor runs the recognition tool against a stored artifact.
type Extractor interface {
	Extract(ctx context.Context, path string) (*model.OCRData, error)
}

// Runner is the exec-based Extractor implementation.
type Runner struct {
	command string
	script  string
	timeout time.Duration
}

// NewRunner constructs a Runner from OCR configuration.
func NewRunner(cfg config.OCRConfig) *Runner {
	return &Runner{command: cfg.Command, script: cfg.Script, timeout: cfg.Timeout}
}

var _ Extractor = (*Runner)(nil)

// pipeWaitDelay bounds how long Wait keeps draining stdout/stderr after the
// tool itself is gone. A killed tool can leave a grandchild holding the
// inherited pipes; without the delay the wait lasts the grandchild's lifetime.
const pipeWaitDelay = 2 * time.Second

// Extract invokes the recognition process with the artifact path as its last
// argument and a UTF-8 environment. Stdout and stderr are captured on
// independent writers; os/exec drains each pipe on its own goroutine, so a
// full buffer on one stream cannot stall the other. The wait is bounded by
// the configured timeout: CommandContext kills a hung tool, WaitDelay
// abandons pipes a surviving grandchild still holds, and the request fails
// instead of stalling.
func (r *Runner) Extract(ctx context.Context, path string) (*model.OCRData, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	args := make([]string, 0, 2)
	if r.script != "" {
		args = append(args, r.script)
	}
	args = append(args, path)

	cmd := exec.CommandContext(ctx, r.command, args...)
	cmd.WaitDelay = pipeWaitDelay
	cmd.Env = append(os.Environ(), "PYTHONIOENCODING=utf-8", "LANG=tr_TR.UTF-8")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("%w: timed out after %s", ErrExtractionFailed, r.timeout)
		}
		return nil, fmt.Errorf("%w: %v (stderr: %s)", ErrExtractionFailed, err, strings.TrimSpace(stderr.String()))
	}

	var fields model.OCRData
	if err := json.Unmarshal(bytes.TrimSpace(stdout.Bytes()), &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	return &fields, nil
}
