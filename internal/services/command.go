package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"
)

// CommandRunner executes an external tool and reports a non-nil error when the
// process cannot start or exits with a non-zero status.
type CommandRunner func(ctx context.Context, name string, args ...string) error

// ExecRunner runs the command with os/exec, discarding stdout and folding the
// trimmed stderr into the returned error.
func ExecRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	var stderr strings.Builder
	cmd.Stdout = io.Discard
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if detail := lastLine(stderr.String()); detail != "" {
			return fmt.Errorf("%s: %w: %s", name, err, detail)
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// RunWithTimeout invokes run under a deadline derived from ctx. A zero timeout
// leaves ctx untouched. Deadline expiry is reported with ErrTimeout so callers
// can wrap it in their own stage marker.
func RunWithTimeout(ctx context.Context, run CommandRunner, timeout time.Duration, name string, args ...string) error {
	if run == nil {
		run = ExecRunner
	}
	callCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	err := run(callCtx, name, args...)
	if err == nil {
		return nil
	}
	if errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return fmt.Errorf("%w: %s exceeded %s: %w", ErrTimeout, name, timeout, err)
	}
	return err
}

// lastLine keeps error strings short; ffmpeg prints its banner and progress
// before the line that explains the failure.
func lastLine(output string) string {
	output = strings.TrimSpace(output)
	if idx := strings.LastIndexByte(output, '\n'); idx >= 0 {
		return strings.TrimSpace(output[idx+1:])
	}
	return output
}
