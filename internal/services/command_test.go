package services

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRunWithTimeoutReportsTimeout(t *testing.T) {
	slow := func(ctx context.Context, _ string, _ ...string) error {
		<-ctx.Done()
		return ctx.Err()
	}
	err := RunWithTimeout(context.Background(), slow, 10*time.Millisecond, "edge-tts")
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected timeout marker, got %v", err)
	}
}

func TestRunWithTimeoutPassesThroughFailures(t *testing.T) {
	boom := errors.New("exit status 1")
	fail := func(context.Context, string, ...string) error { return boom }
	err := RunWithTimeout(context.Background(), fail, time.Second, "ffmpeg", "-y")
	if !errors.Is(err, boom) {
		t.Fatalf("expected underlying error, got %v", err)
	}
	if errors.Is(err, ErrTimeout) {
		t.Fatalf("did not expect timeout marker, got %v", err)
	}
}

func TestRunWithTimeoutParentCancelIsNotTimeout(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	wait := func(ctx context.Context, _ string, _ ...string) error { return ctx.Err() }
	err := RunWithTimeout(ctx, wait, time.Second, "ffmpeg")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if errors.Is(err, ErrTimeout) {
		t.Fatalf("cancellation should not be reported as timeout: %v", err)
	}
}

func TestLastLine(t *testing.T) {
	if got := lastLine("banner\nprogress\n  Invalid argument \n"); got != "Invalid argument" {
		t.Fatalf("unexpected last line %q", got)
	}
	if got := lastLine(""); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}
