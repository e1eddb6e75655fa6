package preflight

import (
	"context"

	"golang.org/x/sync/errgroup"

	"meditate/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

type check func(context.Context) Result

// RunAll executes all preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	checks := []check{
		func(context.Context) Result {
			return CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir)
		},
		func(context.Context) Result {
			return CheckDirectoryAccess("State directory", cfg.Paths.StateDir)
		},
		func(context.Context) Result {
			return CheckParentAccess("Temp directory", cfg.Paths.TempDir)
		},
		func(ctx context.Context) Result {
			return CheckFreeSpace(ctx, "Output disk", cfg.Paths.OutputDir, MinFreeBytes)
		},
		func(ctx context.Context) Result {
			return CheckFreeSpace(ctx, "Temp disk", cfg.Paths.TempDir, MinFreeBytes)
		},
	}

	results := make([]Result, len(checks))
	g, gctx := errgroup.WithContext(ctx)
	for i, run := range checks {
		g.Go(func() error {
			results[i] = run(gctx)
			return nil
		})
	}
	_ = g.Wait()

	return append(results, CheckSystemDeps(cfg)...)
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
