package batch_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"

	"meditate/internal/batch"
	"meditate/internal/catalog"
	"meditate/internal/config"
	"meditate/internal/fade"
	"meditate/internal/history"
	"meditate/internal/logging"
	"meditate/internal/sequencer"
	"meditate/internal/testsupport"
)

// fakeTools stands in for edge-tts and ffmpeg. Every clip it renders holds
// its own file name so the finished track records the clip order.
type fakeTools struct {
	mu sync.Mutex
	// failures maps a tool step to the work dir (entry_NN) it should fail in.
	failures map[string]string
	filters  []string
}

func (f *fakeTools) shouldFail(step, output string) bool {
	dir, ok := f.failures[step]
	return ok && filepath.Base(filepath.Dir(output)) == dir
}

func (f *fakeTools) run(_ context.Context, name string, args ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	output := args[len(args)-1]
	switch {
	case name == "edge-tts":
		output = args[slices.Index(args, "--write-media")+1]
		if f.shouldFail("speech", output) {
			return errors.New("voice unavailable")
		}
		return os.WriteFile(output, []byte(filepath.Base(output)+"\n"), 0o644)
	case slices.Contains(args, "lavfi"):
		if f.shouldFail("silence", output) {
			return errors.New("exit status 1")
		}
		return os.WriteFile(output, []byte(filepath.Base(output)+"\n"), 0o644)
	case slices.Contains(args, "concat"):
		if f.shouldFail("concat", output) {
			return errors.New("exit status 1")
		}
		paths, err := sequencer.ReadManifest(args[slices.Index(args, "-i")+1])
		if err != nil {
			return err
		}
		var out []byte
		for _, p := range paths {
			data, err := os.ReadFile(p)
			if err != nil {
				return err
			}
			out = append(out, data...)
		}
		return os.WriteFile(output, out, 0o644)
	case slices.Contains(args, "-af"):
		filter := args[slices.Index(args, "-af")+1]
		f.filters = append(f.filters, filter)
		full := strings.Contains(filter, "t=out")
		if (full && f.shouldFail("fade_full", output)) || (!full && f.shouldFail("fade_in", output)) {
			return errors.New("exit status 1")
		}
		data, err := os.ReadFile(args[slices.Index(args, "-i")+1])
		if err != nil {
			return err
		}
		return os.WriteFile(output, data, 0o644)
	}
	return errors.New("unexpected command " + name)
}

type fakeProber struct {
	seconds float64
	err     error
	calls   int
}

func (p *fakeProber) Duration(context.Context, string) (float64, error) {
	p.calls++
	return p.seconds, p.err
}

type fixture struct {
	cfg    *config.Config
	tools  *fakeTools
	runner *batch.Runner
}

func newFixture(t *testing.T, deps batch.Dependencies) *fixture {
	t.Helper()
	return newFixtureWithConfig(t, testsupport.NewConfig(t, testsupport.WithoutProbe()), deps)
}

func newFixtureWithConfig(t *testing.T, cfg *config.Config, deps batch.Dependencies) *fixture {
	t.Helper()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return newFixtureWithCatalog(t, cfg, cat, deps)
}

func newFixtureWithCatalog(t *testing.T, cfg *config.Config, cat *catalog.Catalog, deps batch.Dependencies) *fixture {
	t.Helper()
	tools := &fakeTools{failures: map[string]string{}}
	runner := batch.New(cfg, cat, deps, logging.NewNop())
	runner.WithCommandRunner(tools.run)
	return &fixture{cfg: cfg, tools: tools, runner: runner}
}

func (f *fixture) outputs(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(f.cfg.Paths.OutputDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		t.Fatalf("read output dir: %v", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func (f *fixture) assertNoResidue(t *testing.T) {
	t.Helper()
	if _, err := os.Stat(f.cfg.Paths.TempDir); !os.IsNotExist(err) {
		entries, _ := os.ReadDir(f.cfg.Paths.TempDir)
		t.Fatalf("expected temp root to be removed, found %v", entries)
	}
}

func TestRunSingleIDRange(t *testing.T) {
	f := newFixture(t, batch.Dependencies{})

	summary := f.runner.Run(context.Background(), catalog.RangeSelection(5, 5))
	if summary.Requested != 1 || summary.Succeeded != 1 || summary.Failed != 0 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	res := summary.Results[0]
	if res.Entry.ID != 5 {
		t.Fatalf("expected entry 5, got %d", res.Entry.ID)
	}
	want := res.Entry.FileName("mp3")
	if got := f.outputs(t); len(got) != 1 || got[0] != want {
		t.Fatalf("outputs = %v, want [%s]", got, want)
	}
	if res.OutputPath != filepath.Join(f.cfg.Paths.OutputDir, want) {
		t.Fatalf("unexpected output path %q", res.OutputPath)
	}
	if res.Fade != fade.FullFade {
		t.Fatalf("expected full fade, got %s", res.Fade)
	}
	if summary.RunID == "" || summary.HasFailures() {
		t.Fatalf("unexpected summary state %+v", summary)
	}
	f.assertNoResidue(t)
}

func TestRunTrackKeepsClipOrder(t *testing.T) {
	f := newFixture(t, batch.Dependencies{})

	summary := f.runner.Run(context.Background(), catalog.RangeSelection(1, 1))
	if summary.Succeeded != 1 {
		t.Fatalf("expected success, got %+v", summary.Results)
	}
	data, err := os.ReadFile(summary.Results[0].OutputPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	lines := strings.Fields(string(data))
	if len(lines) != summary.Results[0].Clips {
		t.Fatalf("expected %d clip markers, got %d", summary.Results[0].Clips, len(lines))
	}
	if !slices.IsSorted(lines) {
		t.Fatalf("clips out of order: %v", lines)
	}
	if !strings.HasSuffix(lines[0], "_speech.mp3") {
		t.Fatalf("track should open with speech, got %s", lines[0])
	}
}

func TestRunByName(t *testing.T) {
	f := newFixture(t, batch.Dependencies{})

	summary := f.runner.Run(context.Background(), catalog.NameSelection("薄荷"))
	if summary.Succeeded != 1 || summary.Results[0].Entry.ID != 29 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if got := f.outputs(t); len(got) != 1 || got[0] != "meditation_29_bohe.mp3" {
		t.Fatalf("outputs = %v", got)
	}
}

func TestRunNameMiss(t *testing.T) {
	f := newFixture(t, batch.Dependencies{})

	summary := f.runner.Run(context.Background(), catalog.NameSelection("不存在"))
	if !summary.NotFound {
		t.Fatal("expected NotFound")
	}
	if summary.Requested != 0 || len(summary.Results) != 0 {
		t.Fatalf("expected no processed entries, got %+v", summary)
	}
	if summary.HasFailures() {
		t.Fatal("a name miss must not count as a failure")
	}
	if !strings.Contains(summary.Message, "不存在") {
		t.Fatalf("message should name the miss: %q", summary.Message)
	}
	if len(f.tools.filters) != 0 || len(f.outputs(t)) != 0 {
		t.Fatal("nothing should be rendered")
	}
}

func TestRunInvertedRange(t *testing.T) {
	f := newFixture(t, batch.Dependencies{})

	summary := f.runner.Run(context.Background(), catalog.RangeSelection(9, 3))
	if summary.Err == nil || !summary.HasFailures() {
		t.Fatalf("expected selection error, got %+v", summary)
	}
	if summary.NotFound || summary.Requested != 0 {
		t.Fatalf("unexpected summary %+v", summary)
	}
}

func TestRunIsRepeatable(t *testing.T) {
	f := newFixture(t, batch.Dependencies{})

	first := f.runner.Run(context.Background(), catalog.RangeSelection(3, 4))
	before := f.outputs(t)
	second := f.runner.Run(context.Background(), catalog.RangeSelection(3, 4))
	after := f.outputs(t)

	if first.Succeeded != 2 || second.Succeeded != 2 {
		t.Fatalf("expected both runs to succeed: %+v / %+v", first, second)
	}
	if !slices.Equal(before, after) || len(after) != 2 {
		t.Fatalf("outputs changed between runs: %v vs %v", before, after)
	}
	if first.RunID == second.RunID {
		t.Fatal("each run needs its own id")
	}
	f.assertNoResidue(t)
}

// unknownSeasonCatalog holds a first entry whose season has no greeting and
// a second entry that renders normally.
const unknownSeasonCatalog = `entries:
  - {id: 1, name: 甲, slug: jia, effect: 安神, season: monsoon, visual: 綠葉, sensation: 溫暖, aroma: 清香}
  - {id: 2, name: 乙, slug: yi, effect: 安神, season: spring, visual: 綠葉, sensation: 溫暖, aroma: 清香}
`

func TestFailureAtEachStageLeavesNoResidue(t *testing.T) {
	cases := []struct {
		name  string
		stage string
		kind  string
		setup func(t *testing.T, cfg *config.Config) (*catalog.Catalog, map[string]string)
	}{
		{name: "build", stage: batch.StageBuild, kind: "configuration", setup: func(t *testing.T, _ *config.Config) (*catalog.Catalog, map[string]string) {
			cat, err := catalog.Parse([]byte(unknownSeasonCatalog))
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			return cat, nil
		}},
		{name: "speech", stage: batch.StageSynthesize, kind: "synthesis", setup: failingStep("speech")},
		{name: "silence", stage: batch.StageSynthesize, kind: "synthesis", setup: failingStep("silence")},
		{name: "concat", stage: batch.StageConcatenate, kind: "concatenation", setup: failingStep("concat")},
		{name: "fade", stage: batch.StageFade, kind: "fade", setup: failingStep("fade_full", "fade_in")},
		{name: "finalize", stage: batch.StageFinalize, kind: "external_tool", setup: func(t *testing.T, cfg *config.Config) (*catalog.Catalog, map[string]string) {
			cat := defaultCatalog(t)
			entry, _ := cat.ByID(1)
			// A directory at the destination makes the publishing rename fail.
			if err := os.MkdirAll(filepath.Join(cfg.Paths.OutputDir, entry.FileName("mp3")), 0o755); err != nil {
				t.Fatalf("mkdir: %v", err)
			}
			return cat, nil
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testsupport.NewConfig(t, testsupport.WithoutProbe())
			cat, failures := tc.setup(t, cfg)
			f := newFixtureWithCatalog(t, cfg, cat, batch.Dependencies{})
			for step, dir := range failures {
				f.tools.failures[step] = dir
			}

			summary := f.runner.Run(context.Background(), catalog.RangeSelection(1, 2))
			if summary.Failed != 1 || summary.Succeeded != 1 {
				t.Fatalf("expected one failure and one success, got %+v", summary)
			}
			failed := summary.Results[0]
			if failed.Succeeded || failed.FailedStage != tc.stage || failed.ErrorKind() != tc.kind {
				t.Fatalf("unexpected failure %+v (kind %s)", failed, failed.ErrorKind())
			}
			if failed.OutputPath != "" {
				t.Fatalf("failed entry reported output %q", failed.OutputPath)
			}
			info, err := os.Stat(filepath.Join(cfg.Paths.OutputDir, failed.Entry.FileName("mp3")))
			if err == nil && !info.IsDir() {
				t.Fatal("failed entry left a file at its output path")
			}
			if !summary.Results[1].Succeeded {
				t.Fatalf("second entry should succeed: %v", summary.Results[1].Err)
			}
			if !summary.HasFailures() {
				t.Fatal("summary should report failures")
			}
			f.assertNoResidue(t)
		})
	}
}

func defaultCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return cat
}

// failingStep makes the named tool steps fail for entry 1 only.
func failingStep(steps ...string) func(*testing.T, *config.Config) (*catalog.Catalog, map[string]string) {
	return func(t *testing.T, _ *config.Config) (*catalog.Catalog, map[string]string) {
		failures := make(map[string]string, len(steps))
		for _, step := range steps {
			failures[step] = "entry_01"
		}
		return defaultCatalog(t), failures
	}
}

func TestFadeFallbackStillSucceeds(t *testing.T) {
	f := newFixture(t, batch.Dependencies{})
	f.tools.failures["fade_full"] = "entry_07"

	summary := f.runner.Run(context.Background(), catalog.RangeSelection(7, 7))
	res := summary.Results[0]
	if !res.Succeeded || res.Fade != fade.FadeInOnly {
		t.Fatalf("expected fade-in-only success, got %+v", res)
	}
	if _, err := os.Stat(res.OutputPath); err != nil {
		t.Fatalf("output missing: %v", err)
	}
	f.assertNoResidue(t)
}

func TestProbedDurationPlacesFadeOut(t *testing.T) {
	prober := &fakeProber{seconds: 100}
	f := newFixture(t, batch.Dependencies{Prober: prober})

	summary := f.runner.Run(context.Background(), catalog.RangeSelection(2, 2))
	res := summary.Results[0]
	if !res.Succeeded || res.MeasuredSeconds != 100 {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.DurationSeconds() != 100 {
		t.Fatalf("DurationSeconds = %v", res.DurationSeconds())
	}
	if !strings.Contains(f.tools.filters[0], "afade=t=out:st=92:d=8") {
		t.Fatalf("fade-out not placed from probe: %s", f.tools.filters[0])
	}
}

func TestProbeFailureFallsBackToEstimate(t *testing.T) {
	prober := &fakeProber{err: errors.New("ffprobe missing")}
	f := newFixture(t, batch.Dependencies{Prober: prober})

	summary := f.runner.Run(context.Background(), catalog.RangeSelection(2, 2))
	res := summary.Results[0]
	if !res.Succeeded || res.MeasuredSeconds != 0 || res.EstimatedSeconds <= 0 {
		t.Fatalf("unexpected result %+v", res)
	}
	if prober.calls != 1 {
		t.Fatalf("expected one probe, got %d", prober.calls)
	}
	if strings.Contains(f.tools.filters[0], "st=92:") {
		t.Fatalf("fade placed from failed probe: %s", f.tools.filters[0])
	}
}

// cancelAfterFirst cancels the run once the first entry finishes.
type cancelAfterFirst struct {
	cancel   context.CancelFunc
	started  []int
	finished []batch.Result
	segments int
}

func (o *cancelAfterFirst) EntryStarted(entry catalog.Entry, _, _ int) {
	o.started = append(o.started, entry.ID)
}

func (o *cancelAfterFirst) SegmentRendered(catalog.Entry, int, int) { o.segments++ }

func (o *cancelAfterFirst) EntryFinished(result batch.Result, _, _ int) {
	o.finished = append(o.finished, result)
	o.cancel()
}

func TestCancellationFailsRemainingEntries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	obs := &cancelAfterFirst{cancel: cancel}
	f := newFixture(t, batch.Dependencies{Observer: obs})

	summary := f.runner.Run(ctx, catalog.RangeSelection(1, 3))
	if summary.Requested != 3 || summary.Succeeded != 1 || summary.Failed != 2 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	for _, res := range summary.Results[1:] {
		if res.FailedStage != batch.StageSkipped || res.ErrorKind() != "canceled" {
			t.Fatalf("expected skipped canceled entry, got %+v", res)
		}
	}
	if !slices.Equal(obs.started, []int{1}) || len(obs.finished) != 3 {
		t.Fatalf("observer saw %v started, %d finished", obs.started, len(obs.finished))
	}
	if obs.segments == 0 {
		t.Fatal("expected segment progress callbacks")
	}
	if got := f.outputs(t); len(got) != 1 {
		t.Fatalf("expected only the first track, got %v", got)
	}
	f.assertNoResidue(t)
}

func TestRunRecordsHistory(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithoutProbe())
	store := testsupport.MustOpenHistory(t, cfg)

	f := newFixtureWithConfig(t, cfg, batch.Dependencies{History: store})
	f.tools.failures["concat"] = "entry_11"

	summary := f.runner.Run(context.Background(), catalog.RangeSelection(10, 11))
	records, err := store.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	byEntry := map[int]history.Record{}
	for _, rec := range records {
		if rec.RunID != summary.RunID {
			t.Fatalf("record has run id %q, want %q", rec.RunID, summary.RunID)
		}
		byEntry[rec.EntryID] = rec
	}
	if byEntry[10].Status != history.StatusSucceeded || byEntry[10].FadeOutcome != string(fade.FullFade) {
		t.Fatalf("unexpected success record %+v", byEntry[10])
	}
	if byEntry[11].Status != history.StatusFailed || byEntry[11].ErrorKind != "concatenation" {
		t.Fatalf("unexpected failure record %+v", byEntry[11])
	}

	run, err := store.GetRun(context.Background(), summary.RunID)
	if err != nil || run == nil {
		t.Fatalf("GetRun: %v %v", run, err)
	}
	if run.Requested != 2 || run.Succeeded != 1 || run.Failed != 1 {
		t.Fatalf("unexpected run row %+v", run)
	}
}

type brokenRecorder struct{ records int }

func (b *brokenRecorder) BeginRun(context.Context, history.Run) error {
	return errors.New("disk full")
}

func (b *brokenRecorder) FinishRun(context.Context, history.Run) error {
	return errors.New("disk full")
}

func (b *brokenRecorder) Record(context.Context, history.Record) (int64, error) {
	b.records++
	return 0, errors.New("disk full")
}

func TestRecorderErrorsDoNotFailEntries(t *testing.T) {
	rec := &brokenRecorder{}
	f := newFixture(t, batch.Dependencies{History: rec})

	summary := f.runner.Run(context.Background(), catalog.RangeSelection(12, 12))
	if summary.Succeeded != 1 || summary.HasFailures() {
		t.Fatalf("recording errors must not fail the entry: %+v", summary)
	}
	if rec.records != 1 {
		t.Fatalf("expected one record attempt, got %d", rec.records)
	}
}
