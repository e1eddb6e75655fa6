package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"meditate/internal/catalog"
	"meditate/internal/config"
	"meditate/internal/fade"
	"meditate/internal/fileutil"
	"meditate/internal/logging"
	"meditate/internal/media/ffprobe"
	"meditate/internal/script"
	"meditate/internal/sequencer"
	"meditate/internal/services"
	"meditate/internal/staging"
	"meditate/internal/synth"
)

// staleWorkDirAge is how old an abandoned entry_NN directory must be before
// a new run sweeps it.
const staleWorkDirAge = 24 * time.Hour

// Dependencies carries optional collaborators. Nil fields are built from
// config.
type Dependencies struct {
	Synth     *synth.Synthesizer
	Sequencer *sequencer.Sequencer
	Fade      *fade.Processor
	Prober    DurationProber
	History   Recorder
	Observer  Observer
}

// Runner renders catalog selections sequentially.
type Runner struct {
	cfg       *config.Config
	catalog   *catalog.Catalog
	synth     *synth.Synthesizer
	sequencer *sequencer.Sequencer
	fade      *fade.Processor
	prober    DurationProber
	history   Recorder
	observer  Observer
	logger    *slog.Logger
	now       func() time.Time
}

// New constructs a runner over cat.
func New(cfg *config.Config, cat *catalog.Catalog, deps Dependencies, logger *slog.Logger) *Runner {
	r := &Runner{
		cfg:       cfg,
		catalog:   cat,
		synth:     deps.Synth,
		sequencer: deps.Sequencer,
		fade:      deps.Fade,
		prober:    deps.Prober,
		history:   deps.History,
		observer:  deps.Observer,
		logger:    logging.NewComponentLogger(logger, "batch"),
		now:       time.Now,
	}
	if r.synth == nil {
		r.synth = synth.New(cfg, logger)
	}
	if r.sequencer == nil {
		r.sequencer = sequencer.New(cfg, logger)
	}
	if r.fade == nil {
		r.fade = fade.New(cfg, logger)
	}
	if r.prober == nil && cfg.Fade.ProbeDuration {
		r.prober = ffprobe.NewProber(cfg.FFmpeg.FFprobeBinary, cfg.FFmpegTimeout())
	}
	if r.observer == nil {
		r.observer = nopObserver{}
	}
	return r
}

// WithCommandRunner routes every external tool call through cr.
func (r *Runner) WithCommandRunner(cr services.CommandRunner) {
	if r == nil || cr == nil {
		return
	}
	r.synth.WithCommandRunner(cr)
	r.sequencer.WithCommandRunner(cr)
	r.fade.WithCommandRunner(cr)
}

// Run renders every entry sel selects. Per-entry failures are reported in
// the summary and never stop the loop. When ctx is canceled the current
// entry fails and the remaining entries are reported as failed without
// being attempted.
func (r *Runner) Run(ctx context.Context, sel catalog.Selection) Summary {
	started := r.now()
	summary := Summary{RunID: uuid.NewString(), Selection: sel.String()}
	ctx = services.WithRunID(ctx, summary.RunID)
	logger := logging.WithContext(ctx, r.logger)

	entries, err := r.catalog.Select(sel)
	if err != nil {
		summary.Message = err.Error()
		summary.Elapsed = r.now().Sub(started)
		if errors.Is(err, services.ErrNotFound) {
			summary.NotFound = true
			logging.WarnWithContext(logger, "no catalog entry matched", "selection_not_found",
				logging.String("selection", summary.Selection),
				logging.String(logging.FieldErrorHint, "run `meditate catalog list` to see valid names"),
				logging.String(logging.FieldImpact, "nothing rendered"),
			)
			return summary
		}
		summary.Err = err
		logging.ErrorWithContext(logger, "invalid selection", "selection_invalid",
			logging.String("selection", summary.Selection),
			logging.Error(err),
		)
		return summary
	}
	summary.Requested = len(entries)

	tempRoot := r.cfg.Paths.TempDir
	if swept := staging.CleanStale(ctx, tempRoot, staleWorkDirAge, r.logger); len(swept.Removed) > 0 {
		logger.Info("removed stale work directories", logging.Int("count", len(swept.Removed)))
	}

	persistCtx := context.WithoutCancel(ctx)
	r.beginRun(persistCtx, logger, summary, started)

	logger.Info("render run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.String("selection", summary.Selection),
		logging.Int("entries", len(entries)),
		logging.Bool("probe_duration", r.prober != nil),
	)

	for i, entry := range entries {
		var result Result
		if err := ctx.Err(); err != nil {
			result = Result{Entry: entry, FailedStage: StageSkipped, Err: err}
		} else {
			r.observer.EntryStarted(entry, i+1, len(entries))
			result = r.renderEntry(ctx, entry)
		}
		if result.Succeeded {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
		summary.Results = append(summary.Results, result)
		r.record(persistCtx, logger, summary.RunID, result)
		r.observer.EntryFinished(result, i+1, len(entries))
	}

	if removed, err := staging.RemoveIfEmpty(tempRoot); err != nil {
		logger.Debug("temp root left in place", logging.String("path", tempRoot), logging.Error(err))
	} else if !removed {
		logger.Debug("temp root not empty", logging.String("path", tempRoot))
	}

	summary.Elapsed = r.now().Sub(started)
	r.finishRun(persistCtx, logger, summary, started)

	logger.Info("render run finished",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.Int("requested", summary.Requested),
		logging.Int("succeeded", summary.Succeeded),
		logging.Int("failed", summary.Failed),
		logging.Duration("elapsed", summary.Elapsed),
	)
	return summary
}

func (r *Runner) renderEntry(ctx context.Context, entry catalog.Entry) (result Result) {
	started := r.now()
	ctx = services.WithEntryID(ctx, entry.ID)
	logger := logging.WithContext(ctx, r.logger)
	result = Result{Entry: entry}

	logger.Info("entry started",
		logging.String(logging.FieldEventType, "entry_start"),
		logging.String("entry", entry.Label()),
	)

	defer func() {
		result.Elapsed = r.now().Sub(started)
		if result.Err != nil {
			logging.ErrorWithContext(logger, "entry failed", "entry_failure",
				logging.String("failed_stage", result.FailedStage),
				logging.String("error_kind", result.ErrorKind()),
				logging.Error(result.Err),
				logging.String(logging.FieldErrorHint, failureHint(result.FailedStage)),
			)
			return
		}
		logger.Info("entry completed",
			logging.String(logging.FieldEventType, "entry_complete"),
			logging.String("output", result.OutputPath),
			logging.String("fade_outcome", string(result.Fade)),
			logging.Float64("duration_seconds", result.DurationSeconds()),
			logging.Duration("elapsed", result.Elapsed),
		)
	}()

	fail := func(stage string, err error) Result {
		result.FailedStage = stage
		result.Err = err
		return result
	}

	workDir, err := staging.PrepareWorkDir(r.cfg.Paths.TempDir, entry.ID)
	if err != nil {
		return fail(StagePrepare, services.Wrap(services.ErrConfiguration, StagePrepare, "workdir", "Unable to prepare work directory", err))
	}
	defer func() { _ = staging.Remove(ctx, workDir, r.logger) }()

	sc, err := script.Build(entry)
	if err != nil {
		return fail(StageBuild, err)
	}
	result.Segments = len(sc.Segments)

	session := r.synth.NewSession(workDir)
	progress := func(done, total int) { r.observer.SegmentRendered(entry, done, total) }
	if err := session.RenderAll(services.WithStage(ctx, StageSynthesize), sc, progress); err != nil {
		return fail(StageSynthesize, err)
	}
	clips := session.Clips()
	result.Clips = len(clips)
	result.EstimatedSeconds = session.Estimate()

	track, err := r.sequencer.Concatenate(services.WithStage(ctx, StageConcatenate), clips, workDir)
	if err != nil {
		return fail(StageConcatenate, err)
	}

	total := r.trackDuration(services.WithStage(ctx, StageProbe), track, &result)

	staged := filepath.Join(workDir, "final."+r.cfg.Audio.Format)
	outcome, err := r.fade.Apply(services.WithStage(ctx, StageFade), track, total, staged)
	result.Fade = outcome
	if err != nil {
		return fail(StageFade, err)
	}

	dest := filepath.Join(r.cfg.Paths.OutputDir, entry.FileName(r.cfg.Audio.Format))
	if err := finalize(staged, dest); err != nil {
		return fail(StageFinalize, err)
	}
	result.OutputPath = dest
	result.Succeeded = true
	return result
}

// trackDuration returns the length used to place the fade-out. The measured
// length wins when probing is enabled and succeeds.
func (r *Runner) trackDuration(ctx context.Context, track string, result *Result) float64 {
	if r.prober == nil {
		return result.EstimatedSeconds
	}
	measured, err := r.prober.Duration(ctx, track)
	if err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, r.logger), "duration probe failed; using estimate", "probe_fallback",
			logging.Float64("estimated_seconds", result.EstimatedSeconds),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check ffmpeg.ffprobe_binary"),
			logging.String(logging.FieldImpact, "fade-out placed from the text-length estimate"),
		)
		return result.EstimatedSeconds
	}
	result.MeasuredSeconds = measured
	logging.WithContext(ctx, r.logger).Debug("track measured",
		logging.Float64("estimated_seconds", result.EstimatedSeconds),
		logging.Float64("measured_seconds", measured),
	)
	return measured
}

func failureHint(stage string) string {
	switch stage {
	case StagePrepare, StageFinalize:
		return "check paths.temp_dir and paths.output_dir permissions"
	case StageSynthesize:
		return "check tts.voice and network access for edge-tts"
	case StageConcatenate, StageFade:
		return "run ffmpeg by hand against the work dir clips"
	case StageBuild:
		return "check the catalog entry fields"
	default:
		return "check logs for details"
	}
}

func finalize(staged, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, StageFinalize, "mkdir", "Unable to create output directory", err)
	}
	if err := fileutil.MoveFile(staged, dest); err != nil {
		return services.Wrap(services.ErrExternalTool, StageFinalize, "move", fmt.Sprintf("Unable to publish %s", filepath.Base(dest)), err)
	}
	return nil
}
