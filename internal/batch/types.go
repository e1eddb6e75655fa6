package batch

import (
	"context"
	"time"

	"meditate/internal/catalog"
	"meditate/internal/fade"
	"meditate/internal/history"
	"meditate/internal/services"
)

// Stage names used in logs, history rows, and failure reports.
const (
	StagePrepare     = "prepare"
	StageBuild       = "build"
	StageSynthesize  = "synthesize"
	StageConcatenate = "concatenate"
	StageProbe       = "probe"
	StageFade        = "fade"
	StageFinalize    = "finalize"
	StageSkipped     = "skipped"
)

// Result is the outcome of rendering one entry.
type Result struct {
	Entry            catalog.Entry `json:"entry"`
	Succeeded        bool          `json:"succeeded"`
	OutputPath       string        `json:"output_path,omitempty"`
	Segments         int           `json:"segments"`
	Clips            int           `json:"clips"`
	EstimatedSeconds float64       `json:"estimated_seconds"`
	MeasuredSeconds  float64       `json:"measured_seconds,omitempty"`
	Fade             fade.Outcome  `json:"fade_outcome,omitempty"`
	FailedStage      string        `json:"failed_stage,omitempty"`
	Err              error         `json:"-"`
	Elapsed          time.Duration `json:"elapsed"`
}

// ErrorKind classifies Err for display and persistence.
func (r Result) ErrorKind() string {
	return services.Kind(r.Err)
}

// DurationSeconds is the best known track length.
func (r Result) DurationSeconds() float64 {
	if r.MeasuredSeconds > 0 {
		return r.MeasuredSeconds
	}
	return r.EstimatedSeconds
}

// Summary describes a finished run.
type Summary struct {
	RunID     string        `json:"run_id"`
	Selection string        `json:"selection"`
	Requested int           `json:"requested"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	NotFound  bool          `json:"not_found,omitempty"`
	Message   string        `json:"message,omitempty"`
	Results   []Result      `json:"results"`
	Err       error         `json:"-"`
	Elapsed   time.Duration `json:"elapsed"`
}

// HasFailures reports whether the run should end with a non-zero exit.
// A name that matched nothing is not a failure.
func (s Summary) HasFailures() bool {
	return s.Failed > 0 || s.Err != nil
}

// Observer receives progress callbacks. Methods are called from the
// goroutine running Run. EntryStarted fires only for entries that are
// attempted; EntryFinished fires for every selected entry, skipped ones
// included.
type Observer interface {
	EntryStarted(entry catalog.Entry, position, total int)
	SegmentRendered(entry catalog.Entry, done, total int)
	EntryFinished(result Result, position, total int)
}

// Recorder persists run and entry results. *history.Store satisfies it.
type Recorder interface {
	BeginRun(ctx context.Context, run history.Run) error
	FinishRun(ctx context.Context, run history.Run) error
	Record(ctx context.Context, rec history.Record) (int64, error)
}

// DurationProber measures a rendered track. *ffprobe.Prober satisfies it.
type DurationProber interface {
	Duration(ctx context.Context, path string) (float64, error)
}

type nopObserver struct{}

func (nopObserver) EntryStarted(catalog.Entry, int, int)    {}
func (nopObserver) SegmentRendered(catalog.Entry, int, int) {}
func (nopObserver) EntryFinished(Result, int, int)          {}
