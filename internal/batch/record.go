package batch

import (
	"context"
	"log/slog"
	"time"

	"meditate/internal/history"
	"meditate/internal/logging"
)

func (r *Runner) beginRun(ctx context.Context, logger *slog.Logger, summary Summary, started time.Time) {
	if r.history == nil {
		return
	}
	err := r.history.BeginRun(ctx, history.Run{
		ID:        summary.RunID,
		Selection: summary.Selection,
		StartedAt: started,
		Requested: summary.Requested,
	})
	if err != nil {
		logger.Warn("history run not recorded", logging.Error(err))
	}
}

func (r *Runner) finishRun(ctx context.Context, logger *slog.Logger, summary Summary, started time.Time) {
	if r.history == nil {
		return
	}
	err := r.history.FinishRun(ctx, history.Run{
		ID:         summary.RunID,
		Selection:  summary.Selection,
		StartedAt:  started,
		FinishedAt: started.Add(summary.Elapsed),
		Requested:  summary.Requested,
		Succeeded:  summary.Succeeded,
		Failed:     summary.Failed,
	})
	if err != nil {
		logger.Warn("history run not finalized", logging.Error(err))
	}
}

// record persists one entry result. Errors are logged and never change the
// entry's outcome.
func (r *Runner) record(ctx context.Context, logger *slog.Logger, runID string, result Result) {
	if r.history == nil {
		return
	}
	if _, err := r.history.Record(ctx, toRecord(runID, result, r.now())); err != nil {
		logger.Warn("history record not written",
			logging.Int(logging.FieldEntryID, result.Entry.ID),
			logging.Error(err),
		)
	}
}

func toRecord(runID string, result Result, finished time.Time) history.Record {
	rec := history.Record{
		RunID:            runID,
		EntryID:          result.Entry.ID,
		EntryName:        result.Entry.Name,
		Slug:             result.Entry.Slug,
		Status:           history.StatusSucceeded,
		OutputPath:       result.OutputPath,
		EstimatedSeconds: result.EstimatedSeconds,
		MeasuredSeconds:  result.MeasuredSeconds,
		FadeOutcome:      string(result.Fade),
		Elapsed:          result.Elapsed,
		FinishedAt:       finished,
	}
	if !result.Succeeded {
		rec.Status = history.StatusFailed
		rec.ErrorKind = result.ErrorKind()
		if result.Err != nil {
			rec.ErrorMessage = result.Err.Error()
		}
	}
	return rec
}
