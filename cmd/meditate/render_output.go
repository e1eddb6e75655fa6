package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"meditate/internal/batch"
	"meditate/internal/catalog"
	"meditate/internal/fade"
)

type resultView struct {
	ID               int     `json:"id"`
	Name             string  `json:"name"`
	Slug             string  `json:"slug"`
	Status           string  `json:"status"`
	OutputPath       string  `json:"output_path,omitempty"`
	Segments         int     `json:"segments"`
	Clips            int     `json:"clips"`
	EstimatedSeconds float64 `json:"estimated_seconds"`
	MeasuredSeconds  float64 `json:"measured_seconds,omitempty"`
	FadeOutcome      string  `json:"fade_outcome,omitempty"`
	FailedStage      string  `json:"failed_stage,omitempty"`
	ErrorKind        string  `json:"error_kind,omitempty"`
	Error            string  `json:"error,omitempty"`
	ElapsedSeconds   float64 `json:"elapsed_seconds"`
}

type summaryView struct {
	RunID          string       `json:"run_id"`
	Selection      string       `json:"selection"`
	Requested      int          `json:"requested"`
	Succeeded      int          `json:"succeeded"`
	Failed         int          `json:"failed"`
	NotFound       bool         `json:"not_found"`
	Message        string       `json:"message,omitempty"`
	ElapsedSeconds float64      `json:"elapsed_seconds"`
	Results        []resultView `json:"results"`
}

func newSummaryView(s batch.Summary) summaryView {
	view := summaryView{
		RunID:          s.RunID,
		Selection:      s.Selection,
		Requested:      s.Requested,
		Succeeded:      s.Succeeded,
		Failed:         s.Failed,
		NotFound:       s.NotFound,
		Message:        s.Message,
		ElapsedSeconds: s.Elapsed.Seconds(),
		Results:        make([]resultView, 0, len(s.Results)),
	}
	for _, r := range s.Results {
		rv := resultView{
			ID:               r.Entry.ID,
			Name:             r.Entry.Name,
			Slug:             r.Entry.Slug,
			Status:           resultStatus(r),
			OutputPath:       r.OutputPath,
			Segments:         r.Segments,
			Clips:            r.Clips,
			EstimatedSeconds: r.EstimatedSeconds,
			MeasuredSeconds:  r.MeasuredSeconds,
			FadeOutcome:      string(r.Fade),
			FailedStage:      r.FailedStage,
			ErrorKind:        r.ErrorKind(),
			ElapsedSeconds:   r.Elapsed.Seconds(),
		}
		if r.Err != nil {
			rv.Error = r.Err.Error()
		}
		view.Results = append(view.Results, rv)
	}
	return view
}

func resultStatus(r batch.Result) string {
	if r.Succeeded {
		return "succeeded"
	}
	return "failed"
}

func renderSummary(s batch.Summary) string {
	if s.NotFound {
		return s.Message
	}
	if len(s.Results) == 0 {
		if s.Message != "" {
			return s.Message
		}
		return fmt.Sprintf("No catalog entries in %s", s.Selection)
	}

	rows := make([][]string, 0, len(s.Results))
	for _, r := range s.Results {
		detail := filepath.Base(r.OutputPath)
		if !r.Succeeded {
			detail = fmt.Sprintf("%s: %s", r.FailedStage, r.ErrorKind())
		}
		rows = append(rows, []string{
			fmt.Sprintf("%02d", r.Entry.ID),
			r.Entry.Name,
			resultStatus(r),
			formatSeconds(r.DurationSeconds()),
			string(r.Fade),
			detail,
		})
	}
	table := renderTable(
		[]string{"ID", "Name", "Status", "Length", "Fade", "Output"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
	)
	footer := fmt.Sprintf("%d succeeded, %d failed of %d requested in %s (run %s)",
		s.Succeeded, s.Failed, s.Requested, s.Elapsed.Round(time.Second), s.RunID)
	return table + "\n" + footer
}

func formatSeconds(seconds float64) string {
	if seconds <= 0 {
		return "-"
	}
	return time.Duration(seconds * float64(time.Second)).Round(time.Second).String()
}

// progressObserver prints one line per entry as a run advances.
type progressObserver struct {
	out      io.Writer
	colorize bool
	position int
	total    int
}

func newProgressObserver(out io.Writer) *progressObserver {
	return &progressObserver{out: out, colorize: shouldColorize(out)}
}

func (p *progressObserver) EntryStarted(entry catalog.Entry, position, total int) {
	p.position, p.total = position, total
}

func (p *progressObserver) SegmentRendered(entry catalog.Entry, done, total int) {
	if !p.colorize {
		return
	}
	fmt.Fprintf(p.out, "\r%s[%d/%d] %s segment %d/%d", statusIndent, p.position, p.total, entry.Name, done, total)
	if done == total {
		fmt.Fprint(p.out, "\r"+strings.Repeat(" ", 60)+"\r")
	}
}

func (p *progressObserver) EntryFinished(result batch.Result, position, total int) {
	label := fmt.Sprintf("[%d/%d] %s", position, total, result.Entry.Label())
	if result.Succeeded {
		message := fmt.Sprintf("%s (%s)", filepath.Base(result.OutputPath), formatSeconds(result.DurationSeconds()))
		kind := statusOK
		if result.Fade == fade.FadeInOnly {
			kind = statusWarn
			message += ", fade-in only"
		}
		fmt.Fprintln(p.out, renderStatusLine(label, kind, message, p.colorize))
		return
	}
	if result.FailedStage == batch.StageSkipped {
		fmt.Fprintln(p.out, renderStatusLine(label, statusWarn, "skipped ("+result.ErrorKind()+")", p.colorize))
		return
	}
	message := result.ErrorKind()
	if result.FailedStage != "" {
		message = fmt.Sprintf("%s failed (%s)", result.FailedStage, result.ErrorKind())
	}
	fmt.Fprintln(p.out, renderStatusLine(label, statusError, message, p.colorize))
}
