// Package fade applies the fade-in/fade-out envelope to a concatenated track.
package fade

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strconv"
	"time"

	"meditate/internal/config"
	"meditate/internal/logging"
	"meditate/internal/services"
)

// Outcome records which envelope ended up on the track.
type Outcome string

const (
	// FullFade means both fades were applied in one pass.
	FullFade Outcome = "full"
	// FadeInOnly means the combined pass failed and the fallback succeeded.
	FadeInOnly Outcome = "fade_in_only"
	// Failed means neither pass produced a track.
	Failed Outcome = "failed"
)

// Succeeded reports whether the outcome produced a playable track.
func (o Outcome) Succeeded() bool {
	return o == FullFade || o == FadeInOnly
}

// Processor runs ffmpeg's afade filter over a track.
type Processor struct {
	ffmpegBinary string
	timeout      time.Duration
	codec        string
	quality      int
	fadeIn       float64
	fadeOut      float64
	logger       *slog.Logger
	run          services.CommandRunner
}

// New constructs a fade processor from configuration.
func New(cfg *config.Config, logger *slog.Logger) *Processor {
	return &Processor{
		ffmpegBinary: cfg.FFmpeg.FFmpegBinary,
		timeout:      cfg.FFmpegTimeout(),
		codec:        cfg.AudioCodec(),
		quality:      cfg.AudioQuality(),
		fadeIn:       cfg.Fade.InSeconds,
		fadeOut:      cfg.Fade.OutSeconds,
		logger:       logging.NewComponentLogger(logger, "fade"),
		run:          services.ExecRunner,
	}
}

// WithCommandRunner allows injecting a custom command runner for tests.
func (p *Processor) WithCommandRunner(r services.CommandRunner) {
	if p != nil && r != nil {
		p.run = r
	}
}

// FadeOutStart returns where the fade-out begins for a track of total seconds.
func (p *Processor) FadeOutStart(total float64) float64 {
	return math.Max(0, total-p.fadeOut)
}

// FullFilter is the combined fade-in and fade-out filter for total seconds.
func (p *Processor) FullFilter(total float64) string {
	return fmt.Sprintf("%s,afade=t=out:st=%s:d=%s",
		p.FadeInFilter(), formatSeconds(p.FadeOutStart(total)), formatSeconds(p.fadeOut))
}

// FadeInFilter is the fallback filter.
func (p *Processor) FadeInFilter() string {
	return fmt.Sprintf("afade=t=in:st=0:d=%s", formatSeconds(p.fadeIn))
}

// Apply fades trackPath into outputPath. The fade-out is placed from total,
// the best known track length. When the combined pass fails the fade-in is
// applied alone to the same input.
func (p *Processor) Apply(ctx context.Context, trackPath string, total float64, outputPath string) (Outcome, error) {
	logger := logging.WithContext(ctx, p.logger)

	primaryErr := p.render(ctx, trackPath, p.FullFilter(total), outputPath)
	if primaryErr == nil {
		logger.Debug("fade applied",
			logging.String("outcome", string(FullFade)),
			logging.Float64("fade_out_start", p.FadeOutStart(total)),
		)
		return FullFade, nil
	}
	if ctx.Err() != nil {
		return Failed, services.Wrap(services.ErrFade, "fade", "full", "Fade interrupted", primaryErr)
	}

	logging.WarnWithContext(logger, "combined fade failed; retrying with fade-in only", "fade_fallback",
		logging.Float64("total_seconds", total),
		logging.Error(primaryErr),
		logging.String(logging.FieldErrorHint, "track may be shorter than its estimate"),
		logging.String(logging.FieldImpact, "track ends without a fade-out"),
	)
	_ = os.Remove(outputPath)

	if err := p.render(ctx, trackPath, p.FadeInFilter(), outputPath); err != nil {
		_ = os.Remove(outputPath)
		return Failed, services.Wrap(services.ErrFade, "fade", "fade_in", "Fade-in fallback failed", fmt.Errorf("%w (combined pass: %v)", err, primaryErr))
	}
	return FadeInOnly, nil
}

func (p *Processor) render(ctx context.Context, input, filter, output string) error {
	args := []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-i", input,
		"-af", filter,
		"-c:a", p.codec,
		"-q:a", strconv.Itoa(p.quality),
		output,
	}
	if err := services.RunWithTimeout(ctx, p.run, p.timeout, p.ffmpegBinary, args...); err != nil {
		return err
	}
	info, err := os.Stat(output)
	if err != nil {
		return fmt.Errorf("faded output missing: %w", err)
	}
	if info.Size() == 0 {
		return errors.New("faded output is empty")
	}
	return nil
}

func formatSeconds(seconds float64) string {
	return strconv.FormatFloat(seconds, 'f', -1, 64)
}
