package synth

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"
	"unicode/utf8"

	"meditate/internal/config"
	"meditate/internal/logging"
	"meditate/internal/script"
	"meditate/internal/services"
)

// Role distinguishes speech clips from silence clips.
type Role string

const (
	RoleSpeech  Role = "speech"
	RoleSilence Role = "silence"
)

// Clip is one rendered audio file in an entry's scratch directory.
type Clip struct {
	Index    int     `json:"index"`
	Role     Role    `json:"role"`
	Path     string  `json:"path"`
	Estimate float64 `json:"estimate_seconds"`
	// Segment is the script position that produced this clip.
	Segment int `json:"segment"`
}

// silenceAttempts bounds silence generation: one try plus one retry.
const silenceAttempts = 2

// Synthesizer turns script segments into clips using external tools.
type Synthesizer struct {
	ttsCommand     string
	voice          string
	rate           string
	pitch          string
	secondsPerChar float64
	ttsTimeout     time.Duration

	ffmpegBinary  string
	ffmpegTimeout time.Duration
	sampleRate    int
	channelLayout string
	quality       int

	logger *slog.Logger
	run    services.CommandRunner
}

// New constructs a synthesizer from configuration.
func New(cfg *config.Config, logger *slog.Logger) *Synthesizer {
	return &Synthesizer{
		ttsCommand:     cfg.TTS.Command,
		voice:          cfg.TTS.Voice,
		rate:           cfg.TTS.Rate,
		pitch:          cfg.TTS.Pitch,
		secondsPerChar: cfg.TTS.SecondsPerChar,
		ttsTimeout:     cfg.TTSTimeout(),
		ffmpegBinary:   cfg.FFmpeg.FFmpegBinary,
		ffmpegTimeout:  cfg.FFmpegTimeout(),
		sampleRate:     cfg.Audio.SampleRate,
		channelLayout:  cfg.Audio.ChannelLayout,
		quality:        cfg.Audio.Quality,
		logger:         logging.NewComponentLogger(logger, "synth"),
		run:            services.ExecRunner,
	}
}

// WithCommandRunner allows injecting a custom command runner for tests.
func (s *Synthesizer) WithCommandRunner(r services.CommandRunner) {
	if s != nil && r != nil {
		s.run = r
	}
}

// SpeechEstimate returns the heuristic spoken length of text.
func (s *Synthesizer) SpeechEstimate(text string) float64 {
	return float64(utf8.RuneCountInString(text)) * s.secondsPerChar
}

// Synthesize renders seg into clips under workDir. Clip indices start at
// index; a segment with both text and a pause yields a speech clip followed
// by a silence clip. The first error is fatal for the entry.
func (s *Synthesizer) Synthesize(ctx context.Context, seg script.Segment, index int, workDir string) ([]Clip, error) {
	clips := make([]Clip, 0, 2)
	if seg.HasSpeech() {
		path := clipPath(workDir, index, RoleSpeech)
		if err := s.Speech(ctx, seg.Text, path); err != nil {
			return nil, err
		}
		clips = append(clips, Clip{Index: index, Role: RoleSpeech, Path: path, Estimate: s.SpeechEstimate(seg.Text)})
		index++
	}
	if seg.Pause > 0 {
		path := clipPath(workDir, index, RoleSilence)
		if err := s.Silence(ctx, seg.Pause, path); err != nil {
			return nil, err
		}
		clips = append(clips, Clip{Index: index, Role: RoleSilence, Path: path, Estimate: seg.Pause})
	}
	return clips, nil
}

// Speech renders text with edge-tts into path.
func (s *Synthesizer) Speech(ctx context.Context, text, path string) error {
	args := []string{
		"--voice", s.voice,
		"--rate=" + s.rate,
		"--pitch=" + s.pitch,
		"--text", text,
		"--write-media", path,
	}
	if err := services.RunWithTimeout(ctx, s.run, s.ttsTimeout, s.ttsCommand, args...); err != nil {
		return services.Wrap(services.ErrSynthesis, "synthesize", "speech", "Speech synthesis failed", err)
	}
	if err := ensureOutput(path); err != nil {
		return services.Wrap(services.ErrSynthesis, "synthesize", "speech", "Speech synthesis produced no audio", err)
	}
	return nil
}

// Silence renders seconds of silence into path, retrying once before giving
// up on the entry.
func (s *Synthesizer) Silence(ctx context.Context, seconds float64, path string) error {
	args := []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-f", "lavfi",
		"-i", fmt.Sprintf("anullsrc=r=%d:cl=%s", s.sampleRate, s.channelLayout),
		"-t", formatSeconds(seconds),
		"-c:a", "libmp3lame",
		"-q:a", strconv.Itoa(s.quality),
		path,
	}
	var lastErr error
	for attempt := 1; attempt <= silenceAttempts; attempt++ {
		err := services.RunWithTimeout(ctx, s.run, s.ffmpegTimeout, s.ffmpegBinary, args...)
		if err == nil {
			err = ensureOutput(path)
		}
		if err == nil {
			return nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		if attempt < silenceAttempts {
			logging.WarnWithContext(logging.WithContext(ctx, s.logger), "silence render failed; retrying", "silence_retry",
				logging.Float64("seconds", seconds),
				logging.Int("attempt", attempt),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check ffmpeg lavfi support"),
				logging.String(logging.FieldImpact, "clip is rendered again before the entry continues"),
			)
		}
	}
	return services.Wrap(services.ErrSynthesis, "synthesize", "silence", fmt.Sprintf("Silence of %ss could not be rendered", formatSeconds(seconds)), lastErr)
}

func clipPath(workDir string, index int, role Role) string {
	return filepath.Join(workDir, fmt.Sprintf("seg_%03d_%s.mp3", index, role))
}

func formatSeconds(seconds float64) string {
	return strconv.FormatFloat(seconds, 'f', -1, 64)
}

func ensureOutput(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", filepath.Base(path), err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("%s is empty", filepath.Base(path))
	}
	return nil
}
