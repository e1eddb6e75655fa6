package sequencer

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"meditate/internal/config"
	"meditate/internal/logging"
	"meditate/internal/services"
	"meditate/internal/synth"
)

const (
	// ManifestName is the concat-demuxer list written into the work dir.
	ManifestName = "manifest.txt"
	// OutputName is the concatenated, not yet faded, track.
	OutputName = "concat.mp3"
)

// Sequencer concatenates clips with ffmpeg's concat demuxer.
type Sequencer struct {
	ffmpegBinary string
	timeout      time.Duration
	quality      int
	logger       *slog.Logger
	run          services.CommandRunner
}

// New constructs a sequencer from configuration.
func New(cfg *config.Config, logger *slog.Logger) *Sequencer {
	return &Sequencer{
		ffmpegBinary: cfg.FFmpeg.FFmpegBinary,
		timeout:      cfg.FFmpegTimeout(),
		quality:      cfg.Audio.Quality,
		logger:       logging.NewComponentLogger(logger, "sequencer"),
		run:          services.ExecRunner,
	}
}

// WithCommandRunner allows injecting a custom command runner for tests.
func (s *Sequencer) WithCommandRunner(r services.CommandRunner) {
	if s != nil && r != nil {
		s.run = r
	}
}

// Concatenate writes the manifest for clips and joins them into
// workDir/concat.mp3, returning that path.
func (s *Sequencer) Concatenate(ctx context.Context, clips []synth.Clip, workDir string) (string, error) {
	if len(clips) == 0 {
		return "", services.Wrap(services.ErrConcatenation, "concatenate", "manifest", "No clips to concatenate", nil)
	}
	paths := make([]string, 0, len(clips))
	for _, clip := range clips {
		paths = append(paths, clip.Path)
	}

	manifestPath := filepath.Join(workDir, ManifestName)
	if err := WriteManifest(manifestPath, paths); err != nil {
		return "", services.Wrap(services.ErrConcatenation, "concatenate", "manifest", "Failed to write manifest", err)
	}

	output := filepath.Join(workDir, OutputName)
	args := []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-f", "concat",
		"-safe", "0",
		"-i", manifestPath,
		"-c:a", "libmp3lame",
		"-q:a", strconv.Itoa(s.quality),
		output,
	}
	if err := services.RunWithTimeout(ctx, s.run, s.timeout, s.ffmpegBinary, args...); err != nil {
		return "", services.Wrap(services.ErrConcatenation, "concatenate", "ffmpeg", "Concatenation failed", err)
	}
	info, err := os.Stat(output)
	if err != nil || info.Size() == 0 {
		if err == nil {
			err = fmt.Errorf("%s is empty", OutputName)
		}
		return "", services.Wrap(services.ErrConcatenation, "concatenate", "ffmpeg", "Concatenated track missing", err)
	}

	logging.WithContext(ctx, s.logger).Debug("clips concatenated",
		logging.Int("clips", len(clips)),
		logging.String("output", output),
	)
	return output, nil
}

// WriteManifest writes one "file '<abs path>'" line per path in order.
func WriteManifest(path string, clipPaths []string) error {
	var b strings.Builder
	for _, clip := range clipPaths {
		abs, err := filepath.Abs(clip)
		if err != nil {
			return fmt.Errorf("resolve clip path %q: %w", clip, err)
		}
		b.WriteString("file '")
		b.WriteString(quote(abs))
		b.WriteString("'\n")
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

// ReadManifest parses a manifest written by WriteManifest and returns the
// clip paths in order.
func ReadManifest(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var paths []string
	scanner := bufio.NewScanner(file)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rest, ok := strings.CutPrefix(line, "file ")
		if !ok || len(rest) < 2 || rest[0] != '\'' || rest[len(rest)-1] != '\'' {
			return nil, fmt.Errorf("manifest line %d: malformed entry %q", lineNo, line)
		}
		paths = append(paths, unquote(rest[1:len(rest)-1]))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return paths, nil
}

// The concat demuxer has no escape inside single quotes, so a quote closes
// the string, emits an escaped quote, and reopens it.
func quote(path string) string {
	return strings.ReplaceAll(path, `'`, `'\''`)
}

func unquote(path string) string {
	return strings.ReplaceAll(path, `'\''`, `'`)
}
