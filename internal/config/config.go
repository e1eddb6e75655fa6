package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	OutputDir string `toml:"output_dir" env:"MEDITATE_OUTPUT_DIR"`
	TempDir   string `toml:"temp_dir" env:"MEDITATE_TEMP_DIR"`
	StateDir  string `toml:"state_dir" env:"MEDITATE_STATE_DIR"`
}

// Catalog points at an alternate catalog document. Empty means the embedded
// catalog is used.
type Catalog struct {
	Path string `toml:"path" env:"MEDITATE_CATALOG_PATH"`
}

// TTS contains the speech-synthesis settings shared by every segment of a run.
type TTS struct {
	Command        string  `toml:"command" env:"MEDITATE_TTS_COMMAND"`
	Voice          string  `toml:"voice" env:"MEDITATE_TTS_VOICE"`
	Rate           string  `toml:"rate" env:"MEDITATE_TTS_RATE"`
	Pitch          string  `toml:"pitch" env:"MEDITATE_TTS_PITCH"`
	SecondsPerChar float64 `toml:"seconds_per_char" env:"MEDITATE_TTS_SECONDS_PER_CHAR"`
	TimeoutSeconds int     `toml:"timeout_seconds" env:"MEDITATE_TTS_TIMEOUT_SECONDS"`
}

// FFmpeg contains binary locations and the per-call timeout for silence
// generation, concatenation, fades, and probing.
type FFmpeg struct {
	FFmpegBinary   string `toml:"ffmpeg_binary" env:"MEDITATE_FFMPEG_BINARY"`
	FFprobeBinary  string `toml:"ffprobe_binary" env:"MEDITATE_FFPROBE_BINARY"`
	TimeoutSeconds int    `toml:"timeout_seconds" env:"MEDITATE_FFMPEG_TIMEOUT_SECONDS"`
}

// Audio contains encoding parameters for rendered clips and final tracks.
type Audio struct {
	Format        string `toml:"format" env:"MEDITATE_AUDIO_FORMAT"`
	SampleRate    int    `toml:"sample_rate" env:"MEDITATE_AUDIO_SAMPLE_RATE"`
	ChannelLayout string `toml:"channel_layout" env:"MEDITATE_AUDIO_CHANNEL_LAYOUT"`
	Quality       int    `toml:"quality" env:"MEDITATE_AUDIO_QUALITY"`
}

// Fade contains the envelope applied to every finished track.
type Fade struct {
	InSeconds  float64 `toml:"in_seconds" env:"MEDITATE_FADE_IN_SECONDS"`
	OutSeconds float64 `toml:"out_seconds" env:"MEDITATE_FADE_OUT_SECONDS"`
	// ProbeDuration measures the concatenated track with ffprobe before placing
	// the fade-out instead of trusting the text-length estimate.
	ProbeDuration bool `toml:"probe_duration" env:"MEDITATE_FADE_PROBE_DURATION"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format" env:"MEDITATE_LOG_FORMAT"`
	Level  string `toml:"level" env:"MEDITATE_LOG_LEVEL"`
}

// Config encapsulates all configuration values for meditate.
//
// Configuration sections by subsystem:
//   - Paths: output, scratch, and state directories
//   - Catalog: optional catalog document override
//   - TTS: edge-tts voice, rate, pitch, and duration heuristic
//   - FFmpeg: binaries and per-call timeout
//   - Audio: sample rate, channel layout, output format and quality
//   - Fade: fade-in/fade-out windows
//   - Logging: log format and level
type Config struct {
	Paths   Paths   `toml:"paths"`
	Catalog Catalog `toml:"catalog"`
	TTS     TTS     `toml:"tts"`
	FFmpeg  FFmpeg  `toml:"ffmpeg"`
	Audio   Audio   `toml:"audio"`
	Fade    Fade    `toml:"fade"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/meditate/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, "", false, fmt.Errorf("parse environment overrides: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("meditate.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the output and state directories. The temp root
// is created lazily per run so an idle install leaves nothing behind.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.StateDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FFmpegTimeout returns the per-call deadline for ffmpeg and ffprobe.
func (c *Config) FFmpegTimeout() time.Duration {
	return time.Duration(c.FFmpeg.TimeoutSeconds) * time.Second
}

// TTSTimeout returns the per-call deadline for speech synthesis.
func (c *Config) TTSTimeout() time.Duration {
	return time.Duration(c.TTS.TimeoutSeconds) * time.Second
}

// AudioCodec returns the ffmpeg encoder used for the configured output format.
func (c *Config) AudioCodec() string {
	return audioCodecs[c.Audio.Format]
}

// AudioQuality returns the -q:a value for the output codec. audio.quality is
// on the LAME scale (0 best, 9 smallest); libvorbis runs the other way, so
// the value is mirrored for ogg output.
func (c *Config) AudioQuality() int {
	if c.AudioCodec() == "libvorbis" {
		return maxAudioQuality - c.Audio.Quality
	}
	return c.Audio.Quality
}

// LogPath returns the location of the persistent log file.
func (c *Config) LogPath() string {
	return filepath.Join(c.Paths.StateDir, "meditate.log")
}

// HistoryPath returns the location of the render history database.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Paths.StateDir, "history.db")
}

// LockPath returns the location of the single-instance render lock.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "meditate.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
