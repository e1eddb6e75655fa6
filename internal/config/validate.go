package config

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var (
	ratePattern  = regexp.MustCompile(`^[+-]\d{1,3}%$`)
	pitchPattern = regexp.MustCompile(`^[+-]\d{1,3}Hz$`)
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateTTS(); err != nil {
		return err
	}
	if err := c.validateFFmpeg(); err != nil {
		return err
	}
	if err := c.validateAudio(); err != nil {
		return err
	}
	if err := c.validateFade(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.OutputDir == "" {
		return errors.New("paths.output_dir must be set")
	}
	if c.Paths.TempDir == "" {
		return errors.New("paths.temp_dir must be set")
	}
	if c.Paths.TempDir == c.Paths.OutputDir {
		return errors.New("paths.temp_dir must differ from paths.output_dir")
	}
	return nil
}

func (c *Config) validateTTS() error {
	if strings.TrimSpace(c.TTS.Command) == "" {
		return errors.New("tts.command must be set")
	}
	if strings.TrimSpace(c.TTS.Voice) == "" {
		return errors.New("tts.voice must be set")
	}
	if !ratePattern.MatchString(c.TTS.Rate) {
		return fmt.Errorf("tts.rate %q must be a signed percentage such as -15%%", c.TTS.Rate)
	}
	if !pitchPattern.MatchString(c.TTS.Pitch) {
		return fmt.Errorf("tts.pitch %q must be a signed frequency offset such as -5Hz", c.TTS.Pitch)
	}
	if c.TTS.SecondsPerChar <= 0 || c.TTS.SecondsPerChar > maxSecondsPerChar {
		return fmt.Errorf("tts.seconds_per_char must be between 0 and %d", maxSecondsPerChar)
	}
	return ensurePositiveMap(map[string]int{
		"tts.timeout_seconds": c.TTS.TimeoutSeconds,
	})
}

func (c *Config) validateFFmpeg() error {
	return ensurePositiveMap(map[string]int{
		"ffmpeg.timeout_seconds": c.FFmpeg.TimeoutSeconds,
	})
}

func (c *Config) validateAudio() error {
	if _, ok := audioCodecs[c.Audio.Format]; !ok {
		return fmt.Errorf("audio.format %q is not supported (use mp3 or ogg)", c.Audio.Format)
	}
	if c.Audio.SampleRate <= 0 {
		return errors.New("audio.sample_rate must be positive")
	}
	switch c.Audio.ChannelLayout {
	case "mono", "stereo":
	default:
		return fmt.Errorf("audio.channel_layout %q must be mono or stereo", c.Audio.ChannelLayout)
	}
	if c.Audio.Quality < 0 || c.Audio.Quality > maxAudioQuality {
		return fmt.Errorf("audio.quality must be between 0 and %d", maxAudioQuality)
	}
	return nil
}

func (c *Config) validateFade() error {
	if c.Fade.InSeconds <= 0 {
		return errors.New("fade.in_seconds must be positive")
	}
	if c.Fade.OutSeconds <= 0 {
		return errors.New("fade.out_seconds must be positive")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		value := values[key]
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
		if value > maxTimeoutSeconds {
			return fmt.Errorf("%s must not exceed %d seconds", key, maxTimeoutSeconds)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format %q must be console or json", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level %q must be debug, info, warn, or error", c.Logging.Level)
	}
	return nil
}
