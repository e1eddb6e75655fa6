package config

const (
	defaultOutputDir         = "public/meditations"
	defaultTempDir           = "temp_meditation"
	defaultStateDir          = "~/.local/share/meditate"
	defaultTTSCommand        = "edge-tts"
	defaultTTSVoice          = "zh-TW-HsiaoChenNeural"
	defaultTTSRate           = "-15%"
	defaultTTSPitch          = "-5Hz"
	defaultSecondsPerChar    = 0.3
	defaultTTSTimeoutSeconds = 60
	defaultFFmpegBinary      = "ffmpeg"
	defaultFFprobeBinary     = "ffprobe"
	defaultFFmpegTimeout     = 120
	defaultAudioFormat       = "mp3"
	defaultSampleRate        = 24000
	defaultChannelLayout     = "mono"
	defaultAudioQuality      = 2
	defaultFadeInSeconds     = 3
	defaultFadeOutSeconds    = 8
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	maxAudioQuality          = 9
	maxTimeoutSeconds        = 3600
	maxSecondsPerChar        = 5
)

var audioCodecs = map[string]string{
	"mp3": "libmp3lame",
	"ogg": "libvorbis",
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			TempDir:   defaultTempDir,
			StateDir:  defaultStateDir,
		},
		TTS: TTS{
			Command:        defaultTTSCommand,
			Voice:          defaultTTSVoice,
			Rate:           defaultTTSRate,
			Pitch:          defaultTTSPitch,
			SecondsPerChar: defaultSecondsPerChar,
			TimeoutSeconds: defaultTTSTimeoutSeconds,
		},
		FFmpeg: FFmpeg{
			FFmpegBinary:   defaultFFmpegBinary,
			FFprobeBinary:  defaultFFprobeBinary,
			TimeoutSeconds: defaultFFmpegTimeout,
		},
		Audio: Audio{
			Format:        defaultAudioFormat,
			SampleRate:    defaultSampleRate,
			ChannelLayout: defaultChannelLayout,
			Quality:       defaultAudioQuality,
		},
		Fade: Fade{
			InSeconds:     defaultFadeInSeconds,
			OutSeconds:    defaultFadeOutSeconds,
			ProbeDuration: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
