package config

const (
	defaultLogDir              = "~/.local/share/accentscope/logs"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultFetchTimeoutSeconds = 30
	defaultUserAgent           = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	defaultUVXCommand          = "uvx"
	defaultFFmpegCommand       = "ffmpeg"
	defaultLanguageModel       = "speechbrain/lang-id-voxlingua107-ecapa"
	defaultAccentModel         = "Jzuluaga/accent-id-commonaccent_ecapa"
	defaultWhisperModel        = "openai/whisper-base"
	defaultOpenAIModel         = "whisper-1"
	defaultServerBind          = "127.0.0.1:8501"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir:       defaultWorkDir(),
			ModelCacheDir: defaultModelCacheDir(),
			LogDir:        defaultLogDir,
		},
		Fetch: Fetch{
			TimeoutSeconds: defaultFetchTimeoutSeconds,
			UserAgent:      defaultUserAgent,
		},
		Models: Models{
			Mode:          ModeML,
			UVXCommand:    defaultUVXCommand,
			FFmpegCommand: defaultFFmpegCommand,
			LanguageModel: defaultLanguageModel,
			AccentModel:   defaultAccentModel,
			WhisperModel:  defaultWhisperModel,
			Transcriber:   TranscriberLocal,
			OpenAIModel:   defaultOpenAIModel,
		},
		Accent: Accent{
			Fallback: AccentFallbackUnavailable,
		},
		Server: Server{
			Bind: defaultServerBind,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
