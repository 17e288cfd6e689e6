package config

const (
	defaultInboxDir   = "~/.local/share/slidecast/inbox"
	defaultStagingDir = "~/.local/share/slidecast/staging"
	defaultOutputDir  = "~/.local/share/slidecast/output"
	defaultLogDir     = "~/.local/share/slidecast/logs"
	defaultAPIBind    = "127.0.0.1:7519"

	defaultGeminiModel       = "gemini-2.5-flash"
	defaultGeminiTimeout     = 120
	defaultGeminiMaxAttempts = 3
	defaultGeminiBaseDelay   = 1
	defaultGeminiMaxDelay    = 30

	defaultTone          = "professional"
	defaultAudience      = "general"
	defaultStyle         = "Human-like"
	defaultMinWords      = 100
	defaultMaxWords      = 150
	defaultContextWindow = 5
	defaultFailureRatio  = 0.5

	defaultRenderDPI      = 150
	defaultRenderWidth    = 1280
	defaultConvertTimeout = 300

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			InboxDir:   defaultInboxDir,
			StagingDir: defaultStagingDir,
			OutputDir:  defaultOutputDir,
			LogDir:     defaultLogDir,
			APIBind:    defaultAPIBind,
		},
		Gemini: Gemini{
			Model:            defaultGeminiModel,
			TimeoutSeconds:   defaultGeminiTimeout,
			MaxAttempts:      defaultGeminiMaxAttempts,
			BaseDelaySeconds: defaultGeminiBaseDelay,
			MaxDelaySeconds:  defaultGeminiMaxDelay,
		},
		Narration: Narration{
			Tone:                defaultTone,
			Audience:            defaultAudience,
			Style:               defaultStyle,
			DynamicLength:       true,
			MinWords:            defaultMinWords,
			MaxWords:            defaultMaxWords,
			IncludeSpeakerNotes: true,
			EnablePolishing:     true,
			ContextWindow:       defaultContextWindow,
			FailureRatio:        defaultFailureRatio,
		},
		Renderer: Renderer{
			RenderDPI:      defaultRenderDPI,
			RenderWidth:    defaultRenderWidth,
			ConvertTimeout: defaultConvertTimeout,
		},
		Outputs: Outputs{
			Formats: []string{"txt", "json", "docx"},
		},
		Workflow: Workflow{
			QueuePollInterval:  5,
			ErrorRetryInterval: 10,
			HeartbeatInterval:  15,
			HeartbeatTimeout:   300,
			Workers:            2,
			ProgressTTLMinutes: 60,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Notifications: Notifications{
			RequestTimeout: 10,
		},
	}
}
