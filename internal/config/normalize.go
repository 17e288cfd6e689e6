package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeGemini()
	c.normalizeNarration()
	c.normalizeRenderer()
	c.normalizeOutputs()
	c.normalizeWorkflow()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.InboxDir, err = expandPath(c.Paths.InboxDir); err != nil {
		return fmt.Errorf("paths.inbox_dir: %w", err)
	}
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	return nil
}

func (c *Config) normalizeGemini() {
	keys := make([]string, 0, len(c.Gemini.APIKeys))
	for _, key := range c.Gemini.APIKeys {
		if trimmed := strings.TrimSpace(key); trimmed != "" {
			keys = append(keys, trimmed)
		}
	}
	c.Gemini.APIKeys = keys
	if len(c.Gemini.APIKeys) == 0 {
		if value, ok := os.LookupEnv("GEMINI_API_KEY"); ok && strings.TrimSpace(value) != "" {
			c.Gemini.APIKeys = []string{strings.TrimSpace(value)}
		}
	}
	c.Gemini.Model = strings.TrimSpace(c.Gemini.Model)
	if c.Gemini.Model == "" {
		c.Gemini.Model = defaultGeminiModel
	}
	if c.Gemini.TimeoutSeconds <= 0 {
		c.Gemini.TimeoutSeconds = defaultGeminiTimeout
	}
	if c.Gemini.MaxAttempts <= 0 {
		c.Gemini.MaxAttempts = defaultGeminiMaxAttempts
	}
	if c.Gemini.BaseDelaySeconds <= 0 {
		c.Gemini.BaseDelaySeconds = defaultGeminiBaseDelay
	}
	if c.Gemini.MaxDelaySeconds < c.Gemini.BaseDelaySeconds {
		c.Gemini.MaxDelaySeconds = defaultGeminiMaxDelay
	}
}

func (c *Config) normalizeNarration() {
	if c.Narration.Tone = strings.TrimSpace(c.Narration.Tone); c.Narration.Tone == "" {
		c.Narration.Tone = defaultTone
	}
	if c.Narration.Audience = strings.TrimSpace(c.Narration.Audience); c.Narration.Audience == "" {
		c.Narration.Audience = defaultAudience
	}
	if c.Narration.Style = strings.TrimSpace(c.Narration.Style); c.Narration.Style == "" {
		c.Narration.Style = defaultStyle
	}
	if c.Narration.MinWords <= 0 {
		c.Narration.MinWords = defaultMinWords
	}
	if c.Narration.MaxWords < c.Narration.MinWords {
		c.Narration.MaxWords = c.Narration.MinWords
	}
	if c.Narration.ContextWindow <= 0 {
		c.Narration.ContextWindow = defaultContextWindow
	}
	if c.Narration.FailureRatio <= 0 {
		c.Narration.FailureRatio = defaultFailureRatio
	}
	c.Narration.CustomInstructions = strings.TrimSpace(c.Narration.CustomInstructions)
}

func (c *Config) normalizeRenderer() {
	c.Renderer.SofficeBinary = strings.TrimSpace(c.Renderer.SofficeBinary)
	c.Renderer.PdftoppmBinary = strings.TrimSpace(c.Renderer.PdftoppmBinary)
	if c.Renderer.RenderDPI <= 0 {
		c.Renderer.RenderDPI = defaultRenderDPI
	}
	if c.Renderer.RenderWidth <= 0 {
		c.Renderer.RenderWidth = defaultRenderWidth
	}
	if c.Renderer.ConvertTimeout <= 0 {
		c.Renderer.ConvertTimeout = defaultConvertTimeout
	}
}

func (c *Config) normalizeOutputs() {
	formats := make([]string, 0, len(c.Outputs.Formats))
	seen := make(map[string]bool, len(c.Outputs.Formats))
	for _, format := range c.Outputs.Formats {
		normalized := strings.ToLower(strings.TrimSpace(format))
		if normalized == "" || seen[normalized] {
			continue
		}
		seen[normalized] = true
		formats = append(formats, normalized)
	}
	if len(formats) == 0 {
		formats = Default().Outputs.Formats
	}
	c.Outputs.Formats = formats
}

func (c *Config) normalizeWorkflow() {
	defaults := Default().Workflow
	if c.Workflow.QueuePollInterval <= 0 {
		c.Workflow.QueuePollInterval = defaults.QueuePollInterval
	}
	if c.Workflow.ErrorRetryInterval <= 0 {
		c.Workflow.ErrorRetryInterval = defaults.ErrorRetryInterval
	}
	if c.Workflow.HeartbeatInterval <= 0 {
		c.Workflow.HeartbeatInterval = defaults.HeartbeatInterval
	}
	if c.Workflow.HeartbeatTimeout <= 0 {
		c.Workflow.HeartbeatTimeout = defaults.HeartbeatTimeout
	}
	if c.Workflow.Workers <= 0 {
		c.Workflow.Workers = defaults.Workers
	}
	if c.Workflow.ProgressTTLMinutes <= 0 {
		c.Workflow.ProgressTTLMinutes = defaults.ProgressTTLMinutes
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
