package config

import (
	"errors"
	"fmt"
)

var validFormats = map[string]bool{
	"txt":  true,
	"json": true,
	"docx": true,
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateGemini(); err != nil {
		return err
	}
	if err := c.validateNarration(); err != nil {
		return err
	}
	if err := c.validateOutputs(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateGemini() error {
	if len(c.Gemini.APIKeys) == 0 {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/slidecast/config.toml"
		}
		return fmt.Errorf("gemini.api_keys is required. Set GEMINI_API_KEY env var or edit %s (create with 'slidecast config init')", defaultPath)
	}
	return nil
}

func (c *Config) validateNarration() error {
	if c.Narration.MaxWords < c.Narration.MinWords {
		return errors.New("narration.max_words must be at least narration.min_words")
	}
	if c.Narration.FailureRatio <= 0 || c.Narration.FailureRatio > 1 {
		return errors.New("narration.failure_ratio must be greater than 0 and at most 1")
	}
	if c.Narration.ContextWindow <= 0 {
		return errors.New("narration.context_window must be positive")
	}
	return nil
}

func (c *Config) validateOutputs() error {
	for _, format := range c.Outputs.Formats {
		if !validFormats[format] {
			return fmt.Errorf("outputs.formats contains unsupported format %q (valid: txt, json, docx)", format)
		}
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if err := ensurePositiveMap(map[string]int{
		"gemini.timeout_seconds":        c.Gemini.TimeoutSeconds,
		"renderer.convert_timeout":      c.Renderer.ConvertTimeout,
		"workflow.queue_poll_interval":  c.Workflow.QueuePollInterval,
		"workflow.error_retry_interval": c.Workflow.ErrorRetryInterval,
	}); err != nil {
		return err
	}
	if c.Workflow.HeartbeatInterval <= 0 {
		return errors.New("workflow.heartbeat_interval must be positive")
	}
	if c.Workflow.HeartbeatTimeout <= 0 {
		return errors.New("workflow.heartbeat_timeout must be positive")
	}
	if c.Workflow.HeartbeatTimeout <= c.Workflow.HeartbeatInterval {
		return errors.New("workflow.heartbeat_timeout must be greater than workflow.heartbeat_interval")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
