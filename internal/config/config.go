package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	InboxDir   string `toml:"inbox_dir"`
	StagingDir string `toml:"staging_dir"`
	OutputDir  string `toml:"output_dir"`
	LogDir     string `toml:"log_dir"`
	APIBind    string `toml:"api_bind"`
	APIToken   string `toml:"api_token"`
}

// Gemini contains connection and retry settings for the generative model API.
type Gemini struct {
	APIKeys          []string `toml:"api_keys"`
	Model            string   `toml:"model"`
	TimeoutSeconds   int      `toml:"timeout_seconds"`
	MaxAttempts      int      `toml:"max_attempts"`
	BaseDelaySeconds int      `toml:"base_delay_seconds"`
	MaxDelaySeconds  int      `toml:"max_delay_seconds"`
}

// Narration contains defaults for narration generation. Each value can be
// overridden per submitted run.
type Narration struct {
	Tone                string  `toml:"tone"`
	Audience            string  `toml:"audience"`
	Style               string  `toml:"style"`
	DynamicLength       bool    `toml:"dynamic_length"`
	MinWords            int     `toml:"min_words"`
	MaxWords            int     `toml:"max_words"`
	IncludeSpeakerNotes bool    `toml:"include_speaker_notes"`
	EnablePolishing     bool    `toml:"enable_polishing"`
	ContextWindow       int     `toml:"context_window"`
	FailureRatio        float64 `toml:"failure_ratio"`
	CustomInstructions  string  `toml:"custom_instructions"`
}

// Renderer contains settings for the external slide renderer tools.
type Renderer struct {
	SofficeBinary  string `toml:"soffice_binary"`
	PdftoppmBinary string `toml:"pdftoppm_binary"`
	RenderDPI      int    `toml:"render_dpi"`
	RenderWidth    int    `toml:"render_width"`
	ConvertTimeout int    `toml:"convert_timeout"`
}

// Outputs selects which narration script formats the finalizer writes.
type Outputs struct {
	Formats []string `toml:"formats"`
}

// Workflow contains daemon timing and concurrency settings.
type Workflow struct {
	QueuePollInterval  int `toml:"queue_poll_interval"`
	ErrorRetryInterval int `toml:"error_retry_interval"`
	HeartbeatInterval  int `toml:"heartbeat_interval"`
	HeartbeatTimeout   int `toml:"heartbeat_timeout"`
	Workers            int `toml:"workers"`
	ProgressTTLMinutes int `toml:"progress_ttl_minutes"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Notifications configures ntfy push notifications for run milestones.
// Notifications are disabled when no topic URL is set.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Config encapsulates all configuration values for slidecast.
//
// Configuration sections by subsystem:
//   - Paths: directories, API bind address, and API token
//   - Gemini: model API keys, model name, timeouts, retry policy
//   - Narration: default tone/audience/style and pipeline policy knobs
//   - Renderer: external conversion tool binaries and render settings
//   - Outputs: narration script formats written on finalization
//   - Workflow: daemon polling intervals, heartbeats, and worker count
//   - Logging: log format and level
//   - Notifications: optional ntfy push notifications
type Config struct {
	Paths         Paths         `toml:"paths"`
	Gemini        Gemini        `toml:"gemini"`
	Narration     Narration     `toml:"narration"`
	Renderer      Renderer      `toml:"renderer"`
	Outputs       Outputs       `toml:"outputs"`
	Workflow      Workflow      `toml:"workflow"`
	Logging       Logging       `toml:"logging"`
	Notifications Notifications `toml:"notifications"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/slidecast/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
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

	projectPath, err := filepath.Abs("slidecast.toml")
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

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StagingDir, c.Paths.OutputDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.InboxDir) != "" {
		// Best-effort so config load survives a missing watch directory.
		_ = os.MkdirAll(c.Paths.InboxDir, 0o755)
	}
	return nil
}

// SofficeBinary returns the LibreOffice executable used for pptx conversion.
func (c *Config) SofficeBinary() string {
	if bin := strings.TrimSpace(c.Renderer.SofficeBinary); bin != "" {
		return bin
	}
	return "soffice"
}

// PdftoppmBinary returns the poppler executable used for pdf rasterization.
func (c *Config) PdftoppmBinary() string {
	if bin := strings.TrimSpace(c.Renderer.PdftoppmBinary); bin != "" {
		return bin
	}
	return "pdftoppm"
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
