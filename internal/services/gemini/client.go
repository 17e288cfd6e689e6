package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"google.golang.org/genai"

	"slidecast/internal/logging"
	"slidecast/internal/services"
)

const defaultTimeout = 120 * time.Second

// Config captures the runtime settings required to talk to the Gemini API.
type Config struct {
	APIKeys        []string
	Model          string
	TimeoutSeconds int
}

// Request describes a single generation call. Prompt is required; ImagePNG,
// when set, is attached inline so the model can describe the rendered slide.
type Request struct {
	Prompt   string
	ImagePNG []byte
}

// Client wraps the Gemini generate-content API with per-call timeouts, key
// rotation on quota exhaustion, and transient/permanent error tagging.
type Client struct {
	cfg      Config
	logger   *slog.Logger
	generate generateFunc

	mu         sync.Mutex
	currentKey int
}

type generateFunc func(ctx context.Context, apiKey, model string, contents []*genai.Content) (*genai.GenerateContentResponse, error)

// Option customizes the client.
type Option func(*Client)

// WithLogger attaches a logger for key-rotation diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logging.NewComponentLogger(logger, "gemini")
		}
	}
}

// WithGenerateFunc overrides the underlying API call (useful for tests).
func WithGenerateFunc(generate generateFunc) Option {
	return func(c *Client) {
		if generate != nil {
			c.generate = generate
		}
	}
}

// New constructs a Gemini client using the supplied configuration.
func New(cfg Config, opts ...Option) (*Client, error) {
	keys := make([]string, 0, len(cfg.APIKeys))
	for _, key := range cfg.APIKeys {
		if trimmed := strings.TrimSpace(key); trimmed != "" {
			keys = append(keys, trimmed)
		}
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: gemini client requires at least one API key", services.ErrConfiguration)
	}

	client := &Client{
		cfg: Config{
			APIKeys:        keys,
			Model:          strings.TrimSpace(cfg.Model),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		logger:   logging.NewNop(),
		generate: generateContent,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// GenerateText issues one model call and returns the concatenated text parts
// of the first candidate. Errors are tagged for the retry classifier: quota
// and timeout conditions come back retryable, everything else permanent.
func (c *Client) GenerateText(ctx context.Context, req Request) (string, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return "", fmt.Errorf("%w: empty prompt", services.ErrValidation)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout())
	defer cancel()

	contents := buildContents(req)

	attempts := len(c.cfg.APIKeys)
	var lastErr error
	for i := 0; i < attempts; i++ {
		keyIndex, key := c.pickKey()

		result, err := c.generate(callCtx, key, c.cfg.Model, contents)
		if err != nil {
			if isQuotaError(err) {
				c.logger.Warn("api key rate limited, rotating",
					logging.Int("key_index", keyIndex),
					logging.Int("key_count", attempts))
				c.rotateKey()
				lastErr = err
				continue
			}
			return "", classify(err)
		}

		text := extractText(result)
		if text == "" {
			return "", fmt.Errorf("%w: empty response content", services.ErrTransient)
		}
		return text, nil
	}

	return "", fmt.Errorf("%w: all %d api keys exhausted: %v", services.ErrTransient, attempts, lastErr)
}

func (c *Client) timeout() time.Duration {
	if c.cfg.TimeoutSeconds > 0 {
		return time.Duration(c.cfg.TimeoutSeconds) * time.Second
	}
	return defaultTimeout
}

func (c *Client) pickKey() (int, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentKey, c.cfg.APIKeys[c.currentKey]
}

func (c *Client) rotateKey() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.currentKey = (c.currentKey + 1) % len(c.cfg.APIKeys)
}

func buildContents(req Request) []*genai.Content {
	if len(req.ImagePNG) == 0 {
		return genai.Text(req.Prompt)
	}
	parts := []*genai.Part{
		{Text: req.Prompt},
		{InlineData: &genai.Blob{MIMEType: "image/png", Data: req.ImagePNG}},
	}
	return []*genai.Content{{Role: genai.RoleUser, Parts: parts}}
}

func generateContent(ctx context.Context, apiKey, model string, contents []*genai.Content) (*genai.GenerateContentResponse, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	return client.Models.GenerateContent(ctx, model, contents, nil)
}

func extractText(result *genai.GenerateContentResponse) string {
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return ""
	}
	var builder strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			builder.WriteString(part.Text)
		}
	}
	return strings.TrimSpace(builder.String())
}

func isQuotaError(err error) bool {
	if err == nil {
		return false
	}
	message := err.Error()
	return strings.Contains(message, "429") ||
		strings.Contains(message, "quota") ||
		strings.Contains(message, "RESOURCE_EXHAUSTED")
}

func isServerError(err error) bool {
	if err == nil {
		return false
	}
	message := err.Error()
	return strings.Contains(message, "500") ||
		strings.Contains(message, "503") ||
		strings.Contains(message, "UNAVAILABLE") ||
		strings.Contains(message, "INTERNAL")
}

func classify(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: model call timed out: %v", services.ErrTimeout, err)
	case errors.Is(err, context.Canceled):
		return err
	case isServerError(err):
		return fmt.Errorf("%w: %v", services.ErrTransient, err)
	default:
		return fmt.Errorf("%w: %v", services.ErrPermanent, err)
	}
}
