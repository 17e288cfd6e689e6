package narration

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"slidecast/internal/llmjson"
	"slidecast/internal/logging"
	"slidecast/internal/retry"
	"slidecast/internal/services/gemini"
)

// Refiner smooths phrasing and cross-slide transitions in a single batched
// model call. Refinement is best-effort: any failure degrades to the input
// narrations unchanged.
type Refiner struct {
	generator TextGenerator
	policy    *retry.Policy
	logger    *slog.Logger
}

// RefinerOption configures the refiner.
type RefinerOption func(*Refiner)

// WithRefinerLogger attaches a logger for refinement diagnostics.
func WithRefinerLogger(logger *slog.Logger) RefinerOption {
	return func(r *Refiner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRefiner constructs a narration refiner.
func NewRefiner(generator TextGenerator, policy *retry.Policy, opts ...RefinerOption) *Refiner {
	r := &Refiner{
		generator: generator,
		policy:    policy,
		logger:    logging.NewNop(),
	}
	if r.policy == nil {
		r.policy = retry.New()
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type refineInput struct {
	SlideNumber      int    `json:"slide_number"`
	CurrentNarration string `json:"current_narration"`
}

type refinedEntry struct {
	SlideNumber      int    `json:"slide_number"`
	RefinedNarration string `json:"refined_narration"`
}

// Refine rewrites the narrations for flow and returns them index-aligned with
// the input. Slides the model skipped keep their original narration; a failed
// call returns the input unchanged.
func (r *Refiner) Refine(ctx context.Context, narrations []string, ordinals []int, settings Settings) []string {
	if len(narrations) == 0 || len(narrations) != len(ordinals) {
		return narrations
	}

	input := make([]refineInput, 0, len(narrations))
	for i, narration := range narrations {
		input = append(input, refineInput{SlideNumber: ordinals[i], CurrentNarration: narration})
	}
	payload, err := json.MarshalIndent(input, "", "  ")
	if err != nil {
		r.logger.Warn("failed to encode refinement input; keeping original narrations", logging.Error(err))
		return narrations
	}

	req := gemini.Request{
		Prompt: fmt.Sprintf(refinementPrompt, settings.Tone, settings.Style, string(payload)),
	}

	var entries []refinedEntry
	err = r.policy.Do(ctx, "refine narration flow", func(ctx context.Context) error {
		raw, err := r.generator.GenerateText(ctx, req)
		if err != nil {
			return err
		}
		entries = nil
		return llmjson.Decode(raw, &entries)
	})
	if err != nil {
		r.logger.Warn("narration refinement failed; keeping original narrations", logging.Error(err))
		return narrations
	}

	refined := make(map[int]string, len(entries))
	for _, entry := range entries {
		refined[entry.SlideNumber] = entry.RefinedNarration
	}

	out := make([]string, len(narrations))
	for i, narration := range narrations {
		if text, ok := refined[ordinals[i]]; ok {
			out[i] = unescapeBreaks(text)
			continue
		}
		r.logger.Warn("refined narration missing for slide; keeping original",
			logging.Int("slide", ordinals[i]))
		out[i] = narration
	}
	return out
}
