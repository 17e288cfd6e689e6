package narration

import (
	"strings"

	"slidecast/internal/config"
	"slidecast/internal/queue"
)

// Settings holds the fully resolved narration parameters for one run:
// configured defaults overlaid with the run's submitted options.
type Settings struct {
	Tone                string
	Audience            string
	Style               string
	DynamicLength       bool
	MinWords            int
	MaxWords            int
	IncludeSpeakerNotes bool
	EnablePolishing     bool
	ContextWindow       int
	CustomInstructions  string
}

// ResolveSettings overlays per-run options on the configured defaults.
func ResolveSettings(defaults config.Narration, opts queue.Options) Settings {
	settings := Settings{
		Tone:                defaults.Tone,
		Audience:            defaults.Audience,
		Style:               defaults.Style,
		DynamicLength:       defaults.DynamicLength,
		MinWords:            defaults.MinWords,
		MaxWords:            defaults.MaxWords,
		IncludeSpeakerNotes: defaults.IncludeSpeakerNotes,
		EnablePolishing:     defaults.EnablePolishing,
		ContextWindow:       defaults.ContextWindow,
		CustomInstructions:  defaults.CustomInstructions,
	}
	if tone := strings.TrimSpace(opts.Tone); tone != "" {
		settings.Tone = tone
	}
	if audience := strings.TrimSpace(opts.Audience); audience != "" {
		settings.Audience = audience
	}
	if style := strings.TrimSpace(opts.Style); style != "" {
		settings.Style = style
	}
	if custom := strings.TrimSpace(opts.CustomInstructions); custom != "" {
		settings.CustomInstructions = custom
	}
	if opts.MinWords > 0 {
		settings.MinWords = opts.MinWords
	}
	if opts.MaxWords > 0 {
		settings.MaxWords = opts.MaxWords
	}
	if settings.MaxWords < settings.MinWords {
		settings.MaxWords = settings.MinWords
	}
	if opts.DynamicLength != nil {
		settings.DynamicLength = *opts.DynamicLength
	}
	if opts.IncludeSpeakerNotes != nil {
		settings.IncludeSpeakerNotes = *opts.IncludeSpeakerNotes
	}
	if opts.EnablePolishing != nil {
		settings.EnablePolishing = *opts.EnablePolishing
	}
	if settings.ContextWindow <= 0 {
		settings.ContextWindow = 5
	}
	return settings
}
