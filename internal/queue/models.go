package queue

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Status represents the lifecycle of a pipeline run.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusConverting Status = "converting"
	StatusAnalyzing  Status = "analyzing"
	StatusGenerating Status = "generating"
	StatusPolishing  Status = "polishing"
	StatusFinalizing Status = "finalizing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// DaemonStopReason is the error message set when runs are failed due to daemon shutdown.
const DaemonStopReason = "Daemon stopped"

var allStatuses = []Status{
	StatusQueued,
	StatusConverting,
	StatusAnalyzing,
	StatusGenerating,
	StatusPolishing,
	StatusFinalizing,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

var processingStatuses = map[Status]struct{}{
	StatusConverting: {},
	StatusAnalyzing:  {},
	StatusGenerating: {},
	StatusPolishing:  {},
	StatusFinalizing: {},
}

// SlideStatus tracks per-slide processing outcome.
type SlideStatus string

const (
	SlidePending SlideStatus = "pending"
	SlideSuccess SlideStatus = "success"
	SlideFailed  SlideStatus = "failed"
)

// SlideRecord is the per-slide unit of work and result. The 1-based ordinal
// is the only stable identity; every downstream list must stay index-aligned
// to it.
type SlideRecord struct {
	Ordinal          int         `json:"ordinal"`
	OriginalText     string      `json:"original_text"`
	RewrittenContent string      `json:"rewritten_content"`
	SpeakerNotes     string      `json:"speaker_notes"`
	Narration        string      `json:"narration"`
	Status           SlideStatus `json:"status"`
	ImagePath        string      `json:"image_path,omitempty"`
}

// Options carries per-run narration overrides captured at submission time.
type Options struct {
	Tone               string `json:"tone,omitempty"`
	Audience           string `json:"audience,omitempty"`
	Style              string `json:"style,omitempty"`
	CustomInstructions string `json:"custom_instructions,omitempty"`
	MinWords           int    `json:"min_words,omitempty"`
	MaxWords           int    `json:"max_words,omitempty"`
	// Tri-state toggles: nil means "use the configured default".
	DynamicLength       *bool `json:"dynamic_length,omitempty"`
	IncludeSpeakerNotes *bool `json:"include_speaker_notes,omitempty"`
	EnablePolishing     *bool `json:"enable_polishing,omitempty"`
}

// Run represents a pipeline run persisted in SQLite.
type Run struct {
	ID              string
	SourcePath      string
	DeckTitle       string
	Status          Status
	SlidesJSON      string
	TotalSlides     int
	OptionsJSON     string
	ErrorMessage    string
	OutputDir       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ProgressStage   string
	ProgressPercent float64
	ProgressMessage string
	LastHeartbeat   *time.Time
}

// HealthSummary describes aggregated run counts per key lifecycle states.
type HealthSummary struct {
	Total      int
	Queued     int
	Processing int
	Failed     int
	Completed  int
}

// DatabaseHealth captures diagnostic information about the run database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	TableExists      bool
	MissingColumns   []string
	IntegrityCheck   bool
	TotalRuns        int
	Error            string
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsProcessing returns true when the status reflects an in-flight stage.
func (r Run) IsProcessing() bool {
	return IsProcessingStatus(r.Status)
}

// IsProcessingStatus reports whether a status reflects an in-flight stage.
func IsProcessingStatus(status Status) bool {
	_, ok := processingStatuses[status]
	return ok
}

// IsTerminal reports whether the run has reached a terminal state.
func (r Run) IsTerminal() bool {
	return r.Status == StatusCompleted || r.Status == StatusFailed
}

// Slides decodes the persisted slide records. A run with no slide data yet
// returns an empty list.
func (r *Run) Slides() ([]SlideRecord, error) {
	if strings.TrimSpace(r.SlidesJSON) == "" {
		return nil, nil
	}
	var slides []SlideRecord
	if err := json.Unmarshal([]byte(r.SlidesJSON), &slides); err != nil {
		return nil, fmt.Errorf("decode slides: %w", err)
	}
	return slides, nil
}

// SetSlides encodes the slide records onto the run and keeps TotalSlides in
// sync with the list length.
func (r *Run) SetSlides(slides []SlideRecord) error {
	encoded, err := json.Marshal(slides)
	if err != nil {
		return fmt.Errorf("encode slides: %w", err)
	}
	r.SlidesJSON = string(encoded)
	r.TotalSlides = len(slides)
	return nil
}

// NarrationOptions decodes the per-run overrides, returning the zero value
// when none were supplied.
func (r *Run) NarrationOptions() (Options, error) {
	if strings.TrimSpace(r.OptionsJSON) == "" {
		return Options{}, nil
	}
	var opts Options
	if err := json.Unmarshal([]byte(r.OptionsJSON), &opts); err != nil {
		return Options{}, fmt.Errorf("decode options: %w", err)
	}
	return opts, nil
}

// SetProgress updates all three progress fields together.
func (r *Run) SetProgress(stage, message string, percent float64) {
	r.ProgressStage = stage
	r.ProgressMessage = message
	r.ProgressPercent = percent
}

// SetFailed marks the run as failed with the given error message.
func (r *Run) SetFailed(message string) {
	r.Status = StatusFailed
	r.ErrorMessage = message
	r.ProgressStage = "Failed"
	r.ProgressMessage = message
	r.LastHeartbeat = nil
}

// SuccessCount returns how many slides processed successfully.
func SuccessCount(slides []SlideRecord) int {
	count := 0
	for _, slide := range slides {
		if slide.Status == SlideSuccess {
			count++
		}
	}
	return count
}

// FailedOrdinals returns the ordinals of slides that failed processing.
func FailedOrdinals(slides []SlideRecord) []int {
	var failed []int
	for _, slide := range slides {
		if slide.Status == SlideFailed {
			failed = append(failed, slide.Ordinal)
		}
	}
	return failed
}
