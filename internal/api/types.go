package api

import (
	"time"

	"slidecast/internal/queue"
)

// RunView is the external representation of one pipeline run.
type RunView struct {
	ID              string    `json:"id"`
	SourcePath      string    `json:"source_path"`
	DeckTitle       string    `json:"deck_title"`
	Status          string    `json:"status"`
	TotalSlides     int       `json:"total_slides"`
	ProgressStage   string    `json:"progress_stage,omitempty"`
	ProgressPercent float64   `json:"progress_percent"`
	ProgressMessage string    `json:"progress_message,omitempty"`
	ErrorMessage    string    `json:"error_message,omitempty"`
	OutputDir       string    `json:"output_dir,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// SlideView is the external representation of one processed slide.
type SlideView struct {
	Ordinal      int    `json:"ordinal"`
	Status       string `json:"status"`
	Narration    string `json:"narration,omitempty"`
	SpeakerNotes string `json:"speaker_notes,omitempty"`
}

// RunDetail extends RunView with per-slide results.
type RunDetail struct {
	RunView
	Slides []SlideView `json:"slides,omitempty"`
}

// ProgressView is the polling snapshot for one run.
type ProgressView struct {
	RunID     string    `json:"run_id"`
	Status    string    `json:"status"`
	Percent   int       `json:"percentage"`
	Detail    string    `json:"detail,omitempty"`
	UpdatedAt time.Time `json:"timestamp"`
}

// SubmitRequest carries a new run submission.
type SubmitRequest struct {
	SourcePath string        `json:"source_path"`
	DeckTitle  string        `json:"deck_title,omitempty"`
	Options    queue.Options `json:"options,omitempty"`
}

func runView(run *queue.Run) RunView {
	return RunView{
		ID:              run.ID,
		SourcePath:      run.SourcePath,
		DeckTitle:       run.DeckTitle,
		Status:          string(run.Status),
		TotalSlides:     run.TotalSlides,
		ProgressStage:   run.ProgressStage,
		ProgressPercent: run.ProgressPercent,
		ProgressMessage: run.ProgressMessage,
		ErrorMessage:    run.ErrorMessage,
		OutputDir:       run.OutputDir,
		CreatedAt:       run.CreatedAt,
		UpdatedAt:       run.UpdatedAt,
	}
}

func runDetail(run *queue.Run) (RunDetail, error) {
	detail := RunDetail{RunView: runView(run)}
	slides, err := run.Slides()
	if err != nil {
		return detail, err
	}
	for _, slide := range slides {
		detail.Slides = append(detail.Slides, SlideView{
			Ordinal:      slide.Ordinal,
			Status:       string(slide.Status),
			Narration:    slide.Narration,
			SpeakerNotes: slide.SpeakerNotes,
		})
	}
	return detail, nil
}
