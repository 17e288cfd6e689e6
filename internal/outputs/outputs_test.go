package outputs

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"slidecast/internal/queue"
)

func testRun(t *testing.T) *queue.Run {
	t.Helper()
	run := &queue.Run{
		ID:         "run-1",
		SourcePath: "/inbox/q3 review.pptx",
		DeckTitle:  "Q3 Review",
		Status:     queue.StatusFinalizing,
	}
	err := run.SetSlides([]queue.SlideRecord{
		{Ordinal: 1, RewrittenContent: "intro", SpeakerNotes: "welcome everyone", Narration: "Welcome to the quarterly review.", Status: queue.SlideSuccess},
		{Ordinal: 2, RewrittenContent: "numbers", Narration: "", Status: queue.SlideFailed},
	})
	if err != nil {
		t.Fatalf("SetSlides: %v", err)
	}
	return run
}

func TestWriteEmitsAllConfiguredFormats(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter([]string{"txt", "json", "docx"})

	documents, err := w.Write(testRun(t), dir)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if len(documents) != 3 {
		t.Fatalf("expected 3 documents, got %#v", documents)
	}
	for _, document := range documents {
		if _, err := os.Stat(document.Path); err != nil {
			t.Fatalf("missing %s output: %v", document.Format, err)
		}
	}
}

func TestWriteTextIncludesNarrationAndNotes(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter([]string{"txt"})

	documents, err := w.Write(testRun(t), dir)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	payload, err := os.ReadFile(documents[0].Path)
	if err != nil {
		t.Fatalf("read txt: %v", err)
	}
	text := string(payload)
	for _, want := range []string{
		"Narration Script for Q3 Review",
		"Slide 1",
		"Welcome to the quarterly review.",
		"welcome everyone",
		"Slide 2",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("txt output missing %q:\n%s", want, text)
		}
	}
}

func TestWriteJSONCarriesRunSummary(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter([]string{"json"})

	documents, err := w.Write(testRun(t), dir)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	payload, err := os.ReadFile(documents[0].Path)
	if err != nil {
		t.Fatalf("read json: %v", err)
	}
	var script struct {
		RunID                 string              `json:"run_id"`
		TotalSlides           int                 `json:"total_slides"`
		ProcessedSuccessfully int                 `json:"processed_successfully"`
		FailedSlides          []int               `json:"failed_slides"`
		Slides                []queue.SlideRecord `json:"slides"`
	}
	if err := json.Unmarshal(payload, &script); err != nil {
		t.Fatalf("decode json output: %v", err)
	}
	if script.RunID != "run-1" || script.TotalSlides != 2 || script.ProcessedSuccessfully != 1 {
		t.Fatalf("unexpected summary: %+v", script)
	}
	if len(script.FailedSlides) != 1 || script.FailedSlides[0] != 2 {
		t.Fatalf("failed slides = %#v", script.FailedSlides)
	}
}

func TestWriteUsesSanitizedDeckTitleForFileNames(t *testing.T) {
	dir := t.TempDir()
	run := testRun(t)
	run.DeckTitle = "Q3: Sales/Review"
	w := NewWriter([]string{"txt"})

	documents, err := w.Write(run, dir)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	base := filepath.Base(documents[0].Path)
	if base != "Q3- Sales-Review_narration.txt" {
		t.Fatalf("unexpected file name %q", base)
	}
}

func TestWriteFailsWithoutUsableFormat(t *testing.T) {
	w := NewWriter([]string{"pdf"})
	if _, err := w.Write(testRun(t), t.TempDir()); err == nil {
		t.Fatal("expected error for unusable formats")
	}
}
