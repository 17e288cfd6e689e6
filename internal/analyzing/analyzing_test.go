package analyzing

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"slidecast/internal/logging"
	"slidecast/internal/queue"
	"slidecast/internal/rewriter"
	"slidecast/internal/services"
	"slidecast/internal/testsupport"
)

type fakeRewriter struct {
	rewrite func(slide rewriter.Slide) (string, error)
	slides  []rewriter.Slide
	tone    string
}

func (f *fakeRewriter) Rewrite(_ context.Context, slide rewriter.Slide, tone, _ string) (string, error) {
	f.slides = append(f.slides, slide)
	f.tone = tone
	if f.rewrite != nil {
		return f.rewrite(slide)
	}
	return fmt.Sprintf("rewritten %d", slide.Ordinal), nil
}

func seededRun(t *testing.T, slides []queue.SlideRecord) *queue.Run {
	t.Helper()
	run := &queue.Run{ID: "run-1", Status: queue.StatusAnalyzing}
	if err := run.SetSlides(slides); err != nil {
		t.Fatalf("seed slides: %v", err)
	}
	return run
}

func TestExecuteRewritesAllSlides(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	fake := &fakeRewriter{}
	handler := NewWithRewriter(cfg, logging.NewNop(), fake)

	run := seededRun(t, []queue.SlideRecord{
		{Ordinal: 1, OriginalText: "alpha", Status: queue.SlidePending},
		{Ordinal: 2, OriginalText: "beta", Status: queue.SlidePending},
	})
	if err := handler.Execute(context.Background(), run); err != nil {
		t.Fatalf("execute: %v", err)
	}

	slides, err := run.Slides()
	if err != nil {
		t.Fatalf("decode slides: %v", err)
	}
	for i, slide := range slides {
		if slide.Status != queue.SlideSuccess {
			t.Fatalf("slide %d not marked success: %+v", i, slide)
		}
		if slide.RewrittenContent != fmt.Sprintf("rewritten %d", slide.Ordinal) {
			t.Fatalf("slide %d content: %q", i, slide.RewrittenContent)
		}
	}
	if fake.tone != cfg.Narration.Tone {
		t.Fatalf("expected configured tone %q, got %q", cfg.Narration.Tone, fake.tone)
	}
}

func TestExecuteAttachesSlideImages(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	imagePath := filepath.Join(t.TempDir(), "slide-1.png")
	if err := os.WriteFile(imagePath, []byte("png-bytes"), 0o644); err != nil {
		t.Fatalf("write image: %v", err)
	}

	fake := &fakeRewriter{}
	handler := NewWithRewriter(cfg, logging.NewNop(), fake)
	run := seededRun(t, []queue.SlideRecord{
		{Ordinal: 1, OriginalText: "alpha", ImagePath: imagePath},
		{Ordinal: 2, OriginalText: "beta", ImagePath: filepath.Join(t.TempDir(), "missing.png")},
	})
	if err := handler.Execute(context.Background(), run); err != nil {
		t.Fatalf("execute: %v", err)
	}

	if string(fake.slides[0].ImagePNG) != "png-bytes" {
		t.Fatalf("expected image bytes attached, got %q", fake.slides[0].ImagePNG)
	}
	if fake.slides[1].ImagePNG != nil {
		t.Fatalf("expected missing image to degrade to text-only")
	}
}

func TestExecuteToleratesFailuresBelowRatio(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Narration.FailureRatio = 0.5
	fake := &fakeRewriter{rewrite: func(slide rewriter.Slide) (string, error) {
		if slide.Ordinal == 2 {
			return "", services.Wrap(services.ErrPermanent, "gemini", "generate", "rejected", nil)
		}
		return "ok", nil
	}}
	handler := NewWithRewriter(cfg, logging.NewNop(), fake)

	run := seededRun(t, []queue.SlideRecord{
		{Ordinal: 1, OriginalText: "a"},
		{Ordinal: 2, OriginalText: "b"},
		{Ordinal: 3, OriginalText: "c"},
	})
	if err := handler.Execute(context.Background(), run); err != nil {
		t.Fatalf("execute: %v", err)
	}

	slides, err := run.Slides()
	if err != nil {
		t.Fatalf("decode slides: %v", err)
	}
	if slides[1].Status != queue.SlideFailed || slides[1].RewrittenContent != "" {
		t.Fatalf("unexpected failed slide record: %+v", slides[1])
	}
	if slides[0].Status != queue.SlideSuccess || slides[2].Status != queue.SlideSuccess {
		t.Fatalf("healthy slides not marked success: %+v", slides)
	}
}

func TestExecuteAbortsAboveFailureRatio(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Narration.FailureRatio = 0.5
	fake := &fakeRewriter{rewrite: func(slide rewriter.Slide) (string, error) {
		return "", services.Wrap(services.ErrPermanent, "gemini", "generate", "rejected", nil)
	}}
	handler := NewWithRewriter(cfg, logging.NewNop(), fake)

	run := seededRun(t, []queue.SlideRecord{
		{Ordinal: 1, OriginalText: "a"},
		{Ordinal: 2, OriginalText: "b"},
	})
	err := handler.Execute(context.Background(), run)
	if !errors.Is(err, services.ErrTooManyFailures) {
		t.Fatalf("expected too-many-failures error, got %v", err)
	}

	slides, decodeErr := run.Slides()
	if decodeErr != nil {
		t.Fatalf("decode slides: %v", decodeErr)
	}
	if len(queue.FailedOrdinals(slides)) != 2 {
		t.Fatalf("expected both slides recorded as failed, got %+v", slides)
	}
}

func TestExecuteEmptyRunFails(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	handler := NewWithRewriter(cfg, logging.NewNop(), &fakeRewriter{})

	err := handler.Execute(context.Background(), &queue.Run{ID: "run-empty"})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestExecuteAppliesPerRunToneOverride(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	fake := &fakeRewriter{}
	handler := NewWithRewriter(cfg, logging.NewNop(), fake)

	run := seededRun(t, []queue.SlideRecord{{Ordinal: 1, OriginalText: "a"}})
	run.OptionsJSON = `{"tone":"enthusiastic"}`
	if err := handler.Execute(context.Background(), run); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if fake.tone != "enthusiastic" {
		t.Fatalf("expected override tone, got %q", fake.tone)
	}
}

func TestHealthCheckRequiresAPIKeys(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Gemini.APIKeys = nil
	handler := NewWithRewriter(cfg, logging.NewNop(), &fakeRewriter{})

	if health := handler.HealthCheck(context.Background()); health.Ready {
		t.Fatalf("expected unhealthy result, got %+v", health)
	}
}
