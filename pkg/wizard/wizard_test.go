package wizard

import (
	"context"
	"errors"
	"testing"
	"time"

	"sorrycast/pkg/types"
)

// stubGenerator is a scriptable Generator for tests.
type stubGenerator struct {
	textFn  func(ctx context.Context, messageID, summary string) (string, error)
	videoFn func(ctx context.Context, apologyText string, photo types.Photo) (string, error)
}

func (g *stubGenerator) GenerateApologyText(ctx context.Context, messageID, summary string) (string, error) {
	if g.textFn == nil {
		return "I'm sorry...", nil
	}
	return g.textFn(ctx, messageID, summary)
}

func (g *stubGenerator) GenerateApologyVideo(ctx context.Context, apologyText string, photo types.Photo) (string, error) {
	if g.videoFn == nil {
		return "https://video/x", nil
	}
	return g.videoFn(ctx, apologyText, photo)
}

func testMessage() types.DetectedMessage {
	return types.DetectedMessage{
		ID:       "m1",
		Platform: types.PlatformSlack,
		Sender:   "Bob",
		Summary:  "Bob is upset about the missed deadline.",
	}
}

func pngPhoto(size int) types.Photo {
	return types.Photo{Name: "face.png", MIME: "image/png", Data: make([]byte, size)}
}

func TestWizard_FullRun(t *testing.T) {
	w := New(&stubGenerator{}, testMessage())

	if w.Step() != StepReview {
		t.Fatalf("expected review step, got %s", w.Step())
	}
	if err := w.Next(); err != nil {
		t.Fatalf("leaving review: %v", err)
	}

	if err := w.GenerateText(context.Background()); err != nil {
		t.Fatalf("generate text: %v", err)
	}
	if w.Step() != StepPhotoCapture {
		t.Errorf("expected auto-advance to photo capture, got %s", w.Step())
	}
	if w.ApologyText() != "I'm sorry..." {
		t.Errorf("apology text: got %q", w.ApologyText())
	}

	if err := w.AttachPhoto(pngPhoto(1024 * 1024)); err != nil {
		t.Fatalf("attach photo: %v", err)
	}
	if err := w.Next(); err != nil {
		t.Fatalf("leaving photo capture: %v", err)
	}

	if err := w.GenerateVideo(context.Background()); err != nil {
		t.Fatalf("generate video: %v", err)
	}
	if w.Step() != StepShareReady {
		t.Errorf("expected share-ready, got %s", w.Step())
	}

	artifact, err := w.Complete()
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if artifact.MessageID != "m1" {
		t.Errorf("messageId: got %q", artifact.MessageID)
	}
	if artifact.ApologyText != "I'm sorry..." {
		t.Errorf("apologyText: got %q", artifact.ApologyText)
	}
	if artifact.VideoURL != "https://video/x" {
		t.Errorf("videoUrl: got %q", artifact.VideoURL)
	}
	if artifact.Status != types.StatusReady {
		t.Errorf("status: got %q, want ready", artifact.Status)
	}
}

func TestWizard_GatesBlockAdvance(t *testing.T) {
	w := New(&stubGenerator{}, testMessage())
	w.Next() // review -> text generation

	// Text gate: no text yet.
	if err := w.Next(); !errors.Is(err, ErrGateNotSatisfied) {
		t.Errorf("expected gate error at text step, got %v", err)
	}

	if err := w.GenerateText(context.Background()); err != nil {
		t.Fatalf("generate text: %v", err)
	}

	// Photo gate: no photo yet.
	if err := w.Next(); !errors.Is(err, ErrGateNotSatisfied) {
		t.Errorf("expected gate error at photo step, got %v", err)
	}
	if err := w.AttachPhoto(pngPhoto(10)); err != nil {
		t.Fatalf("attach photo: %v", err)
	}
	if err := w.Next(); err != nil {
		t.Fatalf("leaving photo step: %v", err)
	}

	// Video gate: no video yet.
	if err := w.Next(); !errors.Is(err, ErrGateNotSatisfied) {
		t.Errorf("expected gate error at video step, got %v", err)
	}
}

func TestWizard_VideoRequiresTextAndPhoto(t *testing.T) {
	w := New(&stubGenerator{}, testMessage())
	w.Next()
	w.GenerateText(context.Background())
	w.AttachPhoto(pngPhoto(10))
	w.Next() // -> video generation

	// Empty the text from behind the gates; the defense-in-depth check
	// must still refuse to call out.
	if err := w.SetApologyText(""); err != nil {
		t.Fatalf("set text: %v", err)
	}
	if err := w.GenerateVideo(context.Background()); !errors.Is(err, ErrMissingInputs) {
		t.Errorf("expected missing-inputs error, got %v", err)
	}
	if w.VideoURL() != "" {
		t.Errorf("video URL must stay empty, got %q", w.VideoURL())
	}
}

func TestWizard_PhotoValidation(t *testing.T) {
	w := New(&stubGenerator{}, testMessage())
	w.Next()
	w.GenerateText(context.Background())

	// 2 MiB PNG is accepted.
	if err := w.AttachPhoto(pngPhoto(2 * 1024 * 1024)); err != nil {
		t.Fatalf("attach 2 MiB png: %v", err)
	}

	// A PDF is rejected and the prior photo survives.
	pdf := types.Photo{Name: "scan.pdf", MIME: "application/pdf", Data: make([]byte, 10)}
	if err := w.AttachPhoto(pdf); !errors.Is(err, ErrNotImage) {
		t.Errorf("expected not-image error, got %v", err)
	}
	if !w.HasPhoto() {
		t.Error("previously accepted photo was discarded")
	}
	if w.Err() == "" {
		t.Error("expected a step-scoped error message")
	}
}

func TestWizard_PhotoSizeBoundary(t *testing.T) {
	w := New(&stubGenerator{}, testMessage())
	w.Next()
	w.GenerateText(context.Background())

	if err := w.AttachPhoto(pngPhoto(10 * 1024 * 1024)); err != nil {
		t.Errorf("exactly 10 MiB should be accepted: %v", err)
	}
	if err := w.AttachPhoto(pngPhoto(10*1024*1024 + 1)); !errors.Is(err, ErrPhotoTooLarge) {
		t.Errorf("10 MiB + 1 should be rejected, got %v", err)
	}
}

func TestWizard_GenerationFailureKeepsState(t *testing.T) {
	calls := 0
	gen := &stubGenerator{
		textFn: func(context.Context, string, string) (string, error) {
			calls++
			if calls == 1 {
				return "", errors.New("backend unavailable")
			}
			return "second try worked", nil
		},
	}
	w := New(gen, testMessage())
	w.Next()

	if err := w.GenerateText(context.Background()); err == nil {
		t.Fatal("expected first generation to fail")
	}
	if w.Step() != StepTextGeneration {
		t.Errorf("step must be unchanged after failure, got %s", w.Step())
	}
	if w.Err() == "" {
		t.Error("expected step-scoped error after failure")
	}
	if w.Busy() {
		t.Error("trigger must be re-enabled after failure")
	}

	// Manual retry succeeds and clears the error.
	if err := w.GenerateText(context.Background()); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if w.Err() != "" {
		t.Errorf("error must clear on success, got %q", w.Err())
	}
	if w.Step() != StepPhotoCapture {
		t.Errorf("expected advance after retry, got %s", w.Step())
	}
}

func TestWizard_BusyGuard(t *testing.T) {
	release := make(chan struct{})
	gen := &stubGenerator{
		textFn: func(context.Context, string, string) (string, error) {
			<-release
			return "text", nil
		},
	}
	w := New(gen, testMessage())
	w.Next()

	done := make(chan error, 1)
	go func() { done <- w.GenerateText(context.Background()) }()

	waitBusy(t, w)

	if err := w.GenerateText(context.Background()); !errors.Is(err, ErrBusy) {
		t.Errorf("second trigger: expected ErrBusy, got %v", err)
	}
	if err := w.Next(); !errors.Is(err, ErrBusy) {
		t.Errorf("advance while busy: expected ErrBusy, got %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first trigger: %v", err)
	}
	if w.Step() != StepPhotoCapture {
		t.Errorf("expected advance after call resolved, got %s", w.Step())
	}
}

func TestWizard_LateResultAfterResetIsDropped(t *testing.T) {
	release := make(chan struct{})
	gen := &stubGenerator{
		textFn: func(context.Context, string, string) (string, error) {
			<-release
			return "stale text", nil
		},
	}
	w := New(gen, testMessage())
	w.Next()

	done := make(chan error, 1)
	go func() { done <- w.GenerateText(context.Background()) }()
	waitBusy(t, w)

	fresh := testMessage()
	fresh.ID = "m2"
	w.Reset(fresh)

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("in-flight call: %v", err)
	}

	if w.ApologyText() != "" {
		t.Errorf("stale result must be dropped, got text %q", w.ApologyText())
	}
	if w.Step() != StepReview {
		t.Errorf("expected review step after reset, got %s", w.Step())
	}
	if w.Busy() {
		t.Error("wizard must not stay busy after reset")
	}
	if w.Message().ID != "m2" {
		t.Errorf("expected new message, got %q", w.Message().ID)
	}
}

func TestWizard_BackKeepsData(t *testing.T) {
	w := New(&stubGenerator{}, testMessage())

	if w.Back() {
		t.Error("back from the first step must be refused")
	}

	w.Next()
	w.GenerateText(context.Background())
	w.AttachPhoto(pngPhoto(10))

	if !w.Back() {
		t.Fatal("back from photo step refused")
	}
	if w.Step() != StepTextGeneration {
		t.Errorf("expected text step, got %s", w.Step())
	}
	if w.ApologyText() == "" || !w.HasPhoto() {
		t.Error("stepping back must not discard data")
	}
}

func TestWizard_EditedTextSatisfiesGate(t *testing.T) {
	w := New(&stubGenerator{}, testMessage())
	w.Next()
	w.GenerateText(context.Background())
	w.Back()

	if err := w.SetApologyText("本当に申し訳ありませんでした。"); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if err := w.Next(); err != nil {
		t.Errorf("edited text must satisfy the gate: %v", err)
	}
}

func TestWizard_CompleteRequiresVideo(t *testing.T) {
	w := New(&stubGenerator{}, testMessage())
	if _, err := w.Complete(); !errors.Is(err, ErrNoVideo) {
		t.Errorf("expected ErrNoVideo, got %v", err)
	}
}

func TestWizard_Status(t *testing.T) {
	w := New(&stubGenerator{}, testMessage())
	if w.Status() != types.StatusDraft {
		t.Errorf("expected draft, got %s", w.Status())
	}

	w.Next()
	w.GenerateText(context.Background())
	w.AttachPhoto(pngPhoto(10))
	w.Next()
	w.GenerateVideo(context.Background())

	if w.Status() != types.StatusReady {
		t.Errorf("expected ready, got %s", w.Status())
	}
}

func waitBusy(t *testing.T, w *Wizard) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !w.Busy() {
		if time.Now().After(deadline) {
			t.Fatal("wizard never became busy")
		}
		time.Sleep(time.Millisecond)
	}
}
