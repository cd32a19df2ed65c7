// Package wizard implements the five-step apology flow that takes one
// detected message to a finished apology artifact.
//
// The steps run in strict forward order with a gate on leaving each:
// review (always satisfied), text generation (apology text present),
// photo capture (valid photo present), video generation (video locator
// present), share readiness (terminal). The user may step back one step
// at a time without losing data; a full reset discards everything.
package wizard

import (
	"context"
	"errors"
	"strings"
	"sync"

	"sorrycast/pkg/logger"
	"sorrycast/pkg/types"
)

// Step is one state of the apology flow.
type Step int

const (
	StepReview Step = iota + 1
	StepTextGeneration
	StepPhotoCapture
	StepVideoGeneration
	StepShareReady
)

func (s Step) String() string {
	switch s {
	case StepReview:
		return "review"
	case StepTextGeneration:
		return "text-generation"
	case StepPhotoCapture:
		return "photo-capture"
	case StepVideoGeneration:
		return "video-generation"
	case StepShareReady:
		return "share-ready"
	}
	return "unknown"
}

// MaxPhotoSize is the ceiling for a user photo payload.
const MaxPhotoSize = 10 * 1024 * 1024

var (
	// ErrBusy is returned while a generation call is in flight; the
	// same trigger may be retried once it resolves.
	ErrBusy = errors.New("a generation call is already in flight")
	// ErrGateNotSatisfied is returned by Next when the current step's
	// precondition does not hold.
	ErrGateNotSatisfied = errors.New("current step is not complete")
	// ErrWrongStep is returned when an action is triggered outside the
	// step it belongs to.
	ErrWrongStep = errors.New("action not available at this step")
	// ErrAtLastStep is returned by Next at the terminal step.
	ErrAtLastStep = errors.New("already at the final step")

	ErrNotImage      = errors.New("photo must be an image file")
	ErrPhotoTooLarge = errors.New("photo exceeds the 10 MiB limit")
	ErrMissingInputs = errors.New("apology text and photo are both required")
	ErrNoVideo       = errors.New("no video has been generated")
)

// Generator is the subset of the gateway the wizard calls.
type Generator interface {
	GenerateApologyText(ctx context.Context, messageID, summary string) (string, error)
	GenerateApologyVideo(ctx context.Context, apologyText string, photo types.Photo) (string, error)
}

// Wizard drives one message through the apology flow. It owns its own
// copy of the message, so an inbox refresh completing mid-run cannot
// touch the working artifact.
type Wizard struct {
	mu  sync.Mutex
	gen Generator

	msg      types.DetectedMessage
	step     Step
	text     string
	photo    *types.Photo
	videoURL string

	busy    bool
	stepErr string

	// epoch identifies one run; Reset bumps it so a remote result that
	// arrives afterwards is dropped instead of mutating the new run.
	epoch uint64
}

func New(gen Generator, msg types.DetectedMessage) *Wizard {
	return &Wizard{
		gen:  gen,
		msg:  msg,
		step: StepReview,
	}
}

func (w *Wizard) Message() types.DetectedMessage {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.msg
}

func (w *Wizard) Step() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

func (w *Wizard) Busy() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.busy
}

// Err returns the step-scoped error message, empty when none.
func (w *Wizard) Err() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stepErr
}

func (w *Wizard) ApologyText() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.text
}

func (w *Wizard) VideoURL() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.videoURL
}

func (w *Wizard) HasPhoto() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.photo != nil
}

// Status reports where the working artifact is in its lifecycle.
func (w *Wizard) Status() types.ApologyStatus {
	w.mu.Lock()
	defer w.mu.Unlock()
	switch {
	case w.busy:
		return types.StatusGenerating
	case w.step == StepShareReady && w.videoURL != "":
		return types.StatusReady
	default:
		return types.StatusDraft
	}
}

// Next advances to the following step if the current gate is satisfied.
func (w *Wizard) Next() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.busy {
		return ErrBusy
	}

	switch w.step {
	case StepReview:
		// No precondition.
	case StepTextGeneration:
		if w.text == "" {
			return ErrGateNotSatisfied
		}
	case StepPhotoCapture:
		if w.photo == nil {
			return ErrGateNotSatisfied
		}
	case StepVideoGeneration:
		if w.videoURL == "" {
			return ErrGateNotSatisfied
		}
	case StepShareReady:
		return ErrAtLastStep
	}

	w.step++
	w.stepErr = ""
	return nil
}

// Back steps to the immediately preceding step. No data is discarded.
// Returns false when already at the first step.
func (w *Wizard) Back() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step <= StepReview {
		return false
	}
	w.step--
	w.stepErr = ""
	return true
}

// GenerateText asks the gateway for an apology draft and, on success,
// stores it and advances to photo capture. On failure the step is
// unchanged and the trigger may be retried.
func (w *Wizard) GenerateText(ctx context.Context) error {
	w.mu.Lock()
	if w.step != StepTextGeneration {
		w.mu.Unlock()
		return ErrWrongStep
	}
	if w.busy {
		w.mu.Unlock()
		return ErrBusy
	}
	w.busy = true
	w.stepErr = ""
	epoch := w.epoch
	messageID, summary := w.msg.ID, w.msg.Summary
	w.mu.Unlock()

	text, err := w.gen.GenerateApologyText(ctx, messageID, summary)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.epoch != epoch {
		// The run was reset while the call was outstanding.
		return nil
	}
	w.busy = false
	if err != nil {
		w.stepErr = err.Error()
		return err
	}

	w.text = text
	if w.step == StepTextGeneration {
		w.step = StepPhotoCapture
	}
	logger.InfoCF("wizard", "Apology text generated", map[string]any{
		"message_id": messageID,
		"chars":      len(text),
	})
	return nil
}

// SetApologyText replaces the draft with a user edit. Edited text still
// satisfies the text gate as long as it is non-empty.
func (w *Wizard) SetApologyText(text string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.busy {
		return ErrBusy
	}
	if w.step < StepTextGeneration {
		return ErrWrongStep
	}
	w.text = text
	return nil
}

// AttachPhoto validates and stores the user photo. A rejected file
// leaves the previously accepted photo, if any, unchanged.
func (w *Wizard) AttachPhoto(photo types.Photo) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.busy {
		return ErrBusy
	}
	if w.step != StepPhotoCapture {
		return ErrWrongStep
	}
	if !strings.HasPrefix(photo.MIME, "image/") {
		w.stepErr = ErrNotImage.Error()
		return ErrNotImage
	}
	if len(photo.Data) > MaxPhotoSize {
		w.stepErr = ErrPhotoTooLarge.Error()
		return ErrPhotoTooLarge
	}

	p := photo
	w.photo = &p
	w.stepErr = ""
	return nil
}

// GenerateVideo submits the text and photo to the gateway and, on
// success, stores the video locator and advances to share readiness.
// Both inputs are re-checked here even though the earlier gates should
// guarantee them.
func (w *Wizard) GenerateVideo(ctx context.Context) error {
	w.mu.Lock()
	if w.step != StepVideoGeneration {
		w.mu.Unlock()
		return ErrWrongStep
	}
	if w.busy {
		w.mu.Unlock()
		return ErrBusy
	}
	if w.text == "" || w.photo == nil {
		w.stepErr = ErrMissingInputs.Error()
		w.mu.Unlock()
		return ErrMissingInputs
	}
	w.busy = true
	w.stepErr = ""
	epoch := w.epoch
	text, photo := w.text, *w.photo
	w.mu.Unlock()

	videoURL, err := w.gen.GenerateApologyVideo(ctx, text, photo)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.epoch != epoch {
		return nil
	}
	w.busy = false
	if err != nil {
		w.stepErr = err.Error()
		return err
	}

	w.videoURL = videoURL
	if w.step == StepVideoGeneration {
		w.step = StepShareReady
	}
	logger.InfoCF("wizard", "Apology video generated", map[string]any{
		"message_id": w.msg.ID,
		"video_url":  videoURL,
	})
	return nil
}

// Complete emits the finished artifact with status ready. The caller
// takes ownership; the publish flow extends it from here.
func (w *Wizard) Complete() (types.ApologyData, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step != StepShareReady || w.videoURL == "" {
		return types.ApologyData{}, ErrNoVideo
	}
	return types.ApologyData{
		MessageID:   w.msg.ID,
		ApologyText: w.text,
		UserPhoto:   w.photo,
		VideoURL:    w.videoURL,
		Status:      types.StatusReady,
	}, nil
}

// Reset discards the working artifact and starts over at review with a
// newly supplied message. A generation result still in flight for the
// previous run is dropped when it lands.
func (w *Wizard) Reset(msg types.DetectedMessage) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.epoch++
	w.msg = msg
	w.step = StepReview
	w.text = ""
	w.photo = nil
	w.videoURL = ""
	w.busy = false
	w.stepErr = ""
}
