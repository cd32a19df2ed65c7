// Package publish takes a finished apology artifact, uploads the video
// to the hosting platform, and relays the link back to the message's
// origin.
package publish

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"sorrycast/pkg/logger"
	"sorrycast/pkg/types"
)

var (
	ErrNoVideo      = errors.New("artifact has no video to publish")
	ErrNotPublished = errors.New("video has not been published yet")
)

// Uploader is the subset of the gateway the publish flow uses.
type Uploader interface {
	UploadVideo(ctx context.Context, videoURL, title string) (string, error)
	RelayToOrigin(ctx context.Context, messageID, publishedURL string) error
}

// Resolver marks the source message handled once the relay succeeds.
type Resolver interface {
	MarkProcessed(id string) bool
}

// Flow owns one finished artifact through publish and share. Each step
// is retry-safe: failures leave all state untouched.
type Flow struct {
	mu       sync.Mutex
	gw       Uploader
	inbox    Resolver
	artifact types.ApologyData
	shared   bool

	now func() time.Time
}

// NewFlow takes sole ownership of the artifact handed over by the
// wizard.
func NewFlow(gw Uploader, inbox Resolver, artifact types.ApologyData) *Flow {
	return &Flow{
		gw:       gw,
		inbox:    inbox,
		artifact: artifact,
		now:      time.Now,
	}
}

// Publish uploads the video under a date-derived title and stores the
// published URL. Re-invoking after a failure is safe.
func (f *Flow) Publish(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.artifact.VideoURL == "" {
		return ErrNoVideo
	}

	title := fmt.Sprintf("謝罪動画 - %s", f.now().Format("2006/01/02"))
	publishedURL, err := f.gw.UploadVideo(ctx, f.artifact.VideoURL, title)
	if err != nil {
		return err
	}

	f.artifact.YouTubeURL = publishedURL
	logger.InfoCF("publish", "Video published", map[string]any{
		"message_id":    f.artifact.MessageID,
		"published_url": publishedURL,
	})
	return nil
}

// Share relays the published link to the originating platform. Only on
// success is the source message marked processed and the shared flag
// set; a failure leaves the published URL in place for a manual retry
// of this single step.
func (f *Flow) Share(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.artifact.YouTubeURL == "" {
		return ErrNotPublished
	}

	if err := f.gw.RelayToOrigin(ctx, f.artifact.MessageID, f.artifact.YouTubeURL); err != nil {
		return err
	}

	if f.inbox != nil {
		f.inbox.MarkProcessed(f.artifact.MessageID)
	}
	f.shared = true
	f.artifact.Status = types.StatusShared

	logger.InfoCF("publish", "Apology shared to origin", map[string]any{
		"message_id": f.artifact.MessageID,
	})
	return nil
}

func (f *Flow) Shared() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.shared
}

func (f *Flow) PublishedURL() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.artifact.YouTubeURL
}

func (f *Flow) Artifact() types.ApologyData {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.artifact
}
