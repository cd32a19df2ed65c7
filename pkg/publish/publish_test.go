package publish

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"sorrycast/pkg/types"
)

type stubUploader struct {
	uploadErr error
	relayErr  error

	gotVideoURL string
	gotTitle    string
	gotRelayID  string
	gotRelayURL string
	uploadCalls int
	relayCalls  int
}

func (s *stubUploader) UploadVideo(_ context.Context, videoURL, title string) (string, error) {
	s.uploadCalls++
	s.gotVideoURL = videoURL
	s.gotTitle = title
	if s.uploadErr != nil {
		return "", s.uploadErr
	}
	return "https://yt/abc", nil
}

func (s *stubUploader) RelayToOrigin(_ context.Context, messageID, publishedURL string) error {
	s.relayCalls++
	s.gotRelayID = messageID
	s.gotRelayURL = publishedURL
	return s.relayErr
}

type stubResolver struct {
	marked map[string]bool
}

func (s *stubResolver) MarkProcessed(id string) bool {
	if s.marked == nil {
		s.marked = map[string]bool{}
	}
	s.marked[id] = true
	return true
}

func readyArtifact() types.ApologyData {
	return types.ApologyData{
		MessageID:   "m1",
		ApologyText: "I'm sorry for breaking the build.",
		VideoURL:    "https://video/x",
		Status:      types.StatusReady,
	}
}

func TestPublishAndShare(t *testing.T) {
	gw := &stubUploader{}
	resolver := &stubResolver{}
	flow := NewFlow(gw, resolver, readyArtifact())
	flow.now = func() time.Time { return time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC) }

	if err := flow.Publish(context.Background()); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if gw.gotVideoURL != "https://video/x" {
		t.Errorf("uploaded video url: got %q", gw.gotVideoURL)
	}
	if gw.gotTitle != "謝罪動画 - 2024/03/15" {
		t.Errorf("title: got %q", gw.gotTitle)
	}
	if flow.PublishedURL() != "https://yt/abc" {
		t.Errorf("published url: got %q", flow.PublishedURL())
	}
	if flow.Shared() {
		t.Error("publish alone must not mark the flow shared")
	}

	if err := flow.Share(context.Background()); err != nil {
		t.Fatalf("share: %v", err)
	}
	if gw.gotRelayID != "m1" || gw.gotRelayURL != "https://yt/abc" {
		t.Errorf("relay: got (%q, %q)", gw.gotRelayID, gw.gotRelayURL)
	}
	if !resolver.marked["m1"] {
		t.Error("share must mark the source message processed")
	}
	if !flow.Shared() {
		t.Error("share must set the shared flag")
	}
	if got := flow.Artifact().Status; got != types.StatusShared {
		t.Errorf("status: got %q", got)
	}
}

func TestPublishRequiresVideo(t *testing.T) {
	artifact := readyArtifact()
	artifact.VideoURL = ""
	flow := NewFlow(&stubUploader{}, nil, artifact)

	if err := flow.Publish(context.Background()); !errors.Is(err, ErrNoVideo) {
		t.Errorf("expected ErrNoVideo, got %v", err)
	}
}

func TestPublishFailureIsRetryable(t *testing.T) {
	gw := &stubUploader{uploadErr: errors.New("quota exceeded")}
	flow := NewFlow(gw, nil, readyArtifact())

	if err := flow.Publish(context.Background()); err == nil {
		t.Fatal("expected upload failure")
	}
	if flow.PublishedURL() != "" {
		t.Error("failed publish must not record a url")
	}

	gw.uploadErr = nil
	if err := flow.Publish(context.Background()); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if flow.PublishedURL() != "https://yt/abc" {
		t.Errorf("published url after retry: got %q", flow.PublishedURL())
	}
}

func TestShareRequiresPublish(t *testing.T) {
	flow := NewFlow(&stubUploader{}, nil, readyArtifact())

	if err := flow.Share(context.Background()); !errors.Is(err, ErrNotPublished) {
		t.Errorf("expected ErrNotPublished, got %v", err)
	}
}

func TestShareFailureLeavesStateForRetry(t *testing.T) {
	gw := &stubUploader{relayErr: errors.New("channel gone")}
	resolver := &stubResolver{}
	flow := NewFlow(gw, resolver, readyArtifact())

	if err := flow.Publish(context.Background()); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := flow.Share(context.Background()); err == nil {
		t.Fatal("expected relay failure")
	}
	if flow.Shared() {
		t.Error("failed share must not set the shared flag")
	}
	if resolver.marked["m1"] {
		t.Error("failed share must not mark the message processed")
	}
	if flow.PublishedURL() != "https://yt/abc" {
		t.Error("published url must survive a failed share")
	}

	gw.relayErr = nil
	if err := flow.Share(context.Background()); err != nil {
		t.Fatalf("share retry: %v", err)
	}
	if !flow.Shared() || !resolver.marked["m1"] {
		t.Error("share retry must complete the flow")
	}
}

func TestTitleUsesCurrentDate(t *testing.T) {
	gw := &stubUploader{}
	flow := NewFlow(gw, nil, readyArtifact())
	flow.now = func() time.Time { return time.Date(2025, 12, 31, 23, 59, 0, 0, time.UTC) }

	if err := flow.Publish(context.Background()); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if !strings.HasSuffix(gw.gotTitle, "2025/12/31") {
		t.Errorf("title: got %q", gw.gotTitle)
	}
}
