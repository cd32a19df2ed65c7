package inbox

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"sorrycast/pkg/types"
)

// stubLister serves a fixed message set, optionally failing.
type stubLister struct {
	messages []types.DetectedMessage
	err      error
	calls    atomic.Int64
}

func (l *stubLister) ListDetectedMessages(context.Context) ([]types.DetectedMessage, error) {
	l.calls.Add(1)
	if l.err != nil {
		return nil, l.err
	}
	return l.messages, nil
}

func sampleMessages() []types.DetectedMessage {
	return []types.DetectedMessage{
		{ID: "m1", Platform: types.PlatformSlack, Sender: "Bob"},
		{ID: "m2", Platform: types.PlatformDiscord, Sender: "Alice", Processed: true},
		{ID: "m3", Platform: types.PlatformLINE, Sender: "Ken"},
	}
}

func TestStore_RefreshReplacesSet(t *testing.T) {
	lister := &stubLister{messages: sampleMessages()}
	store := NewStore(lister, 0)

	if err := store.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if got := len(store.Messages()); got != 3 {
		t.Fatalf("expected 3 messages, got %d", got)
	}

	lister.messages = sampleMessages()[:1]
	if err := store.Refresh(context.Background()); err != nil {
		t.Fatalf("second refresh: %v", err)
	}
	if got := len(store.Messages()); got != 1 {
		t.Errorf("expected full replacement to 1 message, got %d", got)
	}
}

func TestStore_RefreshFailSoft(t *testing.T) {
	lister := &stubLister{messages: sampleMessages()}
	store := NewStore(lister, 0)
	store.Refresh(context.Background())

	lister.err = errors.New("backend down")
	if err := store.Refresh(context.Background()); err == nil {
		t.Fatal("expected refresh error")
	}
	if got := len(store.Messages()); got != 3 {
		t.Errorf("previous set must be retained, got %d messages", got)
	}
	if store.LastError() == nil {
		t.Error("expected recorded error")
	}

	lister.err = nil
	store.Refresh(context.Background())
	if store.LastError() != nil {
		t.Error("error must clear after a successful refresh")
	}
}

func TestStore_Partitions(t *testing.T) {
	lister := &stubLister{messages: sampleMessages()}
	store := NewStore(lister, 0)
	store.Refresh(context.Background())

	unprocessed := store.Unprocessed()
	if len(unprocessed) != 2 || unprocessed[0].ID != "m1" || unprocessed[1].ID != "m3" {
		t.Errorf("unprocessed partition wrong: %+v", unprocessed)
	}
	processed := store.Processed()
	if len(processed) != 1 || processed[0].ID != "m2" {
		t.Errorf("processed partition wrong: %+v", processed)
	}
}

func TestStore_MarkProcessedIdempotent(t *testing.T) {
	lister := &stubLister{messages: sampleMessages()}
	store := NewStore(lister, 0)
	store.Refresh(context.Background())

	if !store.MarkProcessed("m1") {
		t.Fatal("expected a match for m1")
	}
	if !store.MarkProcessed("m1") {
		t.Fatal("second call should still match")
	}

	processed := 0
	for _, msg := range store.Messages() {
		if msg.ID == "m1" && msg.Processed {
			processed++
		}
	}
	if processed != 1 {
		t.Errorf("expected exactly one processed m1 record, got %d", processed)
	}

	if store.MarkProcessed("nope") {
		t.Error("unknown id must not report a match")
	}
}

func TestStore_PollingLifecycle(t *testing.T) {
	lister := &stubLister{messages: sampleMessages()}
	store := NewStore(lister, 10*time.Millisecond)

	store.Start(context.Background())
	store.Start(context.Background()) // second Start is a no-op

	deadline := time.Now().Add(time.Second)
	for lister.calls.Load() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("poller made only %d calls", lister.calls.Load())
		}
		time.Sleep(5 * time.Millisecond)
	}

	store.Stop()
	settled := lister.calls.Load()
	time.Sleep(50 * time.Millisecond)
	if got := lister.calls.Load(); got != settled {
		t.Errorf("poller kept running after Stop: %d -> %d calls", settled, got)
	}

	// Stop on a stopped store is safe.
	store.Stop()
}

func TestStore_Get(t *testing.T) {
	lister := &stubLister{messages: sampleMessages()}
	store := NewStore(lister, 0)
	store.Refresh(context.Background())

	msg, ok := store.Get("m3")
	if !ok || msg.Sender != "Ken" {
		t.Errorf("get m3: got %+v, ok=%v", msg, ok)
	}
	if _, ok := store.Get("missing"); ok {
		t.Error("missing id must not be found")
	}
}
