// Package inbox holds the set of detected messages and keeps it fresh
// with a periodic gateway refresh.
package inbox

import (
	"context"
	"sync"
	"time"

	"sorrycast/pkg/logger"
	"sorrycast/pkg/types"
)

// DefaultPollInterval matches the backend detection cadence.
const DefaultPollInterval = 30 * time.Second

// Lister is the subset of the gateway the inbox uses.
type Lister interface {
	ListDetectedMessages(ctx context.Context) ([]types.DetectedMessage, error)
}

// Store owns the detected-message set. Messages keep the order the
// gateway returned them in; the only local mutation is MarkProcessed.
type Store struct {
	mu       sync.RWMutex
	gw       Lister
	messages []types.DetectedMessage
	lastErr  error
	interval time.Duration

	cancel context.CancelFunc
	done   chan struct{}
}

func NewStore(gw Lister, interval time.Duration) *Store {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Store{gw: gw, interval: interval}
}

// Start launches the auto-refresh loop: one immediate refresh, then one
// per interval until Stop or context cancellation. Calling Start on a
// running store is a no-op.
func (s *Store) Start(ctx context.Context) {
	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	done := make(chan struct{})
	s.done = done
	s.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.Refresh(ctx) //nolint:errcheck // fail-soft; error is recorded

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Refresh(ctx) //nolint:errcheck // fail-soft; error is recorded
			}
		}
	}()
}

// Stop cancels the refresh loop and waits for it to exit.
func (s *Store) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	s.cancel = nil
	s.done = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// Refresh replaces the message set from the gateway. On failure the
// previous set is retained and the error recorded.
func (s *Store) Refresh(ctx context.Context) error {
	msgs, err := s.gw.ListDetectedMessages(ctx)
	if err != nil {
		s.mu.Lock()
		s.lastErr = err
		s.mu.Unlock()
		logger.WarnCF("inbox", "Message refresh failed", map[string]any{
			"error": err.Error(),
		})
		return err
	}

	s.mu.Lock()
	s.messages = msgs
	s.lastErr = nil
	s.mu.Unlock()

	logger.DebugCF("inbox", "Messages refreshed", map[string]any{
		"count": len(msgs),
	})
	return nil
}

// MarkProcessed flips the processed flag on the matching record. It is
// a local-only mutation (the relay call is owned by the publish flow)
// and idempotent. Returns whether a record matched.
func (s *Store) MarkProcessed(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.messages {
		if s.messages[i].ID == id {
			s.messages[i].Processed = true
			return true
		}
	}
	return false
}

// Get returns a copy of the message with the given id.
func (s *Store) Get(id string) (types.DetectedMessage, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, msg := range s.messages {
		if msg.ID == id {
			return msg, true
		}
	}
	return types.DetectedMessage{}, false
}

func (s *Store) Messages() []types.DetectedMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.DetectedMessage, len(s.messages))
	copy(out, s.messages)
	return out
}

// Unprocessed returns the messages still awaiting an apology, in
// gateway order.
func (s *Store) Unprocessed() []types.DetectedMessage {
	return s.filter(false)
}

// Processed returns the messages already resolved, in gateway order.
func (s *Store) Processed() []types.DetectedMessage {
	return s.filter(true)
}

func (s *Store) filter(processed bool) []types.DetectedMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []types.DetectedMessage
	for _, msg := range s.messages {
		if msg.Processed == processed {
			out = append(out, msg)
		}
	}
	return out
}

func (s *Store) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}
