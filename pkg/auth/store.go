// Package auth tracks which external platforms are linked and holds the
// backend credential used by the gateway.
package auth

import (
	"context"
	"sort"
	"sync"

	"sorrycast/pkg/logger"
	"sorrycast/pkg/types"
)

// Authenticator is the subset of the gateway the connection store uses.
type Authenticator interface {
	AuthenticatePlatform(ctx context.Context, platform types.Platform, code string) (types.PlatformConnection, error)
	ListConnections(ctx context.Context) ([]types.PlatformConnection, error)
}

// messagingPlatforms are the acceptable message origins; one of them
// plus YouTube satisfies the minimum connection requirement.
var messagingPlatforms = []types.Platform{
	types.PlatformSlack,
	types.PlatformLINE,
	types.PlatformDiscord,
}

// Store owns the set of platform connections. One record per platform
// is authoritative; refreshes replace the whole set.
type Store struct {
	mu      sync.RWMutex
	gw      Authenticator
	conns   map[types.Platform]types.PlatformConnection
	lastErr error
}

func NewStore(gw Authenticator) *Store {
	return &Store{
		gw:    gw,
		conns: make(map[types.Platform]types.PlatformConnection),
	}
}

// Refresh replaces the connection set from the gateway. On failure the
// previous set is retained and the error recorded.
func (s *Store) Refresh(ctx context.Context) error {
	conns, err := s.gw.ListConnections(ctx)
	if err != nil {
		s.mu.Lock()
		s.lastErr = err
		s.mu.Unlock()
		logger.WarnCF("auth", "Connection refresh failed", map[string]any{
			"error": err.Error(),
		})
		return err
	}

	next := make(map[types.Platform]types.PlatformConnection, len(conns))
	for _, conn := range conns {
		// Last record wins; the map keeps one authoritative entry per platform.
		next[conn.Platform] = conn
	}

	s.mu.Lock()
	s.conns = next
	s.lastErr = nil
	s.mu.Unlock()
	return nil
}

// Connect authenticates a platform through the gateway and, on success,
// performs a full Refresh so the store never holds stale partial state.
func (s *Store) Connect(ctx context.Context, platform types.Platform, code string) error {
	if _, err := s.gw.AuthenticatePlatform(ctx, platform, code); err != nil {
		s.mu.Lock()
		s.lastErr = err
		s.mu.Unlock()
		return err
	}

	if err := s.Refresh(ctx); err != nil {
		// The connection itself succeeded; the stale set just lasts
		// until the next refresh.
		logger.WarnCF("auth", "Post-connect refresh failed", map[string]any{
			"platform": string(platform),
			"error":    err.Error(),
		})
	}

	logger.InfoCF("auth", "Platform connected", map[string]any{
		"platform": string(platform),
	})
	return nil
}

func (s *Store) IsConnected(platform types.Platform) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conn, ok := s.conns[platform]
	return ok && conn.Connected
}

// HasRequiredConnections reports whether YouTube plus at least one
// messaging platform is connected.
func (s *Store) HasRequiredConnections() bool {
	if !s.IsConnected(types.PlatformYouTube) {
		return false
	}
	for _, p := range messagingPlatforms {
		if s.IsConnected(p) {
			return true
		}
	}
	return false
}

// Connections returns a snapshot sorted by platform name.
func (s *Store) Connections() []types.PlatformConnection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.PlatformConnection, 0, len(s.conns))
	for _, conn := range s.conns {
		out = append(out, conn)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Platform < out[j].Platform })
	return out
}

func (s *Store) ConnectedCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, conn := range s.conns {
		if conn.Connected {
			n++
		}
	}
	return n
}

func (s *Store) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}
