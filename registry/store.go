// Package registry implements WIND's authoritative, in-memory directory of
// live endpoints (spec.md §4.2): a concurrent name→entry map with TTL-based
// liveness and glob pattern lookup, plus the TCP server that fronts it
// (server.go).
//
// Grounded on BX-D-mini-RPC/registry/registry.go's Register/Deregister/
// Discover interface shape, replacing its etcd-lease-backed implementation
// with a local clock and a periodic sweeper (the etcd dependency is dropped
// — see DESIGN.md — because spec.md §4.2 specifies an in-memory store and
// multi-node replication is an explicit Non-goal).
package registry

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mvishiu11/WIND/message"
	"github.com/mvishiu11/WIND/pattern"
)

// entry is one registry record: a ServiceInfo plus its expiry.
type entry struct {
	info      message.ServiceInfo
	expiresAt time.Time
}

// Store is the concurrent, in-memory registry (spec.md §4.2). Reads and
// writes are guarded by a single RWMutex: the store is not sharded because
// WIND targets thousands, not millions, of live services, and a sweeper
// that only needs a brief write lock per pass does not starve handlers at
// that scale.
type Store struct {
	mu      sync.RWMutex
	entries map[string]entry
	log     *zap.Logger

	now func() time.Time // overridable for deterministic TTL tests
}

// NewStore constructs an empty Store. A nil logger falls back to a no-op
// logger.
func NewStore(log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		entries: make(map[string]entry),
		log:     log,
		now:     time.Now,
	}
}

// Register upserts info, setting expires_at = now + ttl. A second
// Register for the same name replaces the prior entry — this is the
// heartbeat mechanism (spec.md §3 Invariants). Returns the prior entry, if
// any, for observability.
func (s *Store) Register(info message.ServiceInfo, ttl time.Duration) (prev message.ServiceInfo, hadPrev bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.entries[info.Name]
	s.entries[info.Name] = entry{info: info, expiresAt: s.now().Add(ttl)}
	s.log.Debug("registered service", zap.String("name", info.Name), zap.String("endpoint", info.Endpoint), zap.Duration("ttl", ttl))
	if ok {
		return old.info, true
	}
	return message.ServiceInfo{}, false
}

// Unregister removes name, if present.
func (s *Store) Unregister(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, name)
	s.log.Debug("unregistered service", zap.String("name", name))
}

// Lookup returns every live entry (now < expires_at) whose name matches
// pattern (pattern.Match semantics, spec.md §4.2/§6).
func (s *Store) Lookup(patternStr string) []message.ServiceInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	var out []message.ServiceInfo
	for name, e := range s.entries {
		if now.After(e.expiresAt) || now.Equal(e.expiresAt) {
			continue // expired — never returned by discovery (spec.md §3)
		}
		if pattern.Match(patternStr, name) {
			out = append(out, e.info)
		}
	}
	return out
}

// Sweep removes every entry with expires_at <= now. Returns the count
// removed, for logging/observability.
func (s *Store) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for name, e := range s.entries {
		if now.After(e.expiresAt) || now.Equal(e.expiresAt) {
			delete(s.entries, name)
			removed++
		}
	}
	if removed > 0 {
		s.log.Debug("swept expired registrations", zap.Int("removed", removed))
	}
	return removed
}

// RunSweeper runs Sweep on a fixed cadence until stop is closed. Per
// spec.md §4.2, cadence should be <= min_ttl/2; callers are responsible for
// choosing an interval that respects whatever TTLs they expect to see
// (config.Config.SweepInterval default is 30s).
func (s *Store) RunSweeper(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case t := <-ticker.C:
			s.Sweep(t)
		}
	}
}
