package game

import (
	"strings"
	"sync"
	"time"
)

// Registry owns the process-wide room map. It is an explicit instance
// with defined construction so tests can run isolated registries; no
// package-level state.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]*Room)}
}

// Canonical normalizes a room code: codes are case-insensitive and
// stored upper-case.
func Canonical(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Room returns the room for a code, creating it lazily on first
// reference. An unknown room is never an error.
func (reg *Registry) Room(code string) *Room {
	code = Canonical(code)

	reg.mu.RLock()
	r := reg.rooms[code]
	reg.mu.RUnlock()
	if r != nil {
		return r
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()
	if r = reg.rooms[code]; r == nil {
		r = newRoom(code)
		reg.rooms[code] = r
	}
	return r
}

// Lookup returns an existing room without creating one.
func (reg *Registry) Lookup(code string) (*Room, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	r, ok := reg.rooms[Canonical(code)]
	return r, ok
}

func (reg *Registry) Len() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.rooms)
}

// Sweep drops rooms idle for longer than ttl and returns how many were
// removed. Callers run this periodically; a ttl of zero disables
// sweeping entirely.
func (reg *Registry) Sweep(ttl time.Duration) int {
	if ttl <= 0 {
		return 0
	}
	cutoff := time.Now().UTC().Add(-ttl)

	reg.mu.Lock()
	defer reg.mu.Unlock()
	removed := 0
	for code, r := range reg.rooms {
		if r.LastActive().Before(cutoff) {
			delete(reg.rooms, code)
			removed++
		}
	}
	return removed
}
