package mcp

import (
	"sync"
	"time"
)

// Publication records one location update sent through the MCP server.
type Publication struct {
	Name      string    `json:"name"`
	Location  string    `json:"location"`
	Topic     string    `json:"topic"`
	Partition int32     `json:"partition"`
	SentAt    time.Time `json:"sent_at"`
}

// RecentStore keeps the most recent publications of this server session.
// Nothing is persisted; the history ends with the process.
type RecentStore struct {
	mu    sync.RWMutex
	limit int
	items []Publication
}

// NewRecentStore creates a store that keeps at most limit publications.
func NewRecentStore(limit int) *RecentStore {
	if limit <= 0 {
		limit = 50
	}
	return &RecentStore{limit: limit}
}

// Add appends p, evicting the oldest entry when full.
func (s *RecentStore) Add(p Publication) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = append(s.items, p)
	if len(s.items) > s.limit {
		s.items = s.items[len(s.items)-s.limit:]
	}
}

// Recent returns up to n publications, newest first.
func (s *RecentStore) Recent(n int) []Publication {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n <= 0 || n > len(s.items) {
		n = len(s.items)
	}
	out := make([]Publication, 0, n)
	for i := len(s.items) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.items[i])
	}
	return out
}
