// Package exec runs a query plan against the search API: the web search
// phase, the maps phase, and the bookkeeping shared between them.
package exec

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/FranksOps/prospect/internal/storage"
)

// Session accumulates everything a run produces. One session spans both
// phases so API call counts and failures are totalled across them.
type Session struct {
	ID        string
	StartedAt time.Time

	mu          sync.Mutex
	leads       []*storage.Lead
	related     map[string][]string
	suggestions []string
	apiCalls    int
	failures    int

	seenURLs   map[string]struct{}
	seenPlaces map[string]struct{}

	checkpoint      storage.Backend
	checkpointEvery int
	unflushed       []*storage.Lead
}

// NewSession creates a session. checkpoint may be nil; when set, accumulated
// leads are flushed to it every checkpointEvery additions so an interrupted
// run loses little work.
func NewSession(checkpoint storage.Backend, checkpointEvery int) *Session {
	if checkpointEvery <= 0 {
		checkpointEvery = 50
	}
	return &Session{
		ID:              uuid.NewString(),
		StartedAt:       time.Now().UTC(),
		related:         map[string][]string{},
		seenURLs:        map[string]struct{}{},
		seenPlaces:      map[string]struct{}{},
		checkpoint:      checkpoint,
		checkpointEvery: checkpointEvery,
	}
}

// AddLead records a lead and checkpoints when the threshold is reached.
func (s *Session) AddLead(ctx context.Context, l *storage.Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.leads = append(s.leads, l)
	if s.checkpoint == nil {
		return nil
	}

	s.unflushed = append(s.unflushed, l)
	if len(s.unflushed) < s.checkpointEvery {
		return nil
	}
	return s.flushLocked(ctx)
}

// Flush writes any leads not yet checkpointed.
func (s *Session) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.checkpoint == nil {
		return nil
	}
	return s.flushLocked(ctx)
}

func (s *Session) flushLocked(ctx context.Context) error {
	for i, l := range s.unflushed {
		if err := s.checkpoint.Save(ctx, l); err != nil {
			s.unflushed = s.unflushed[i:]
			return fmt.Errorf("checkpoint: %w", err)
		}
	}
	s.unflushed = s.unflushed[:0]
	return nil
}

// MarkURLSeen reports whether the exact URL was already collected in this
// session, recording it otherwise. Comparison is case sensitive.
func (s *Session) MarkURLSeen(url string) bool {
	if url == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seenURLs[url]; ok {
		return true
	}
	s.seenURLs[url] = struct{}{}
	return false
}

// MarkPlaceSeen is the maps-phase equivalent keyed by business identity.
func (s *Session) MarkPlaceSeen(key string) bool {
	if key == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seenPlaces[key]; ok {
		return true
	}
	s.seenPlaces[key] = struct{}{}
	return false
}

// AddRelated records the related searches returned alongside a query.
func (s *Session) AddRelated(query string, related []string) {
	if len(related) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.related[query] = append(s.related[query], related...)
}

// AddSuggestions records autocomplete completions.
func (s *Session) AddSuggestions(values []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.suggestions = append(s.suggestions, values...)
}

// CountCall increments the API call total.
func (s *Session) CountCall() {
	s.mu.Lock()
	s.apiCalls++
	s.mu.Unlock()
}

// CountFailure increments the skipped-request total.
func (s *Session) CountFailure() {
	s.mu.Lock()
	s.failures++
	s.mu.Unlock()
}

// Leads returns a copy of the accumulated leads.
func (s *Session) Leads() []*storage.Lead {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*storage.Lead, len(s.leads))
	copy(out, s.leads)
	return out
}

// LeadsBySource splits the accumulated leads into web-phase and maps-phase
// slices, preserving collection order.
func (s *Session) LeadsBySource() (web, maps []*storage.Lead) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.leads {
		if l.Source == "maps" {
			maps = append(maps, l)
		} else {
			web = append(web, l)
		}
	}
	return web, maps
}

// Related returns the captured related searches keyed by originating query.
func (s *Session) Related() map[string][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string][]string, len(s.related))
	for k, v := range s.related {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// Suggestions returns the captured autocomplete completions.
func (s *Session) Suggestions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.suggestions...)
}

// APICalls returns the total number of API requests attempted.
func (s *Session) APICalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apiCalls
}

// Failures returns the number of requests skipped after exhausted retries.
func (s *Session) Failures() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failures
}
