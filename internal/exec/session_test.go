package exec

import (
	"context"
	"sync"
	"testing"

	"github.com/FranksOps/prospect/internal/storage"
)

// memBackend is a minimal in-memory storage.Backend for checkpoint tests.
type memBackend struct {
	mu    sync.Mutex
	saved []*storage.Lead
}

func (m *memBackend) Save(ctx context.Context, l *storage.Lead) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, l)
	return nil
}

func (m *memBackend) Query(ctx context.Context, f storage.Filter) ([]*storage.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*storage.Lead(nil), m.saved...), nil
}

func (m *memBackend) Close() error { return nil }

var _ storage.Backend = (*memBackend)(nil)

func TestSessionCheckpointEveryN(t *testing.T) {
	mb := &memBackend{}
	s := NewSession(mb, 3)
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		if err := s.AddLead(ctx, &storage.Lead{ID: "x"}); err != nil {
			t.Fatalf("AddLead: %v", err)
		}
	}
	// Two full batches of 3 flushed, one lead pending.
	if len(mb.saved) != 6 {
		t.Errorf("expected 6 checkpointed leads, got %d", len(mb.saved))
	}

	if err := s.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if len(mb.saved) != 7 {
		t.Errorf("expected 7 after flush, got %d", len(mb.saved))
	}

	// Flushing again must not duplicate.
	if err := s.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if len(mb.saved) != 7 {
		t.Errorf("flush is not idempotent: %d", len(mb.saved))
	}
}

func TestSessionLeadsBySource(t *testing.T) {
	s := NewSession(nil, 0)
	ctx := context.Background()

	s.AddLead(ctx, &storage.Lead{ID: "a", Source: "organic"})
	s.AddLead(ctx, &storage.Lead{ID: "b", Source: "maps"})
	s.AddLead(ctx, &storage.Lead{ID: "c", Source: "ads"})

	web, maps := s.LeadsBySource()
	if len(web) != 2 || len(maps) != 1 {
		t.Fatalf("split wrong: %d web, %d maps", len(web), len(maps))
	}
	if web[0].ID != "a" || web[1].ID != "c" || maps[0].ID != "b" {
		t.Errorf("order not preserved")
	}
}

func TestSessionSeenTrackers(t *testing.T) {
	s := NewSession(nil, 0)

	if s.MarkURLSeen("https://a.com/x") {
		t.Error("first sighting reported as seen")
	}
	if !s.MarkURLSeen("https://a.com/x") {
		t.Error("second sighting not reported")
	}
	if s.MarkURLSeen("") {
		t.Error("empty URL must not be tracked")
	}

	if s.MarkPlaceSeen("place:p1") {
		t.Error("first place sighting reported as seen")
	}
	if !s.MarkPlaceSeen("place:p1") {
		t.Error("second place sighting not reported")
	}
}

func TestSessionCounters(t *testing.T) {
	s := NewSession(nil, 0)
	s.CountCall()
	s.CountCall()
	s.CountFailure()

	if s.APICalls() != 2 {
		t.Errorf("APICalls = %d", s.APICalls())
	}
	if s.Failures() != 1 {
		t.Errorf("Failures = %d", s.Failures())
	}
	if s.ID == "" {
		t.Error("session ID not assigned")
	}
}
