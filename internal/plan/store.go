package plan

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
)

// savedPlan is one NDJSON record in the plan store.
type savedPlan struct {
	Name string     `json:"name"`
	Plan *QueryPlan `json:"plan"`
}

// Store persists named plans to an append-only NDJSON file so a reviewed
// plan can be executed later without another model call. Saving an existing
// name appends a new record; Load returns the newest one.
type Store struct {
	mu   sync.Mutex
	file *os.File
}

// NewStore opens (or creates) the plan file.
func NewStore(path string) (*Store, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("plan store: %w", err)
	}
	return &Store{file: f}, nil
}

// Save appends a named plan.
func (s *Store) Save(name string, p *QueryPlan) error {
	if name == "" {
		return fmt.Errorf("plan store: name is required")
	}
	data, err := json.Marshal(savedPlan{Name: name, Plan: p})
	if err != nil {
		return fmt.Errorf("plan store: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("plan store: %w", err)
	}
	return nil
}

// Load returns the most recently saved plan with the given name.
func (s *Store) Load(name string) (*QueryPlan, error) {
	records, err := s.readAll()
	if err != nil {
		return nil, err
	}
	// Newest record wins, so scan from the end.
	for i := len(records) - 1; i >= 0; i-- {
		if records[i].Name == name {
			return records[i].Plan, nil
		}
	}
	return nil, fmt.Errorf("plan store: no plan named %q", name)
}

// List returns the distinct plan names in first-saved order.
func (s *Store) List() ([]string, error) {
	records, err := s.readAll()
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var names []string
	for _, r := range records {
		if !seen[r.Name] {
			seen[r.Name] = true
			names = append(names, r.Name)
		}
	}
	return names, nil
}

func (s *Store) readAll() ([]savedPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("plan store: %w", err)
	}
	defer func() {
		_, _ = s.file.Seek(0, io.SeekEnd)
	}()

	var out []savedPlan
	scanner := bufio.NewScanner(s.file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var r savedPlan
		if err := json.Unmarshal(line, &r); err != nil {
			return nil, fmt.Errorf("plan store: corrupt record: %w", err)
		}
		out = append(out, r)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("plan store: %w", err)
	}
	return out, nil
}

// Close releases the underlying file.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}
