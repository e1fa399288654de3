package storage

import (
	"context"
	"time"
)

// Lead is a single discovered business. Web-phase results populate the URL
// oriented fields; maps-phase results additionally carry the local-business
// metadata. A lead is immutable once captured.
type Lead struct {
	ID          string
	Domain      string
	URL         string
	Title       string
	Description string
	Source      string // organic | ads | shopping | maps
	Query       string
	City        string
	Position    int

	// Maps-only fields, zero for web results.
	BusinessName string
	Address      string
	Phone        string
	Rating       float64
	Reviews      int
	Category     string
	PlaceID      string

	CreatedAt time.Time
}

// Filter allows querying for specific leads.
type Filter struct {
	Domain string
	City   string
	Source string
	Since  *time.Time
	Limit  int
	Offset int
}

// Backend defines the interface for persisting and querying leads. It serves
// both as the checkpoint sink of a running session and as lead retention
// across runs.
type Backend interface {
	Save(ctx context.Context, lead *Lead) error
	Query(ctx context.Context, filter Filter) ([]*Lead, error)
	Close() error
}
