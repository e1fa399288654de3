package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/FranksOps/prospect/internal/storage"
	_ "modernc.org/sqlite"
)

// ensure sqliteBackend implements storage.Backend
var _ storage.Backend = (*sqliteBackend)(nil)

type sqliteBackend struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS leads (
	id TEXT PRIMARY KEY,
	domain TEXT NOT NULL,
	url TEXT NOT NULL,
	title TEXT,
	description TEXT,
	source TEXT NOT NULL,
	query TEXT NOT NULL,
	city TEXT,
	position INTEGER NOT NULL,
	business_name TEXT,
	address TEXT,
	phone TEXT,
	rating REAL NOT NULL,
	reviews INTEGER NOT NULL,
	category TEXT,
	place_id TEXT,
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_leads_domain ON leads(domain);
`

// New creates a new SQLite-backed storage.Backend.
func New(dsn string) (storage.Backend, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite backend: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply sqlite schema: %w", err)
	}

	return &sqliteBackend{db: db}, nil
}

func (b *sqliteBackend) Save(ctx context.Context, lead *storage.Lead) error {
	query := `
	INSERT INTO leads (
		id, domain, url, title, description, source, query, city, position,
		business_name, address, phone, rating, reviews, category, place_id, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := b.db.ExecContext(ctx, query,
		lead.ID,
		lead.Domain,
		lead.URL,
		lead.Title,
		lead.Description,
		lead.Source,
		lead.Query,
		lead.City,
		lead.Position,
		lead.BusinessName,
		lead.Address,
		lead.Phone,
		lead.Rating,
		lead.Reviews,
		lead.Category,
		lead.PlaceID,
		lead.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert lead: %w", err)
	}

	return nil
}

func (b *sqliteBackend) Query(ctx context.Context, filter storage.Filter) ([]*storage.Lead, error) {
	query := `SELECT id, domain, url, title, description, source, query, city, position,
		business_name, address, phone, rating, reviews, category, place_id, created_at
		FROM leads WHERE 1=1`
	args := []any{}

	if filter.Domain != "" {
		query += ` AND domain = ?`
		args = append(args, filter.Domain)
	}
	if filter.City != "" {
		query += ` AND city = ?`
		args = append(args, filter.City)
	}
	if filter.Source != "" {
		query += ` AND source = ?`
		args = append(args, filter.Source)
	}
	if filter.Since != nil {
		query += ` AND created_at >= ?`
		args = append(args, *filter.Since)
	}

	query += ` ORDER BY created_at DESC`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query leads: %w", err)
	}
	defer rows.Close()

	var results []*storage.Lead
	for rows.Next() {
		var l storage.Lead
		var createdAt time.Time

		err := rows.Scan(
			&l.ID, &l.Domain, &l.URL, &l.Title, &l.Description, &l.Source, &l.Query,
			&l.City, &l.Position, &l.BusinessName, &l.Address, &l.Phone, &l.Rating,
			&l.Reviews, &l.Category, &l.PlaceID, &createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}

		l.CreatedAt = createdAt
		results = append(results, &l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leads: %w", err)
	}

	return results, nil
}

func (b *sqliteBackend) Close() error {
	return b.db.Close()
}
