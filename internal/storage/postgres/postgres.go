package postgres

import (
	"context"
	"fmt"

	"github.com/FranksOps/prospect/internal/storage"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ensure postgresBackend implements storage.Backend
var _ storage.Backend = (*postgresBackend)(nil)

type postgresBackend struct {
	pool *pgxpool.Pool
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
	rating DOUBLE PRECISION NOT NULL,
	reviews INTEGER NOT NULL,
	category TEXT,
	place_id TEXT,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_leads_domain ON leads(domain);
`

// New creates a new Postgres-backed storage.Backend.
func New(ctx context.Context, dsn string) (storage.Backend, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres backend: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres backend: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply postgres schema: %w", err)
	}

	return &postgresBackend{pool: pool}, nil
}

func (b *postgresBackend) Save(ctx context.Context, lead *storage.Lead) error {
	query := `
	INSERT INTO leads (
		id, domain, url, title, description, source, query, city, position,
		business_name, address, phone, rating, reviews, category, place_id, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	_, err := b.pool.Exec(ctx, query,
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

func (b *postgresBackend) Query(ctx context.Context, filter storage.Filter) ([]*storage.Lead, error) {
	query := `SELECT id, domain, url, title, description, source, query, city, position,
		business_name, address, phone, rating, reviews, category, place_id, created_at
		FROM leads WHERE 1=1`
	args := []any{}
	paramCount := 1

	if filter.Domain != "" {
		query += fmt.Sprintf(` AND domain = $%d`, paramCount)
		args = append(args, filter.Domain)
		paramCount++
	}
	if filter.City != "" {
		query += fmt.Sprintf(` AND city = $%d`, paramCount)
		args = append(args, filter.City)
		paramCount++
	}
	if filter.Source != "" {
		query += fmt.Sprintf(` AND source = $%d`, paramCount)
		args = append(args, filter.Source)
		paramCount++
	}
	if filter.Since != nil {
		query += fmt.Sprintf(` AND created_at >= $%d`, paramCount)
		args = append(args, *filter.Since)
		paramCount++
	}

	query += ` ORDER BY created_at DESC`

	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, paramCount)
		args = append(args, filter.Limit)
		paramCount++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, paramCount)
		args = append(args, filter.Offset)
		paramCount++
	}

	rows, err := b.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query leads: %w", err)
	}
	defer rows.Close()

	var results []*storage.Lead
	for rows.Next() {
		var l storage.Lead

		err := rows.Scan(
			&l.ID, &l.Domain, &l.URL, &l.Title, &l.Description, &l.Source, &l.Query,
			&l.City, &l.Position, &l.BusinessName, &l.Address, &l.Phone, &l.Rating,
			&l.Reviews, &l.Category, &l.PlaceID, &l.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}

		results = append(results, &l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leads: %w", err)
	}

	return results, nil
}

func (b *postgresBackend) Close() error {
	b.pool.Close()
	return nil
}
