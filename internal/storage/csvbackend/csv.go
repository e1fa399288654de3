package csvbackend

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/FranksOps/prospect/internal/storage"
)

// ensure csvBackend implements storage.Backend
var _ storage.Backend = (*csvBackend)(nil)

type csvBackend struct {
	mu   sync.Mutex
	file *os.File
}

// headers defines the CSV column order
var headers = []string{
	"id",
	"domain",
	"url",
	"title",
	"description",
	"source",
	"query",
	"city",
	"position",
	"business_name",
	"address",
	"phone",
	"rating",
	"reviews",
	"category",
	"place_id",
	"created_at",
}

// New creates a new CSV-backed storage.Backend. The file is opened for
// appending so a checkpoint file survives restarts.
func New(filePath string) (storage.Backend, error) {
	f, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("open csv backend: %w", err)
	}

	// Write the header row only when the file is empty.
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat csv backend: %w", err)
	}

	if info.Size() == 0 {
		w := csv.NewWriter(f)
		if err := w.Write(headers); err != nil {
			f.Close()
			return nil, fmt.Errorf("write csv header: %w", err)
		}
		w.Flush()
		if err := w.Error(); err != nil {
			f.Close()
			return nil, fmt.Errorf("flush csv header: %w", err)
		}
	}

	return &csvBackend{file: f}, nil
}

func (b *csvBackend) Save(ctx context.Context, lead *storage.Lead) error {
	record := []string{
		lead.ID,
		lead.Domain,
		lead.URL,
		lead.Title,
		lead.Description,
		lead.Source,
		lead.Query,
		lead.City,
		strconv.Itoa(lead.Position),
		lead.BusinessName,
		lead.Address,
		lead.Phone,
		strconv.FormatFloat(lead.Rating, 'f', -1, 64),
		strconv.Itoa(lead.Reviews),
		lead.Category,
		lead.PlaceID,
		lead.CreatedAt.Format(time.RFC3339Nano),
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := b.file.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("seek csv backend: %w", err)
	}

	w := csv.NewWriter(b.file)
	if err := w.Write(record); err != nil {
		return fmt.Errorf("write csv record: %w", err)
	}
	w.Flush()

	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv record: %w", err)
	}

	return nil
}

func (b *csvBackend) Query(ctx context.Context, filter storage.Filter) ([]*storage.Lead, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := b.file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek csv backend: %w", err)
	}
	defer func() {
		// Restore pointer to end for writing
		_, _ = b.file.Seek(0, io.SeekEnd)
	}()

	r := csv.NewReader(b.file)

	// Read headers
	if _, err := r.Read(); err != nil {
		if err == io.EOF {
			return []*storage.Lead{}, nil
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	var allFiltered []*storage.Lead

	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv record: %w", err)
		}

		if len(record) != len(headers) {
			continue // skip malformed rows
		}

		position, _ := strconv.Atoi(record[8])
		rating, _ := strconv.ParseFloat(record[12], 64)
		reviews, _ := strconv.Atoi(record[13])
		createdAt, _ := time.Parse(time.RFC3339Nano, record[16])

		lead := &storage.Lead{
			ID:           record[0],
			Domain:       record[1],
			URL:          record[2],
			Title:        record[3],
			Description:  record[4],
			Source:       record[5],
			Query:        record[6],
			City:         record[7],
			Position:     position,
			BusinessName: record[9],
			Address:      record[10],
			Phone:        record[11],
			Rating:       rating,
			Reviews:      reviews,
			Category:     record[14],
			PlaceID:      record[15],
			CreatedAt:    createdAt,
		}

		if !matches(lead, filter) {
			continue
		}
		allFiltered = append(allFiltered, lead)
	}

	// Order by created_at DESC (reverse the slice)
	for i, j := 0, len(allFiltered)-1; i < j; i, j = i+1, j-1 {
		allFiltered[i], allFiltered[j] = allFiltered[j], allFiltered[i]
	}

	if filter.Offset > 0 {
		if filter.Offset >= len(allFiltered) {
			return []*storage.Lead{}, nil
		}
		allFiltered = allFiltered[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(allFiltered) {
		allFiltered = allFiltered[:filter.Limit]
	}

	return allFiltered, nil
}

func matches(lead *storage.Lead, filter storage.Filter) bool {
	if filter.Domain != "" && lead.Domain != filter.Domain {
		return false
	}
	if filter.City != "" && lead.City != filter.City {
		return false
	}
	if filter.Source != "" && lead.Source != filter.Source {
		return false
	}
	if filter.Since != nil && lead.CreatedAt.Before(*filter.Since) {
		return false
	}
	return true
}

func (b *csvBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.file.Close()
}
