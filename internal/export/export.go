// Package export writes run output to timestamped CSV files. Unlike a
// skipped search request, an export failure is fatal: the run's results
// exist nowhere else.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/FranksOps/prospect/internal/storage"
)

const timestampLayout = "20060102_150405"

// Error marks a failed export. The collected results are lost if the caller
// discards them, so this must abort the run loudly.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("export to %s failed: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Exporter writes CSV files into a results directory, creating it on first
// use. The now func is replaceable for tests.
type Exporter struct {
	Dir string
	now func() time.Time
}

// New creates an exporter rooted at dir.
func New(dir string) *Exporter {
	return &Exporter{Dir: dir, now: time.Now}
}

var leadHeaders = []string{
	"domain", "url", "title", "description", "source", "query", "city",
	"position", "business_name", "address", "phone", "rating", "reviews",
	"category",
}

// Leads writes the merged lead set and returns the file path.
func (e *Exporter) Leads(leads []*storage.Lead) (string, error) {
	path := e.path("search_results")
	w, f, err := e.create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := w.Write(leadHeaders); err != nil {
		return "", &Error{Path: path, Err: err}
	}
	for _, l := range leads {
		rating := ""
		if l.Rating > 0 {
			rating = strconv.FormatFloat(l.Rating, 'f', 1, 64)
		}
		reviews := ""
		if l.Reviews > 0 {
			reviews = strconv.Itoa(l.Reviews)
		}
		position := ""
		if l.Position > 0 {
			position = strconv.Itoa(l.Position)
		}
		row := []string{
			l.Domain, l.URL, l.Title, l.Description, l.Source, l.Query,
			l.City, position, l.BusinessName, l.Address, l.Phone, rating,
			reviews, l.Category,
		}
		if err := w.Write(row); err != nil {
			return "", &Error{Path: path, Err: err}
		}
	}

	return path, e.finish(w, f, path)
}

// Related writes the captured related searches as (original_query,
// related_search) pairs, queries in sorted order for stable output.
func (e *Exporter) Related(related map[string][]string) (string, error) {
	path := e.path("related_searches")
	w, f, err := e.create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := w.Write([]string{"original_query", "related_search"}); err != nil {
		return "", &Error{Path: path, Err: err}
	}

	queries := make([]string, 0, len(related))
	for q := range related {
		queries = append(queries, q)
	}
	sort.Strings(queries)

	for _, q := range queries {
		for _, r := range related[q] {
			if err := w.Write([]string{q, r}); err != nil {
				return "", &Error{Path: path, Err: err}
			}
		}
	}

	return path, e.finish(w, f, path)
}

// Suggestions writes the captured autocomplete completions.
func (e *Exporter) Suggestions(values []string) (string, error) {
	path := e.path("suggestions")
	w, f, err := e.create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := w.Write([]string{"suggestion"}); err != nil {
		return "", &Error{Path: path, Err: err}
	}
	for _, v := range values {
		if err := w.Write([]string{v}); err != nil {
			return "", &Error{Path: path, Err: err}
		}
	}

	return path, e.finish(w, f, path)
}

func (e *Exporter) path(prefix string) string {
	name := fmt.Sprintf("%s_%s.csv", prefix, e.now().Format(timestampLayout))
	return filepath.Join(e.Dir, name)
}

func (e *Exporter) create(path string) (*csv.Writer, *os.File, error) {
	if err := os.MkdirAll(e.Dir, 0755); err != nil {
		return nil, nil, &Error{Path: path, Err: err}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, &Error{Path: path, Err: err}
	}
	return csv.NewWriter(f), f, nil
}

func (e *Exporter) finish(w *csv.Writer, f *os.File, path string) error {
	w.Flush()
	if err := w.Error(); err != nil {
		return &Error{Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return &Error{Path: path, Err: err}
	}
	return nil
}
