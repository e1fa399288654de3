package export

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/FranksOps/prospect/internal/storage"
)

func newTestExporter(t *testing.T) *Exporter {
	t.Helper()
	e := New(t.TempDir())
	e.now = func() time.Time {
		return time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	}
	return e
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return rows
}

func TestLeadsExport(t *testing.T) {
	e := newTestExporter(t)

	leads := []*storage.Lead{
		{Domain: "acme.com", URL: "https://acme.com/", Title: "Acme", Description: "printing", Source: "organic", Query: "custom printing", City: "Dallas, TX", Position: 3},
		{Domain: "dallasprint.com", URL: "https://dallasprint.com/", Source: "maps", Query: "custom printing", City: "Dallas, TX", BusinessName: "Dallas Print Co", Address: "1 Main St", Phone: "+1 555", Rating: 4.7, Reviews: 120, Category: "Print shop"},
	}

	path, err := e.Leads(leads)
	if err != nil {
		t.Fatalf("Leads: %v", err)
	}
	if filepath.Base(path) != "search_results_20250314_092653.csv" {
		t.Errorf("unexpected filename: %s", filepath.Base(path))
	}

	rows := readCSV(t, path)
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "domain" || rows[0][7] != "position" {
		t.Errorf("unexpected header: %v", rows[0])
	}
	if rows[1][0] != "acme.com" || rows[1][7] != "3" {
		t.Errorf("unexpected organic row: %v", rows[1])
	}
	if rows[2][8] != "Dallas Print Co" || rows[2][11] != "4.7" || rows[2][12] != "120" {
		t.Errorf("unexpected maps row: %v", rows[2])
	}
	// Zero-valued numeric fields stay empty, not "0".
	if rows[1][11] != "" || rows[2][7] != "" {
		t.Errorf("zero values not blanked: %v / %v", rows[1], rows[2])
	}
}

func TestRelatedExportSorted(t *testing.T) {
	e := newTestExporter(t)

	path, err := e.Related(map[string][]string{
		"zeta query":  {"z related"},
		"alpha query": {"a related 1", "a related 2"},
	})
	if err != nil {
		t.Fatalf("Related: %v", err)
	}
	if !strings.HasPrefix(filepath.Base(path), "related_searches_") {
		t.Errorf("unexpected filename: %s", filepath.Base(path))
	}

	rows := readCSV(t, path)
	if len(rows) != 4 {
		t.Fatalf("expected header + 3 rows, got %d", len(rows))
	}
	if rows[1][0] != "alpha query" || rows[3][0] != "zeta query" {
		t.Errorf("queries not sorted: %v", rows)
	}
}

func TestSuggestionsExport(t *testing.T) {
	e := newTestExporter(t)

	path, err := e.Suggestions([]string{"custom printing wholesale", "custom printing near me"})
	if err != nil {
		t.Fatalf("Suggestions: %v", err)
	}
	rows := readCSV(t, path)
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
}

func TestExportCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "results")
	e := New(dir)

	if _, err := e.Leads(nil); err != nil {
		t.Fatalf("Leads: %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("directory not created: %v", err)
	}
}

func TestExportFailureIsTyped(t *testing.T) {
	// A file where the directory should be makes creation fail.
	base := t.TempDir()
	blocked := filepath.Join(base, "blocked")
	if err := os.WriteFile(blocked, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	e := New(filepath.Join(blocked, "sub"))
	_, err := e.Leads(nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if _, ok := err.(*Error); !ok {
		t.Errorf("expected *export.Error, got %T", err)
	}
}
