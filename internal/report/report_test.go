package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/FranksOps/prospect/internal/storage"
)

func TestGenerateSummary(t *testing.T) {
	start := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	end := start.Add(90 * time.Second)

	in := Input{
		SessionID: "s-1",
		Leads: []*storage.Lead{
			{Domain: "acme.com", Source: "organic", City: "Dallas, TX"},
			{Domain: "other.com", Source: "organic", City: "Dallas, TX"},
			{Domain: "dallasprint.com", Source: "maps", City: "Austin, TX"},
			{Domain: "acme.com", Source: "ads", City: "Austin, TX"},
		},
		Related: map[string][]string{
			"custom printing": {"custom printing near me", "custom printing wholesale"},
		},
		APICalls:  42,
		Failures:  2,
		StartedAt: start,
		EndedAt:   end,
	}

	summary := GenerateSummary(in)

	if summary.TotalLeads != 4 {
		t.Errorf("expected 4 leads, got %d", summary.TotalLeads)
	}
	if summary.UniqueDomains != 3 {
		t.Errorf("expected 3 unique domains, got %d", summary.UniqueDomains)
	}
	if summary.BySource["organic"] != 2 || summary.BySource["maps"] != 1 || summary.BySource["ads"] != 1 {
		t.Errorf("unexpected source split: %v", summary.BySource)
	}
	if summary.ByCity["Dallas, TX"] != 2 {
		t.Errorf("unexpected city split: %v", summary.ByCity)
	}
	if summary.RelatedCount != 2 {
		t.Errorf("expected 2 related searches, got %d", summary.RelatedCount)
	}
	if summary.APICalls != 42 || summary.Failures != 2 {
		t.Errorf("counters lost: %d / %d", summary.APICalls, summary.Failures)
	}
	if summary.Duration != 90*time.Second {
		t.Errorf("expected 90s duration, got %v", summary.Duration)
	}
}

func TestWriteJSON(t *testing.T) {
	summary := Summary{TotalLeads: 5}
	var buf bytes.Buffer
	if err := WriteJSON(&buf, summary); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), `"TotalLeads": 5`) {
		t.Errorf("expected JSON to contain TotalLeads: 5")
	}
}

func TestWriteText(t *testing.T) {
	summary := Summary{
		SessionID:     "s-1",
		TotalLeads:    5,
		UniqueDomains: 4,
		APICalls:      12,
		Failures:      1,
		BySource:      map[string]int{"organic": 4, "maps": 1},
	}
	var buf bytes.Buffer
	if err := WriteText(&buf, summary); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "Leads:          5 (4 unique domains)") {
		t.Errorf("expected lead line, got:\n%s", out)
	}
	if !strings.Contains(out, "organic: 4") {
		t.Errorf("expected source breakdown, got:\n%s", out)
	}
	if !strings.Contains(out, "12 (1 skipped after retries)") {
		t.Errorf("expected call counts, got:\n%s", out)
	}
}

func TestWriteTextEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteText(&buf, Summary{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "None") {
		t.Errorf("empty breakdowns should render None")
	}
}
