package metrics

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"
)

func TestMetricsServer(t *testing.T) {
	srv := Start(8889)
	// Give it a tiny bit of time to start up
	time.Sleep(100 * time.Millisecond)

	defer srv.Stop(context.Background())

	RecordSerperRequest("/search", "200", 750*time.Millisecond)
	LeadsCollectedTotal.WithLabelValues("organic").Inc()
	DuplicatesDroppedTotal.WithLabelValues("web").Inc()
	PlanRequestsTotal.WithLabelValues("ok").Inc()

	resp, err := http.Get("http://localhost:8889/metrics")
	if err != nil {
		t.Fatalf("failed to fetch metrics: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}

	output := string(body)

	if !strings.Contains(output, `prospect_serper_requests_total{endpoint="/search",status="200"}`) {
		t.Errorf("expected serper request counter")
	}
	if !strings.Contains(output, "prospect_serper_request_duration_seconds_bucket") {
		t.Errorf("expected serper duration histogram")
	}
	if !strings.Contains(output, `prospect_leads_collected_total{source="organic"}`) {
		t.Errorf("expected leads counter")
	}
	if !strings.Contains(output, `prospect_duplicates_dropped_total{phase="web"}`) {
		t.Errorf("expected duplicates counter")
	}
}
