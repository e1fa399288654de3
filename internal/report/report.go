// Package report aggregates a finished run into a summary for humans and
// machines.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"text/template"
	"time"

	"github.com/FranksOps/prospect/internal/storage"
)

// Summary contains aggregated metrics about a collection run.
type Summary struct {
	SessionID     string
	TotalLeads    int
	UniqueDomains int
	BySource      map[string]int
	ByCity        map[string]int
	RelatedCount  int
	APICalls      int
	Failures      int
	StartTime     time.Time
	EndTime       time.Time
	Duration      time.Duration
}

// Input carries everything the summary is built from.
type Input struct {
	SessionID string
	Leads     []*storage.Lead
	Related   map[string][]string
	APICalls  int
	Failures  int
	StartedAt time.Time
	EndedAt   time.Time
}

// GenerateSummary aggregates the merged lead set and session counters.
func GenerateSummary(in Input) Summary {
	s := Summary{
		SessionID: in.SessionID,
		BySource:  make(map[string]int),
		ByCity:    make(map[string]int),
		APICalls:  in.APICalls,
		Failures:  in.Failures,
		StartTime: in.StartedAt,
		EndTime:   in.EndedAt,
	}

	domains := map[string]struct{}{}
	for _, l := range in.Leads {
		s.TotalLeads++
		s.BySource[l.Source]++
		if l.City != "" {
			s.ByCity[l.City]++
		}
		if l.Domain != "" {
			domains[l.Domain] = struct{}{}
		}
	}
	s.UniqueDomains = len(domains)

	for _, related := range in.Related {
		s.RelatedCount += len(related)
	}

	if !s.EndTime.IsZero() && !s.StartTime.IsZero() {
		s.Duration = s.EndTime.Sub(s.StartTime)
	}
	return s
}

// WriteJSON writes the summary to the provided writer in JSON format.
func WriteJSON(w io.Writer, summary Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	return nil
}

// WriteText writes a human-readable text summary to the provided writer.
func WriteText(w io.Writer, summary Summary) error {
	const textTmpl = `Prospect Run Summary
--------------------
Session:        {{.SessionID}}
Time:           {{.StartTime.Format "2006-01-02 15:04:05"}} - {{.EndTime.Format "2006-01-02 15:04:05"}}
Duration:       {{.Duration}}
API Calls:      {{.APICalls}} ({{.Failures}} skipped after retries)
Leads:          {{.TotalLeads}} ({{.UniqueDomains}} unique domains)
Related Found:  {{.RelatedCount}}

By Source:
{{- range $src, $count := .BySource}}
  {{$src}}: {{$count}}
{{- else}}
  None
{{- end}}

By City:
{{- range $city, $count := .ByCity}}
  {{$city}}: {{$count}}
{{- else}}
  None
{{- end}}
`

	t, err := template.New("textReport").Parse(textTmpl)
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}
	if err := t.Execute(w, summary); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	return nil
}
