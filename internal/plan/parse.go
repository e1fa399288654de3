package plan

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/FranksOps/prospect/internal/tables"
)

// rawPlan mirrors the JSON contract given to the model.
type rawPlan struct {
	Queries []struct {
		Text         string            `json:"text"`
		Priority     string            `json:"priority"`
		Category     string            `json:"category"`
		Reasoning    string            `json:"reasoning"`
		Translations map[string]string `json:"translations"`
	} `json:"queries"`
	Cities map[string]struct {
		Cities    []string `json:"cities"`
		Reasoning string   `json:"reasoning"`
	} `json:"cities"`
	EstimatedCalls int    `json:"estimated_calls"`
	Strategy       string `json:"strategy"`
}

// parsePlan decodes a model response into a QueryPlan, validating every
// field. Markdown code fences around the JSON are tolerated.
func parsePlan(raw string, cons Constraints) (*QueryPlan, error) {
	clean := stripFences(raw)

	var rp rawPlan
	if err := json.Unmarshal([]byte(clean), &rp); err != nil {
		return nil, &ParseError{Raw: raw, Err: err}
	}

	if len(rp.Queries) == 0 {
		return nil, &ParseError{Raw: raw, Err: fmt.Errorf("no queries in response")}
	}

	p := &QueryPlan{Rationale: rp.Strategy}

	for i, q := range rp.Queries {
		text := strings.TrimSpace(q.Text)
		if text == "" {
			return nil, &ParseError{Raw: raw, Err: fmt.Errorf("query %d has empty text", i)}
		}
		prio := Priority(strings.ToUpper(strings.TrimSpace(q.Priority)))
		switch prio {
		case PriorityHigh, PriorityMedium, PriorityLow:
		default:
			return nil, &ParseError{Raw: raw, Err: fmt.Errorf("query %d has invalid priority %q", i, q.Priority)}
		}

		var translations map[string]string
		for cc, t := range q.Translations {
			cc = strings.ToUpper(strings.TrimSpace(cc))
			t = strings.TrimSpace(t)
			if cc == "" || t == "" {
				continue
			}
			if translations == nil {
				translations = map[string]string{}
			}
			translations[cc] = t
		}

		p.Queries = append(p.Queries, QueryCandidate{
			Text:         text,
			Priority:     prio,
			Category:     strings.TrimSpace(q.Category),
			Reasoning:    strings.TrimSpace(q.Reasoning),
			Translations: translations,
		})
	}

	// Walk countries in the requested order so the plan is deterministic
	// regardless of JSON map iteration.
	for _, cc := range cons.Countries {
		rec, ok := rp.Cities[cc]
		if !ok {
			// Models occasionally key by lowercase code.
			rec, ok = rp.Cities[strings.ToLower(cc)]
		}
		if !ok || len(rec.Cities) == 0 {
			return nil, &ParseError{Raw: raw, Err: fmt.Errorf("no cities for country %s", cc)}
		}
		info, found := tables.Country(cc)
		if !found {
			return nil, &ParseError{Raw: raw, Err: fmt.Errorf("unknown country code %s in response", cc)}
		}

		n := 0
		for _, city := range rec.Cities {
			city = strings.TrimSpace(city)
			if city == "" {
				continue
			}
			if n >= cons.CitiesPerCountry {
				break
			}
			p.Cities = append(p.Cities, CityTarget{
				Country: cc,
				City:    city,
				Locale:  info.Language,
			})
			n++
		}
		if n == 0 {
			return nil, &ParseError{Raw: raw, Err: fmt.Errorf("no usable cities for country %s", cc)}
		}
	}

	p.EstimatedCalls = rp.EstimatedCalls
	if p.EstimatedCalls <= 0 {
		p.EstimatedCalls = len(p.Queries) * len(p.Cities)
	}

	return p, nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
