// Package plan builds and validates search query plans. A plan pairs a set of
// prioritized query candidates with a set of target cities; the executor runs
// every query in every city.
package plan

import (
	"fmt"
	"sort"
	"time"

	"github.com/FranksOps/prospect/internal/tables"
)

// Priority ranks a query candidate by expected buyer signal strength.
type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

func priorityRank(p Priority) int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}

// BusinessContext describes what the user sells and who they want to find.
// It is passed verbatim into the model prompt.
type BusinessContext struct {
	Description string   `json:"description"`
	MustHave    []string `json:"must_have,omitempty"`
	Excluded    []string `json:"excluded,omitempty"`
}

// Constraints bound the generated plan.
type Constraints struct {
	Countries        []string `json:"countries"`
	CitiesPerCountry int      `json:"cities_per_country"`
	MaxTotalQueries  int      `json:"max_total_queries"` // query x city combination budget, must be positive
	NativeLanguage   bool     `json:"native_language"`   // translate queries into each country's language
	ResultsPerQuery  int      `json:"results_per_query"`
}

// Validate checks the constraints before any network call is made.
func (c *Constraints) Validate() error {
	if len(c.Countries) == 0 {
		return &ConfigError{Field: "countries", Reason: "at least one country is required"}
	}
	for _, cc := range c.Countries {
		if _, ok := tables.Country(cc); !ok {
			return &ConfigError{Field: "countries", Reason: fmt.Sprintf("unknown country code %q", cc)}
		}
	}
	if c.CitiesPerCountry <= 0 {
		return &ConfigError{Field: "cities_per_country", Reason: "must be positive"}
	}
	if c.MaxTotalQueries <= 0 {
		return &ConfigError{Field: "max_total_queries", Reason: "must be a positive integer"}
	}
	if c.ResultsPerQuery <= 0 || c.ResultsPerQuery > 100 {
		return &ConfigError{Field: "results_per_query", Reason: "must be between 1 and 100"}
	}
	return nil
}

// QueryCandidate is one generated search query with its ranking metadata.
type QueryCandidate struct {
	Text      string   `json:"text"`
	Priority  Priority `json:"priority"`
	Category  string   `json:"category"`
	Reasoning string   `json:"reasoning,omitempty"`
	// Translations maps country code to the query text in that country's
	// language. Only populated when native-language mode is on.
	Translations map[string]string `json:"translations,omitempty"`
}

// TextFor returns the query text for a country, falling back to the base text
// when no translation exists.
func (q QueryCandidate) TextFor(country string) string {
	if t, ok := q.Translations[country]; ok && t != "" {
		return t
	}
	return q.Text
}

// CityTarget is one city the plan will search in.
type CityTarget struct {
	Country string `json:"country"` // ISO code, e.g. "US"
	City    string `json:"city"`    // display string, e.g. "New York, NY"
	Locale  string `json:"locale"`  // hl language code for this country
}

// QueryPlan is the full output of a generation round.
type QueryPlan struct {
	Queries        []QueryCandidate `json:"queries"`
	Cities         []CityTarget     `json:"cities"`
	EstimatedCalls int              `json:"estimated_calls"`
	Rationale      string           `json:"rationale,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
}

// Combination is one (query, city) pair the executor will run.
type Combination struct {
	Query QueryCandidate
	City  CityTarget
}

// Combinations expands the plan into the full query x city cross product,
// cities varying fastest.
func (p *QueryPlan) Combinations() []Combination {
	out := make([]Combination, 0, len(p.Queries)*len(p.Cities))
	for _, q := range p.Queries {
		for _, c := range p.Cities {
			out = append(out, Combination{Query: q, City: c})
		}
	}
	return out
}

// EnforceBudget shrinks the plan until len(Queries) * len(Cities) fits the
// combination budget. Low priority queries go first, then medium, then excess
// cities. One city per country survives as long as possible, and high
// priority queries are only cut as a last resort. A non-positive budget
// leaves the plan untouched; Constraints.Validate rejects it upstream.
func (p *QueryPlan) EnforceBudget(budget int) {
	if budget <= 0 {
		return
	}

	sort.SliceStable(p.Queries, func(i, j int) bool {
		return priorityRank(p.Queries[i].Priority) < priorityRank(p.Queries[j].Priority)
	})

	over := func() bool { return len(p.Queries)*len(p.Cities) > budget }

	// Cut exploratory queries from the tail, keeping all HIGH candidates.
	for over() && len(p.Queries) > 1 {
		last := p.Queries[len(p.Queries)-1]
		if last.Priority == PriorityHigh {
			break
		}
		p.Queries = p.Queries[:len(p.Queries)-1]
	}

	// Thin out cities, always taking one from the country that currently
	// has the most so every requested country stays covered.
	for over() && len(p.Cities) > 1 {
		counts := map[string]int{}
		for _, c := range p.Cities {
			counts[c.Country]++
		}
		widest, max := "", 1
		for _, c := range p.Cities {
			if counts[c.Country] > max {
				widest, max = c.Country, counts[c.Country]
			}
		}
		if widest == "" {
			break // one city per country left
		}
		for i := len(p.Cities) - 1; i >= 0; i-- {
			if p.Cities[i].Country == widest {
				p.Cities = append(p.Cities[:i], p.Cities[i+1:]...)
				break
			}
		}
	}

	// Last resorts: whole countries, then HIGH queries.
	for over() && len(p.Cities) > 1 {
		p.Cities = p.Cities[:len(p.Cities)-1]
	}
	for over() && len(p.Queries) > 1 {
		p.Queries = p.Queries[:len(p.Queries)-1]
	}

	p.EstimatedCalls = len(p.Queries) * len(p.Cities)
}
