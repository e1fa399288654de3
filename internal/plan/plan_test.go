package plan

import (
	"fmt"
	"testing"
)

func validConstraints() Constraints {
	return Constraints{
		Countries:        []string{"US"},
		CitiesPerCountry: 5,
		MaxTotalQueries:  100,
		ResultsPerQuery:  20,
	}
}

func TestConstraintsValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Constraints)
		wantOK bool
	}{
		{"valid", func(c *Constraints) {}, true},
		{"no countries", func(c *Constraints) { c.Countries = nil }, false},
		{"unknown country", func(c *Constraints) { c.Countries = []string{"ZZ"} }, false},
		{"zero cities", func(c *Constraints) { c.CitiesPerCountry = 0 }, false},
		{"negative budget", func(c *Constraints) { c.MaxTotalQueries = -1 }, false},
		{"zero budget", func(c *Constraints) { c.MaxTotalQueries = 0 }, false},
		{"results too high", func(c *Constraints) { c.ResultsPerQuery = 101 }, false},
		{"results zero", func(c *Constraints) { c.ResultsPerQuery = 0 }, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := validConstraints()
			tc.mutate(&c)
			err := c.Validate()
			if tc.wantOK && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tc.wantOK {
				if err == nil {
					t.Fatal("expected error")
				}
				if _, ok := err.(*ConfigError); !ok {
					t.Errorf("expected *ConfigError, got %T", err)
				}
			}
		})
	}
}

func TestCombinations(t *testing.T) {
	p := &QueryPlan{
		Queries: []QueryCandidate{{Text: "a"}, {Text: "b"}},
		Cities: []CityTarget{
			{Country: "US", City: "Dallas"},
			{Country: "US", City: "Austin"},
			{Country: "US", City: "Houston"},
		},
	}
	combos := p.Combinations()
	if len(combos) != 6 {
		t.Fatalf("expected 6 combinations, got %d", len(combos))
	}
	if combos[0].Query.Text != "a" || combos[0].City.City != "Dallas" {
		t.Errorf("unexpected first combination: %+v", combos[0])
	}
}

func TestEnforceBudgetDropsLowAndMediumFirst(t *testing.T) {
	p := &QueryPlan{Cities: []CityTarget{{Country: "US", City: "Dallas"}}}
	for i := 0; i < 10; i++ {
		p.Queries = append(p.Queries, QueryCandidate{Text: fmt.Sprintf("h%d", i), Priority: PriorityHigh})
	}
	for i := 0; i < 10; i++ {
		p.Queries = append(p.Queries, QueryCandidate{Text: fmt.Sprintf("m%d", i), Priority: PriorityMedium})
	}
	for i := 0; i < 10; i++ {
		p.Queries = append(p.Queries, QueryCandidate{Text: fmt.Sprintf("l%d", i), Priority: PriorityLow})
	}

	p.EnforceBudget(10)

	if got := len(p.Queries) * len(p.Cities); got > 10 {
		t.Fatalf("budget not enforced: %d combinations", got)
	}
	for _, q := range p.Queries {
		if q.Priority != PriorityHigh {
			t.Errorf("non-HIGH query %q survived while HIGH existed", q.Text)
		}
	}
	if len(p.Queries) != 10 {
		t.Errorf("expected all 10 HIGH queries, got %d", len(p.Queries))
	}
}

func TestEnforceBudgetTrimsCitiesKeepingCountryCoverage(t *testing.T) {
	p := &QueryPlan{
		Queries: []QueryCandidate{
			{Text: "q1", Priority: PriorityHigh},
			{Text: "q2", Priority: PriorityHigh},
		},
		Cities: []CityTarget{
			{Country: "US", City: "New York"},
			{Country: "US", City: "Chicago"},
			{Country: "US", City: "Dallas"},
			{Country: "DE", City: "Berlin"},
		},
	}

	p.EnforceBudget(4)

	if got := len(p.Queries) * len(p.Cities); got > 4 {
		t.Fatalf("budget not enforced: %d combinations", got)
	}
	countries := map[string]bool{}
	for _, c := range p.Cities {
		countries[c.Country] = true
	}
	if !countries["US"] || !countries["DE"] {
		t.Errorf("country coverage lost: %+v", p.Cities)
	}
}

func TestEnforceBudgetNonPositiveIsNoOp(t *testing.T) {
	p := &QueryPlan{
		Queries: []QueryCandidate{{Text: "a", Priority: PriorityLow}},
		Cities:  []CityTarget{{Country: "US", City: "Dallas"}},
	}
	p.EnforceBudget(0)
	if len(p.Queries) != 1 || len(p.Cities) != 1 {
		t.Fatal("non-positive budget must not shrink the plan")
	}
}

func TestEnforceBudgetUpdatesEstimatedCalls(t *testing.T) {
	p := &QueryPlan{
		Queries:        []QueryCandidate{{Text: "a", Priority: PriorityHigh}, {Text: "b", Priority: PriorityLow}},
		Cities:         []CityTarget{{Country: "US", City: "Dallas"}},
		EstimatedCalls: 999,
	}
	p.EnforceBudget(1)
	if p.EstimatedCalls != 1 {
		t.Errorf("EstimatedCalls = %d, want 1", p.EstimatedCalls)
	}
}

func TestTextForFallsBackToBase(t *testing.T) {
	q := QueryCandidate{Text: "print shop", Translations: map[string]string{"DE": "Druckerei"}}
	if got := q.TextFor("DE"); got != "Druckerei" {
		t.Errorf("TextFor(DE) = %q", got)
	}
	if got := q.TextFor("US"); got != "print shop" {
		t.Errorf("TextFor(US) = %q", got)
	}
}
