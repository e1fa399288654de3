// Package tables holds the static lookup data the pipeline depends on:
// country metadata, the default city list, the query template library, and
// the excluded-host list. Everything is parsed once from embedded YAML at
// startup and never mutated afterwards; accessors hand out copies.
package tables

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed data/countries.yaml
var countriesYAML []byte

//go:embed data/cities.yaml
var citiesYAML []byte

//go:embed data/queries.yaml
var queriesYAML []byte

//go:embed data/exclusions.yaml
var exclusionsYAML []byte

// CountryInfo describes one targetable country. Code is the value the search
// API expects in its gl parameter.
type CountryInfo struct {
	Name     string `yaml:"name"`
	Code     string `yaml:"code"`
	Language string `yaml:"language"`
	Currency string `yaml:"currency"`
}

// City is one entry of the default US targeting list.
type City struct {
	Name  string `yaml:"city"`
	State string `yaml:"state"`
	Tier  int    `yaml:"tier"`
}

type queryCategory struct {
	Priority  string   `yaml:"priority"`
	Templates []string `yaml:"templates"`
}

type queryFile struct {
	Categories map[string]queryCategory `yaml:"categories"`
	Maps       []string                 `yaml:"maps"`
}

var (
	countries  map[string]CountryInfo
	cityList   []City
	queries    queryFile
	exclusions map[string][]string
)

func init() {
	if err := yaml.Unmarshal(countriesYAML, &countries); err != nil {
		panic(fmt.Sprintf("tables: bad embedded countries.yaml: %v", err))
	}
	if err := yaml.Unmarshal(citiesYAML, &cityList); err != nil {
		panic(fmt.Sprintf("tables: bad embedded cities.yaml: %v", err))
	}
	if err := yaml.Unmarshal(queriesYAML, &queries); err != nil {
		panic(fmt.Sprintf("tables: bad embedded queries.yaml: %v", err))
	}
	if err := yaml.Unmarshal(exclusionsYAML, &exclusions); err != nil {
		panic(fmt.Sprintf("tables: bad embedded exclusions.yaml: %v", err))
	}
}

// Country looks up metadata for an ISO alpha-2 country code (case-insensitive).
func Country(code string) (CountryInfo, bool) {
	c, ok := countries[strings.ToUpper(code)]
	return c, ok
}

// CountryCodes returns all known ISO codes, sorted.
func CountryCodes() []string {
	codes := make([]string, 0, len(countries))
	for code := range countries {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Cities returns the default city list, optionally filtered to a single tier
// and truncated to limit entries. Zero values mean no filter.
func Cities(tier, limit int) []City {
	out := make([]City, 0, len(cityList))
	for _, c := range cityList {
		if tier != 0 && c.Tier != tier {
			continue
		}
		out = append(out, c)
	}
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out
}

// CityString formats a city for query insertion, e.g. "New York, NY".
func CityString(c City) string {
	if c.State == "" {
		return c.Name
	}
	return c.Name + ", " + c.State
}

// priorityOrder fixes the category ordering when all priorities are requested.
var priorityOrder = []string{"high", "medium", "industry"}

// Queries returns the query templates for a priority level: "high", "medium",
// "industry", or "all". Unknown values fall back to "all".
func Queries(priority string) []string {
	var out []string
	for _, p := range priorityOrder {
		if priority != "all" && priority != "" && p != strings.ToLower(priority) {
			continue
		}
		for _, cat := range categoriesByPriority(p) {
			out = append(out, cat.Templates...)
		}
	}
	if len(out) == 0 {
		return Queries("all")
	}
	return out
}

func categoriesByPriority(priority string) []queryCategory {
	// Category names are sorted so the template order is stable across runs.
	names := make([]string, 0, len(queries.Categories))
	for name := range queries.Categories {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []queryCategory
	for _, name := range names {
		if cat := queries.Categories[name]; cat.Priority == priority {
			out = append(out, cat)
		}
	}
	return out
}

// MapsQueries returns the locality-oriented templates used by the maps phase.
func MapsQueries() []string {
	out := make([]string, len(queries.Maps))
	copy(out, queries.Maps)
	return out
}

// ApplyKeyword substitutes the {keyword} placeholder in a template.
func ApplyKeyword(template, keyword string) string {
	return strings.ReplaceAll(template, "{keyword}", keyword)
}

// exclusion group names, B2B directories last so the toggle only appends.
var exclusionGroups = []string{
	"marketplaces", "social_media", "information", "reviews", "search_engines", "news_media",
}

// ExclusionList returns the excluded host suffixes in a fixed order.
func ExclusionList(includeB2B bool) []string {
	var out []string
	for _, g := range exclusionGroups {
		out = append(out, exclusions[g]...)
	}
	if includeB2B {
		out = append(out, exclusions["b2b_directories"]...)
	}
	return out
}

// ExclusionSuffix renders the -site: filter string appended to every web
// query. The output is deterministic for a given table version.
func ExclusionSuffix(includeB2B bool) string {
	hosts := ExclusionList(includeB2B)
	parts := make([]string, len(hosts))
	for i, h := range hosts {
		parts[i] = "-site:" + h
	}
	return strings.Join(parts, " ")
}

// IsExcluded reports whether a normalized domain falls under one of the
// excluded host suffixes.
func IsExcluded(domain string, includeB2B bool) bool {
	domain = strings.ToLower(domain)
	for _, h := range ExclusionList(includeB2B) {
		if domain == h || strings.HasSuffix(domain, "."+h) {
			return true
		}
	}
	return false
}
