// Package serp talks to the hosted Serper search API: web search, local
// business (maps) search, and autocomplete suggestions.
package serp

import "context"

// SearchQuery is one web search request.
type SearchQuery struct {
	Q    string `json:"q"`
	GL   string `json:"gl,omitempty"`   // country code
	HL   string `json:"hl,omitempty"`   // language code
	Num  int    `json:"num,omitempty"`  // results per page, max 100
	Page int    `json:"page,omitempty"` // 1-based page offset
}

// MapsQuery is one local-business search request. The endpoint does not
// paginate and does not accept -site: filters.
type MapsQuery struct {
	Q  string `json:"q"`
	GL string `json:"gl,omitempty"`
	HL string `json:"hl,omitempty"`
}

// AutocompleteQuery asks for suggestion completions of a partial query.
type AutocompleteQuery struct {
	Q  string `json:"q"`
	GL string `json:"gl,omitempty"`
}

// Result is one organic, ads, or shopping entry of a search response.
type Result struct {
	Title    string `json:"title"`
	Link     string `json:"link"`
	Snippet  string `json:"snippet"`
	Position int    `json:"position"`
	Price    string `json:"price,omitempty"` // shopping only
}

// RelatedSearch is a suggested follow-up query returned inline at no cost.
type RelatedSearch struct {
	Query string `json:"query"`
}

// KnowledgeGraph is the knowledge-panel block, present for some queries.
type KnowledgeGraph struct {
	Title       string `json:"title"`
	Type        string `json:"type"`
	Website     string `json:"website"`
	Description string `json:"description"`
}

// SearchResponse is the decoded body of a web search call.
type SearchResponse struct {
	Organic         []Result        `json:"organic"`
	Ads             []Result        `json:"ads"`
	Shopping        []Result        `json:"shopping"`
	RelatedSearches []RelatedSearch `json:"relatedSearches"`
	KnowledgeGraph  *KnowledgeGraph `json:"knowledgeGraph"`
}

// Place is one local business listing from the maps endpoint.
type Place struct {
	Title    string  `json:"title"`
	Address  string  `json:"address"`
	Phone    string  `json:"phoneNumber"`
	Website  string  `json:"website"`
	Rating   float64 `json:"rating"`
	Reviews  int     `json:"reviews"`
	Category string  `json:"category"`
	PlaceID  string  `json:"placeId"`
}

// MapsResponse is the decoded body of a maps call.
type MapsResponse struct {
	Places []Place `json:"places"`
}

// Suggestion is one autocomplete completion.
type Suggestion struct {
	Value string `json:"value"`
}

// AutocompleteResponse is the decoded body of an autocomplete call.
type AutocompleteResponse struct {
	Suggestions []Suggestion `json:"suggestions"`
}

// Provider abstracts the search API so executors can be driven by a stub in
// tests. The production implementation is Client.
type Provider interface {
	Search(ctx context.Context, q SearchQuery) (*SearchResponse, error)
	Maps(ctx context.Context, q MapsQuery) (*MapsResponse, error)
	Autocomplete(ctx context.Context, q AutocompleteQuery) (*AutocompleteResponse, error)
}
