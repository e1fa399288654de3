package exec

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/FranksOps/prospect/internal/dedupe"
	"github.com/FranksOps/prospect/internal/metrics"
	"github.com/FranksOps/prospect/internal/plan"
	"github.com/FranksOps/prospect/internal/serp"
	"github.com/FranksOps/prospect/internal/storage"
	"github.com/FranksOps/prospect/internal/tables"
	"github.com/FranksOps/prospect/pkg/ratelimit"
	"github.com/FranksOps/prospect/pkg/retry"
)

const pageSize = 10

// SearchOptions tune the web search phase.
type SearchOptions struct {
	ResultsPerQuery int  // desired organic results per combination
	IncludeB2B      bool // also exclude B2B directory domains
	CaptureAds      bool // collect first-page ads and shopping entries
	Autocomplete    bool // fetch suggestion completions per base query
}

// SearchExecutor runs the web search phase of a plan.
type SearchExecutor struct {
	provider serp.Provider
	limiter  *ratelimit.Limiter
	retry    retry.Config
	log      *logrus.Logger
	opts     SearchOptions
}

// NewSearchExecutor wires a provider with pacing and retry policy.
func NewSearchExecutor(p serp.Provider, limiter *ratelimit.Limiter, rc retry.Config, log *logrus.Logger, opts SearchOptions) *SearchExecutor {
	if opts.ResultsPerQuery <= 0 {
		opts.ResultsPerQuery = 20
	}
	if log == nil {
		log = logrus.New()
		log.SetLevel(logrus.WarnLevel)
	}
	return &SearchExecutor{provider: p, limiter: limiter, retry: rc, log: log, opts: opts}
}

// Run executes every query x city combination. A combination that keeps
// failing after retries is skipped and counted, never fatal. Related
// searches are captured from every page at no extra cost.
func (e *SearchExecutor) Run(ctx context.Context, s *Session, p *plan.QueryPlan) error {
	pages := (e.opts.ResultsPerQuery + pageSize - 1) / pageSize
	if pages > 10 {
		pages = 10
	}
	suffix := tables.ExclusionSuffix(e.opts.IncludeB2B)

	for _, combo := range p.Combinations() {
		if err := ctx.Err(); err != nil {
			return err
		}

		queryText := combo.Query.TextFor(combo.City.Country)
		fullQuery := queryText + " " + combo.City.City
		if suffix != "" {
			fullQuery += " " + suffix
		}

		info, _ := tables.Country(combo.City.Country)

		for page := 1; page <= pages; page++ {
			resp, err := e.search(ctx, s, serp.SearchQuery{
				Q:    fullQuery,
				GL:   info.Code,
				HL:   combo.City.Locale,
				Num:  pageSize,
				Page: page,
			})
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				s.CountFailure()
				e.log.WithFields(logrus.Fields{
					"query": queryText,
					"city":  combo.City.City,
					"page":  page,
				}).WithError(err).Warn("search skipped after retries")
				break
			}

			e.collectOrganic(ctx, s, resp.Organic, queryText, combo.City, (page-1)*pageSize)
			if page == 1 && e.opts.CaptureAds {
				e.collectExtra(ctx, s, resp.Ads, "ads", queryText, combo.City)
				e.collectExtra(ctx, s, resp.Shopping, "shopping", queryText, combo.City)
			}

			related := make([]string, 0, len(resp.RelatedSearches))
			for _, r := range resp.RelatedSearches {
				if r.Query != "" {
					related = append(related, r.Query)
				}
			}
			s.AddRelated(queryText, related)

			// A short page means the result set is exhausted.
			if len(resp.Organic) < pageSize {
				break
			}
		}
	}

	if e.opts.Autocomplete {
		e.collectSuggestions(ctx, s, p)
	}

	return s.Flush(ctx)
}

func (e *SearchExecutor) search(ctx context.Context, s *Session, q serp.SearchQuery) (*serp.SearchResponse, error) {
	var resp *serp.SearchResponse
	err := retry.Do(ctx, e.retry, func() error {
		if e.limiter != nil {
			if err := e.limiter.Wait(ctx); err != nil {
				return err
			}
		}
		s.CountCall()
		var err error
		resp, err = e.provider.Search(ctx, q)
		return err
	})
	return resp, err
}

func (e *SearchExecutor) collectOrganic(ctx context.Context, s *Session, results []serp.Result, query string, city plan.CityTarget, offset int) {
	for _, r := range results {
		e.addWebLead(ctx, s, r, "organic", query, city, offset)
	}
}

func (e *SearchExecutor) collectExtra(ctx context.Context, s *Session, results []serp.Result, source, query string, city plan.CityTarget) {
	for _, r := range results {
		e.addWebLead(ctx, s, r, source, query, city, 0)
	}
}

func (e *SearchExecutor) addWebLead(ctx context.Context, s *Session, r serp.Result, source, query string, city plan.CityTarget, offset int) {
	if r.Link == "" {
		return
	}
	if s.MarkURLSeen(r.Link) {
		metrics.DuplicatesDroppedTotal.WithLabelValues("web").Inc()
		return
	}
	domain := dedupe.NormalizeDomain(r.Link)
	if domain == "" {
		return
	}
	if tables.IsExcluded(domain, e.opts.IncludeB2B) {
		return
	}

	position := r.Position
	if position > 0 {
		position += offset
	}

	lead := &storage.Lead{
		ID:          uuid.NewString(),
		Domain:      domain,
		URL:         r.Link,
		Title:       r.Title,
		Description: r.Snippet,
		Source:      source,
		Query:       query,
		City:        city.City,
		Position:    position,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.AddLead(ctx, lead); err != nil {
		e.log.WithError(err).Warn("checkpoint write failed")
	}
	metrics.LeadsCollectedTotal.WithLabelValues(source).Inc()
}

// collectSuggestions fetches autocomplete completions once per distinct base
// query and country, countries in sorted order so the captured suggestions
// are stable across runs. Failures here are logged, never counted against
// the run.
func (e *SearchExecutor) collectSuggestions(ctx context.Context, s *Session, p *plan.QueryPlan) {
	countrySet := map[string]bool{}
	for _, c := range p.Cities {
		countrySet[c.Country] = true
	}
	countries := make([]string, 0, len(countrySet))
	for cc := range countrySet {
		countries = append(countries, cc)
	}
	sort.Strings(countries)

	seen := map[string]bool{}
	for _, q := range p.Queries {
		for _, cc := range countries {
			text := q.TextFor(cc)
			info, _ := tables.Country(cc)
			key := fmt.Sprintf("%s|%s", text, info.Code)
			if seen[key] {
				continue
			}
			seen[key] = true

			if e.limiter != nil {
				if err := e.limiter.Wait(ctx); err != nil {
					return
				}
			}
			s.CountCall()
			resp, err := e.provider.Autocomplete(ctx, serp.AutocompleteQuery{Q: text, GL: info.Code})
			if err != nil {
				e.log.WithError(err).Debug("autocomplete skipped")
				continue
			}
			values := make([]string, 0, len(resp.Suggestions))
			for _, sug := range resp.Suggestions {
				v := strings.TrimSpace(sug.Value)
				if v != "" {
					values = append(values, v)
				}
			}
			s.AddSuggestions(values)
		}
	}
}
