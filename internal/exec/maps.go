package exec

import (
	"context"
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

// MapsExecutor runs the local-business phase of a plan. Maps queries take
// the form "<query> in <city>" with no pagination and no -site: filters,
// which the endpoint ignores.
type MapsExecutor struct {
	provider serp.Provider
	limiter  *ratelimit.Limiter
	retry    retry.Config
	log      *logrus.Logger
}

// NewMapsExecutor wires a provider with pacing and retry policy.
func NewMapsExecutor(p serp.Provider, limiter *ratelimit.Limiter, rc retry.Config, log *logrus.Logger) *MapsExecutor {
	if log == nil {
		log = logrus.New()
		log.SetLevel(logrus.WarnLevel)
	}
	return &MapsExecutor{provider: p, limiter: limiter, retry: rc, log: log}
}

// Run executes one maps request per query x city combination, restricted to
// the given cities. Passing nil cities uses the whole plan.
func (e *MapsExecutor) Run(ctx context.Context, s *Session, p *plan.QueryPlan, cities []plan.CityTarget) error {
	if cities == nil {
		cities = p.Cities
	}

	for _, q := range p.Queries {
		for _, city := range cities {
			if err := ctx.Err(); err != nil {
				return err
			}

			queryText := q.TextFor(city.Country)
			info, _ := tables.Country(city.Country)

			resp, err := e.maps(ctx, s, serp.MapsQuery{
				Q:  queryText + " in " + city.City,
				GL: info.Code,
				HL: city.Locale,
			})
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				s.CountFailure()
				e.log.WithFields(logrus.Fields{
					"query": queryText,
					"city":  city.City,
				}).WithError(err).Warn("maps search skipped after retries")
				continue
			}

			for _, place := range resp.Places {
				e.addPlace(ctx, s, place, queryText, city)
			}
		}
	}

	return s.Flush(ctx)
}

func (e *MapsExecutor) maps(ctx context.Context, s *Session, q serp.MapsQuery) (*serp.MapsResponse, error) {
	var resp *serp.MapsResponse
	err := retry.Do(ctx, e.retry, func() error {
		if e.limiter != nil {
			if err := e.limiter.Wait(ctx); err != nil {
				return err
			}
		}
		s.CountCall()
		var err error
		resp, err = e.provider.Maps(ctx, q)
		return err
	})
	return resp, err
}

func (e *MapsExecutor) addPlace(ctx context.Context, s *Session, p serp.Place, query string, city plan.CityTarget) {
	// Places without a website still identify a business, key them by
	// place ID so the same listing is not collected twice.
	key := p.Website
	if key == "" {
		key = "place:" + p.PlaceID
	}
	if s.MarkPlaceSeen(key) {
		metrics.DuplicatesDroppedTotal.WithLabelValues("maps").Inc()
		return
	}

	domain := dedupe.NormalizeDomain(p.Website)
	if domain != "" && tables.IsExcluded(domain, false) {
		return
	}

	lead := &storage.Lead{
		ID:           uuid.NewString(),
		Domain:       domain,
		URL:          p.Website,
		Title:        p.Title,
		Source:       "maps",
		Query:        query,
		City:         city.City,
		BusinessName: p.Title,
		Address:      p.Address,
		Phone:        p.Phone,
		Rating:       p.Rating,
		Reviews:      p.Reviews,
		Category:     p.Category,
		PlaceID:      p.PlaceID,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.AddLead(ctx, lead); err != nil {
		e.log.WithError(err).Warn("checkpoint write failed")
	}
	metrics.LeadsCollectedTotal.WithLabelValues("maps").Inc()
}
