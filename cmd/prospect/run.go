package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/FranksOps/prospect/internal/dedupe"
	"github.com/FranksOps/prospect/internal/exec"
	"github.com/FranksOps/prospect/internal/export"
	"github.com/FranksOps/prospect/internal/metrics"
	"github.com/FranksOps/prospect/internal/plan"
	"github.com/FranksOps/prospect/internal/report"
	"github.com/FranksOps/prospect/internal/serp"
	"github.com/FranksOps/prospect/internal/storage"
	"github.com/FranksOps/prospect/internal/storage/csvbackend"
	"github.com/FranksOps/prospect/internal/storage/postgres"
	"github.com/FranksOps/prospect/internal/storage/sqlite"
	"github.com/FranksOps/prospect/pkg/ratelimit"
	"github.com/FranksOps/prospect/pkg/retry"
)

func newRunCmd() *cobra.Command {
	var (
		planName string
		skipMaps bool
		jsonOut  bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute a saved plan and export the results",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.SerperAPIKey == "" {
				return &plan.ConfigError{Field: "serper.api_key", Reason: "not set"}
			}

			ctx := cmd.Context()

			store, err := plan.NewStore(cfg.PlansPath)
			if err != nil {
				return err
			}
			p, err := store.Load(planName)
			store.Close()
			if err != nil {
				return err
			}

			provider, err := serp.NewClient(serp.ClientConfig{
				APIKey:  cfg.SerperAPIKey,
				BaseURL: cfg.SerperBaseURL,
				Timeout: cfg.HTTPTimeout,
			})
			if err != nil {
				return err
			}

			return runPlan(ctx, provider, p, skipMaps, jsonOut)
		},
	}

	cmd.Flags().StringVarP(&planName, "plan", "p", "", "name of the saved plan to execute")
	cmd.Flags().BoolVar(&skipMaps, "skip-maps", false, "skip the maps phase")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the run summary as JSON")
	cmd.MarkFlagRequired("plan")

	return cmd
}

func runPlan(ctx context.Context, provider serp.Provider, p *plan.QueryPlan, skipMaps, jsonOut bool) error {
	if cfg.MetricsPort > 0 {
		srv := metrics.Start(cfg.MetricsPort)
		defer srv.Stop(context.Background())
	}

	checkpoint, err := newBackend(ctx)
	if err != nil {
		return err
	}
	if checkpoint != nil {
		defer checkpoint.Close()
	}

	limiter := ratelimit.NewLimiter(cfg.RateRPS, cfg.RateJitter)
	defer limiter.Stop()

	rc := retry.Config{MaxAttempts: cfg.MaxAttempts, BaseDelay: cfg.RetryDelay}
	session := exec.NewSession(checkpoint, cfg.CheckpointInterval)

	log.WithField("session", session.ID).Info("starting web search phase")
	searcher := exec.NewSearchExecutor(provider, limiter, rc, log, exec.SearchOptions{
		ResultsPerQuery: cfg.ResultsPerQuery,
		IncludeB2B:      cfg.IncludeB2B,
		CaptureAds:      cfg.CaptureAds,
		Autocomplete:    cfg.Autocomplete,
	})
	if err := searcher.Run(ctx, session, p); err != nil {
		return err
	}

	if !skipMaps {
		cities := p.Cities
		if cfg.MapsSupplement {
			cities = exec.UnderservedCities(session.Leads(), p.Cities)
			log.WithField("cities", len(cities)).Info("maps supplement targets selected")
		}
		if len(cities) > 0 {
			log.Info("starting maps phase")
			mapper := exec.NewMapsExecutor(provider, limiter, rc, log)
			if err := mapper.Run(ctx, session, p, cities); err != nil {
				return err
			}
		}
	}

	web, mapLeads := session.LeadsBySource()
	merged := dedupe.Merge(web, mapLeads)
	log.WithFields(map[string]interface{}{
		"collected": len(web) + len(mapLeads),
		"merged":    len(merged),
	}).Info("cross-phase merge complete")

	exporter := export.New(cfg.ResultsDir)
	leadsPath, err := exporter.Leads(merged)
	if err != nil {
		return err
	}
	log.WithField("file", leadsPath).Info("leads exported")

	if related := session.Related(); len(related) > 0 {
		path, err := exporter.Related(related)
		if err != nil {
			return err
		}
		log.WithField("file", path).Info("related searches exported")
	}
	if sug := session.Suggestions(); len(sug) > 0 {
		path, err := exporter.Suggestions(sug)
		if err != nil {
			return err
		}
		log.WithField("file", path).Info("suggestions exported")
	}

	summary := report.GenerateSummary(report.Input{
		SessionID: session.ID,
		Leads:     merged,
		Related:   session.Related(),
		APICalls:  session.APICalls(),
		Failures:  session.Failures(),
		StartedAt: session.StartedAt,
		EndedAt:   time.Now().UTC(),
	})

	if jsonOut {
		return report.WriteJSON(os.Stdout, summary)
	}
	return report.WriteText(os.Stdout, summary)
}

func newBackend(ctx context.Context) (storage.Backend, error) {
	switch cfg.StorageBackend {
	case "":
		return nil, nil
	case "csv":
		return csvbackend.New(cfg.StoragePath)
	case "sqlite":
		return sqlite.New(cfg.StoragePath)
	case "postgres":
		if cfg.PostgresDSN == "" {
			return nil, errors.New("storage backend postgres requires a DSN")
		}
		return postgres.New(ctx, cfg.PostgresDSN)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
