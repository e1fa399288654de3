package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/spf13/cobra"

	"github.com/FranksOps/prospect/internal/plan"
)

func newPlanCmd() *cobra.Command {
	var (
		business string
		mustHave []string
		excluded []string
		name     string
		feedback string
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Generate or revise a query plan",
		RunE: func(cmd *cobra.Command, args []string) error {
			if business == "" && feedback == "" {
				return errors.New("--business is required for a new plan")
			}

			ctx := cmd.Context()
			cons := constraintsFromConfig()
			if err := cons.Validate(); err != nil {
				return err
			}

			cm, err := newChatModel(ctx)
			if err != nil {
				return err
			}
			gen := plan.NewGenerator(cm, log)

			store, err := plan.NewStore(cfg.PlansPath)
			if err != nil {
				return err
			}
			defer store.Close()

			bc := plan.BusinessContext{Description: business, MustHave: mustHave, Excluded: excluded}

			var p *plan.QueryPlan
			if feedback != "" {
				prev, err := store.Load(name)
				if err != nil {
					return err
				}
				p, err = gen.Regenerate(ctx, prev, feedback, bc, cons)
				if err != nil {
					return describeFailure(err)
				}
			} else {
				p, err = gen.Generate(ctx, bc, cons)
				if err != nil {
					return describeFailure(err)
				}
			}

			if name != "" {
				if err := store.Save(name, p); err != nil {
					return err
				}
				log.WithField("name", name).Info("plan saved")
			}

			printPlan(p)
			return nil
		},
	}

	cmd.Flags().StringVarP(&business, "business", "b", "", "what you sell and who you target")
	cmd.Flags().StringSliceVar(&mustHave, "must-have", nil, "required customer traits")
	cmd.Flags().StringSliceVar(&excluded, "exclude", nil, "customer types to avoid")
	cmd.Flags().StringVarP(&name, "name", "n", "", "save the plan under this name")
	cmd.Flags().StringVar(&feedback, "feedback", "", "revise the named saved plan with this instruction")

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List saved plans",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := plan.NewStore(cfg.PlansPath)
			if err != nil {
				return err
			}
			defer store.Close()

			names, err := store.List()
			if err != nil {
				return err
			}
			for _, n := range names {
				fmt.Println(n)
			}
			return nil
		},
	})

	return cmd
}

func constraintsFromConfig() plan.Constraints {
	return plan.Constraints{
		Countries:        cfg.Countries,
		CitiesPerCountry: cfg.CitiesPerCountry,
		MaxTotalQueries:  cfg.MaxTotalQueries,
		NativeLanguage:   cfg.NativeLanguage,
		ResultsPerQuery:  cfg.ResultsPerQuery,
	}
}

func newChatModel(ctx context.Context) (model.BaseChatModel, error) {
	if cfg.OpenAIAPIKey == "" {
		return nil, &plan.ConfigError{Field: "openai.api_key", Reason: "not set"}
	}
	cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL: cfg.OpenAIBaseURL,
		APIKey:  cfg.OpenAIAPIKey,
		Model:   cfg.OpenAIModel,
	})
	if err != nil {
		return nil, fmt.Errorf("chat model: %w", err)
	}
	return cm, nil
}

// describeFailure keeps the raw model output visible when parsing failed, so
// the user can judge whether to retry or adjust the prompt.
func describeFailure(err error) error {
	var pe *plan.ParseError
	if errors.As(err, &pe) {
		fmt.Fprintf(os.Stderr, "--- raw model response ---\n%s\n--------------------------\n", pe.Raw)
	}
	return err
}

func printPlan(p *plan.QueryPlan) {
	fmt.Printf("Plan: %d queries x %d cities = %d combinations\n\n", len(p.Queries), len(p.Cities), len(p.Queries)*len(p.Cities))
	for _, q := range p.Queries {
		fmt.Printf("  [%-6s] %s", q.Priority, q.Text)
		if q.Category != "" {
			fmt.Printf("  (%s)", q.Category)
		}
		fmt.Println()
	}
	fmt.Println()
	for _, c := range p.Cities {
		fmt.Printf("  %s: %s\n", c.Country, c.City)
	}
	if p.Rationale != "" {
		fmt.Printf("\n%s\n", p.Rationale)
	}
}
