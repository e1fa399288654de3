package plan

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/sirupsen/logrus"

	"github.com/FranksOps/prospect/internal/metrics"
	"github.com/FranksOps/prospect/internal/tables"
)

const systemPrompt = "You are an expert B2B lead generation strategist. " +
	"You design search query plans that surface businesses matching a target customer profile. " +
	"Always respond with a single valid JSON object and nothing else."

// Generator turns a business context into a query plan via a chat model.
type Generator struct {
	cm  model.BaseChatModel
	log *logrus.Logger
}

// NewGenerator wraps a chat model. The logger may be nil.
func NewGenerator(cm model.BaseChatModel, log *logrus.Logger) *Generator {
	if log == nil {
		log = logrus.New()
		log.SetLevel(logrus.WarnLevel)
	}
	return &Generator{cm: cm, log: log}
}

// Generate asks the model for a fresh plan. The constraints must already be
// validated. No retry is attempted: a bad response surfaces as a ParseError
// so the caller can show the raw text and re-prompt.
func (g *Generator) Generate(ctx context.Context, bc BusinessContext, cons Constraints) (*QueryPlan, error) {
	prompt := buildPrompt(bc, cons)
	return g.call(ctx, prompt, cons)
}

// Regenerate asks the model to revise an existing plan according to user
// feedback, e.g. "drop the wholesale queries and add Austin".
func (g *Generator) Regenerate(ctx context.Context, prev *QueryPlan, feedback string, bc BusinessContext, cons Constraints) (*QueryPlan, error) {
	prevJSON, err := json.MarshalIndent(prev, "", "  ")
	if err != nil {
		return nil, &GenerationError{Err: fmt.Errorf("encode previous plan: %w", err)}
	}

	var sb strings.Builder
	sb.WriteString("You previously generated this search query plan:\n\n")
	sb.Write(prevJSON)
	sb.WriteString("\n\nThe user wants these changes:\n")
	sb.WriteString(feedback)
	sb.WriteString("\n\nProduce a complete revised plan. Apply the requested changes, keep everything ")
	sb.WriteString("else that still fits, and do not reintroduce anything the user removed.\n\n")
	sb.WriteString(outputContract(cons))

	return g.call(ctx, sb.String(), cons)
}

func (g *Generator) call(ctx context.Context, prompt string, cons Constraints) (*QueryPlan, error) {
	messages := []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(prompt),
	}

	start := time.Now()
	resp, err := g.cm.Generate(ctx, messages)
	if err != nil {
		metrics.PlanRequestsTotal.WithLabelValues("error").Inc()
		return nil, &GenerationError{Err: err}
	}
	metrics.PlanRequestsTotal.WithLabelValues("ok").Inc()

	g.log.WithFields(logrus.Fields{
		"duration": time.Since(start).Round(time.Millisecond),
		"chars":    len(resp.Content),
	}).Debug("model response received")

	p, err := parsePlan(resp.Content, cons)
	if err != nil {
		return nil, err
	}

	p.CreatedAt = time.Now().UTC()
	p.EnforceBudget(cons.MaxTotalQueries)
	return p, nil
}

func buildPrompt(bc BusinessContext, cons Constraints) string {
	var sb strings.Builder

	sb.WriteString("BUSINESS CONTEXT\n")
	sb.WriteString(bc.Description)
	sb.WriteString("\n")
	if len(bc.MustHave) > 0 {
		sb.WriteString("Must-have customer traits: ")
		sb.WriteString(strings.Join(bc.MustHave, "; "))
		sb.WriteString("\n")
	}
	if len(bc.Excluded) > 0 {
		sb.WriteString("Exclude: ")
		sb.WriteString(strings.Join(bc.Excluded, "; "))
		sb.WriteString("\n")
	}

	sb.WriteString("\nTARGET MARKETS\n")
	for _, cc := range cons.Countries {
		info, _ := tables.Country(cc)
		fmt.Fprintf(&sb, "- %s (%s), language %s\n", info.Name, cc, info.Language)
	}
	fmt.Fprintf(&sb, "Cities per country: %d\n", cons.CitiesPerCountry)
	if cons.MaxTotalQueries > 0 {
		fmt.Fprintf(&sb, "Budget: at most %d query x city combinations\n", cons.MaxTotalQueries)
	}
	if cons.NativeLanguage {
		sb.WriteString("For non-English countries, provide a translation of every query in the country's language.\n")
	}

	sb.WriteString("\nPROVEN QUERY PATTERNS\n")
	sb.WriteString("These patterns historically surface businesses with buying intent; adapt them to the context above:\n")
	for _, q := range tables.Queries("high") {
		sb.WriteString("- ")
		sb.WriteString(q)
		sb.WriteString("\n")
	}

	sb.WriteString("\nINSTRUCTIONS\n")
	sb.WriteString("Generate search queries targeting the described customer. Assign priority HIGH to the ")
	sb.WriteString("strongest buyer signals, MEDIUM to relevant queries, LOW to exploratory ones. ")
	sb.WriteString("Select cities where the target customer is concentrated, not merely the largest by population.\n\n")
	sb.WriteString(outputContract(cons))

	return sb.String()
}

func outputContract(cons Constraints) string {
	var sb strings.Builder
	sb.WriteString("Respond with exactly this JSON structure:\n")
	sb.WriteString(`{
  "queries": [
    {"text": "...", "priority": "HIGH", "category": "...", "reasoning": "...", "translations": {"DE": "..."}}
  ],
  "cities": {
    "US": {"cities": ["New York", "Chicago"], "reasoning": "..."}
  },
  "estimated_calls": 0,
  "strategy": "1-2 sentence summary of the overall approach"
}`)
	sb.WriteString("\nOmit translations for English-speaking countries. ")
	fmt.Fprintf(&sb, "Provide at most %d cities per country, only for these country codes: %s.",
		cons.CitiesPerCountry, strings.Join(cons.Countries, ", "))
	return sb.String()
}
