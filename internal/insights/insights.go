// Package insights generates the optional executive summary paragraph
// for reports. It is best-effort: when no API key is configured the
// report ships without a narrative.
package insights

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sustainboard/esg-cli/internal/model"
	"github.com/sustainboard/esg-cli/internal/resilience"
	"github.com/sustainboard/esg-cli/pkg/anthropic"
)

const systemPrompt = "You are an ESG reporting analyst. Write a single concise paragraph " +
	"summarizing the company's ESG scorecard for an executive audience. Mention the overall " +
	"score and grade, the weakest pillar and the most important gaps. Do not invent numbers."

// Generator produces report narratives via the Anthropic API.
type Generator struct {
	client  anthropic.Client
	model   string
	retry   resilience.RetryConfig
	breaker *resilience.CircuitBreaker
}

// New builds a Generator. maxRetries bounds transient-error retries. A
// circuit breaker stops hammering the API during an outage so report
// exports degrade to narrative-free output quickly.
func New(client anthropic.Client, modelID string, maxRetries int) *Generator {
	retry := resilience.DefaultRetryConfig()
	if maxRetries > 0 {
		retry.MaxAttempts = maxRetries
	}
	retry.OnRetry = resilience.RetryLogger("anthropic", "report_narrative")
	return &Generator{
		client:  client,
		model:   modelID,
		retry:   retry,
		breaker: resilience.NewCircuitBreaker(5, 30*time.Second),
	}
}

// Narrative writes an executive summary paragraph for the scorecard.
func (g *Generator) Narrative(ctx context.Context, card *model.Scorecard) (string, error) {
	if card == nil {
		return "", eris.New("insights: nil scorecard")
	}

	resp, err := resilience.Do(ctx, g.retry, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return resilience.Protect(ctx, g.breaker, func(ctx context.Context) (*anthropic.MessageResponse, error) {
			return g.client.CreateMessage(ctx, anthropic.MessageRequest{
				Model:     g.model,
				MaxTokens: 512,
				System:    systemPrompt,
				Messages: []anthropic.Message{
					{Role: "user", Content: promptFor(card)},
				},
			})
		})
	})
	if err != nil {
		return "", eris.Wrap(err, "insights: narrative")
	}

	resp.Usage.LogCost(g.model, "report_narrative")
	return strings.TrimSpace(resp.Text), nil
}

func promptFor(card *model.Scorecard) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Scorecard for period %s:\n", card.Period)
	fmt.Fprintf(&b, "Overall: %d (grade %s, %s risk), data completeness %d%%.\n",
		card.OverallScore, card.OverallGrade, card.OverallRisk, card.DataCompleteness)
	for _, pr := range card.PillarResults() {
		fmt.Fprintf(&b, "%s: score %.1f, completeness %d%%, missing critical: %s.\n",
			pr.Pillar, pr.Score, pr.Completeness, listOrNone(pr.MissingCritical))
	}
	if card.PreviousPeriod != nil {
		fmt.Fprintf(&b, "Change vs %s: %+d (%s).\n",
			card.PreviousPeriod.Period, card.PreviousPeriod.Change, card.PreviousPeriod.Direction)
	}
	return b.String()
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}
