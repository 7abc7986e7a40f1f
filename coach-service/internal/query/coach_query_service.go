package query

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fincoach/fincoach/shared/ai"
	"github.com/fincoach/fincoach/shared/budget"
	"github.com/fincoach/fincoach/shared/cqrs"
	"github.com/fincoach/fincoach/shared/errs"
	"github.com/fincoach/fincoach/shared/models"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// InsightsWindowDays is how much history the insights prompt covers.
const InsightsWindowDays = 60

// FinanceReader is the data the coach reads. It is also the aggregator's source.
type FinanceReader interface {
	budget.Source
	TransactionsSince(ctx context.Context, userID string, since time.Time) ([]models.Transaction, error)
}

// CoachQueryService answers coach questions and generates insights. Neither
// mutates state, and neither has a fallback answer: model failures surface as
// errs.ErrUpstreamDegraded.
type CoachQueryService struct {
	data       FinanceReader
	aggregator *budget.Aggregator
	generator  ai.Client
	timeout    time.Duration
	now        func() time.Time
}

func NewCoachQueryService(data FinanceReader, generator ai.Client, loc *time.Location, timeout time.Duration) *CoachQueryService {
	return &CoachQueryService{
		data:       data,
		aggregator: budget.NewAggregator(data, loc),
		generator:  generator,
		timeout:    timeout,
		now:        time.Now,
	}
}

func (s *CoachQueryService) Ask(ctx context.Context, q cqrs.AskCoachQuery) (string, error) {
	question := strings.TrimSpace(q.Query)
	if question == "" {
		return "", fmt.Errorf("%w: query is required", errs.ErrInvalidInput)
	}

	summary, err := s.aggregator.ComputeMonthlySummary(ctx, q.UserID)
	if err != nil {
		return "", err
	}
	prompt, err := buildCoachPrompt(summary, question)
	if err != nil {
		return "", err
	}

	genCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	advice, err := s.generator.Generate(genCtx, prompt)
	if err != nil {
		return "", errs.Upstream("ask coach", err)
	}
	return strings.TrimSpace(advice), nil
}

// Insights loads the budget and the recent history concurrently, then asks
// the model for schema-constrained JSON.
func (s *CoachQueryService) Insights(ctx context.Context, q cqrs.InsightsQuery) ([]models.Insight, error) {
	since := s.now().AddDate(0, 0, -InsightsWindowDays)

	var (
		monthlyBudget decimal.Decimal
		transactions  []models.Transaction
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		b, err := s.data.MonthlyBudget(gctx, q.UserID)
		if err != nil {
			return err
		}
		monthlyBudget = b
		return nil
	})
	g.Go(func() error {
		txs, err := s.data.TransactionsSince(gctx, q.UserID, since)
		if err != nil {
			return err
		}
		transactions = txs
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	prompt, err := buildInsightsPrompt(monthlyBudget, transactions, InsightsWindowDays)
	if err != nil {
		return nil, err
	}

	genCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	raw, err := s.generator.GenerateStructured(genCtx, prompt, insightsSchema)
	if err != nil {
		return nil, errs.Upstream("generate insights", err)
	}

	var insights []models.Insight
	if err := json.Unmarshal([]byte(ai.CleanModelJSON(raw)), &insights); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("raw", raw).Msg("Insights response is not the expected JSON array")
		return nil, errs.Upstream("decode insights", err)
	}
	return sanitizeInsights(insights), nil
}

// sanitizeInsights drops untitled entries and clamps confidence to 0..100.
func sanitizeInsights(in []models.Insight) []models.Insight {
	out := make([]models.Insight, 0, len(in))
	for _, insight := range in {
		if strings.TrimSpace(insight.Title) == "" {
			continue
		}
		insight.Confidence = min(max(insight.Confidence, 0), 100)
		if insight.ActionItems == nil {
			insight.ActionItems = []string{}
		}
		out = append(out, insight)
	}
	return out
}

func (s *CoachQueryService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}
