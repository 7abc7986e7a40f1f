// Package budget computes the monthly spending summary that backs the
// dashboard and every coach prompt.
package budget

import (
	"context"
	"time"

	"github.com/fincoach/fincoach/shared/models"
	"github.com/shopspring/decimal"
)

// Source is the read side the aggregator needs. MonthlyBudget returns
// errs.ErrUserNotFound for an unknown user. ExpensesBetween is half-open:
// from <= created_at < to.
type Source interface {
	MonthlyBudget(ctx context.Context, userID string) (decimal.Decimal, error)
	ExpensesBetween(ctx context.Context, userID string, from, to time.Time) ([]models.Transaction, error)
}

// MonthWindow returns the start of now's calendar month and the start of the
// next one, both in now's location. The window is [start, next).
func MonthWindow(now time.Time) (start, next time.Time) {
	start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return start, start.AddDate(0, 1, 0)
}

// Summarize folds Expense transactions into a summary. Other kinds are skipped
// so callers may pass a mixed slice.
func Summarize(monthlyBudget decimal.Decimal, txs []models.Transaction) *models.MonthlySummary {
	total := decimal.Zero
	byCategory := make(map[string]decimal.Decimal)
	for _, t := range txs {
		if t.Type != models.TransactionExpense {
			continue
		}
		total = total.Add(t.Amount)
		byCategory[t.Category] = byCategory[t.Category].Add(t.Amount)
	}
	return &models.MonthlySummary{
		MonthlyBudget: monthlyBudget,
		TotalSpent:    total,
		Remaining:     monthlyBudget.Sub(total),
		CategorySpent: byCategory,
	}
}

type Aggregator struct {
	source Source
	loc    *time.Location
	now    func() time.Time
}

// NewAggregator builds an aggregator evaluating month windows in loc
// (time.Local when nil).
func NewAggregator(source Source, loc *time.Location) *Aggregator {
	if loc == nil {
		loc = time.Local
	}
	return &Aggregator{source: source, loc: loc, now: time.Now}
}

// ComputeMonthlySummary recomputes the current month's summary from the
// transaction log. It has no side effects.
func (a *Aggregator) ComputeMonthlySummary(ctx context.Context, userID string) (*models.MonthlySummary, error) {
	return a.SummaryAt(ctx, userID, a.now())
}

// SummaryAt evaluates the summary for the month containing at.
func (a *Aggregator) SummaryAt(ctx context.Context, userID string, at time.Time) (*models.MonthlySummary, error) {
	monthlyBudget, err := a.source.MonthlyBudget(ctx, userID)
	if err != nil {
		return nil, err
	}
	start, next := MonthWindow(at.In(a.loc))
	expenses, err := a.source.ExpensesBetween(ctx, userID, start, next)
	if err != nil {
		return nil, err
	}
	return Summarize(monthlyBudget, expenses), nil
}
