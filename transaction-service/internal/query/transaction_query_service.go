package query

import (
	"context"
	"time"

	"github.com/fincoach/fincoach/shared/budget"
	"github.com/fincoach/fincoach/shared/cqrs"
	"github.com/fincoach/fincoach/shared/models"
	"github.com/shopspring/decimal"
)

type TransactionReader interface {
	ListByUser(ctx context.Context, userID string, since time.Time) ([]models.Transaction, error)
	ExpensesBetween(ctx context.Context, userID string, from, to time.Time) ([]models.Transaction, error)
}

type BudgetReader interface {
	MonthlyBudget(ctx context.Context, userID string) (decimal.Decimal, error)
}

// TransactionQueryService serves transaction lists and the monthly summary.
type TransactionQueryService struct {
	transactions TransactionReader
	aggregator   *budget.Aggregator
}

func NewTransactionQueryService(transactions TransactionReader, users BudgetReader, loc *time.Location) *TransactionQueryService {
	return &TransactionQueryService{
		transactions: transactions,
		aggregator:   budget.NewAggregator(summarySource{users, transactions}, loc),
	}
}

func (s *TransactionQueryService) ListTransactions(ctx context.Context, q cqrs.ListTransactionsQuery) ([]models.Transaction, error) {
	return s.transactions.ListByUser(ctx, q.UserID, q.Since)
}

func (s *TransactionQueryService) MonthlySummary(ctx context.Context, q cqrs.MonthlySummaryQuery) (*models.MonthlySummary, error) {
	return s.aggregator.ComputeMonthlySummary(ctx, q.UserID)
}

// summarySource joins the two repositories into a budget.Source.
type summarySource struct {
	BudgetReader
	TransactionReader
}
