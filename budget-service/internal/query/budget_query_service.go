package query

import (
	"context"
	"errors"
	"time"

	"github.com/fincoach/fincoach/shared/cqrs"
	"github.com/fincoach/fincoach/shared/errs"
	"github.com/fincoach/fincoach/shared/models"
	"github.com/shopspring/decimal"
)

type BudgetViewReader interface {
	GetView(ctx context.Context, userID string, year, month int) (*models.BudgetView, error)
	MonthlyBudget(ctx context.Context, userID string) (decimal.Decimal, error)
}

type AlertReader interface {
	ListUnread(ctx context.Context, userID string) ([]models.Alert, error)
}

// BudgetQueryService serves the ledger view and unread alerts.
type BudgetQueryService struct {
	budgets BudgetViewReader
	alerts  AlertReader
	loc     *time.Location
	now     func() time.Time
}

func NewBudgetQueryService(budgets BudgetViewReader, alerts AlertReader, loc *time.Location) *BudgetQueryService {
	if loc == nil {
		loc = time.Local
	}
	return &BudgetQueryService{budgets: budgets, alerts: alerts, loc: loc, now: time.Now}
}

// CurrentBudget returns this month's ledger. Before the first expense of the
// month there is no ledger row, so an empty one with the user's budget is returned.
func (s *BudgetQueryService) CurrentBudget(ctx context.Context, q cqrs.CurrentBudgetQuery) (*models.BudgetView, error) {
	now := s.now().In(s.loc)
	year, month := now.Year(), int(now.Month())

	view, err := s.budgets.GetView(ctx, q.UserID, year, month)
	if err == nil {
		return view, nil
	}
	if !errors.Is(err, errs.ErrBudgetNotFound) {
		return nil, err
	}

	monthlyBudget, err := s.budgets.MonthlyBudget(ctx, q.UserID)
	if err != nil {
		return nil, err
	}
	return &models.BudgetView{
		UserID:        q.UserID,
		Year:          year,
		Month:         month,
		MonthlyBudget: monthlyBudget,
		TotalSpent:    decimal.Zero,
		Remaining:     monthlyBudget,
		CategorySpent: map[string]decimal.Decimal{},
	}, nil
}

func (s *BudgetQueryService) ListUnreadAlerts(ctx context.Context, q cqrs.ListUnreadAlertsQuery) ([]models.Alert, error) {
	return s.alerts.ListUnread(ctx, q.UserID)
}
