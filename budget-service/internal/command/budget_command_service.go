package command

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fincoach/fincoach/shared/cqrs"
	"github.com/fincoach/fincoach/shared/errs"
	"github.com/fincoach/fincoach/shared/events"
	"github.com/fincoach/fincoach/shared/models"
	"github.com/fincoach/fincoach/shared/utils"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

type LedgerWriter interface {
	RecordExpense(ctx context.Context, cmd cqrs.RecordExpenseCommand, year, month int) (*models.Budget, bool, error)
	UpdateMonthlyBudget(ctx context.Context, userID string, year, month int, monthlyBudget decimal.Decimal) (*models.Budget, error)
}

type AlertWriter interface {
	CreateThresholdAlert(ctx context.Context, alert *models.Alert) (bool, error)
	MarkRead(ctx context.Context, alertID, userID string) (*models.Alert, error)
}

type BudgetViewCache interface {
	CacheBudgetView(ctx context.Context, view *models.BudgetView)
}

type EventPublisher interface {
	Publish(ctx context.Context, stream, eventType string, data any) error
}

// threshold is a percentage of the monthly budget that raises an alert once
// per user per month.
type threshold struct {
	percent   int
	alertType string
}

// Highest first so the Budget alert is written before the Warning when a
// single expense crosses both.
var thresholds = []threshold{
	{percent: 100, alertType: models.AlertBudget},
	{percent: 80, alertType: models.AlertWarning},
}

// BudgetCommandService keeps the monthly ledger in step with the transaction
// stream and raises threshold alerts.
type BudgetCommandService struct {
	ledger    LedgerWriter
	alerts    AlertWriter
	views     BudgetViewCache
	publisher EventPublisher
	loc       *time.Location
	now       func() time.Time
}

func NewBudgetCommandService(ledger LedgerWriter, alerts AlertWriter, views BudgetViewCache, publisher EventPublisher, loc *time.Location) *BudgetCommandService {
	if loc == nil {
		loc = time.Local
	}
	return &BudgetCommandService{
		ledger:    ledger,
		alerts:    alerts,
		views:     views,
		publisher: publisher,
		loc:       loc,
		now:       time.Now,
	}
}

// RecordExpenseAndUpdateBudget applies one expense to the ledger of the month
// it occurred in. Income and already applied transactions return (nil, nil).
// A redelivered transaction still re-runs the threshold checks, so an alert
// whose write failed after the ledger commit is created on the retry.
func (s *BudgetCommandService) RecordExpenseAndUpdateBudget(ctx context.Context, cmd cqrs.RecordExpenseCommand) (*models.Budget, error) {
	if cmd.Type != models.TransactionExpense {
		return nil, nil
	}
	if cmd.TransactionID == "" || cmd.UserID == "" {
		return nil, fmt.Errorf("%w: transaction and user ids are required", errs.ErrInvalidInput)
	}
	if cmd.Amount.IsNegative() {
		return nil, fmt.Errorf("%w: amount must not be negative", errs.ErrInvalidInput)
	}
	cmd.Category = strings.TrimSpace(cmd.Category)
	if cmd.Category == "" {
		cmd.Category = models.DefaultCategory
	}
	occurred := cmd.OccurredAt
	if occurred.IsZero() {
		occurred = s.now()
	}
	occurred = occurred.In(s.loc)

	budget, applied, err := s.ledger.RecordExpense(ctx, cmd, occurred.Year(), int(occurred.Month()))
	if err != nil {
		return nil, err
	}
	logger := log.Ctx(ctx).With().Str("transactionId", cmd.TransactionID).Str("userId", cmd.UserID).Logger()
	if !applied {
		logger.Debug().Msg("Transaction already applied to ledger, re-checking thresholds")
		if budget != nil {
			if err := s.evaluateThresholds(ctx, budget); err != nil {
				return nil, err
			}
		}
		return nil, nil
	}

	s.views.CacheBudgetView(ctx, models.NewBudgetView(budget))
	if err := s.evaluateThresholds(ctx, budget); err != nil {
		return nil, err
	}
	logger.Info().
		Str("totalSpent", budget.TotalSpent.String()).
		Str("monthlyBudget", budget.MonthlyBudget.String()).
		Msg("Ledger updated")
	return budget, nil
}

// evaluateThresholds writes the alerts the ledger now qualifies for. The
// store's unique index keeps repeats out, so it is safe to run on every
// expense.
func (s *BudgetCommandService) evaluateThresholds(ctx context.Context, budget *models.Budget) error {
	if !budget.MonthlyBudget.IsPositive() {
		return nil
	}
	spentPercent := budget.TotalSpent.Div(budget.MonthlyBudget).Mul(decimal.NewFromInt(100))

	for _, t := range thresholds {
		if spentPercent.LessThan(decimal.NewFromInt(int64(t.percent))) {
			continue
		}
		percent := t.percent
		alert := &models.Alert{
			ID:        utils.GenerateID(utils.AlertIDPrefix),
			UserID:    budget.UserID,
			Type:      t.alertType,
			Message:   thresholdMessage(percent, budget),
			Threshold: &percent,
			Year:      budget.Year,
			Month:     budget.Month,
			CreatedAt: s.now().UTC(),
		}
		created, err := s.alerts.CreateThresholdAlert(ctx, alert)
		if err != nil {
			return err
		}
		if !created {
			continue
		}
		if err := s.publisher.Publish(ctx, events.AlertEventsStream, events.AlertCreated, events.AlertCreatedEvent{
			AlertID:   alert.ID,
			UserID:    alert.UserID,
			Type:      alert.Type,
			Threshold: percent,
		}); err != nil {
			log.Ctx(ctx).Error().Err(err).Str("alertId", alert.ID).Msg("Failed to publish alert.created event")
		}
	}
	return nil
}

func thresholdMessage(percent int, b *models.Budget) string {
	if percent >= 100 {
		return fmt.Sprintf("You have exceeded your monthly budget of %s. Spent so far: %s.",
			b.MonthlyBudget.StringFixed(2), b.TotalSpent.StringFixed(2))
	}
	return fmt.Sprintf("You have used %d%% of your monthly budget of %s. Spent so far: %s.",
		percent, b.MonthlyBudget.StringFixed(2), b.TotalSpent.StringFixed(2))
}

// HandleTransactionEvent is the transaction stream subscriber handler.
// A transaction whose user no longer exists is acknowledged and dropped.
func (s *BudgetCommandService) HandleTransactionEvent(ctx context.Context, event events.Event) error {
	if event.Type != events.TransactionCreated {
		return nil
	}
	data, err := events.Decode[events.TransactionCreatedEvent](event)
	if err != nil {
		return err
	}
	_, err = s.RecordExpenseAndUpdateBudget(ctx, cqrs.RecordExpenseCommand{
		TransactionID: data.TransactionID,
		UserID:        data.UserID,
		Amount:        data.Amount,
		Category:      data.Category,
		Type:          data.Type,
		OccurredAt:    data.CreatedAt,
	})
	if errors.Is(err, errs.ErrUserNotFound) || errors.Is(err, errs.ErrInvalidInput) {
		log.Ctx(ctx).Warn().Err(err).Str("transactionId", data.TransactionID).Msg("Dropping transaction event")
		return nil
	}
	return err
}

// HandleUserEvent copies a changed monthly budget onto the current month's
// ledger. Months without a ledger pick the new value up on their first expense.
func (s *BudgetCommandService) HandleUserEvent(ctx context.Context, event events.Event) error {
	if event.Type != events.UserUpdated {
		return nil
	}
	data, err := events.Decode[events.UserUpdatedEvent](event)
	if err != nil {
		return err
	}
	now := s.now().In(s.loc)
	budget, err := s.ledger.UpdateMonthlyBudget(ctx, data.UserID, now.Year(), int(now.Month()), data.MonthlyBudget)
	if errors.Is(err, errs.ErrBudgetNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	s.views.CacheBudgetView(ctx, models.NewBudgetView(budget))
	return s.evaluateThresholds(ctx, budget)
}

func (s *BudgetCommandService) MarkAlertRead(ctx context.Context, cmd cqrs.MarkAlertReadCommand) (*models.Alert, error) {
	if !utils.ValidateAlertID(cmd.AlertID) {
		return nil, errs.ErrAlertNotFound
	}
	return s.alerts.MarkRead(ctx, cmd.AlertID, cmd.RequestingUserID)
}
