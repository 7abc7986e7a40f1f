package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fincoach/fincoach/shared/errs"
	"github.com/fincoach/fincoach/shared/models"
	sharedredis "github.com/fincoach/fincoach/shared/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const budgetViewKeyPrefix = "budget:view:"

// BudgetViewID is the cache id of a ledger: <user>:<yyyy>-<mm>.
func BudgetViewID(userID string, year, month int) string {
	return fmt.Sprintf("%s:%04d-%02d", userID, year, month)
}

// BudgetReadRepository serves ledger views from Redis, falling back to PostgreSQL.
type BudgetReadRepository struct {
	db    *sql.DB
	cache *sharedredis.ViewCache[models.BudgetView]
}

func NewBudgetReadRepository(db *sql.DB, redisClient *goredis.Client) *BudgetReadRepository {
	return &BudgetReadRepository{
		db:    db,
		cache: sharedredis.NewViewCache[models.BudgetView](redisClient, budgetViewKeyPrefix, 0),
	}
}

func (r *BudgetReadRepository) GetView(ctx context.Context, userID string, year, month int) (*models.BudgetView, error) {
	if view, ok := r.cache.Get(ctx, BudgetViewID(userID, year, month)); ok {
		view.UserID = userID
		return view, nil
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT `+budgetColumns+`
		FROM budgets
		WHERE user_id = $1 AND year = $2 AND month = $3
	`, userID, year, month)
	budget, err := scanBudget(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.ErrBudgetNotFound
	}
	if err != nil {
		return nil, errs.Store("get budget", err)
	}

	view := models.NewBudgetView(budget)
	r.CacheBudgetView(ctx, view)
	return view, nil
}

// MonthlyBudget reads the user's configured budget, used before the first
// expense of a month creates the ledger.
func (r *BudgetReadRepository) MonthlyBudget(ctx context.Context, userID string) (decimal.Decimal, error) {
	var monthlyBudget decimal.Decimal
	err := r.db.QueryRowContext(ctx, `SELECT monthly_budget FROM users WHERE id = $1`, userID).Scan(&monthlyBudget)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, errs.ErrUserNotFound
	}
	if err != nil {
		return decimal.Zero, errs.Store("get monthly budget", err)
	}
	return monthlyBudget, nil
}

func (r *BudgetReadRepository) CacheBudgetView(ctx context.Context, view *models.BudgetView) {
	r.cache.Set(ctx, BudgetViewID(view.UserID, view.Year, view.Month), view)
}
