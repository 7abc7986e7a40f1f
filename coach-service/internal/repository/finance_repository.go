package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/fincoach/fincoach/shared/errs"
	"github.com/fincoach/fincoach/shared/models"
	sharedredis "github.com/fincoach/fincoach/shared/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// UserViewKeyPrefix matches the read model that user-service maintains.
const UserViewKeyPrefix = "user:view:"

// FinanceRepository reads the budget and transaction history the coach prompts are built from.
type FinanceRepository struct {
	db    *sql.DB
	users *sharedredis.ViewCache[models.UserView]
}

func NewFinanceRepository(db *sql.DB, redisClient *goredis.Client) *FinanceRepository {
	return &FinanceRepository{
		db:    db,
		users: sharedredis.NewViewCache[models.UserView](redisClient, UserViewKeyPrefix, 0),
	}
}

func (r *FinanceRepository) MonthlyBudget(ctx context.Context, userID string) (decimal.Decimal, error) {
	if view, ok := r.users.Get(ctx, userID); ok {
		return view.MonthlyBudget, nil
	}
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

func (r *FinanceRepository) ExpensesBetween(ctx context.Context, userID string, from, to time.Time) ([]models.Transaction, error) {
	return r.query(ctx, "list expenses", `
		SELECT id, user_id, amount, category, type, description, created_at
		FROM transactions
		WHERE user_id = $1 AND type = 'Expense' AND created_at >= $2 AND created_at < $3
	`, userID, from, to)
}

// TransactionsSince returns every transaction at or after since, newest first.
func (r *FinanceRepository) TransactionsSince(ctx context.Context, userID string, since time.Time) ([]models.Transaction, error) {
	return r.query(ctx, "list transactions", `
		SELECT id, user_id, amount, category, type, description, created_at
		FROM transactions
		WHERE user_id = $1 AND created_at >= $2
		ORDER BY created_at DESC
	`, userID, since)
}

func (r *FinanceRepository) query(ctx context.Context, op, query string, args ...any) ([]models.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errs.Store(op, err)
	}
	defer rows.Close()

	transactions := []models.Transaction{}
	for rows.Next() {
		var t models.Transaction
		var description sql.NullString
		if err := rows.Scan(&t.ID, &t.UserID, &t.Amount, &t.Category, &t.Type, &description, &t.CreatedAt); err != nil {
			return nil, errs.Store(op, err)
		}
		t.Description = description.String
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Store(op, err)
	}
	return transactions, nil
}
