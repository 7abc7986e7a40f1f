package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/fincoach/fincoach/shared/errs"
	"github.com/fincoach/fincoach/shared/models"
	sharedredis "github.com/fincoach/fincoach/shared/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// UserViewKeyPrefix matches the read model that user-service maintains.
const UserViewKeyPrefix = "user:view:"

// UserRepository looks up the profile fields transaction-service needs.
// It reads the user-service Redis projection first and falls back to PostgreSQL.
type UserRepository struct {
	db    *sql.DB
	cache *sharedredis.ViewCache[models.UserView]
}

func NewUserRepository(db *sql.DB, redisClient *goredis.Client) *UserRepository {
	return &UserRepository{
		db:    db,
		cache: sharedredis.NewViewCache[models.UserView](redisClient, UserViewKeyPrefix, 0),
	}
}

// MonthlyBudget returns the user's budget ceiling, or errs.ErrUserNotFound.
func (r *UserRepository) MonthlyBudget(ctx context.Context, userID string) (decimal.Decimal, error) {
	if view, ok := r.cache.Get(ctx, userID); ok {
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
