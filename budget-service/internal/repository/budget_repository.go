package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fincoach/fincoach/shared/cqrs"
	"github.com/fincoach/fincoach/shared/errs"
	"github.com/fincoach/fincoach/shared/models"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// BudgetWriteRepository maintains the monthly ledger in PostgreSQL.
type BudgetWriteRepository struct {
	db *sql.DB
}

func NewBudgetWriteRepository(db *sql.DB) *BudgetWriteRepository {
	return &BudgetWriteRepository{db: db}
}

const budgetColumns = `user_id, year, month, monthly_budget, total_spent, category_spent, created_at, updated_at`

// RecordExpense adds one expense to the (user, year, month) ledger in a single
// SQL transaction. The second return value is false when the transaction id
// was already applied; the ledger is then left untouched and its current row
// is returned so a redelivery can finish the work that follows the commit.
func (r *BudgetWriteRepository) RecordExpense(ctx context.Context, cmd cqrs.RecordExpenseCommand, year, month int) (*models.Budget, bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, errs.Store("begin ledger transaction", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx, `
		INSERT INTO budget_entries (transaction_id, user_id, applied_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (transaction_id) DO NOTHING
	`, cmd.TransactionID, cmd.UserID, now)
	if err != nil {
		return nil, false, errs.Store("insert budget entry", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, false, errs.Store("insert budget entry", err)
	} else if n == 0 {
		current, err := scanBudget(tx.QueryRowContext(ctx,
			`SELECT `+budgetColumns+` FROM budgets WHERE user_id = $1 AND year = $2 AND month = $3`,
			cmd.UserID, year, month))
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		if err != nil {
			return nil, false, errs.Store("get budget", err)
		}
		return current, false, nil
	}

	// A new ledger copies the user's current budget. Amounts are added in SQL
	// so concurrent consumers cannot lose an increment.
	row := tx.QueryRowContext(ctx, `
		INSERT INTO budgets (`+budgetColumns+`)
		VALUES (
			$1, $2, $3,
			(SELECT monthly_budget FROM users WHERE id = $1),
			$4::numeric,
			jsonb_build_object($5::text, $4::numeric),
			$6, $6
		)
		ON CONFLICT (user_id, year, month) DO UPDATE SET
			total_spent = budgets.total_spent + EXCLUDED.total_spent,
			category_spent = jsonb_set(
				budgets.category_spent,
				ARRAY[$5::text],
				to_jsonb(COALESCE((budgets.category_spent ->> $5::text)::numeric, 0) + $4::numeric)
			),
			updated_at = EXCLUDED.updated_at
		RETURNING `+budgetColumns,
		cmd.UserID, year, month, cmd.Amount, cmd.Category, now,
	)
	budget, err := scanBudget(row)
	if err != nil {
		var pqErr *pq.Error
		// 23502: the users subquery found no row; 23503: foreign key.
		if errors.As(err, &pqErr) && (pqErr.Code == "23502" || pqErr.Code == "23503") {
			return nil, false, errs.ErrUserNotFound
		}
		return nil, false, errs.Store("upsert budget", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, false, errs.Store("commit ledger transaction", err)
	}
	return budget, true, nil
}

// UpdateMonthlyBudget rewrites the ceiling of an existing ledger.
func (r *BudgetWriteRepository) UpdateMonthlyBudget(ctx context.Context, userID string, year, month int, monthlyBudget decimal.Decimal) (*models.Budget, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE budgets
		SET monthly_budget = $4, updated_at = $5
		WHERE user_id = $1 AND year = $2 AND month = $3
		RETURNING `+budgetColumns,
		userID, year, month, monthlyBudget, time.Now().UTC(),
	)
	budget, err := scanBudget(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.ErrBudgetNotFound
	}
	if err != nil {
		return nil, errs.Store("update monthly budget", err)
	}
	return budget, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBudget(row rowScanner) (*models.Budget, error) {
	var b models.Budget
	var categories []byte
	if err := row.Scan(
		&b.UserID, &b.Year, &b.Month, &b.MonthlyBudget, &b.TotalSpent, &categories,
		&b.CreatedAt, &b.UpdatedAt,
	); err != nil {
		return nil, err
	}
	b.CategorySpent = map[string]decimal.Decimal{}
	if len(categories) > 0 {
		if err := json.Unmarshal(categories, &b.CategorySpent); err != nil {
			return nil, fmt.Errorf("decode category_spent: %w", err)
		}
	}
	return &b, nil
}
