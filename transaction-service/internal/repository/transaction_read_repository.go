package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/fincoach/fincoach/shared/errs"
	"github.com/fincoach/fincoach/shared/models"
)

const transactionColumns = `id, user_id, amount, category, type, description, created_at`

// TransactionReadRepository serves transaction reads straight from PostgreSQL.
// Summaries are always re-aggregated from the log, so nothing here is cached.
type TransactionReadRepository struct {
	db *sql.DB
}

func NewTransactionReadRepository(db *sql.DB) *TransactionReadRepository {
	return &TransactionReadRepository{db: db}
}

// ListByUser returns the user's transactions newest first. A zero since
// returns the whole history.
func (r *TransactionReadRepository) ListByUser(ctx context.Context, userID string, since time.Time) ([]models.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE user_id = $1 AND created_at >= $2
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID, since)
	if err != nil {
		return nil, errs.Store("list transactions", err)
	}
	return scanTransactions(rows)
}

// ExpensesBetween returns Expense transactions with from <= created_at < to.
func (r *TransactionReadRepository) ExpensesBetween(ctx context.Context, userID string, from, to time.Time) ([]models.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE user_id = $1 AND type = $2 AND created_at >= $3 AND created_at < $4
	`
	rows, err := r.db.QueryContext(ctx, query, userID, models.TransactionExpense, from, to)
	if err != nil {
		return nil, errs.Store("list expenses", err)
	}
	return scanTransactions(rows)
}

func scanTransactions(rows *sql.Rows) ([]models.Transaction, error) {
	defer rows.Close()

	transactions := []models.Transaction{}
	for rows.Next() {
		var t models.Transaction
		var description sql.NullString

		if err := rows.Scan(
			&t.ID, &t.UserID, &t.Amount, &t.Category, &t.Type,
			&description, &t.CreatedAt,
		); err != nil {
			return nil, errs.Store("scan transaction", err)
		}
		if description.Valid {
			t.Description = description.String
		}
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Store("iterate transactions", err)
	}
	return transactions, nil
}
