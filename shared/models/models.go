package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Amounts go over the wire as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Transaction kinds
const (
	TransactionExpense = "Expense"
	TransactionIncome  = "Income"

	DefaultCategory = "General"
)

// Curated link statuses
const (
	LinkWhitelisted = "Whitelisted"
	LinkBlacklisted = "Blacklisted"
)

// Alert types
const (
	AlertBudget  = "Budget"
	AlertInfo    = "Info"
	AlertWarning = "Warning"
)

type User struct {
	ID            string          `json:"id"`
	Username      string          `json:"username"`
	Email         string          `json:"email"`
	PasswordHash  string          `json:"-"`
	MonthlyBudget decimal.Decimal `json:"monthlyBudget"`
	CreatedAt     time.Time       `json:"createdTimestamp"`
	UpdatedAt     time.Time       `json:"updatedTimestamp"`
}

// Transaction is immutable once written.
type Transaction struct {
	ID          string          `json:"id"`
	UserID      string          `json:"userId"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Type        string          `json:"type"`
	Description string          `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"createdTimestamp"`
}

// Budget is the persisted monthly ledger, unique per user, year and month.
type Budget struct {
	UserID        string                     `json:"userId"`
	Year          int                        `json:"year"`
	Month         int                        `json:"month"`
	MonthlyBudget decimal.Decimal            `json:"monthlyBudget"`
	TotalSpent    decimal.Decimal            `json:"totalSpent"`
	CategorySpent map[string]decimal.Decimal `json:"categorySpent"`
	CreatedAt     time.Time                  `json:"createdTimestamp"`
	UpdatedAt     time.Time                  `json:"updatedTimestamp"`
}

type Alert struct {
	ID        string    `json:"id"`
	UserID    string    `json:"-"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Threshold *int      `json:"threshold,omitempty"`
	Year      int       `json:"year"`
	Month     int       `json:"month"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdTimestamp"`
}

// LoanLink is one entry of the curated allow/deny list. Domain is stored
// normalized: lower-case, without a leading "www.".
type LoanLink struct {
	Domain          string    `json:"domain"`
	Status          string    `json:"status"`
	InstitutionName string    `json:"institutionName"`
	Notes           string    `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"createdTimestamp"`
	UpdatedAt       time.Time `json:"updatedTimestamp"`
}
