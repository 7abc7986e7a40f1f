package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// UserView is the read-optimised projection of a user.
// It never exposes PasswordHash.
type UserView struct {
	ID            string          `json:"id"`
	Username      string          `json:"username"`
	Email         string          `json:"email"`
	MonthlyBudget decimal.Decimal `json:"monthlyBudget"`
	CreatedAt     time.Time       `json:"createdTimestamp"`
	UpdatedAt     time.Time       `json:"updatedTimestamp"`
}

// MonthlySummary is computed on read from the month's Expense transactions.
// Remaining goes negative when the user is over budget.
type MonthlySummary struct {
	MonthlyBudget decimal.Decimal            `json:"monthlyBudget"`
	TotalSpent    decimal.Decimal            `json:"totalSpent"`
	Remaining     decimal.Decimal            `json:"remaining"`
	CategorySpent map[string]decimal.Decimal `json:"categorySpent"`
}

// BudgetView is the cached projection of a monthly ledger.
type BudgetView struct {
	UserID        string                     `json:"-"`
	Year          int                        `json:"year"`
	Month         int                        `json:"month"`
	MonthlyBudget decimal.Decimal            `json:"monthlyBudget"`
	TotalSpent    decimal.Decimal            `json:"totalSpent"`
	Remaining     decimal.Decimal            `json:"remaining"`
	CategorySpent map[string]decimal.Decimal `json:"categorySpent"`
	UpdatedAt     time.Time                  `json:"updatedTimestamp"`
}

// Verification statuses
const (
	VerificationSafe       = "Safe"
	VerificationSuspicious = "Suspicious"
	VerificationMalicious  = "Malicious"
)

type VerificationResult struct {
	Status    string `json:"status"`
	RiskScore int    `json:"riskScore"`
	Reason    string `json:"reason"`
}

// Insight is one AI-generated recommendation shown on the insights page.
type Insight struct {
	Impact                 string          `json:"impact"`
	Type                   string          `json:"type,omitempty"`
	Category               string          `json:"category"`
	Title                  string          `json:"title"`
	Confidence             float64         `json:"confidence"`
	Summary                string          `json:"summary"`
	ActionItems            []string        `json:"actionItems"`
	EstimatedAnnualSavings decimal.Decimal `json:"estimatedAnnualSavings"`
}

// NewBudgetView projects a ledger row. Remaining is not clamped.
func NewBudgetView(b *Budget) *BudgetView {
	categories := make(map[string]decimal.Decimal, len(b.CategorySpent))
	for k, v := range b.CategorySpent {
		categories[k] = v
	}
	return &BudgetView{
		UserID:        b.UserID,
		Year:          b.Year,
		Month:         b.Month,
		MonthlyBudget: b.MonthlyBudget,
		TotalSpent:    b.TotalSpent,
		Remaining:     b.MonthlyBudget.Sub(b.TotalSpent),
		CategorySpent: categories,
		UpdatedAt:     b.UpdatedAt,
	}
}
