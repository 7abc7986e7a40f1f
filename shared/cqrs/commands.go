package cqrs

import (
	"time"

	"github.com/shopspring/decimal"
)

type RegisterUserCommand struct {
	Username      string
	Email         string
	Password      string
	MonthlyBudget decimal.Decimal
}

// UpdateProfileCommand leaves a field untouched when it is nil.
type UpdateProfileCommand struct {
	UserID        string
	Username      *string
	MonthlyBudget *decimal.Decimal
}

type CreateTransactionCommand struct {
	UserID      string
	Amount      decimal.Decimal
	Category    string
	Type        string
	Description string
}

type CreateTransactionFromSMSCommand struct {
	UserID  string
	SMSText string
}

type RecordExpenseCommand struct {
	TransactionID string
	UserID        string
	Amount        decimal.Decimal
	Category      string
	Type          string
	OccurredAt    time.Time
}

type MarkAlertReadCommand struct {
	AlertID          string
	RequestingUserID string
}

type UpsertLoanLinkCommand struct {
	Domain          string
	Status          string
	InstitutionName string
	Notes           string
}

type LoginCommand struct {
	Email    string
	Password string
}

type RefreshTokenCommand struct {
	Token string
}
