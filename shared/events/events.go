package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Event types
const (
	UserCreated = "user.created"
	UserUpdated = "user.updated"

	TransactionCreated = "transaction.created"

	AlertCreated = "alert.created"
)

// Stream names
const (
	UserEventsStream        = "user.events"
	TransactionEventsStream = "transaction.events"
	AlertEventsStream       = "alert.events"
)

// Base event structure
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// User events
type UserCreatedEvent struct {
	UserID        string          `json:"userId"`
	Email         string          `json:"email"`
	Username      string          `json:"username"`
	MonthlyBudget decimal.Decimal `json:"monthlyBudget"`
}

type UserUpdatedEvent struct {
	UserID        string          `json:"userId"`
	Username      string          `json:"username"`
	MonthlyBudget decimal.Decimal `json:"monthlyBudget"`
}

// Transaction events
type TransactionCreatedEvent struct {
	TransactionID string          `json:"transactionId"`
	UserID        string          `json:"userId"`
	Amount        decimal.Decimal `json:"amount"`
	Category      string          `json:"category"`
	Type          string          `json:"type"`
	CreatedAt     time.Time       `json:"createdTimestamp"`
}

// Alert events
type AlertCreatedEvent struct {
	AlertID   string `json:"alertId"`
	UserID    string `json:"userId"`
	Type      string `json:"type"`
	Threshold int    `json:"threshold"`
}

// Decode converts the loosely typed Data of a received event into T.
// After a round trip through the stream Data is a map[string]any.
func Decode[T any](event Event) (T, error) {
	var out T
	dataBytes, err := json.Marshal(event.Data)
	if err != nil {
		return out, fmt.Errorf("failed to marshal %s payload: %w", event.Type, err)
	}
	if err := json.Unmarshal(dataBytes, &out); err != nil {
		return out, fmt.Errorf("failed to unmarshal %s event: %w", event.Type, err)
	}
	return out, nil
}
