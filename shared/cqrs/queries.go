package cqrs

import "time"

// ---------- User queries ----------

// GetProfileQuery fetches the authenticated user's own profile.
type GetProfileQuery struct {
	UserID string
}

// ---------- Transaction queries ----------

// ListTransactionsQuery fetches a user's transactions, newest first.
// Since is the zero time when no lower bound applies.
type ListTransactionsQuery struct {
	UserID string
	Since  time.Time
}

// MonthlySummaryQuery computes the current month's summary for a user.
type MonthlySummaryQuery struct {
	UserID string
}

// ---------- Budget and alert queries ----------

// CurrentBudgetQuery fetches the persisted ledger for the current month.
type CurrentBudgetQuery struct {
	UserID string
}

// ListUnreadAlertsQuery fetches unread alerts, newest first.
type ListUnreadAlertsQuery struct {
	UserID string
}

// ---------- Coach queries ----------

type AskCoachQuery struct {
	UserID string
	Query  string
}

type InsightsQuery struct {
	UserID string
}

// ---------- Verification queries ----------

type VerifyLinkQuery struct {
	URL string
}
