package command

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fincoach/fincoach/shared/ai"
	"github.com/fincoach/fincoach/shared/errs"
	"github.com/fincoach/fincoach/shared/models"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const smsPromptTemplate = `Analyze the following bank transaction SMS and extract the key details.
SMS: %q

Return a single, minified JSON object with the following keys:
- "amount": number (the transaction amount)
- "type": string ("Expense" or "Income")
- "category": string (e.g., "Food", "Shopping", "UPI", "Transfer", "Salary")
- "description": string (a brief description, like the merchant name)

Do not include any text before or after the JSON object, and do not use markdown.
Example Output: {"amount": 350.00, "type": "Expense", "category": "Food", "description": "Zomato"}`

// ParsedSMS is the transaction the model read out of an SMS.
type ParsedSMS struct {
	Amount      decimal.Decimal `json:"amount"`
	Type        string          `json:"type"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
}

type SMSParser struct {
	generator ai.Generator
	timeout   time.Duration
}

// NewSMSParser bounds every model call by timeout; zero leaves it unbounded.
func NewSMSParser(generator ai.Generator, timeout time.Duration) *SMSParser {
	return &SMSParser{generator: generator, timeout: timeout}
}

// Parse asks the model for the transaction in smsText. Anything short of a
// positive amount and a known type is errs.ErrUnparseableSMS.
func (p *SMSParser) Parse(ctx context.Context, smsText string) (*ParsedSMS, error) {
	genCtx := ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	raw, err := p.generator.Generate(genCtx, fmt.Sprintf(smsPromptTemplate, smsText))
	if err != nil {
		return nil, errs.Upstream("parse sms", err)
	}

	object, err := ai.ExtractJSONObject(ai.CleanModelJSON(raw))
	if err != nil {
		log.Ctx(ctx).Warn().Str("raw", raw).Msg("SMS parser returned no JSON object")
		return nil, errs.ErrUnparseableSMS
	}

	var parsed ParsedSMS
	if err := json.Unmarshal([]byte(object), &parsed); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("raw", raw).Msg("SMS parser returned malformed JSON")
		return nil, errs.ErrUnparseableSMS
	}

	parsed.Type = normalizeType(parsed.Type)
	if !parsed.Amount.IsPositive() || parsed.Type == "" {
		return nil, errs.ErrUnparseableSMS
	}
	parsed.Category = strings.TrimSpace(parsed.Category)
	parsed.Description = strings.TrimSpace(parsed.Description)
	return &parsed, nil
}

func normalizeType(t string) string {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "expense", "debit":
		return models.TransactionExpense
	case "income", "credit":
		return models.TransactionIncome
	default:
		return ""
	}
}
