package query

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fincoach/fincoach/shared/models"
	"github.com/shopspring/decimal"
	"google.golang.org/genai"
)

const coachPromptTemplate = `You are FinCoach AI, a friendly and insightful financial assistant for a user in India.
Your goal is to provide personalized financial advice based on the user's real-time spending data.
Do not give generic advice. Your answer MUST be based on the data provided.
Keep your response concise, helpful, and encouraging. Amounts are in Indian Rupees (₹).

Here is the user's current monthly financial summary:
%s

Based on that data, please answer the following question from the user:
Question: %q

Provide only the advice in your response.`

const insightsPromptTemplate = `You are an expert financial analyst AI for an app in India. Your goal is to provide 3-5 actionable, personalized financial insights based on the user's data.
Analyze the following data for a user. The currency is Indian Rupees (₹).

User's Monthly Budget: ₹%s

User's Transactions for the last %d days:
%s

Based on this data, identify key areas for improvement, potential savings, and financial opportunities.
For each insight, you must classify it by providing a 'type'. The type must be one of the following exact strings: %s.
Also provide a clear title, a summary, a confidence score, the potential impact, actionable steps, and an estimated annual savings in INR.

You MUST respond with a valid JSON array that strictly conforms to the provided schema. Do not include any other text, markdown, or explanations.`

var insightTypes = []string{"Spending Tips", "Savings Advice", "Investment", "Debt Management"}

var insightsSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"impact":                 {Type: genai.TypeString, Description: "High, Medium, or Low", Enum: []string{"High", "Medium", "Low"}},
			"type":                   {Type: genai.TypeString, Description: "The category of the insight.", Enum: insightTypes},
			"category":               {Type: genai.TypeString, Description: "e.g., Food & Dining, Savings, Investment"},
			"title":                  {Type: genai.TypeString},
			"confidence":             {Type: genai.TypeNumber, Description: "A confidence score from 0 to 100"},
			"summary":                {Type: genai.TypeString, Description: "A one-sentence summary of the insight."},
			"actionItems":            {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
			"estimatedAnnualSavings": {Type: genai.TypeNumber, Description: "Estimated savings in INR (₹)"},
		},
		Required: []string{"impact", "category", "title", "confidence", "summary", "actionItems", "estimatedAnnualSavings"},
	},
}

func buildCoachPrompt(summary *models.MonthlySummary, question string) (string, error) {
	summaryJSON, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode summary: %w", err)
	}
	return fmt.Sprintf(coachPromptTemplate, "```json\n"+string(summaryJSON)+"\n```", question), nil
}

// promptTransaction is the compact form sent to the model. Ids and the owner
// are left out.
type promptTransaction struct {
	Date        string          `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Type        string          `json:"type"`
	Description string          `json:"description,omitempty"`
}

func buildInsightsPrompt(monthlyBudget decimal.Decimal, txs []models.Transaction, days int) (string, error) {
	compact := make([]promptTransaction, 0, len(txs))
	for _, t := range txs {
		compact = append(compact, promptTransaction{
			Date:        t.CreatedAt.Format(time.DateOnly),
			Amount:      t.Amount,
			Category:    t.Category,
			Type:        t.Type,
			Description: t.Description,
		})
	}
	encoded, err := json.MarshalIndent(compact, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode transactions: %w", err)
	}
	quoted := make([]string, len(insightTypes))
	for i, t := range insightTypes {
		quoted[i] = "'" + t + "'"
	}
	return fmt.Sprintf(insightsPromptTemplate, monthlyBudget.StringFixed(2), days, encoded, strings.Join(quoted, ", ")), nil
}
