package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fincoach/fincoach/shared/cqrs"
	"github.com/fincoach/fincoach/shared/errs"
	"github.com/fincoach/fincoach/shared/models"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ---- mock implementations ----

type mockTransactionCommander struct {
	createFn    func(cqrs.CreateTransactionCommand) (*models.Transaction, error)
	createSMSFn func(cqrs.CreateTransactionFromSMSCommand) (*models.Transaction, error)
}

func (m *mockTransactionCommander) CreateTransaction(_ context.Context, cmd cqrs.CreateTransactionCommand) (*models.Transaction, error) {
	if m.createFn != nil {
		return m.createFn(cmd)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockTransactionCommander) CreateTransactionFromSMS(_ context.Context, cmd cqrs.CreateTransactionFromSMSCommand) (*models.Transaction, error) {
	if m.createSMSFn != nil {
		return m.createSMSFn(cmd)
	}
	return nil, fmt.Errorf("not configured")
}

type mockTransactionQuerier struct {
	listFn    func(cqrs.ListTransactionsQuery) ([]models.Transaction, error)
	summaryFn func(cqrs.MonthlySummaryQuery) (*models.MonthlySummary, error)
}

func (m *mockTransactionQuerier) ListTransactions(_ context.Context, q cqrs.ListTransactionsQuery) ([]models.Transaction, error) {
	if m.listFn != nil {
		return m.listFn(q)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockTransactionQuerier) MonthlySummary(_ context.Context, q cqrs.MonthlySummaryQuery) (*models.MonthlySummary, error) {
	if m.summaryFn != nil {
		return m.summaryFn(q)
	}
	return nil, fmt.Errorf("not configured")
}

// ---- helpers ----

func fakeAuthTx(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userId", userID)
		c.Next()
	}
}

func newTxTestRouter(cmds TransactionCommander, qrys TransactionQuerier, authUserID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(fakeAuthTx(authUserID))
	h := NewTransactionHandler(cmds, qrys)
	v1 := r.Group("/v1/transactions")
	v1.POST("", h.CreateTransaction)
	v1.POST("/sms", h.CreateTransactionFromSMS)
	v1.GET("", h.ListTransactions)
	v1.GET("/summary", h.GetSummary)
	return r
}

func txDoRequest(router *gin.Engine, method, url string, body interface{}) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, url, nil)
	if body != nil {
		b, _ := json.Marshal(body)
		req, _ = http.NewRequest(method, url, strings.NewReader(string(b)))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// ---- test data ----

var txTestTransaction = &models.Transaction{
	ID: "txn-001", UserID: "usr-001",
	Amount: decimal.NewFromInt(1200), Category: "Food", Type: models.TransactionExpense,
	Description: "Zomato", CreatedAt: time.Now(),
}

func txExpenseBody() map[string]interface{} {
	return map[string]interface{}{"amount": 1200, "category": "Food", "type": "Expense", "description": "Zomato"}
}

// ---- tests ----

func TestCreateTransaction(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		createFn       func(cqrs.CreateTransactionCommand) (*models.Transaction, error)
		expectedStatus int
	}{
		{
			name: "success - record an expense",
			body: txExpenseBody(),
			createFn: func(cmd cqrs.CreateTransactionCommand) (*models.Transaction, error) {
				if cmd.UserID != "usr-001" || !cmd.Amount.Equal(decimal.NewFromInt(1200)) {
					return nil, fmt.Errorf("unexpected command %+v", cmd)
				}
				return txTestTransaction, nil
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "success - amount sent as string",
			body:           map[string]interface{}{"amount": "49.90", "type": "Income"},
			createFn:       func(cmd cqrs.CreateTransactionCommand) (*models.Transaction, error) { return txTestTransaction, nil },
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "not found - user was deleted",
			body:           txExpenseBody(),
			createFn:       func(cmd cqrs.CreateTransactionCommand) (*models.Transaction, error) { return nil, errs.ErrUserNotFound },
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "server error - store unavailable",
			body:           txExpenseBody(),
			createFn:       func(cmd cqrs.CreateTransactionCommand) (*models.Transaction, error) { return nil, errs.Store("create", fmt.Errorf("down")) },
			expectedStatus: http.StatusInternalServerError,
		},
		{
			name:           "bad request - missing required fields",
			body:           map[string]interface{}{},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "bad request - unknown type",
			body:           map[string]interface{}{"amount": 10, "type": "Refund"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "bad request - negative amount",
			body:           map[string]interface{}{"amount": -5, "type": "Expense"},
			expectedStatus: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTxTestRouter(&mockTransactionCommander{createFn: tt.createFn}, &mockTransactionQuerier{}, "usr-001")
			w := txDoRequest(router, http.MethodPost, "/v1/transactions", tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected %d got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestCreateTransactionFromSMS(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		createSMSFn    func(cqrs.CreateTransactionFromSMSCommand) (*models.Transaction, error)
		expectedStatus int
	}{
		{
			name:           "success - parsed sms",
			body:           map[string]string{"smsText": "Rs.1200 debited at ZOMATO"},
			createSMSFn:    func(cmd cqrs.CreateTransactionFromSMSCommand) (*models.Transaction, error) { return txTestTransaction, nil },
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "unprocessable - model could not read the sms",
			body:           map[string]string{"smsText": "hello"},
			createSMSFn:    func(cmd cqrs.CreateTransactionFromSMSCommand) (*models.Transaction, error) { return nil, errs.ErrUnparseableSMS },
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name: "bad gateway - model unavailable",
			body: map[string]string{"smsText": "Rs.10 debited"},
			createSMSFn: func(cmd cqrs.CreateTransactionFromSMSCommand) (*models.Transaction, error) {
				return nil, errs.Upstream("parse sms", fmt.Errorf("quota"))
			},
			expectedStatus: http.StatusBadGateway,
		},
		{
			name:           "bad request - missing sms text",
			body:           map[string]string{},
			expectedStatus: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTxTestRouter(&mockTransactionCommander{createSMSFn: tt.createSMSFn}, &mockTransactionQuerier{}, "usr-001")
			w := txDoRequest(router, http.MethodPost, "/v1/transactions/sms", tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected %d got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestListTransactions(t *testing.T) {
	tests := []struct {
		name           string
		url            string
		listFn         func(cqrs.ListTransactionsQuery) ([]models.Transaction, error)
		expectedStatus int
	}{
		{
			name: "success - full history",
			url:  "/v1/transactions",
			listFn: func(q cqrs.ListTransactionsQuery) ([]models.Transaction, error) {
				if !q.Since.IsZero() {
					return nil, fmt.Errorf("expected no lower bound")
				}
				return []models.Transaction{*txTestTransaction}, nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "success - last 60 days",
			url:  "/v1/transactions?days=60",
			listFn: func(q cqrs.ListTransactionsQuery) ([]models.Transaction, error) {
				if q.Since.IsZero() {
					return nil, fmt.Errorf("expected a lower bound")
				}
				return []models.Transaction{}, nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "bad request - days is not a number",
			url:            "/v1/transactions?days=lots",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "server error - store unavailable",
			url:            "/v1/transactions",
			listFn:         func(q cqrs.ListTransactionsQuery) ([]models.Transaction, error) { return nil, errs.ErrStoreUnavailable },
			expectedStatus: http.StatusInternalServerError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTxTestRouter(&mockTransactionCommander{}, &mockTransactionQuerier{listFn: tt.listFn}, "usr-001")
			w := txDoRequest(router, http.MethodGet, tt.url, nil)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected %d got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestGetSummary(t *testing.T) {
	summary := &models.MonthlySummary{
		MonthlyBudget: decimal.NewFromInt(10000),
		TotalSpent:    decimal.NewFromInt(2000),
		Remaining:     decimal.NewFromInt(8000),
		CategorySpent: map[string]decimal.Decimal{"Food": decimal.NewFromInt(1200), "Transport": decimal.NewFromInt(800)},
	}

	t.Run("success - summary body uses numbers", func(t *testing.T) {
		router := newTxTestRouter(&mockTransactionCommander{}, &mockTransactionQuerier{
			summaryFn: func(q cqrs.MonthlySummaryQuery) (*models.MonthlySummary, error) { return summary, nil },
		}, "usr-001")
		w := txDoRequest(router, http.MethodGet, "/v1/transactions/summary", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("expected %d got %d; body: %s", http.StatusOK, w.Code, w.Body.String())
		}
		want := `{"monthlyBudget":10000,"totalSpent":2000,"remaining":8000,"categorySpent":{"Food":1200,"Transport":800}}`
		var got, expected map[string]any
		_ = json.Unmarshal(w.Body.Bytes(), &got)
		_ = json.Unmarshal([]byte(want), &expected)
		if fmt.Sprint(got) != fmt.Sprint(expected) {
			t.Errorf("expected body %s got %s", want, w.Body.String())
		}
	})

	t.Run("not found - unknown user", func(t *testing.T) {
		router := newTxTestRouter(&mockTransactionCommander{}, &mockTransactionQuerier{
			summaryFn: func(q cqrs.MonthlySummaryQuery) (*models.MonthlySummary, error) { return nil, errs.ErrUserNotFound },
		}, "usr-404")
		w := txDoRequest(router, http.MethodGet, "/v1/transactions/summary", nil)
		if w.Code != http.StatusNotFound {
			t.Errorf("expected %d got %d; body: %s", http.StatusNotFound, w.Code, w.Body.String())
		}
	})
}
