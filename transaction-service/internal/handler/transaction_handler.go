package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/fincoach/fincoach/shared/cqrs"
	"github.com/fincoach/fincoach/shared/errs"
	"github.com/fincoach/fincoach/shared/middleware"
	"github.com/fincoach/fincoach/shared/models"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// TransactionCommander defines the write-side operations used by TransactionHandler.
type TransactionCommander interface {
	CreateTransaction(context.Context, cqrs.CreateTransactionCommand) (*models.Transaction, error)
	CreateTransactionFromSMS(context.Context, cqrs.CreateTransactionFromSMSCommand) (*models.Transaction, error)
}

// TransactionQuerier defines the read-side operations used by TransactionHandler.
type TransactionQuerier interface {
	ListTransactions(context.Context, cqrs.ListTransactionsQuery) ([]models.Transaction, error)
	MonthlySummary(context.Context, cqrs.MonthlySummaryQuery) (*models.MonthlySummary, error)
}

type TransactionHandler struct {
	commands TransactionCommander
	queries  TransactionQuerier
}

type CreateTransactionRequest struct {
	Amount      decimal.Decimal `json:"amount" validate:"gt=0"`
	Category    string          `json:"category" validate:"max=50"`
	Type        string          `json:"type" validate:"required,oneof=Expense Income"`
	Description string          `json:"description" validate:"max=500"`
}

type CreateFromSMSRequest struct {
	SMSText string `json:"smsText" validate:"required,max=2000"`
}

type ListTransactionsResponse struct {
	Count        int                  `json:"count"`
	Transactions []models.Transaction `json:"transactions"`
}

func NewTransactionHandler(commands TransactionCommander, queries TransactionQuerier) *TransactionHandler {
	return &TransactionHandler{commands: commands, queries: queries}
}

func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	transaction, err := h.commands.CreateTransaction(c.Request.Context(), cqrs.CreateTransactionCommand{
		UserID:      userID,
		Amount:      req.Amount,
		Category:    req.Category,
		Type:        req.Type,
		Description: req.Description,
	})
	if err != nil {
		respondWithCreateError(c, err)
		return
	}

	c.JSON(http.StatusCreated, transaction)
}

func (h *TransactionHandler) CreateTransactionFromSMS(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req CreateFromSMSRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	transaction, err := h.commands.CreateTransactionFromSMS(c.Request.Context(), cqrs.CreateTransactionFromSMSCommand{
		UserID:  userID,
		SMSText: req.SMSText,
	})
	if err != nil {
		respondWithCreateError(c, err)
		return
	}

	c.JSON(http.StatusCreated, transaction)
}

func respondWithCreateError(c *gin.Context, err error) {
	_ = c.Error(err)
	switch {
	case errors.Is(err, errs.ErrUserNotFound):
		middleware.RespondWithError(c, http.StatusNotFound, "User not found")
	case errors.Is(err, errs.ErrInvalidInput):
		middleware.RespondWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, errs.ErrUnparseableSMS):
		middleware.RespondWithError(c, http.StatusUnprocessableEntity, "Could not process the transaction from SMS")
	case errors.Is(err, errs.ErrUpstreamDegraded):
		middleware.RespondWithError(c, http.StatusBadGateway, "AI service unavailable")
	default:
		middleware.RespondWithError(c, http.StatusInternalServerError, "Failed to create transaction")
	}
}

// ListTransactions accepts an optional ?days=N lower bound.
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var since time.Time
	if raw := c.Query("days"); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil || days <= 0 || days > 3660 {
			middleware.RespondWithError(c, http.StatusBadRequest, "days must be a positive number")
			return
		}
		since = time.Now().AddDate(0, 0, -days)
	}

	transactions, err := h.queries.ListTransactions(c.Request.Context(), cqrs.ListTransactionsQuery{
		UserID: userID,
		Since:  since,
	})
	if err != nil {
		_ = c.Error(err)
		middleware.RespondWithError(c, http.StatusInternalServerError, "Failed to list transactions")
		return
	}

	c.JSON(http.StatusOK, ListTransactionsResponse{Count: len(transactions), Transactions: transactions})
}

func (h *TransactionHandler) GetSummary(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	summary, err := h.queries.MonthlySummary(c.Request.Context(), cqrs.MonthlySummaryQuery{UserID: userID})
	if err != nil {
		_ = c.Error(err)
		if errors.Is(err, errs.ErrUserNotFound) {
			middleware.RespondWithError(c, http.StatusNotFound, "User not found")
			return
		}
		middleware.RespondWithError(c, http.StatusInternalServerError, "Failed to compute monthly summary")
		return
	}

	c.JSON(http.StatusOK, summary)
}
