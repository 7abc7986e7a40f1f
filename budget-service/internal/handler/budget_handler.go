package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/fincoach/fincoach/shared/cqrs"
	"github.com/fincoach/fincoach/shared/errs"
	"github.com/fincoach/fincoach/shared/middleware"
	"github.com/fincoach/fincoach/shared/models"
	"github.com/gin-gonic/gin"
)

// BudgetCommander defines the write-side operations used by BudgetHandler.
type BudgetCommander interface {
	MarkAlertRead(context.Context, cqrs.MarkAlertReadCommand) (*models.Alert, error)
}

// BudgetQuerier defines the read-side operations used by BudgetHandler.
type BudgetQuerier interface {
	CurrentBudget(context.Context, cqrs.CurrentBudgetQuery) (*models.BudgetView, error)
	ListUnreadAlerts(context.Context, cqrs.ListUnreadAlertsQuery) ([]models.Alert, error)
}

// BudgetHandler serves the monthly ledger and budget alerts.
type BudgetHandler struct {
	commands BudgetCommander
	queries  BudgetQuerier
}

type ListAlertsResponse struct {
	Count  int            `json:"count"`
	Alerts []models.Alert `json:"alerts"`
}

func NewBudgetHandler(commands BudgetCommander, queries BudgetQuerier) *BudgetHandler {
	return &BudgetHandler{commands: commands, queries: queries}
}

func (h *BudgetHandler) GetCurrentBudget(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	view, err := h.queries.CurrentBudget(c.Request.Context(), cqrs.CurrentBudgetQuery{UserID: userID})
	if err != nil {
		_ = c.Error(err)
		if errors.Is(err, errs.ErrUserNotFound) {
			middleware.RespondWithError(c, http.StatusNotFound, "User not found")
			return
		}
		middleware.RespondWithError(c, http.StatusInternalServerError, "Failed to fetch budget")
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *BudgetHandler) ListAlerts(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	alerts, err := h.queries.ListUnreadAlerts(c.Request.Context(), cqrs.ListUnreadAlertsQuery{UserID: userID})
	if err != nil {
		_ = c.Error(err)
		middleware.RespondWithError(c, http.StatusInternalServerError, "Failed to fetch alerts")
		return
	}

	c.JSON(http.StatusOK, ListAlertsResponse{Count: len(alerts), Alerts: alerts})
}

func (h *BudgetHandler) MarkAlertRead(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	alert, err := h.commands.MarkAlertRead(c.Request.Context(), cqrs.MarkAlertReadCommand{
		AlertID:          c.Param("alertId"),
		RequestingUserID: userID,
	})
	if err != nil {
		_ = c.Error(err)
		if errors.Is(err, errs.ErrAlertNotFound) {
			middleware.RespondWithError(c, http.StatusNotFound, "Alert not found or you do not have permission to modify it")
			return
		}
		middleware.RespondWithError(c, http.StatusInternalServerError, "Failed to update alert")
		return
	}

	c.JSON(http.StatusOK, alert)
}
