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

// CoachQuerier defines the operations used by CoachHandler. The coach is read-only.
type CoachQuerier interface {
	Ask(context.Context, cqrs.AskCoachQuery) (string, error)
	Insights(context.Context, cqrs.InsightsQuery) ([]models.Insight, error)
}

type CoachHandler struct {
	queries CoachQuerier
}

type AskRequest struct {
	Query string `json:"query" validate:"required,max=1000"`
}

type AskResponse struct {
	Advice string `json:"advice"`
}

type InsightsResponse struct {
	Insights []models.Insight `json:"insights"`
}

func NewCoachHandler(queries CoachQuerier) *CoachHandler {
	return &CoachHandler{queries: queries}
}

func (h *CoachHandler) Ask(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	advice, err := h.queries.Ask(c.Request.Context(), cqrs.AskCoachQuery{UserID: userID, Query: req.Query})
	if err != nil {
		respondWithCoachError(c, err, "Failed to get advice from AI coach")
		return
	}

	c.JSON(http.StatusOK, AskResponse{Advice: advice})
}

func (h *CoachHandler) Insights(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	insights, err := h.queries.Insights(c.Request.Context(), cqrs.InsightsQuery{UserID: userID})
	if err != nil {
		respondWithCoachError(c, err, "Failed to generate AI insights")
		return
	}

	c.JSON(http.StatusOK, InsightsResponse{Insights: insights})
}

func respondWithCoachError(c *gin.Context, err error, fallback string) {
	_ = c.Error(err)
	switch {
	case errors.Is(err, errs.ErrUserNotFound):
		middleware.RespondWithError(c, http.StatusNotFound, "User not found")
	case errors.Is(err, errs.ErrInvalidInput):
		middleware.RespondWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, errs.ErrUpstreamDegraded):
		middleware.RespondWithError(c, http.StatusBadGateway, "AI service unavailable")
	default:
		middleware.RespondWithError(c, http.StatusInternalServerError, fallback)
	}
}
