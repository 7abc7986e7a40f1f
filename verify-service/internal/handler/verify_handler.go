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

// LinkVerifier defines the operation used by VerifyHandler.
type LinkVerifier interface {
	VerifyLink(context.Context, cqrs.VerifyLinkQuery) (*models.VerificationResult, error)
}

type VerifyHandler struct {
	verifier LinkVerifier
}

type VerifyLinkRequest struct {
	URL string `json:"url" validate:"required,max=2048"`
}

func NewVerifyHandler(verifier LinkVerifier) *VerifyHandler {
	return &VerifyHandler{verifier: verifier}
}

func (h *VerifyHandler) VerifyLink(c *gin.Context) {
	var req VerifyLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	result, err := h.verifier.VerifyLink(c.Request.Context(), cqrs.VerifyLinkQuery{URL: req.URL})
	if err != nil {
		_ = c.Error(err)
		if errors.Is(err, errs.ErrInvalidInput) {
			middleware.RespondWithError(c, http.StatusBadRequest, "Invalid URL format")
			return
		}
		middleware.RespondWithError(c, http.StatusInternalServerError, "Failed to verify link")
		return
	}

	c.JSON(http.StatusOK, result)
}
