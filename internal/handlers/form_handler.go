package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/hrldev/portal-service/internal/middleware"
	"github.com/hrldev/portal-service/internal/models"
	"github.com/hrldev/portal-service/internal/services"
)

// FormHandler handles the public contact form endpoint.
type FormHandler struct {
	submissions *services.SubmissionService
	logger      *logrus.Logger
}

func NewFormHandler(submissions *services.SubmissionService, logger *logrus.Logger) *FormHandler {
	return &FormHandler{submissions: submissions, logger: logger}
}

// Submit accepts a contact form submission from guests or authenticated users.
// POST /api/v1/forms/contact
func (h *FormHandler) Submit(c *gin.Context) {
	var payload models.LeadSubmission
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Date invalide"})
		return
	}

	req := services.SubmissionRequest{
		Payload:   &payload,
		IPAddress: middleware.ClientIP(c),
		UserAgent: middleware.UserAgent(c),
	}
	if userID, ok := middleware.UserID(c); ok {
		req.AuthUserID = &userID
	}

	result, err := h.submissions.Submit(c.Request.Context(), req)
	if err != nil {
		var rateErr *services.RateLimitedError
		var valErr *services.ValidationFailedError
		switch {
		case errors.As(err, &rateErr):
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "Prea multe încercări. Încearcă din nou mai târziu.",
				"retry_after": int(rateErr.RetryAfter.Seconds()),
			})
		case errors.As(err, &valErr):
			c.JSON(http.StatusBadRequest, gin.H{
				"error":  "Date invalide",
				"errors": valErr.Fields,
			})
		case errors.Is(err, services.ErrUnauthorized):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Sesiune invalidă"})
		default:
			h.logger.WithError(err).Error("Form submission failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "A apărut o eroare. Încearcă din nou."})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}
