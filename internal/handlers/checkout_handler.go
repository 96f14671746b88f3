package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/hrldev/portal-service/internal/middleware"
	"github.com/hrldev/portal-service/internal/repository"
	"github.com/hrldev/portal-service/internal/services"
)

// CheckoutHandler handles hosted checkout session creation.
type CheckoutHandler struct {
	checkout *services.CheckoutService
	logger   *logrus.Logger
}

func NewCheckoutHandler(checkout *services.CheckoutService, logger *logrus.Logger) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout, logger: logger}
}

type createSessionRequest struct {
	PackageID string `json:"packageId" binding:"required"`
}

// CreateSession opens a payment session for an authenticated buyer.
// POST /api/v1/checkout/session
func (h *CheckoutHandler) CreateSession(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "UNAUTHORIZED", "message": "Authentication required"})
		return
	}

	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "INVALID_REQUEST", "message": "packageId is required"})
		return
	}
	packageID, err := uuid.Parse(req.PackageID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "INVALID_REQUEST", "message": "packageId must be a UUID"})
		return
	}

	result, err := h.checkout.CreateSession(c.Request.Context(), services.CheckoutRequest{
		UserID:    userID,
		Email:     c.GetString("user_email"),
		Name:      c.GetString("user_name"),
		PackageID: packageID,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrQuoteRequired):
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "QUOTE_REQUIRED",
				"message": "Acest pachet necesită o ofertă personalizată. Contactează-ne.",
			})
		case errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "PACKAGE_NOT_FOUND", "message": "Package not found"})
		default:
			h.logger.WithError(err).Error("Failed to create checkout session")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "CHECKOUT_FAILED", "message": "Could not start checkout"})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}
