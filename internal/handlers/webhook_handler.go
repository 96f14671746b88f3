package handlers

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/hrldev/portal-service/internal/services"
)

const maxWebhookBody = 1 << 16 // 64 KiB, Stripe events are small

// WebhookHandler handles payment provider callbacks.
type WebhookHandler struct {
	webhooks *services.WebhookService
	logger   *logrus.Logger
}

func NewWebhookHandler(webhooks *services.WebhookService, logger *logrus.Logger) *WebhookHandler {
	return &WebhookHandler{webhooks: webhooks, logger: logger}
}

// HandleStripe receives Stripe events. The raw body is passed through for
// signature verification; gin must not parse it first.
// POST /webhooks/stripe
func (h *WebhookHandler) HandleStripe(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	err = h.webhooks.HandleEvent(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		if strings.Contains(err.Error(), "signature") {
			h.logger.WithError(err).Warn("Webhook signature verification failed")
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
			return
		}
		// Non-2xx makes Stripe retry; processing is idempotent.
		h.logger.WithError(err).Error("Webhook processing failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "processing failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
