package handlers

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/hrldev/portal-service/internal/email"
	"github.com/hrldev/portal-service/internal/validation"
)

// EmailHandler exposes internal email sending to trusted callers. Every
// endpoint requires the shared service token header.
type EmailHandler struct {
	mailer       *email.Mailer
	serviceToken string
	logger       *logrus.Logger
}

func NewEmailHandler(mailer *email.Mailer, serviceToken string, logger *logrus.Logger) *EmailHandler {
	return &EmailHandler{mailer: mailer, serviceToken: serviceToken, logger: logger}
}

// RequireServiceToken guards the internal email endpoints.
func (h *EmailHandler) RequireServiceToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("X-Service-Token")
		if h.serviceToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(h.serviceToken)) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "UNAUTHORIZED"})
			c.Abort()
			return
		}
		c.Next()
	}
}

type welcomeEmailRequest struct {
	Email string `json:"email" binding:"required"`
	Name  string `json:"name"`
}

// SendWelcome mails the onboarding email to a new user.
// POST /internal/v1/emails/welcome
func (h *EmailHandler) SendWelcome(c *gin.Context) {
	var req welcomeEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email is required"})
		return
	}
	addr, vErr := validation.Email(req.Email)
	if vErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Message})
		return
	}

	if err := h.mailer.SendWelcome(c.Request.Context(), addr, req.Name); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send email"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type purchaseEmailRequest struct {
	Email       string  `json:"email" binding:"required"`
	PackageName string  `json:"packageName" binding:"required"`
	Amount      float64 `json:"amount"`
	OrderID     string  `json:"orderId"`
}

// SendPurchaseConfirmation re-sends an order confirmation.
// POST /internal/v1/emails/purchase-confirmation
func (h *EmailHandler) SendPurchaseConfirmation(c *gin.Context) {
	var req purchaseEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and packageName are required"})
		return
	}
	addr, vErr := validation.Email(req.Email)
	if vErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Message})
		return
	}

	err := h.mailer.SendPurchaseConfirmation(c.Request.Context(), email.PurchaseConfirmation{
		Email:       addr,
		PackageName: req.PackageName,
		Amount:      req.Amount,
		OrderID:     req.OrderID,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send email"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type passwordResetRequest struct {
	Email     string `json:"email" binding:"required"`
	ResetLink string `json:"resetLink" binding:"required,url"`
}

// SendPasswordReset mails a password reset link.
// POST /internal/v1/emails/password-reset
func (h *EmailHandler) SendPasswordReset(c *gin.Context) {
	var req passwordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and resetLink are required"})
		return
	}
	addr, vErr := validation.Email(req.Email)
	if vErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Message})
		return
	}

	if err := h.mailer.SendPasswordReset(c.Request.Context(), addr, req.ResetLink); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send email"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type verificationEmailRequest struct {
	Email            string `json:"email" binding:"required"`
	VerificationLink string `json:"verificationLink" binding:"required,url"`
	UserName         string `json:"userName"`
}

// SendVerification mails an address confirmation link.
// POST /internal/v1/emails/verification
func (h *EmailHandler) SendVerification(c *gin.Context) {
	var req verificationEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and verificationLink are required"})
		return
	}
	addr, vErr := validation.Email(req.Email)
	if vErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Message})
		return
	}

	if err := h.mailer.SendVerification(c.Request.Context(), addr, req.VerificationLink, req.UserName); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send email"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type otpEmailRequest struct {
	Email string `json:"email" binding:"required"`
	OTP   string `json:"otp" binding:"required"`
	Type  string `json:"type"`
}

// SendOTP mails a one-time login or verification code.
// POST /internal/v1/emails/otp
func (h *EmailHandler) SendOTP(c *gin.Context) {
	var req otpEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and otp are required"})
		return
	}
	addr, vErr := validation.Email(req.Email)
	if vErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Message})
		return
	}

	if err := h.mailer.SendOTP(c.Request.Context(), addr, req.OTP, req.Type); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send email"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
