package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/hrldev/portal-service/internal/middleware"
	"github.com/hrldev/portal-service/internal/repository"
	"github.com/hrldev/portal-service/internal/services"
	"github.com/hrldev/portal-service/internal/validation"
)

// PortalHandler handles the public catalog and the customer dashboard.
type PortalHandler struct {
	portal *services.PortalService
	gdpr   *services.GDPRService
	logger *logrus.Logger
}

func NewPortalHandler(portal *services.PortalService, gdpr *services.GDPRService, logger *logrus.Logger) *PortalHandler {
	return &PortalHandler{portal: portal, gdpr: gdpr, logger: logger}
}

// ListPackages returns active packages, optionally filtered by category.
// GET /api/v1/packages
func (h *PortalHandler) ListPackages(c *gin.Context) {
	pkgs, err := h.portal.ListPackages(c.Request.Context(), c.Query("category"))
	if err != nil {
		h.logger.WithError(err).Error("Failed to list packages")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load packages"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"packages": pkgs})
}

// GetPackage returns one package with its content blocks.
// GET /api/v1/packages/:slug
func (h *PortalHandler) GetPackage(c *gin.Context) {
	pkg, contents, err := h.portal.GetPackage(c.Request.Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Package not found"})
			return
		}
		h.logger.WithError(err).Error("Failed to load package")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load package"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"package": pkg, "contents": contents})
}

// ListFAQs returns the public FAQ list.
// GET /api/v1/faqs
func (h *PortalHandler) ListFAQs(c *gin.Context) {
	faqs, err := h.portal.ListFAQs(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list faqs")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load faqs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"faqs": faqs})
}

// ListProjectRequests returns the caller's project requests.
// GET /api/v1/dashboard/requests
func (h *PortalHandler) ListProjectRequests(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	reqs, err := h.portal.ListProjectRequests(c.Request.Context(), userID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list project requests")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load requests"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": reqs})
}

// ListPurchases returns the caller's purchased packages.
// GET /api/v1/dashboard/packages
func (h *PortalHandler) ListPurchases(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	purchases, err := h.portal.ListPurchases(c.Request.Context(), userID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list purchases")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load packages"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"packages": purchases})
}

type scheduleConsultationRequest struct {
	Date string `json:"date" binding:"required"`
}

// ScheduleConsultation books the kickoff call for a purchased package.
// POST /api/v1/dashboard/packages/:id/consultation
func (h *PortalHandler) ScheduleConsultation(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	purchaseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid package id"})
		return
	}

	var req scheduleConsultationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date is required"})
		return
	}
	date, err := time.Parse(time.RFC3339, req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be RFC3339"})
		return
	}

	if err := h.portal.ScheduleConsultation(c.Request.Context(), userID, purchaseID, date); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Package not found"})
			return
		}
		h.logger.WithError(err).Error("Failed to schedule consultation")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to schedule consultation"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ListMessages returns the caller's messages.
// GET /api/v1/dashboard/messages
func (h *PortalHandler) ListMessages(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	msgs, err := h.portal.ListMessages(c.Request.Context(), userID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list messages")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load messages"})
		return
	}
	unread, err := h.portal.CountUnreadMessages(c.Request.Context(), userID)
	if err != nil {
		unread = 0
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs, "unread": unread})
}

type sendMessageRequest struct {
	Subject string `json:"subject" binding:"required,max=255"`
	Content string `json:"content" binding:"required"`
}

// SendMessage posts a message from the caller to the agency.
// POST /api/v1/dashboard/messages
func (h *PortalHandler) SendMessage(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "subject and content are required"})
		return
	}

	subject := validation.SanitizeText(req.Subject)
	content := validation.SanitizeText(req.Content)
	if subject == "" || content == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "subject and content are required"})
		return
	}

	msg, err := h.portal.SendUserMessage(c.Request.Context(), userID, subject, content)
	if err != nil {
		h.logger.WithError(err).Error("Failed to create message")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send message"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": msg})
}

// MarkMessageRead marks one of the caller's messages as read.
// POST /api/v1/dashboard/messages/:id/read
func (h *PortalHandler) MarkMessageRead(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	messageID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid message id"})
		return
	}

	if err := h.portal.MarkMessageRead(c.Request.Context(), messageID, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Message not found"})
			return
		}
		h.logger.WithError(err).Error("Failed to mark message read")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update message"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetProfile returns the caller's profile.
// GET /api/v1/dashboard/profile
func (h *PortalHandler) GetProfile(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	profile, err := h.portal.GetProfile(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
			return
		}
		h.logger.WithError(err).Error("Failed to load profile")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load profile"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

type updateProfileRequest struct {
	FullName string `json:"fullName"`
	Phone    string `json:"phone"`
}

// UpdateProfile updates the caller's display name and phone, applying the
// same validation rules as the intake form.
// PUT /api/v1/dashboard/profile
func (h *PortalHandler) UpdateProfile(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Date invalide"})
		return
	}

	fieldErrors := map[string]string{}
	name, nameErr := validation.Name(req.FullName)
	if nameErr != nil {
		fieldErrors[nameErr.Field] = nameErr.Message
	}
	phone, phoneErr := validation.Phone(req.Phone)
	if phoneErr != nil {
		fieldErrors[phoneErr.Field] = phoneErr.Message
	}
	if len(fieldErrors) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Date invalide", "errors": fieldErrors})
		return
	}

	if err := h.portal.UpdateProfile(c.Request.Context(), userID, name, phone); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
			return
		}
		h.logger.WithError(err).Error("Failed to update profile")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// RevokeConsent revokes the caller's active consents of one type.
// POST /api/v1/dashboard/gdpr/revoke
func (h *PortalHandler) RevokeConsent(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	var req struct {
		ConsentType string `json:"consentType" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "consentType is required"})
		return
	}

	revoked, err := h.gdpr.RevokeConsent(c.Request.Context(), userID, req.ConsentType,
		middleware.ClientIP(c), middleware.UserAgent(c))
	if err != nil {
		h.logger.WithError(err).Error("Failed to revoke consent")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to revoke consent"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "revoked": revoked})
}

// ExportData returns everything stored about the caller.
// GET /api/v1/dashboard/gdpr/export
func (h *PortalHandler) ExportData(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	export, err := h.gdpr.Export(c.Request.Context(), userID, middleware.ClientIP(c), middleware.UserAgent(c))
	if err != nil {
		h.logger.WithError(err).Error("Failed to export user data")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export data"})
		return
	}
	c.JSON(http.StatusOK, export)
}

// EraseData deletes the caller's personal data.
// DELETE /api/v1/dashboard/gdpr
func (h *PortalHandler) EraseData(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	if err := h.gdpr.Erase(c.Request.Context(), userID, middleware.ClientIP(c), middleware.UserAgent(c)); err != nil {
		h.logger.WithError(err).Error("Failed to erase user data")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to erase data"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
