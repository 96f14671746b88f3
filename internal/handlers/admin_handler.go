package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/hrldev/portal-service/internal/middleware"
	"github.com/hrldev/portal-service/internal/models"
	"github.com/hrldev/portal-service/internal/repository"
	"github.com/hrldev/portal-service/internal/services"
)

var validRequestStatuses = map[models.RequestStatus]bool{
	models.RequestPending:    true,
	models.RequestInProgress: true,
	models.RequestCompleted:  true,
	models.RequestRejected:   true,
}

// AdminHandler handles the admin views: request triage, messaging, audit.
type AdminHandler struct {
	portal *services.PortalService
	audit  *services.AuditService
	logger *logrus.Logger
}

func NewAdminHandler(portal *services.PortalService, audit *services.AuditService, logger *logrus.Logger) *AdminHandler {
	return &AdminHandler{portal: portal, audit: audit, logger: logger}
}

// RequireRole re-checks the admin role against the database. The token
// claim gets the caller into the group, the role row keeps them there.
func (h *AdminHandler) RequireRole() gin.HandlerFunc {
	return func(c *gin.Context) {
		adminID, ok := middleware.UserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization token required",
				"code":  "MISSING_TOKEN",
			})
			c.Abort()
			return
		}
		if err := h.portal.RequireAdmin(c.Request.Context(), adminID); err != nil {
			if errors.Is(err, services.ErrForbidden) {
				c.JSON(http.StatusForbidden, gin.H{
					"error": "Admin access required",
					"code":  "ADMIN_ONLY",
				})
				c.Abort()
				return
			}
			h.logger.WithError(err).Error("Failed to check admin role")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify access"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// ListRequests returns project requests across all users.
// GET /api/v1/admin/requests
func (h *AdminHandler) ListRequests(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	reqs, total, err := h.portal.AdminListRequests(c.Request.Context(), c.Query("status"), limit, offset)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list requests")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load requests"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": reqs, "total": total})
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateRequestStatus transitions a project request.
// PUT /api/v1/admin/requests/:id/status
func (h *AdminHandler) UpdateRequestStatus(c *gin.Context) {
	adminID, _ := middleware.UserID(c)
	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request id"})
		return
	}

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
		return
	}
	status := models.RequestStatus(req.Status)
	if !validRequestStatuses[status] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}

	updated, err := h.portal.AdminUpdateRequestStatus(c.Request.Context(), adminID, requestID, status,
		middleware.ClientIP(c), middleware.UserAgent(c))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Request not found"})
			return
		}
		h.logger.WithError(err).Error("Failed to update request status")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update status"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"request": updated})
}

type adminSendMessageRequest struct {
	UserID  string `json:"userId" binding:"required"`
	Subject string `json:"subject" binding:"required"`
	Content string `json:"content" binding:"required"`
}

// SendMessage posts an agency message into a user's inbox.
// POST /api/v1/admin/messages
func (h *AdminHandler) SendMessage(c *gin.Context) {
	var req adminSendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId, subject and content are required"})
		return
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId must be a UUID"})
		return
	}

	msg, err := h.portal.AdminSendMessage(c.Request.Context(), userID, req.Subject, req.Content)
	if err != nil {
		h.logger.WithError(err).Error("Failed to send message")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send message"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": msg})
}

// ListAuditLogs queries the audit trail.
// GET /api/v1/admin/audit
func (h *AdminHandler) ListAuditLogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	filter := repository.AuditFilter{
		Action:       c.Query("action"),
		ResourceType: c.Query("resource_type"),
		Limit:        limit,
		Offset:       offset,
	}
	if raw := c.Query("user_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "user_id must be a UUID"})
			return
		}
		filter.UserID = &id
	}
	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from must be RFC3339"})
			return
		}
		filter.From = &t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "to must be RFC3339"})
			return
		}
		filter.To = &t
	}

	entries, total, err := h.audit.List(c.Request.Context(), filter)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list audit logs")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load audit logs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries, "total": total})
}
