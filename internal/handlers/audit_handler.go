package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/hrldev/portal-service/internal/middleware"
	"github.com/hrldev/portal-service/internal/services"
)

// AuditHandler lets the authenticated front end record client-side audit
// events (logins, consent dialogs) alongside the server-side trail.
type AuditHandler struct {
	audit  *services.AuditService
	logger *logrus.Logger
}

func NewAuditHandler(audit *services.AuditService, logger *logrus.Logger) *AuditHandler {
	return &AuditHandler{audit: audit, logger: logger}
}

type auditEventRequest struct {
	Action       string                 `json:"action" binding:"required,max=100"`
	ResourceType string                 `json:"resourceType" binding:"required,max=100"`
	ResourceID   string                 `json:"resourceId"`
	Details      map[string]interface{} `json:"details"`
}

// Record appends one audit event attributed to the caller. The user id always
// comes from the verified token, never from the body.
// POST /api/v1/audit
func (h *AuditHandler) Record(c *gin.Context) {
	var req auditEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "action and resourceType are required"})
		return
	}

	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	h.audit.Record(c.Request.Context(), services.AuditEntry{
		UserID:       &userID,
		Action:       req.Action,
		ResourceType: req.ResourceType,
		ResourceID:   req.ResourceID,
		Details:      req.Details,
		IPAddress:    middleware.ClientIP(c),
		UserAgent:    middleware.UserAgent(c),
	})
	c.JSON(http.StatusOK, gin.H{"success": true})
}
