package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chedi-ouerghi/BibloFlow-Hub/internal/audit"
	"github.com/chedi-ouerghi/BibloFlow-Hub/internal/entities"
)

// AuditController exposes the audit trail to admins.
type AuditController struct {
	auditService *audit.Service
}

func NewAuditController(auditService *audit.Service) *AuditController {
	return &AuditController{
		auditService: auditService,
	}
}

// GetAuditEvents returns paginated audit events as JSON, optionally
// filtered by event type and acting user.
// GET /api/admin/audit
func (ac *AuditController) GetAuditEvents(c *gin.Context) {
	page, limit := parsePagination(c, 25, 100)

	var userID uint
	if userStr := c.Query("user_id"); userStr != "" {
		id, err := parseUintSilent(userStr)
		if err != nil {
			respondBadRequest(c, "invalid user_id")
			return
		}
		userID = id
	}

	eventType := c.Query("type")
	offset := (page - 1) * limit

	var events []entities.AuditEvent
	var total int64
	var err error

	if eventType != "" {
		events, total, err = ac.auditService.GetEventsByType(entities.AuditEventType(eventType), userID, limit, offset)
	} else {
		events, total, err = ac.auditService.GetEvents(userID, limit, offset)
	}

	if err != nil {
		respondInternalError(c, err, "list audit events")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"events":       events,
		"page":         page,
		"limit":        limit,
		"total_pages":  totalPages(total, limit),
		"total_events": total,
	})
}

// GetEventTypes lists the known audit event types for filter UIs.
// GET /api/admin/audit/types
func (ac *AuditController) GetEventTypes(c *gin.Context) {
	types := []string{
		string(entities.AuditEventAuth),
		string(entities.AuditEventLoan),
		string(entities.AuditEventCatalog),
		string(entities.AuditEventModeration),
	}
	c.JSON(http.StatusOK, gin.H{"types": types})
}
