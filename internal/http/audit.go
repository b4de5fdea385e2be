package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wildoasis/booking/internal/audit"
	dbaudit "github.com/wildoasis/booking/internal/database/audit"
	"github.com/wildoasis/booking/internal/entities"
)

type AuditController struct {
	auditService *audit.Service
}

func NewAuditController(auditService *audit.Service) *AuditController {
	return &AuditController{
		auditService: auditService,
	}
}

// GetAuditEvents returns paginated audit events as JSON
// GET /admin/audit?type=&actor_type=&actor_id=&page=&limit=
func (ac *AuditController) GetAuditEvents(c *gin.Context) {
	page, limit, offset := pageParams(c, 25)

	filter := dbaudit.EventFilter{
		ActorType: entities.ActorType(c.Query("actor_type")),
		ActorID:   optionalQueryID(c, "actor_id"),
		EventType: entities.AuditEventType(c.Query("type")),
		Limit:     limit,
		Offset:    offset,
	}

	events, total, err := ac.auditService.GetEvents(filter)
	if err != nil {
		respondInternalError(c, err, "audit events")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"events":       events,
		"page":         page,
		"limit":        limit,
		"total_pages":  totalPages(total, limit),
		"total_events": total,
		"event_types":  eventTypes,
	})
}

var eventTypes = []entities.AuditEventType{
	entities.AuditEventBooking,
	entities.AuditEventCabin,
	entities.AuditEventGuest,
	entities.AuditEventAuth,
	entities.AuditEventSettings,
	entities.AuditEventTask,
}
