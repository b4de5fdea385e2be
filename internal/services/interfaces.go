package services

import (
	"context"

	"github.com/wildoasis/booking/internal/audit"
)

// AuditLogger records business events. Implemented by audit.Service.
type AuditLogger interface {
	LogBooking(actor audit.Actor, action string, bookingID uint, description string, metadata map[string]any, err error)
	LogCabin(actor audit.Actor, action string, cabinID uint, cabinName string, err error)
	LogGuest(actor audit.Actor, action string, guestID uint, description string)
	LogSettings(actor audit.Actor, description string)
}

// ImageRemover deletes a replaced cabin image. The task queue implements it by
// enqueuing a delete_cabin_image task.
type ImageRemover interface {
	RemoveImage(ctx context.Context, key string) error
}

type nopAudit struct{}

func (nopAudit) LogBooking(audit.Actor, string, uint, string, map[string]any, error) {}
func (nopAudit) LogCabin(audit.Actor, string, uint, string, error)                   {}
func (nopAudit) LogGuest(audit.Actor, string, uint, string)                          {}
func (nopAudit) LogSettings(audit.Actor, string)                                     {}
