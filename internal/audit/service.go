package audit

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/wildoasis/booking/internal/database/audit"
	"github.com/wildoasis/booking/internal/entities"
)

// Actor identifies who performed an audited action.
type Actor struct {
	Type entities.ActorType
	ID   uint
	IP   string
}

// System is the actor for scheduled and background work.
var System = Actor{Type: entities.ActorSystem}

func GuestActor(id uint, ip string) Actor { return Actor{Type: entities.ActorGuest, ID: id, IP: ip} }
func StaffActor(id uint, ip string) Actor { return Actor{Type: entities.ActorStaff, ID: id, IP: ip} }

// Service provides high-level audit logging functionality.
type Service struct {
	repo *audit.Repository
	wg   sync.WaitGroup
}

// NewService creates a new audit service.
func NewService(repo *audit.Repository) *Service {
	return &Service{repo: repo}
}

// Log records a generic audit event.
func (s *Service) Log(event *entities.AuditEvent) error {
	return s.repo.LogEvent(event)
}

// LogAsync records an audit event in the background (non-blocking).
func (s *Service) LogAsync(event *entities.AuditEvent) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.repo.LogEvent(event); err != nil {
			log.Printf("Failed to log audit event: %v", err)
		}
	}()
}

// Wait blocks until every pending LogAsync write has finished. Called on shutdown.
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) newEvent(actor Actor, eventType entities.AuditEventType, action, description string, err error) *entities.AuditEvent {
	event := &entities.AuditEvent{
		ActorType:   actor.Type,
		ActorID:     actor.ID,
		IPAddress:   actor.IP,
		EventType:   eventType,
		Action:      action,
		Description: truncate(description, 500),
		Status:      entities.AuditStatusSuccess,
	}
	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
	}
	return event
}

// LogBooking records a reservation change. metadata may be nil.
func (s *Service) LogBooking(actor Actor, action string, bookingID uint, description string, metadata map[string]any, err error) {
	event := s.newEvent(actor, entities.AuditEventBooking, action, description, err)
	event.EntityType = "booking"
	if bookingID > 0 {
		event.EntityID = &bookingID
	}
	if len(metadata) > 0 {
		if mdBytes, e := json.Marshal(metadata); e == nil {
			event.Metadata = string(mdBytes)
		}
	}
	s.LogAsync(event)
}

// LogCabin records a cabin create, update or delete.
func (s *Service) LogCabin(actor Actor, action string, cabinID uint, cabinName string, err error) {
	event := s.newEvent(actor, entities.AuditEventCabin, action, "Cabin "+cabinName, err)
	event.EntityType = "cabin"
	if cabinID > 0 {
		event.EntityID = &cabinID
	}
	s.LogAsync(event)
}

// LogGuest records a guest sign-up or profile change.
func (s *Service) LogGuest(actor Actor, action string, guestID uint, description string) {
	event := s.newEvent(actor, entities.AuditEventGuest, action, description, nil)
	event.EntityType = "guest"
	event.EntityID = &guestID
	s.LogAsync(event)
}

// LogAuth records an authentication event.
func (s *Service) LogAuth(actor Actor, action string, success bool) {
	event := s.newEvent(actor, entities.AuditEventAuth, action, "", nil)
	if !success {
		event.Status = entities.AuditStatusFailed
	}
	s.LogAsync(event)
}

// LogSettings records a settings change event.
func (s *Service) LogSettings(actor Actor, description string) {
	s.LogAsync(s.newEvent(actor, entities.AuditEventSettings, "settings_update", description, nil))
}

// LogTask records the outcome of a background task.
func (s *Service) LogTask(action, description string, err error) {
	s.LogAsync(s.newEvent(System, entities.AuditEventTask, action, description, err))
}

// GetEvents retrieves paginated audit events.
func (s *Service) GetEvents(filter audit.EventFilter) ([]entities.AuditEvent, int64, error) {
	return s.repo.GetEvents(filter)
}

// DeleteOldEvents removes events older than the specified duration.
func (s *Service) DeleteOldEvents(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	return s.repo.DeleteOldEvents(cutoff)
}

// truncate shortens a string to max length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
