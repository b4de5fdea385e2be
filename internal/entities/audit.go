package entities

import "time"

type AuditEventType string

const (
	AuditEventBooking  AuditEventType = "booking"
	AuditEventCabin    AuditEventType = "cabin"
	AuditEventGuest    AuditEventType = "guest"
	AuditEventAuth     AuditEventType = "auth"
	AuditEventSettings AuditEventType = "settings"
	AuditEventTask     AuditEventType = "task"
)

type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusFailed  AuditStatus = "failed"
)

// ActorType says who triggered an audit event.
type ActorType string

const (
	ActorGuest  ActorType = "guest"
	ActorStaff  ActorType = "staff"
	ActorSystem ActorType = "system"
)

type AuditEvent struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	ActorType   ActorType      `gorm:"size:20;index" json:"actor_type"`
	ActorID     uint           `gorm:"index" json:"actor_id"`
	EventType   AuditEventType `gorm:"index;size:50" json:"event_type"`
	Action      string         `gorm:"size:100" json:"action"`      // e.g., "booking_create", "cabin_delete"
	Description string         `gorm:"size:500" json:"description"` // Human-readable summary
	EntityType  string         `gorm:"size:50" json:"entity_type"`
	EntityID    *uint          `gorm:"index" json:"entity_id,omitempty"`
	Metadata    string         `gorm:"type:text" json:"metadata,omitempty"` // JSON for extra data
	IPAddress   string         `gorm:"size:45" json:"ip_address,omitempty"`
	Status      AuditStatus    `gorm:"size:20" json:"status"`
	ErrorMsg    string         `gorm:"size:500" json:"error_msg,omitempty"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`
}

func (AuditEvent) TableName() string {
	return "audit_events"
}
