package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
)

const cleanupAuditEventsQueue = "cleanup_audit_events"

// AuditEventCleaner deletes audit events older than a retention window.
// Implemented by audit.Service.
type AuditEventCleaner interface {
	DeleteOldEvents(retention time.Duration) (int64, error)
}

// CleanupAuditEventsTask prunes the audit trail. A zero RetentionDays uses the
// site's AUDIT_RETENTION_DAYS.
type CleanupAuditEventsTask struct {
	RetentionDays int `json:"retention_days"`
}

func (t CleanupAuditEventsTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        cleanupAuditEventsQueue,
		MaxAttempts: 3,
		Backoff:     5 * time.Minute,
		Timeout:     2 * time.Minute,
		Retention:   dayRetention(),
	}
}

// retentionDays picks the window for this run.
func (t CleanupAuditEventsTask) retentionDays(siteDefault int) (int, error) {
	days := t.RetentionDays
	if days == 0 {
		days = siteDefault
	}
	if days < 1 {
		return 0, fmt.Errorf("audit retention must be at least 1 day, got %d", days)
	}
	return days, nil
}

// CleanupAuditEventsProcessor removes audit events past their retention and
// records the purge itself in the audit trail.
func CleanupAuditEventsProcessor(cleaner AuditEventCleaner, auditor TaskAuditor, siteDefault int) backlite.QueueProcessor[CleanupAuditEventsTask] {
	return func(ctx context.Context, task CleanupAuditEventsTask) error {
		if cleaner == nil {
			return fmt.Errorf("audit event cleaner not configured")
		}
		days, err := task.retentionDays(siteDefault)
		if err != nil {
			return err
		}

		deleted, err := cleaner.DeleteOldEvents(time.Duration(days) * 24 * time.Hour)
		if err != nil {
			logTask(auditor, cleanupAuditEventsQueue, "Failed to purge audit events", err)
			return fmt.Errorf("purge audit events: %w", err)
		}

		log.Printf("[TASK] Purged %d audit events older than %d days", deleted, days)
		if deleted > 0 {
			logTask(auditor, cleanupAuditEventsQueue, fmt.Sprintf("Purged %d audit events older than %d days", deleted, days), nil)
		}
		return nil
	}
}

// NewCleanupAuditEventsQueue registers audit purging with siteDefault days of retention.
func NewCleanupAuditEventsQueue(cleaner AuditEventCleaner, auditor TaskAuditor, siteDefault int) backlite.Queue {
	return backlite.NewQueue(CleanupAuditEventsProcessor(cleaner, auditor, siteDefault))
}
