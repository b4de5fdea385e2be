package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
)

// TaskAuditor records the outcome of background tasks. Implemented by audit.Service.
type TaskAuditor interface {
	LogTask(action, description string, err error)
}

// StaleBookingCanceller cancels pending bookings whose check-in has passed.
type StaleBookingCanceller interface {
	CancelStalePending() (int64, error)
}

// CancelStaleBookingsTask cancels unconfirmed bookings once their check-in day is over.
type CancelStaleBookingsTask struct{}

// Config returns the queue configuration for stale booking cancellation.
func (t CancelStaleBookingsTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "cancel_stale_bookings",
		MaxAttempts: 3,
		Backoff:     time.Minute,
		Timeout:     time.Minute,
		Retention:   dayRetention(),
	}
}

// CancelStaleBookingsProcessor creates a processor function for CancelStaleBookingsTask.
func CancelStaleBookingsProcessor(canceller StaleBookingCanceller, auditor TaskAuditor) backlite.QueueProcessor[CancelStaleBookingsTask] {
	return func(ctx context.Context, task CancelStaleBookingsTask) error {
		if canceller == nil {
			return fmt.Errorf("booking canceller not configured")
		}

		n, err := canceller.CancelStalePending()
		if err != nil {
			logTask(auditor, "cancel_stale_bookings", "Failed to cancel stale bookings", err)
			return fmt.Errorf("cancel stale bookings: %w", err)
		}

		log.Printf("[TASK] Cancelled %d stale pending bookings", n)
		if n > 0 {
			logTask(auditor, "cancel_stale_bookings", fmt.Sprintf("Cancelled %d stale pending bookings", n), nil)
		}
		return nil
	}
}

// NewCancelStaleBookingsQueue creates a backlite queue for stale booking cancellation.
func NewCancelStaleBookingsQueue(canceller StaleBookingCanceller, auditor TaskAuditor) backlite.Queue {
	return backlite.NewQueue(CancelStaleBookingsProcessor(canceller, auditor))
}

func logTask(auditor TaskAuditor, action, description string, err error) {
	if auditor != nil {
		auditor.LogTask(action, description, err)
	}
}
