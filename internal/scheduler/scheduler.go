package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/robfig/cron/v3"

	"github.com/wildoasis/booking/internal/config"
	"github.com/wildoasis/booking/internal/tasks"
)

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Enqueuer accepts tasks for background processing. Implemented by tasks.Client.
type Enqueuer interface {
	Enqueue(ctx context.Context, task backlite.Task) (string, error)
}

// Job is a task enqueued on a cron schedule.
type Job struct {
	Name     string
	Schedule string
	Task     backlite.Task
}

// Scheduler enqueues housekeeping tasks on cron schedules. The work itself
// runs on the task queue so retries and timeouts live in one place.
type Scheduler struct {
	queue Enqueuer
	jobs  []Job

	cron       *cron.Cron
	entries    map[string]cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	cancelFunc context.CancelFunc
}

// DefaultJobs returns the booking site's housekeeping jobs. Empty schedules are skipped.
func DefaultJobs(cfg config.Scheduler, auditCfg config.Audit) []Job {
	var jobs []Job
	if cfg.StaleBookingSchedule != "" {
		jobs = append(jobs, Job{
			Name:     "cancel_stale_bookings",
			Schedule: cfg.StaleBookingSchedule,
			Task:     tasks.CancelStaleBookingsTask{},
		})
	}
	if cfg.AuditCleanupSchedule != "" {
		jobs = append(jobs, Job{
			Name:     "cleanup_audit_events",
			Schedule: cfg.AuditCleanupSchedule,
			Task:     tasks.CleanupAuditEventsTask{RetentionDays: auditCfg.RetentionDays},
		})
	}
	return jobs
}

// New creates a scheduler. Schedules are validated here so a typo fails at startup.
func New(queue Enqueuer, jobs ...Job) (*Scheduler, error) {
	for _, job := range jobs {
		if err := ValidateCronSchedule(job.Schedule); err != nil {
			return nil, fmt.Errorf("invalid cron schedule '%s' for %s: %w", job.Schedule, job.Name, err)
		}
	}
	return &Scheduler{
		queue:   queue,
		jobs:    jobs,
		cron:    cron.New(cron.WithParser(parser)),
		entries: make(map[string]cron.EntryID),
	}, nil
}

// Start registers every job and starts the cron loop. It stops when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	for _, job := range s.jobs {
		entryID, err := s.cron.AddFunc(job.Schedule, func() {
			s.enqueue(job)
		})
		if err != nil {
			return fmt.Errorf("failed to schedule %s: %w", job.Name, err)
		}
		s.entries[job.Name] = entryID
		log.Printf("Scheduler: %s on '%s' (%s)", job.Name, job.Schedule, GetCronDescription(job.Schedule))
	}

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop waits for running jobs and halts the cron loop.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	for name, id := range s.entries {
		s.cron.Remove(id)
		delete(s.entries, name)
	}

	s.isRunning = false
	// Releases the watcher goroutine; it finds the scheduler stopped.
	s.cancelFunc()
	s.cancelFunc = nil

	log.Printf("Scheduler: stopped")
}

// RunNow enqueues the named job immediately.
func (s *Scheduler) RunNow(name string) error {
	for _, job := range s.jobs {
		if job.Name == name {
			return s.enqueue(job)
		}
	}
	return fmt.Errorf("unknown job %q", name)
}

// IsRunning returns whether the scheduler is active
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRun returns when the named job fires next, or nil when not scheduled.
func (s *Scheduler) NextRun(name string) *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.entries[name]
	if !ok {
		return nil
	}
	next := s.cron.Entry(id).Next
	if next.IsZero() {
		return nil
	}
	return &next
}

func (s *Scheduler) enqueue(job Job) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	id, err := s.queue.Enqueue(ctx, job.Task)
	if err != nil {
		log.Printf("Scheduler: failed to enqueue %s: %v", job.Name, err)
		return err
	}
	log.Printf("Scheduler: enqueued %s (task %s)", job.Name, id)
	return nil
}

// ValidateCronSchedule checks a standard five-field cron expression.
func ValidateCronSchedule(schedule string) error {
	_, err := parser.Parse(schedule)
	return err
}

// GetCronDescription returns a human-readable description of a cron schedule
func GetCronDescription(schedule string) string {
	switch schedule {
	case "0 * * * *":
		return "Every hour at :00"
	case "*/15 * * * *":
		return "Every 15 minutes"
	case "0 0 * * *":
		return "Daily at midnight"
	case "15 3 * * *":
		return "Daily at 03:15"
	case "30 3 * * *":
		return "Daily at 03:30"
	default:
		return "Custom schedule: " + schedule
	}
}

// GetNextRunTime calculates when a schedule fires next after from.
func GetNextRunTime(schedule string, from time.Time) (time.Time, error) {
	sched, err := parser.Parse(schedule)
	if err != nil {
		return time.Time{}, err
	}
	return sched.Next(from), nil
}
