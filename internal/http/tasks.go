package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"

	"github.com/wildoasis/booking/internal/tasks"
)

// TaskQueue is the part of tasks.Client the controller needs.
type TaskQueue interface {
	Enqueue(ctx context.Context, task backlite.Task) (string, error)
	Status(ctx context.Context, taskID string) (backlite.TaskStatus, error)
}

// TasksController handles task queue management endpoints.
type TasksController struct {
	queue TaskQueue
}

// NewTasksController creates a new TasksController.
func NewTasksController(queue TaskQueue) *TasksController {
	return &TasksController{queue: queue}
}

// TaskTypeInfo describes an available task type.
type TaskTypeInfo struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Queue       string `json:"queue"`
}

var taskTypes = []TaskTypeInfo{
	{
		Type:        "cancel_stale_bookings",
		Description: "Cancel pending bookings whose check-in day has passed",
		Queue:       tasks.CancelStaleBookingsTask{}.Config().Name,
	},
	{
		Type:        "cleanup_audit_events",
		Description: "Delete audit events older than the retention period",
		Queue:       tasks.CleanupAuditEventsTask{}.Config().Name,
	},
}

// ListTaskTypes handles GET /admin/tasks/types
// Returns the list of available task types that can be triggered.
func (tc *TasksController) ListTaskTypes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"task_types": taskTypes,
	})
}

// GetTaskStatus handles GET /admin/tasks/:id
// Returns the status of a specific task.
func (tc *TasksController) GetTaskStatus(c *gin.Context) {
	taskID := c.Param("id")
	if taskID == "" {
		respondBadRequest(c, "task ID is required")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status, err := tc.queue.Status(ctx, taskID)
	if err != nil {
		respondInternalError(c, err, "task status")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":     taskID,
		"status": taskStatusToString(status),
	})
}

// RunTaskRequest is the request body for running a task.
type RunTaskRequest struct {
	// RetentionDays overrides the default for cleanup_audit_events
	RetentionDays int `json:"retention_days,omitempty" form:"retention_days"`
}

// RunTask handles POST /admin/tasks/:type/run
// Manually triggers a task of the specified type.
func (tc *TasksController) RunTask(c *gin.Context) {
	taskType := c.Param("type")

	var req RunTaskRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBind(&req); err != nil {
			respondBadRequest(c, "invalid task request")
			return
		}
	}

	var task backlite.Task
	switch taskType {
	case "cancel_stale_bookings":
		task = tasks.CancelStaleBookingsTask{}

	case "cleanup_audit_events":
		if req.RetentionDays < 0 {
			respondBadRequest(c, "retention_days must not be negative")
			return
		}
		task = tasks.CleanupAuditEventsTask{RetentionDays: req.RetentionDays}

	default:
		respondBadRequest(c, fmt.Sprintf("unknown task type: %s", taskType))
		return
	}

	id, err := tc.queue.Enqueue(c.Request.Context(), task)
	if err != nil {
		respondInternalError(c, err, "enqueue task")
		return
	}

	respondAccepted(c, "task enqueued", gin.H{
		"task_id": id,
		"type":    taskType,
	})
}

func taskStatusToString(status backlite.TaskStatus) string {
	switch status {
	case backlite.TaskStatusPending:
		return "pending"
	case backlite.TaskStatusRunning:
		return "running"
	case backlite.TaskStatusSuccess:
		return "success"
	case backlite.TaskStatusFailure:
		return "failure"
	case backlite.TaskStatusNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}
