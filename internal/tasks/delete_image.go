package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/wildoasis/booking/internal/storage"
)

// DeleteCabinImageTask removes a replaced or orphaned cabin photo from the object store.
type DeleteCabinImageTask struct {
	Key string `json:"key"`
}

// Config returns the queue configuration for image deletion. The store may be
// briefly unreachable, so deletion is retried with a generous backoff.
func (t DeleteCabinImageTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "delete_cabin_image",
		MaxAttempts: 5,
		Backoff:     30 * time.Second,
		Timeout:     30 * time.Second,
		Retention:   dayRetention(),
	}
}

// DeleteCabinImageProcessor creates a processor function for DeleteCabinImageTask.
func DeleteCabinImageProcessor(store storage.Client) backlite.QueueProcessor[DeleteCabinImageTask] {
	return func(ctx context.Context, task DeleteCabinImageTask) error {
		if store == nil {
			return fmt.Errorf("object store not configured")
		}
		if task.Key == "" {
			return nil
		}

		if err := store.Delete(ctx, task.Key); err != nil {
			return fmt.Errorf("delete cabin image %s: %w", task.Key, err)
		}

		log.Printf("[TASK] Deleted cabin image %s", task.Key)
		return nil
	}
}

// NewDeleteCabinImageQueue creates a backlite queue for image deletion.
func NewDeleteCabinImageQueue(store storage.Client) backlite.Queue {
	return backlite.NewQueue(DeleteCabinImageProcessor(store))
}

// ImageRemover hands image deletion to the queue so a slow store never holds
// up a cabin update.
type ImageRemover struct {
	client *Client
}

func NewImageRemover(client *Client) *ImageRemover {
	return &ImageRemover{client: client}
}

// RemoveImage enqueues a delete_cabin_image task for key.
func (r *ImageRemover) RemoveImage(ctx context.Context, key string) error {
	_, err := r.client.Enqueue(ctx, DeleteCabinImageTask{Key: key})
	return err
}
