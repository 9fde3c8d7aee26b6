package queue

import (
	"context"
	"encoding/json"
	"time"

	"library-backend/internal/shared"
	"library-backend/pkg/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// TaskClient enqueues circulation background jobs
type TaskClient struct {
	client *asynq.Client
}

// NewTaskClient wraps an asynq client
func NewTaskClient(client *asynq.Client) *TaskClient {
	return &TaskClient{client: client}
}

// NotifyAvailabilityChanged implements shared.AvailabilityNotifier
func (c *TaskClient) NotifyAvailabilityChanged(ctx context.Context, itemID uuid.UUID, source, correlationID string) {
	if err := c.EnqueueAvailabilitySync(ctx, itemID, source, correlationID); err != nil {
		logger.Error("Failed to enqueue availability sync", err)
	}
}

// EnqueueAvailabilitySync schedules a Redis availability refresh for the item
func (c *TaskClient) EnqueueAvailabilitySync(ctx context.Context, itemID uuid.UUID, source, correlationID string) error {
	payload, err := json.Marshal(shared.AvailabilitySyncPayload{
		ItemID:        itemID.String(),
		Source:        source,
		CorrelationID: correlationID,
	})
	if err != nil {
		return err
	}

	task := asynq.NewTask(shared.TypeSyncItemAvailability, payload)
	_, err = c.client.EnqueueContext(ctx, task,
		asynq.Queue(shared.QueueCirculation),
		asynq.MaxRetry(5),
		asynq.Timeout(30*time.Second),
	)
	return err
}
