package job

import (
	"context"
	"encoding/json"
	"fmt"

	"library-backend/internal/domains/catalog/model"
	"library-backend/internal/domains/catalog/service"
	"library-backend/internal/shared"
	"library-backend/pkg/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// AvailabilitySyncHandler đồng bộ counter của item ra Redis sau mỗi issue/return/adjust
type AvailabilitySyncHandler struct {
	catalog service.ServiceInterface
}

func NewAvailabilitySyncHandler(catalog service.ServiceInterface) *AvailabilitySyncHandler {
	return &AvailabilitySyncHandler{catalog: catalog}
}

// ProcessTask:
// 1. Parse payload.
// 2. Đọc item từ store (source of truth).
// 3. Ghi snapshot vào circulation:item:{id}:availability.
func (h *AvailabilitySyncHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload shared.AvailabilitySyncPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Error("AvailabilitySync: failed to unmarshal payload", err)
		return fmt.Errorf("unmarshal AvailabilitySync payload: %w: %w", err, asynq.SkipRetry)
	}

	itemID, err := uuid.Parse(payload.ItemID)
	if err != nil {
		logger.Error("AvailabilitySync: invalid item_id", err)
		return fmt.Errorf("invalid item_id %q: %w", payload.ItemID, asynq.SkipRetry)
	}

	snapshot, err := h.catalog.SyncAvailability(ctx, itemID)
	if err != nil {
		if model.IsNotFoundError(err) {
			// item đã bị xóa, snapshot cũ đã được dọn
			logger.Info("AvailabilitySync: item gone, snapshot cleared", map[string]interface{}{
				"item_id": payload.ItemID,
				"source":  payload.Source,
			})
			return nil
		}
		return err
	}

	logger.Info("AvailabilitySync: cache updated", map[string]interface{}{
		"item_id":     payload.ItemID,
		"available":   snapshot.AvailableCopies,
		"total":       snapshot.TotalCopies,
		"source":      payload.Source,
		"correlation": payload.CorrelationID,
	})
	return nil
}
