package service

import (
	"context"

	"library-backend/internal/domains/catalog/model"
	"library-backend/pkg/logger"

	"github.com/google/uuid"
)

// SyncNotifier cập nhật availability snapshot ngay trong process
// Dùng khi STORE_DRIVER=memory: không có asynq worker để chạy sync task
type SyncNotifier struct {
	service ServiceInterface
}

// NewSyncNotifier - Constructor with DI
func NewSyncNotifier(service ServiceInterface) *SyncNotifier {
	return &SyncNotifier{service: service}
}

// NotifyAvailabilityChanged implements shared.AvailabilityNotifier
func (n *SyncNotifier) NotifyAvailabilityChanged(ctx context.Context, itemID uuid.UUID, source, correlationID string) {
	_, err := n.service.SyncAvailability(ctx, itemID)
	if err == nil || model.IsNotFoundError(err) {
		return
	}

	logger.Warn("availability sync failed", map[string]interface{}{
		"item_id":        itemID.String(),
		"source":         source,
		"correlation_id": correlationID,
		"error":          err.Error(),
	})
}
