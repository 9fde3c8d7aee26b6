package job

import (
	"context"
	"encoding/json"
	"time"

	"library-backend/internal/domains/circulation/model"
	"library-backend/internal/domains/circulation/service"
	"library-backend/internal/shared"
	"library-backend/pkg/cache"
	"library-backend/pkg/logger"

	"github.com/hibiken/asynq"
)

const defaultScanLimit = model.MaxOverdueLimit

// OverdueScanHandler quét loan quá hạn theo lịch và cache kết quả
type OverdueScanHandler struct {
	lending     service.ServiceInterface
	cache       cache.Cache
	snapshotTTL time.Duration
	nowFn       func() time.Time
}

func NewOverdueScanHandler(lending service.ServiceInterface, c cache.Cache, snapshotTTL time.Duration) *OverdueScanHandler {
	return &OverdueScanHandler{
		lending:     lending,
		cache:       c,
		snapshotTTL: snapshotTTL,
		nowFn:       func() time.Time { return time.Now().UTC() },
	}
}

func (h *OverdueScanHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	payload := shared.OverdueScanPayload{Limit: defaultScanLimit}
	if len(task.Payload()) > 0 {
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			logger.Error("OverdueScan: failed to unmarshal payload", err)
			return asynq.SkipRetry
		}
	}
	if payload.Limit <= 0 {
		payload.Limit = defaultScanLimit
	}

	snapshot, err := h.Scan(ctx, payload.Limit)
	if err != nil {
		logger.Error("OverdueScan: scan failed", err)
		return err
	}

	logger.Info("OverdueScan: completed", map[string]interface{}{
		"overdue":       snapshot.Count,
		"total_accrued": snapshot.TotalAccrued.StringFixed(2),
	})
	return nil
}

// Scan builds the overdue snapshot and stores it in cache
func (h *OverdueScanHandler) Scan(ctx context.Context, limit int) (*model.OverdueSnapshot, error) {
	now := h.nowFn()

	loans, err := h.lending.ListOverdue(ctx, now, limit)
	if err != nil {
		return nil, err
	}

	snapshot := model.NewOverdueSnapshot(loans, now)
	if err := h.cache.Set(ctx, model.OverdueSnapshotKey, snapshot, h.snapshotTTL); err != nil {
		return nil, err
	}
	return snapshot, nil
}
