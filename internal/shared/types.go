package shared

import (
	"context"

	"github.com/google/uuid"
)

// ========================================
// TASK TYPES & QUEUES
// ========================================

const (
	TypeSyncItemAvailability = "circulation:sync_item_availability"
	TypeScanOverdueLoans     = "circulation:scan_overdue_loans"

	QueueCirculation = "circulation"
	QueueMaintenance = "maintenance"
)

// Nguồn thay đổi availability, chỉ dùng để log/trace
const (
	SourceIssue  = "ISSUE"
	SourceReturn = "RETURN"
	SourceAdjust = "ADJUST"
	SourceDelete = "DELETE"
)

// AvailabilitySyncPayload - worker đọc lại item và ghi snapshot lên Redis
type AvailabilitySyncPayload struct {
	ItemID        string `json:"item_id"`
	Source        string `json:"source"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// OverdueScanPayload - payload của scheduled job quét loan quá hạn
type OverdueScanPayload struct {
	Limit int `json:"limit"`
}

// ========================================
// NOTIFIER
// ========================================

// AvailabilityNotifier được gọi sau khi một thay đổi counter đã commit
// Lỗi enqueue không làm fail request: DB vẫn là source of truth
type AvailabilityNotifier interface {
	NotifyAvailabilityChanged(ctx context.Context, itemID uuid.UUID, source, correlationID string)
}
