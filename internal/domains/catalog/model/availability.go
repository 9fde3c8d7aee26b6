package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AvailabilityCacheTTL - snapshot hết hạn sau khoảng này nếu worker không ghi lại
const AvailabilityCacheTTL = 10 * time.Minute

// AvailabilityCacheKey trả về redis key chứa availability snapshot của item
func AvailabilityCacheKey(itemID uuid.UUID) string {
	return fmt.Sprintf("circulation:item:%s:availability", itemID)
}

// Availability là snapshot counter của item, được worker đồng bộ lên cache
type Availability struct {
	ItemID          uuid.UUID `json:"item_id"`
	TotalCopies     int       `json:"total_copies"`
	AvailableCopies int       `json:"available_copies"`
	OnLoan          int       `json:"on_loan"`
	SyncedAt        time.Time `json:"synced_at"`
}

// NewAvailability snapshots the counters of item
func NewAvailability(item *Item, now time.Time) Availability {
	return Availability{
		ItemID:          item.ID,
		TotalCopies:     item.TotalCopies,
		AvailableCopies: item.AvailableCopies,
		OnLoan:          item.OnLoan(),
		SyncedAt:        now,
	}
}
