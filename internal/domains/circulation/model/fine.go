package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// FineRatePerDay - số tiền phạt cho mỗi ngày trễ hạn trọn vẹn
const FineRatePerDay int64 = 10

var fineRate = decimal.NewFromInt(FineRatePerDay)

// Fine tính tiền phạt khi trả sách vào returnedAt cho loan hết hạn lúc dueAt.
// Chỉ tính ngày trễ trọn vẹn (floor), phần lẻ dưới 24h không bị phạt.
func Fine(dueAt, returnedAt time.Time) decimal.Decimal {
	if !returnedAt.After(dueAt) {
		return decimal.Zero
	}

	daysOverdue := int64(returnedAt.Sub(dueAt) / (24 * time.Hour))
	return decimal.NewFromInt(daysOverdue).Mul(fineRate)
}
