package model

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ========================================
// REQUEST DTOs
// ========================================

// IssueLoanRequest - borrower là user hiện tại (lấy từ token)
type IssueLoanRequest struct {
	ItemID string `json:"item_id"`
}

func (r IssueLoanRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ItemID,
			validation.Required.Error("item_id is required"),
			is.UUID.Error("item_id must be a UUID"),
		),
	)
}

// ListLoansRequest - filter cho GET /loans/me
type ListLoansRequest struct {
	Status string `form:"status"`
}

func (r ListLoansRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Status, validation.In(
			string(LoanStatusOutstanding), string(LoanStatusReturned),
		).Error("status must be OUTSTANDING or RETURNED")),
	)
}

// Giới hạn số dòng cho GET /loans/overdue
const (
	DefaultOverdueLimit = 100
	MaxOverdueLimit     = 500
)

// ListOverdueRequest - query của GET /loans/overdue
type ListOverdueRequest struct {
	Limit *int `form:"limit"`
}

func (r ListOverdueRequest) Validate() error {
	msg := fmt.Sprintf("limit must be between 1 and %d", MaxOverdueLimit)
	return validation.ValidateStruct(&r,
		validation.Field(&r.Limit,
			validation.NilOrNotEmpty.Error(msg),
			validation.Min(1).Error(msg),
			validation.Max(MaxOverdueLimit).Error(msg),
		),
	)
}

// EffectiveLimit returns the requested limit or the default
func (r ListOverdueRequest) EffectiveLimit() int {
	if r.Limit == nil {
		return DefaultOverdueLimit
	}
	return *r.Limit
}

// StatusFilter converts the query param to an optional status
func (r ListLoansRequest) StatusFilter() *LoanStatus {
	if r.Status == "" {
		return nil
	}
	s := LoanStatus(r.Status)
	return &s
}

// ========================================
// RESPONSE DTOs
// ========================================

type LoanResponse struct {
	ID         uuid.UUID       `json:"id"`
	ItemID     uuid.UUID       `json:"item_id"`
	BorrowerID uuid.UUID       `json:"borrower_id"`
	IssuedAt   time.Time       `json:"issued_at"`
	DueAt      time.Time       `json:"due_at"`
	ReturnedAt *time.Time      `json:"returned_at,omitempty"`
	Status     LoanStatus      `json:"status"`
	Fine       decimal.Decimal `json:"fine"`
	Overdue    bool            `json:"overdue"`
}

// ToResponse converts entity to API response; overdue được tính tại asOf
func (l *Loan) ToResponse(asOf time.Time) LoanResponse {
	return LoanResponse{
		ID:         l.ID,
		ItemID:     l.ItemID,
		BorrowerID: l.BorrowerID,
		IssuedAt:   l.IssuedAt,
		DueAt:      l.DueAt,
		ReturnedAt: l.ReturnedAt,
		Status:     l.Status,
		Fine:       l.Fine,
		Overdue:    l.IsOverdue(asOf),
	}
}

// ToResponseList converts slice of entities to responses
func ToResponseList(loans []Loan, asOf time.Time) []LoanResponse {
	responses := make([]LoanResponse, 0, len(loans))
	for i := range loans {
		responses = append(responses, loans[i].ToResponse(asOf))
	}
	return responses
}

// ReturnLoanResponse - kết quả của POST /loans/:id/return
type ReturnLoanResponse struct {
	Loan LoanResponse    `json:"loan"`
	Fine decimal.Decimal `json:"fine"`
}

// ReturnMessage builds the user-facing message for a completed return
func ReturnMessage(fine decimal.Decimal) string {
	if fine.IsPositive() {
		return fmt.Sprintf("Book returned successfully! Fine: Rs. %s", fine.StringFixed(2))
	}
	return "Book returned successfully!"
}

// OverdueLoan là một dòng trong overdue snapshot
type OverdueLoan struct {
	LoanID      uuid.UUID       `json:"loan_id"`
	ItemID      uuid.UUID       `json:"item_id"`
	BorrowerID  uuid.UUID       `json:"borrower_id"`
	DueAt       time.Time       `json:"due_at"`
	DaysOverdue int             `json:"days_overdue"`
	AccruedFine decimal.Decimal `json:"accrued_fine"`
}

// NewOverdueLoan builds a snapshot row as of asOf
func NewOverdueLoan(l *Loan, asOf time.Time) OverdueLoan {
	return OverdueLoan{
		LoanID:      l.ID,
		ItemID:      l.ItemID,
		BorrowerID:  l.BorrowerID,
		DueAt:       l.DueAt,
		DaysOverdue: int(asOf.Sub(l.DueAt) / (24 * time.Hour)),
		AccruedFine: l.AccruedFine(asOf),
	}
}

// OverdueSnapshotKey - cache key của overdue snapshot (worker ghi, staff đọc)
const OverdueSnapshotKey = "circulation:overdue:snapshot"

// OverdueSnapshot là dữ liệu dashboard cho staff
type OverdueSnapshot struct {
	GeneratedAt  time.Time       `json:"generated_at"`
	Count        int             `json:"count"`
	TotalAccrued decimal.Decimal `json:"total_accrued"`
	Loans        []OverdueLoan   `json:"loans"`
}

// NewOverdueSnapshot aggregates overdue loans as of asOf
func NewOverdueSnapshot(loans []Loan, asOf time.Time) *OverdueSnapshot {
	snapshot := &OverdueSnapshot{
		GeneratedAt:  asOf,
		Count:        len(loans),
		TotalAccrued: decimal.Zero,
		Loans:        make([]OverdueLoan, 0, len(loans)),
	}
	for i := range loans {
		row := NewOverdueLoan(&loans[i], asOf)
		snapshot.Loans = append(snapshot.Loans, row)
		snapshot.TotalAccrued = snapshot.TotalAccrued.Add(row.AccruedFine)
	}
	return snapshot
}
