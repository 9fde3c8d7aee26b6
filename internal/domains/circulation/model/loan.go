package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LoanPeriod là thời hạn mượn cố định, dueAt được chốt lúc issue
const LoanPeriod = 14 * 24 * time.Hour

// LoanStatus - trạng thái của một loan
type LoanStatus string

const (
	LoanStatusOutstanding LoanStatus = "OUTSTANDING"
	LoanStatusReturned    LoanStatus = "RETURNED"
)

// IsValid checks the status against the known set
func (s LoanStatus) IsValid() bool {
	return s == LoanStatusOutstanding || s == LoanStatusReturned
}

// Loan là bản ghi một bản sao do một borrower giữ từ lúc issue tới lúc return
//
// State machine: (none) --IssueCopy--> OUTSTANDING --ReturnCopy--> RETURNED
// RETURNED là terminal, sau đó loan là historical record bất biến
type Loan struct {
	ID         uuid.UUID `db:"id"`
	ItemID     uuid.UUID `db:"item_id"`
	BorrowerID uuid.UUID `db:"borrower_id"`

	IssuedAt   time.Time  `db:"issued_at"`
	DueAt      time.Time  `db:"due_at"`
	ReturnedAt *time.Time `db:"returned_at"`

	Status LoanStatus      `db:"status"`
	Fine   decimal.Decimal `db:"fine"`
}

// NewLoan tạo loan OUTSTANDING với dueAt = now + LoanPeriod
func NewLoan(itemID, borrowerID uuid.UUID, now time.Time) *Loan {
	return &Loan{
		ID:         uuid.New(),
		ItemID:     itemID,
		BorrowerID: borrowerID,
		IssuedAt:   now,
		DueAt:      now.Add(LoanPeriod),
		Status:     LoanStatusOutstanding,
		Fine:       decimal.Zero,
	}
}

// IsOutstanding reports whether the copy is still held by the borrower
func (l *Loan) IsOutstanding() bool {
	return l.Status == LoanStatusOutstanding
}

// IsOverdue reports whether an outstanding loan is past its due date at asOf
func (l *Loan) IsOverdue(asOf time.Time) bool {
	return l.IsOutstanding() && asOf.After(l.DueAt)
}

// AccruedFine là fine tạm tính nếu trả vào asOf; không persist
func (l *Loan) AccruedFine(asOf time.Time) decimal.Decimal {
	if !l.IsOutstanding() {
		return l.Fine
	}
	return Fine(l.DueAt, asOf)
}

// MarkReturned chuyển OUTSTANDING -> RETURNED và chốt fine một lần duy nhất
func (l *Loan) MarkReturned(now time.Time) error {
	if !l.IsOutstanding() {
		return NewAlreadyReturnedError(l.ID)
	}

	returnedAt := now
	l.ReturnedAt = &returnedAt
	l.Status = LoanStatusReturned
	l.Fine = Fine(l.DueAt, now)

	return nil
}

// Clone returns a deep copy (ReturnedAt is a pointer)
func (l *Loan) Clone() *Loan {
	c := *l
	if l.ReturnedAt != nil {
		t := *l.ReturnedAt
		c.ReturnedAt = &t
	}
	return &c
}
