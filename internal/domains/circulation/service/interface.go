package service

import (
	"context"
	"time"

	catalogModel "library-backend/internal/domains/catalog/model"
	"library-backend/internal/domains/circulation/model"

	"github.com/google/uuid"
)

// ServiceInterface là lending engine: mọi thay đổi counter của item và mọi loan đi qua đây
type ServiceInterface interface {
	// IssueCopy checks out one copy of the item to the borrower
	// Returns ErrItemNotFound if the item does not exist
	// Returns ErrItemUnavailable if available copies = 0
	// Returns ErrDuplicateLoan if the borrower already holds a copy of the item
	IssueCopy(ctx context.Context, itemID, borrowerID uuid.UUID, now time.Time) (*model.Loan, error)

	// ReturnCopy closes an outstanding loan, fixes its fine and puts the copy back
	// Returns ErrLoanNotFound if not exists
	// Returns ErrAlreadyReturned if the loan is RETURNED
	ReturnCopy(ctx context.Context, loanID uuid.UUID, now time.Time) (*model.Loan, error)

	// AdjustInventory sets total copies; available moves by the same delta
	// Returns ErrInvalidQuantity if newTotal < 0
	// Returns ErrItemNotFound if the item does not exist
	AdjustInventory(ctx context.Context, itemID uuid.UUID, newTotal int) (*catalogModel.Item, error)

	// DeleteItem removes an item that has no outstanding loans
	// Returns ErrItemHasActiveLoans if any loan of the item is OUTSTANDING
	// Returns ErrItemNotFound if the item does not exist
	DeleteItem(ctx context.Context, itemID uuid.UUID) error

	// GetLoan retrieves a loan
	GetLoan(ctx context.Context, loanID uuid.UUID) (*model.Loan, error)

	// ListBorrowerLoans returns the borrower's loans, newest first
	ListBorrowerLoans(ctx context.Context, borrowerID uuid.UUID, status *model.LoanStatus) ([]model.Loan, error)

	// ListOverdue returns outstanding loans past due at asOf
	ListOverdue(ctx context.Context, asOf time.Time, limit int) ([]model.Loan, error)
}
