package model

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ===================================
// DOMAIN ERRORS
// ===================================

var (
	// ErrLoanNotFound is returned when loan record is not found
	ErrLoanNotFound = errors.New("loan not found")

	// ErrItemUnavailable is returned when every copy of the item is on loan
	ErrItemUnavailable = errors.New("item not available")

	// ErrDuplicateLoan is returned when the borrower already holds a copy of the item
	ErrDuplicateLoan = errors.New("borrower already has this item issued")

	// ErrAlreadyReturned is returned when returning a loan that is already RETURNED
	ErrAlreadyReturned = errors.New("loan already returned")

	// ErrItemHasActiveLoans is returned when deleting an item that still has outstanding loans
	ErrItemHasActiveLoans = errors.New("cannot delete item with active loans")
)

// ===================================
// ERROR HELPERS
// ===================================

// NewLoanNotFoundError creates a detailed not found error
func NewLoanNotFoundError(id uuid.UUID) error {
	return fmt.Errorf("%w: id=%s", ErrLoanNotFound, id)
}

// NewItemUnavailableError creates error with item details
func NewItemUnavailableError(itemID uuid.UUID) error {
	return fmt.Errorf("%w: item_id=%s", ErrItemUnavailable, itemID)
}

// NewDuplicateLoanError creates error with the conflicting loan
func NewDuplicateLoanError(itemID, borrowerID uuid.UUID) error {
	return fmt.Errorf("%w: item_id=%s, borrower_id=%s", ErrDuplicateLoan, itemID, borrowerID)
}

// NewAlreadyReturnedError creates error with loan details
func NewAlreadyReturnedError(id uuid.UUID) error {
	return fmt.Errorf("%w: id=%s", ErrAlreadyReturned, id)
}

// NewItemHasActiveLoansError creates error with outstanding count
func NewItemHasActiveLoansError(itemID uuid.UUID, outstanding int) error {
	return fmt.Errorf("%w: item_id=%s, outstanding=%d", ErrItemHasActiveLoans, itemID, outstanding)
}

// IsNotFoundError checks if error is a not found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrLoanNotFound)
}

// IsConflictError checks if error is a state conflict the caller can't fix by retrying input
func IsConflictError(err error) bool {
	return errors.Is(err, ErrItemUnavailable) ||
		errors.Is(err, ErrDuplicateLoan) ||
		errors.Is(err, ErrAlreadyReturned) ||
		errors.Is(err, ErrItemHasActiveLoans)
}
