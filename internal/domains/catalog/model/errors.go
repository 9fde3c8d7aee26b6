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
	// ErrItemNotFound is returned when the catalog has no item with the given id
	ErrItemNotFound = errors.New("item not found")

	// ErrDuplicateISBN is returned when another item already uses the ISBN
	ErrDuplicateISBN = errors.New("item with this ISBN already exists")

	// ErrInvalidQuantity is returned when a copy count is negative
	ErrInvalidQuantity = errors.New("total copies cannot be negative")
)

// ===================================
// ERROR HELPERS
// ===================================

// NewItemNotFoundError creates a detailed not found error
func NewItemNotFoundError(id uuid.UUID) error {
	return fmt.Errorf("%w: id=%s", ErrItemNotFound, id)
}

// NewDuplicateISBNError creates a detailed conflict error
func NewDuplicateISBNError(isbn string) error {
	return fmt.Errorf("%w: isbn=%s", ErrDuplicateISBN, isbn)
}

// IsNotFoundError checks if error is a not found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrItemNotFound)
}

// IsValidationError checks if error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidQuantity)
}
