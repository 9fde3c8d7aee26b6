package model

import (
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

var isbnPattern = regexp.MustCompile(`^[0-9Xx-]{10,17}$`)

// ========================================
// REQUEST DTOs
// ========================================

// CreateItemRequest thêm một đầu sách mới vào catalog
type CreateItemRequest struct {
	Title    string `json:"title"`
	Author   string `json:"author"`
	ISBN     string `json:"isbn"`
	Category string `json:"category"`
	Copies   int    `json:"copies"`
}

func (r CreateItemRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required.Error("title is required"), validation.Length(1, 200)),
		validation.Field(&r.Author, validation.Required.Error("author is required"), validation.Length(1, 100)),
		validation.Field(&r.ISBN,
			validation.Required.Error("isbn is required"),
			validation.Match(isbnPattern).Error("isbn must be 10-17 digits, dashes or X"),
		),
		validation.Field(&r.Category, validation.Length(0, 50)),
		validation.Field(&r.Copies, validation.Min(0).Error("copies cannot be negative")),
	)
}

// Normalize trims descriptive fields before persistence
func (r *CreateItemRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Author = strings.TrimSpace(r.Author)
	r.ISBN = strings.TrimSpace(r.ISBN)
	r.Category = strings.TrimSpace(r.Category)
}

// UpdateItemRequest sửa thông tin mô tả, không đụng tới số bản sao
type UpdateItemRequest struct {
	Title    *string `json:"title"`
	Author   *string `json:"author"`
	ISBN     *string `json:"isbn"`
	Category *string `json:"category"`
}

func (r UpdateItemRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.NilOrNotEmpty, validation.Length(1, 200)),
		validation.Field(&r.Author, validation.NilOrNotEmpty, validation.Length(1, 100)),
		validation.Field(&r.ISBN, validation.NilOrNotEmpty, validation.Match(isbnPattern)),
		validation.Field(&r.Category, validation.Length(0, 50)),
	)
}

// ApplyTo copies non-nil fields onto the entity
func (r UpdateItemRequest) ApplyTo(item *Item) {
	if r.Title != nil {
		item.Title = strings.TrimSpace(*r.Title)
	}
	if r.Author != nil {
		item.Author = strings.TrimSpace(*r.Author)
	}
	if r.ISBN != nil {
		item.ISBN = strings.TrimSpace(*r.ISBN)
	}
	if r.Category != nil {
		item.Category = strings.TrimSpace(*r.Category)
	}
}

// AdjustInventoryRequest đặt lại tổng số bản sao
type AdjustInventoryRequest struct {
	TotalCopies *int `json:"total_copies"`
}

func (r AdjustInventoryRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.TotalCopies, validation.NotNil.Error("total_copies is required")),
	)
}

// ListItemsRequest - query params cho GET /items
type ListItemsRequest struct {
	Page     int    `form:"page"`
	Limit    int    `form:"limit"`
	Search   string `form:"search"`
	Category string `form:"category"`
}

// Normalize fills pagination defaults
func (r *ListItemsRequest) Normalize() {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.Limit <= 0 {
		r.Limit = 20
	}
	if r.Limit > 100 {
		r.Limit = 100
	}
	r.Search = strings.TrimSpace(r.Search)
	r.Category = strings.TrimSpace(r.Category)
}

// Offset returns the row offset for the current page
func (r ListItemsRequest) Offset() int {
	return (r.Page - 1) * r.Limit
}

// ========================================
// RESPONSE DTOs
// ========================================

type ItemResponse struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	ISBN            string    `json:"isbn"`
	Category        string    `json:"category,omitempty"`
	TotalCopies     int       `json:"total_copies"`
	AvailableCopies int       `json:"available_copies"`
	OnLoan          int       `json:"on_loan"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type ListItemsResponse struct {
	Items      []ItemResponse `json:"items"`
	TotalItems int            `json:"total_items"`
	TotalPages int            `json:"total_pages"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
}
