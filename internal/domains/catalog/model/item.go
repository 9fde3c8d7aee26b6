package model

import (
	"time"

	"github.com/google/uuid"
)

// Item là một đầu sách trong catalog cùng số bản sao vật lý
// TotalCopies/AvailableCopies chỉ thay đổi qua lending engine hoặc AdjustInventory
type Item struct {
	// Identity
	ID uuid.UUID `db:"id"`

	// Descriptive (engine không đọc các field này)
	Title    string `db:"title"`
	Author   string `db:"author"`
	ISBN     string `db:"isbn"`
	Category string `db:"category"`

	// Copy counters
	TotalCopies     int `db:"total_copies"`
	AvailableCopies int `db:"available_copies"`

	// Timestamps
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// OnLoan trả về số bản đang được mượn suy ra từ hai counter
func (i *Item) OnLoan() int {
	return i.TotalCopies - i.AvailableCopies
}

// IsAvailable checks if at least one copy can be issued
func (i *Item) IsAvailable() bool {
	return i.AvailableCopies > 0
}

// NewItem tạo item mới với available = total
func NewItem(title, author, isbn, category string, copies int, now time.Time) *Item {
	return &Item{
		ID:              uuid.New(),
		Title:           title,
		Author:          author,
		ISBN:            isbn,
		Category:        category,
		TotalCopies:     copies,
		AvailableCopies: copies,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// ToResponse converts entity to API response
func (i *Item) ToResponse() ItemResponse {
	return ItemResponse{
		ID:              i.ID,
		Title:           i.Title,
		Author:          i.Author,
		ISBN:            i.ISBN,
		Category:        i.Category,
		TotalCopies:     i.TotalCopies,
		AvailableCopies: i.AvailableCopies,
		OnLoan:          i.OnLoan(),
		CreatedAt:       i.CreatedAt,
		UpdatedAt:       i.UpdatedAt,
	}
}

// ToResponseList converts slice of entities to responses
func ToResponseList(items []Item) []ItemResponse {
	responses := make([]ItemResponse, 0, len(items))
	for i := range items {
		responses = append(responses, items[i].ToResponse())
	}
	return responses
}
