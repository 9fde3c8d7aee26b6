package service

import (
	"context"

	"library-backend/internal/domains/catalog/model"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

// ServiceInterface defines catalog business logic
// Copy counters không được sửa ở đây; xem lending engine
type ServiceInterface interface {
	// CreateItem adds a title with total = available = copies
	// Returns ErrDuplicateISBN if the ISBN is taken
	CreateItem(ctx context.Context, req model.CreateItemRequest) (*model.ItemResponse, error)

	// GetItem retrieves an item
	// Returns ErrItemNotFound if not exists
	GetItem(ctx context.Context, id uuid.UUID) (*model.ItemResponse, error)

	// ListItems retrieves paginated items
	ListItems(ctx context.Context, req model.ListItemsRequest) (*model.ListItemsResponse, error)

	// UpdateItemDetails edits title/author/isbn/category
	// Returns ErrDuplicateISBN if the new ISBN is taken
	UpdateItemDetails(ctx context.Context, id uuid.UUID, req model.UpdateItemRequest) (*model.ItemResponse, error)

	// GetAvailability returns the cached availability snapshot, falling back to the store
	GetAvailability(ctx context.Context, id uuid.UUID) (*model.Availability, error)

	// SyncAvailability reads the item and writes its snapshot to cache
	SyncAvailability(ctx context.Context, id uuid.UUID) (*model.Availability, error)

	// ExportCatalog builds an xlsx snapshot of all live items
	ExportCatalog(ctx context.Context) (*excelize.File, error)
}
