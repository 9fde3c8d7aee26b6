package repository

import (
	"context"

	"library-backend/internal/domains/catalog/model"

	"github.com/google/uuid"
)

// RepositoryInterface defines the contract for catalog data access
// Counters (total/available) chỉ được ghi qua UpdateAvailability và AdjustCopies;
// lending engine gọi chúng bên trong một unit of work
type RepositoryInterface interface {
	// ========================================
	// CORE CRUD OPERATIONS
	// ========================================

	// Create inserts a new item
	// Returns ErrDuplicateISBN if another live item has the same ISBN
	Create(ctx context.Context, item *model.Item) error

	// GetByID retrieves an item
	// Returns ErrItemNotFound if not exists (or deleted)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Item, error)

	// GetByIDForUpdate giống GetByID nhưng khóa row tới hết transaction
	// Ngoài transaction tương đương GetByID
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Item, error)

	// GetByISBN retrieves a live item by ISBN
	GetByISBN(ctx context.Context, isbn string) (*model.Item, error)

	// List retrieves paginated items filtered by search/category, ordered by title
	List(ctx context.Context, filter model.ListItemsRequest) ([]model.Item, int, error)

	// ListAll returns every live item ordered by title (dùng cho export)
	ListAll(ctx context.Context) ([]model.Item, error)

	// UpdateDetails updates descriptive fields only (title, author, isbn, category)
	UpdateDetails(ctx context.Context, item *model.Item) error

	// Delete removes the item from the catalog
	// Loan history referencing the item is kept
	Delete(ctx context.Context, id uuid.UUID) error

	// ========================================
	// COPY COUNTERS
	// ========================================

	// UpdateAvailability atomically adds delta to available_copies
	// Caller (lending engine) đảm bảo cặp issue/return
	UpdateAvailability(ctx context.Context, id uuid.UUID, delta int) (*model.Item, error)

	// AdjustCopies atomically adds totalDelta to total_copies and availableDelta to available_copies
	AdjustCopies(ctx context.Context, id uuid.UUID, totalDelta, availableDelta int) (*model.Item, error)
}
