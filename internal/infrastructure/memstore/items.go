package memstore

import (
	"context"
	"fmt"
	"strings"

	"library-backend/internal/domains/catalog/model"

	"github.com/google/uuid"
)

// itemStore implements the catalog RepositoryInterface.
// tx == nil nghĩa là mỗi call tự mở và commit transaction riêng.
type itemStore struct {
	store *Store
	tx    *txState
}

func (r *itemStore) run(fn func(tx *txState) error) error {
	if r.tx != nil {
		return fn(r.tx)
	}
	tx := r.store.begin()
	if err := fn(tx); err != nil {
		return err
	}
	return r.store.commit(tx)
}

func (r *itemStore) Create(ctx context.Context, item *model.Item) error {
	return r.run(func(tx *txState) error {
		if _, exists := tx.item(item.ID); exists {
			return fmt.Errorf("item %s already exists", item.ID)
		}
		for _, other := range tx.allItems() {
			if other.ISBN == item.ISBN {
				return model.NewDuplicateISBNError(item.ISBN)
			}
		}
		created := *item
		tx.items[item.ID] = &pendingItem{created: &created}
		return nil
	})
}

func (r *itemStore) GetByID(ctx context.Context, id uuid.UUID) (*model.Item, error) {
	var out *model.Item
	err := r.run(func(tx *txState) error {
		it, ok := tx.item(id)
		if !ok {
			return model.NewItemNotFoundError(id)
		}
		out = &it
		return nil
	})
	return out, err
}

// GetByIDForUpdate: khóa theo item do lending service giữ, store không cần lock thêm
func (r *itemStore) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Item, error) {
	return r.GetByID(ctx, id)
}

func (r *itemStore) GetByISBN(ctx context.Context, isbn string) (*model.Item, error) {
	var out *model.Item
	err := r.run(func(tx *txState) error {
		for _, it := range tx.allItems() {
			if it.ISBN == isbn {
				found := it
				out = &found
				return nil
			}
		}
		return fmt.Errorf("%w: isbn=%s", model.ErrItemNotFound, isbn)
	})
	return out, err
}

func (r *itemStore) List(ctx context.Context, filter model.ListItemsRequest) ([]model.Item, int, error) {
	filter.Normalize()
	search := strings.ToLower(filter.Search)

	var matched []model.Item
	err := r.run(func(tx *txState) error {
		for _, it := range tx.allItems() {
			if filter.Category != "" && it.Category != filter.Category {
				continue
			}
			if search != "" &&
				!strings.Contains(strings.ToLower(it.Title), search) &&
				!strings.Contains(strings.ToLower(it.Author), search) &&
				!strings.Contains(strings.ToLower(it.ISBN), search) {
				continue
			}
			matched = append(matched, it)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	total := len(matched)
	start := filter.Offset()
	if start > total {
		start = total
	}
	end := start + filter.Limit
	if end > total {
		end = total
	}

	page := make([]model.Item, 0, end-start)
	page = append(page, matched[start:end]...)
	return page, total, nil
}

func (r *itemStore) ListAll(ctx context.Context) ([]model.Item, error) {
	var out []model.Item
	err := r.run(func(tx *txState) error {
		out = tx.allItems()
		return nil
	})
	return out, err
}

func (r *itemStore) UpdateDetails(ctx context.Context, item *model.Item) error {
	return r.run(func(tx *txState) error {
		current, ok := tx.item(item.ID)
		if !ok {
			return model.NewItemNotFoundError(item.ID)
		}
		for _, other := range tx.allItems() {
			if other.ID != item.ID && other.ISBN == item.ISBN {
				return model.NewDuplicateISBNError(item.ISBN)
			}
		}

		details := *item
		p := tx.pending(item.ID)
		p.details = &details
		p.touchedAt = tx.now

		item.TotalCopies = current.TotalCopies
		item.AvailableCopies = current.AvailableCopies
		item.UpdatedAt = tx.now
		return nil
	})
}

// Delete xóa hẳn item; loans tham chiếu tới item vẫn được giữ
func (r *itemStore) Delete(ctx context.Context, id uuid.UUID) error {
	return r.run(func(tx *txState) error {
		if _, ok := tx.item(id); !ok {
			return model.NewItemNotFoundError(id)
		}
		tx.pending(id).deleted = true
		return nil
	})
}

func (r *itemStore) UpdateAvailability(ctx context.Context, id uuid.UUID, delta int) (*model.Item, error) {
	return r.AdjustCopies(ctx, id, 0, delta)
}

func (r *itemStore) AdjustCopies(ctx context.Context, id uuid.UUID, totalDelta, availableDelta int) (*model.Item, error) {
	var out *model.Item
	err := r.run(func(tx *txState) error {
		if _, ok := tx.item(id); !ok {
			return model.NewItemNotFoundError(id)
		}
		p := tx.pending(id)
		p.totalDelta += totalDelta
		p.availableDelta += availableDelta
		p.touchedAt = tx.now

		it, _ := tx.item(id)
		out = &it
		return nil
	})
	return out, err
}
