package memstore

import (
	"sort"
	"time"

	catalogModel "library-backend/internal/domains/catalog/model"
	"library-backend/internal/domains/circulation/model"

	"github.com/google/uuid"
)

// pendingItem giữ các thay đổi chưa commit của một item.
// Counter được ghi dạng delta để commit không đè lên thay đổi của transaction khác.
type pendingItem struct {
	created        *catalogModel.Item
	details        *catalogModel.Item
	totalDelta     int
	availableDelta int
	deleted        bool
	touchedAt      time.Time
}

func (p *pendingItem) apply(it *catalogModel.Item) {
	if p.details != nil {
		it.Title = p.details.Title
		it.Author = p.details.Author
		it.ISBN = p.details.ISBN
		it.Category = p.details.Category
	}
	it.TotalCopies += p.totalDelta
	it.AvailableCopies += p.availableDelta
	if !p.touchedAt.IsZero() {
		it.UpdatedAt = p.touchedAt
	}
}

type pendingLoan struct {
	loan    model.Loan
	created bool
}

type txState struct {
	store *Store
	items map[uuid.UUID]*pendingItem
	loans map[uuid.UUID]*pendingLoan
	now   time.Time
}

func (tx *txState) pending(id uuid.UUID) *pendingItem {
	p, ok := tx.items[id]
	if !ok {
		p = &pendingItem{}
		tx.items[id] = p
	}
	return p
}

// item returns the item as this transaction sees it.
func (tx *txState) item(id uuid.UUID) (catalogModel.Item, bool) {
	p := tx.items[id]
	if p != nil && p.deleted {
		return catalogModel.Item{}, false
	}

	var it catalogModel.Item
	if p != nil && p.created != nil {
		it = *p.created
	} else {
		base, ok := tx.store.baseItem(id)
		if !ok {
			return catalogModel.Item{}, false
		}
		it = base
	}

	if p != nil {
		p.apply(&it)
	}
	return it, true
}

func (tx *txState) allItems() []catalogModel.Item {
	out := make([]catalogModel.Item, 0)
	for _, base := range tx.store.baseItems() {
		if _, pending := tx.items[base.ID]; pending {
			continue
		}
		out = append(out, base)
	}
	for id := range tx.items {
		if it, ok := tx.item(id); ok {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Title != out[j].Title {
			return out[i].Title < out[j].Title
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

func (tx *txState) loan(id uuid.UUID) (model.Loan, bool) {
	if p, ok := tx.loans[id]; ok {
		return *p.loan.Clone(), true
	}
	return tx.store.baseLoan(id)
}

// matchLoans merges buffered loans over the committed ones.
func (tx *txState) matchLoans(match func(*model.Loan) bool) []model.Loan {
	out := make([]model.Loan, 0)
	for _, l := range tx.store.baseLoans(match) {
		if _, pending := tx.loans[l.ID]; pending {
			continue
		}
		out = append(out, l)
	}
	for _, p := range tx.loans {
		if match(&p.loan) {
			out = append(out, *p.loan.Clone())
		}
	}
	return out
}

func (tx *txState) findOutstanding(itemID, borrowerID uuid.UUID) (model.Loan, bool) {
	for _, p := range tx.loans {
		l := p.loan
		if l.ItemID == itemID && l.BorrowerID == borrowerID && l.IsOutstanding() {
			return *l.Clone(), true
		}
	}

	id, ok := tx.store.baseOutstanding(loanKey{itemID, borrowerID})
	if !ok {
		return model.Loan{}, false
	}
	if _, pending := tx.loans[id]; pending {
		// đã được return trong transaction này
		return model.Loan{}, false
	}
	return tx.store.baseLoan(id)
}
