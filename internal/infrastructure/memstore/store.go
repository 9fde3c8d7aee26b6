// Package memstore provides an in-memory transactional catalog + ledger store.
// Transactions buffer their writes and apply them at commit under a short
// store lock, so concurrent transactions on different items never wait on
// each other while running.
package memstore

import (
	"context"
	"sync"
	"time"

	catalogModel "library-backend/internal/domains/catalog/model"
	catalogRepo "library-backend/internal/domains/catalog/repository"
	"library-backend/internal/domains/circulation/model"
	"library-backend/internal/domains/circulation/repository"

	"github.com/google/uuid"
)

type loanKey struct {
	itemID     uuid.UUID
	borrowerID uuid.UUID
}

// Store is safe for concurrent use.
type Store struct {
	mu          sync.RWMutex
	items       map[uuid.UUID]catalogModel.Item
	loans       map[uuid.UUID]model.Loan
	outstanding map[loanKey]uuid.UUID
	nowFn       func() time.Time
}

// New creates an empty store.
func New() *Store {
	return &Store{
		items:       map[uuid.UUID]catalogModel.Item{},
		loans:       map[uuid.UUID]model.Loan{},
		outstanding: map[loanKey]uuid.UUID{},
		nowFn:       func() time.Time { return time.Now().UTC() },
	}
}

// Items returns an auto-commit catalog repository.
func (s *Store) Items() catalogRepo.RepositoryInterface {
	return &itemStore{store: s}
}

// Loans returns an auto-commit ledger repository.
func (s *Store) Loans() repository.RepositoryInterface {
	return &loanStore{store: s}
}

// WithinTx implements repository.UnitOfWork.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, stores repository.Stores) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tx := s.begin()
	if err := fn(ctx, repository.Stores{
		Items: &itemStore{store: s, tx: tx},
		Loans: &loanStore{store: s, tx: tx},
	}); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	return s.commit(tx)
}

func (s *Store) begin() *txState {
	return &txState{
		store: s,
		items: map[uuid.UUID]*pendingItem{},
		loans: map[uuid.UUID]*pendingLoan{},
		now:   s.nowFn(),
	}
}

func (s *Store) baseItem(id uuid.UUID) (catalogModel.Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.items[id]
	return it, ok
}

func (s *Store) baseLoan(id uuid.UUID) (model.Loan, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.loans[id]
	if !ok {
		return model.Loan{}, false
	}
	return *l.Clone(), true
}

func (s *Store) baseItems() []catalogModel.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]catalogModel.Item, 0, len(s.items))
	for _, it := range s.items {
		out = append(out, it)
	}
	return out
}

func (s *Store) baseLoans(match func(*model.Loan) bool) []model.Loan {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Loan, 0)
	for _, l := range s.loans {
		if match(&l) {
			out = append(out, *l.Clone())
		}
	}
	return out
}

func (s *Store) baseOutstanding(key loanKey) (uuid.UUID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.outstanding[key]
	return id, ok
}

// commit validates every buffered write against the current state, then applies
// all of them or none.
func (s *Store) commit(tx *txState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	nextItems := make(map[uuid.UUID]catalogModel.Item, len(tx.items))
	for id, p := range tx.items {
		if p.deleted {
			continue
		}
		var it catalogModel.Item
		if p.created != nil {
			it = *p.created
		} else {
			base, ok := s.items[id]
			if !ok {
				return catalogModel.NewItemNotFoundError(id)
			}
			it = base
		}
		p.apply(&it)
		nextItems[id] = it
	}
	if err := s.checkISBNs(tx, nextItems); err != nil {
		return err
	}

	for id, p := range tx.loans {
		l := p.loan
		if p.created {
			key := loanKey{l.ItemID, l.BorrowerID}
			if holder, ok := s.outstanding[key]; ok {
				if hp, returning := tx.loans[holder]; !returning || hp.loan.IsOutstanding() {
					return model.NewDuplicateLoanError(l.ItemID, l.BorrowerID)
				}
			}
			continue
		}
		base, ok := s.loans[id]
		if !ok {
			return model.NewLoanNotFoundError(id)
		}
		if !base.IsOutstanding() {
			return model.NewAlreadyReturnedError(id)
		}
	}

	for id, p := range tx.items {
		if p.deleted {
			delete(s.items, id)
			continue
		}
		s.items[id] = nextItems[id]
	}
	for id, p := range tx.loans {
		l := p.loan
		key := loanKey{l.ItemID, l.BorrowerID}
		if l.IsOutstanding() {
			s.outstanding[key] = id
		} else if s.outstanding[key] == id {
			delete(s.outstanding, key)
		}
		s.loans[id] = *l.Clone()
	}
	return nil
}

func (s *Store) checkISBNs(tx *txState, next map[uuid.UUID]catalogModel.Item) error {
	seen := make(map[string]uuid.UUID, len(next))
	for id, it := range next {
		p := tx.items[id]
		if p.created == nil && p.details == nil {
			continue
		}
		if other, dup := seen[it.ISBN]; dup && other != id {
			return catalogModel.NewDuplicateISBNError(it.ISBN)
		}
		seen[it.ISBN] = id
		for baseID, base := range s.items {
			if baseID == id || base.ISBN != it.ISBN {
				continue
			}
			if bp, pending := tx.items[baseID]; pending && (bp.deleted || next[baseID].ISBN != it.ISBN) {
				continue
			}
			return catalogModel.NewDuplicateISBNError(it.ISBN)
		}
	}
	return nil
}
