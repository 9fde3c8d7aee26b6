package memstore

import (
	"context"
	"sort"
	"time"

	"library-backend/internal/domains/circulation/model"

	"github.com/google/uuid"
)

// loanStore implements the ledger RepositoryInterface.
type loanStore struct {
	store *Store
	tx    *txState
}

func (r *loanStore) run(fn func(tx *txState) error) error {
	if r.tx != nil {
		return fn(r.tx)
	}
	tx := r.store.begin()
	if err := fn(tx); err != nil {
		return err
	}
	return r.store.commit(tx)
}

func (r *loanStore) Create(ctx context.Context, loan *model.Loan) error {
	return r.run(func(tx *txState) error {
		if _, exists := tx.findOutstanding(loan.ItemID, loan.BorrowerID); exists {
			return model.NewDuplicateLoanError(loan.ItemID, loan.BorrowerID)
		}
		tx.loans[loan.ID] = &pendingLoan{loan: *loan.Clone(), created: true}
		return nil
	})
}

func (r *loanStore) GetByID(ctx context.Context, id uuid.UUID) (*model.Loan, error) {
	var out *model.Loan
	err := r.run(func(tx *txState) error {
		l, ok := tx.loan(id)
		if !ok {
			return model.NewLoanNotFoundError(id)
		}
		out = &l
		return nil
	})
	return out, err
}

func (r *loanStore) FindOutstanding(ctx context.Context, itemID, borrowerID uuid.UUID) (*model.Loan, error) {
	var out *model.Loan
	err := r.run(func(tx *txState) error {
		if l, ok := tx.findOutstanding(itemID, borrowerID); ok {
			out = &l
		}
		return nil
	})
	return out, err
}

func (r *loanStore) Update(ctx context.Context, loan *model.Loan) error {
	return r.run(func(tx *txState) error {
		current, ok := tx.loan(loan.ID)
		if !ok {
			return model.NewLoanNotFoundError(loan.ID)
		}
		if !current.IsOutstanding() {
			return model.NewAlreadyReturnedError(loan.ID)
		}

		created := false
		if p, pending := tx.loans[loan.ID]; pending {
			created = p.created
		}
		tx.loans[loan.ID] = &pendingLoan{loan: *loan.Clone(), created: created}
		return nil
	})
}

func (r *loanStore) CountOutstandingByItem(ctx context.Context, itemID uuid.UUID) (int, error) {
	var count int
	err := r.run(func(tx *txState) error {
		count = len(tx.matchLoans(func(l *model.Loan) bool {
			return l.ItemID == itemID && l.IsOutstanding()
		}))
		return nil
	})
	return count, err
}

func (r *loanStore) ListByBorrower(ctx context.Context, borrowerID uuid.UUID, status *model.LoanStatus) ([]model.Loan, error) {
	var out []model.Loan
	err := r.run(func(tx *txState) error {
		out = tx.matchLoans(func(l *model.Loan) bool {
			return l.BorrowerID == borrowerID && (status == nil || l.Status == *status)
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].IssuedAt.Equal(out[j].IssuedAt) {
			return out[i].IssuedAt.After(out[j].IssuedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (r *loanStore) ListOverdue(ctx context.Context, asOf time.Time, limit int) ([]model.Loan, error) {
	var out []model.Loan
	err := r.run(func(tx *txState) error {
		out = tx.matchLoans(func(l *model.Loan) bool {
			return l.IsOverdue(asOf)
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].DueAt.Equal(out[j].DueAt) {
			return out[i].DueAt.Before(out[j].DueAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
