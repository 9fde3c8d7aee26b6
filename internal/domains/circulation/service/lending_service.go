package service

import (
	"context"
	"time"

	catalogModel "library-backend/internal/domains/catalog/model"
	"library-backend/internal/domains/circulation/model"
	"library-backend/internal/domains/circulation/repository"

	"github.com/google/uuid"
)

// lendingService implements ServiceInterface
//
// Mỗi operation:
//  1. giữ lock của đúng một item (read-decide-write không bị xen kẽ)
//  2. chạy toàn bộ read + write trong một unit of work (all-or-nothing)
//
// Loan thuộc về đúng một item, nên lock item cũng bao luôn loan.
type lendingService struct {
	uow   repository.UnitOfWork
	loans repository.RepositoryInterface
	locks *itemLocks
}

// NewLendingService creates the lending engine
func NewLendingService(uow repository.UnitOfWork, loans repository.RepositoryInterface) ServiceInterface {
	return &lendingService{
		uow:   uow,
		loans: loans,
		locks: newItemLocks(),
	}
}

// ========================================
// ENGINE OPERATIONS
// ========================================

// IssueCopy implements ServiceInterface.IssueCopy
func (s *lendingService) IssueCopy(ctx context.Context, itemID, borrowerID uuid.UUID, now time.Time) (*model.Loan, error) {
	unlock, err := s.locks.lock(ctx, itemID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var issued *model.Loan
	err = s.uow.WithinTx(ctx, func(ctx context.Context, stores repository.Stores) error {
		item, err := stores.Items.GetByIDForUpdate(ctx, itemID)
		if err != nil {
			return err
		}

		if !item.IsAvailable() {
			return model.NewItemUnavailableError(itemID)
		}

		existing, err := stores.Loans.FindOutstanding(ctx, itemID, borrowerID)
		if err != nil {
			return err
		}
		if existing != nil {
			return model.NewDuplicateLoanError(itemID, borrowerID)
		}

		loan := model.NewLoan(itemID, borrowerID, now)
		if _, err := stores.Items.UpdateAvailability(ctx, itemID, -1); err != nil {
			return err
		}
		if err := stores.Loans.Create(ctx, loan); err != nil {
			return err
		}

		issued = loan
		return nil
	})
	if err != nil {
		return nil, err
	}

	return issued, nil
}

// ReturnCopy implements ServiceInterface.ReturnCopy
func (s *lendingService) ReturnCopy(ctx context.Context, loanID uuid.UUID, now time.Time) (*model.Loan, error) {
	// item_id của loan không đổi, đọc trước để biết cần lock item nào
	current, err := s.loans.GetByID(ctx, loanID)
	if err != nil {
		return nil, err
	}

	unlock, err := s.locks.lock(ctx, current.ItemID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var returned *model.Loan
	err = s.uow.WithinTx(ctx, func(ctx context.Context, stores repository.Stores) error {
		loan, err := stores.Loans.GetByID(ctx, loanID)
		if err != nil {
			return err
		}
		if !loan.IsOutstanding() {
			return model.NewAlreadyReturnedError(loanID)
		}

		if _, err := stores.Items.GetByIDForUpdate(ctx, loan.ItemID); err != nil {
			return err
		}

		if err := loan.MarkReturned(now); err != nil {
			return err
		}
		if err := stores.Loans.Update(ctx, loan); err != nil {
			return err
		}
		if _, err := stores.Items.UpdateAvailability(ctx, loan.ItemID, 1); err != nil {
			return err
		}

		returned = loan
		return nil
	})
	if err != nil {
		return nil, err
	}

	return returned, nil
}

// AdjustInventory implements ServiceInterface.AdjustInventory
// Không chặn newTotal < số bản đang mượn: available có thể xuống dưới 0
func (s *lendingService) AdjustInventory(ctx context.Context, itemID uuid.UUID, newTotal int) (*catalogModel.Item, error) {
	if newTotal < 0 {
		return nil, catalogModel.ErrInvalidQuantity
	}

	unlock, err := s.locks.lock(ctx, itemID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var adjusted *catalogModel.Item
	err = s.uow.WithinTx(ctx, func(ctx context.Context, stores repository.Stores) error {
		item, err := stores.Items.GetByIDForUpdate(ctx, itemID)
		if err != nil {
			return err
		}

		delta := newTotal - item.TotalCopies
		updated, err := stores.Items.AdjustCopies(ctx, itemID, delta, delta)
		if err != nil {
			return err
		}

		adjusted = updated
		return nil
	})
	if err != nil {
		return nil, err
	}

	return adjusted, nil
}

// DeleteItem implements ServiceInterface.DeleteItem
func (s *lendingService) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	unlock, err := s.locks.lock(ctx, itemID)
	if err != nil {
		return err
	}
	defer unlock()

	return s.uow.WithinTx(ctx, func(ctx context.Context, stores repository.Stores) error {
		if _, err := stores.Items.GetByIDForUpdate(ctx, itemID); err != nil {
			return err
		}

		outstanding, err := stores.Loans.CountOutstandingByItem(ctx, itemID)
		if err != nil {
			return err
		}
		if outstanding > 0 {
			return model.NewItemHasActiveLoansError(itemID, outstanding)
		}

		return stores.Items.Delete(ctx, itemID)
	})
}

// ========================================
// READS
// ========================================

// GetLoan implements ServiceInterface.GetLoan
func (s *lendingService) GetLoan(ctx context.Context, loanID uuid.UUID) (*model.Loan, error) {
	return s.loans.GetByID(ctx, loanID)
}

// ListBorrowerLoans implements ServiceInterface.ListBorrowerLoans
func (s *lendingService) ListBorrowerLoans(ctx context.Context, borrowerID uuid.UUID, status *model.LoanStatus) ([]model.Loan, error) {
	return s.loans.ListByBorrower(ctx, borrowerID, status)
}

// ListOverdue implements ServiceInterface.ListOverdue
func (s *lendingService) ListOverdue(ctx context.Context, asOf time.Time, limit int) ([]model.Loan, error) {
	return s.loans.ListOverdue(ctx, asOf, limit)
}
