package repository

import (
	"context"
	"time"

	catalogRepo "library-backend/internal/domains/catalog/repository"
	"library-backend/internal/domains/circulation/model"

	"github.com/google/uuid"
)

// RepositoryInterface defines the contract for loan (ledger) data access
// Loan chỉ được tạo bởi Create và chỉ được chuyển trạng thái bởi Update; không bao giờ bị xóa
type RepositoryInterface interface {
	// Create inserts a new OUTSTANDING loan
	// Returns ErrDuplicateLoan if (item, borrower) already has an outstanding loan
	Create(ctx context.Context, loan *model.Loan) error

	// GetByID retrieves a loan
	// Returns ErrLoanNotFound if not exists
	GetByID(ctx context.Context, id uuid.UUID) (*model.Loan, error)

	// FindOutstanding returns the outstanding loan for (item, borrower)
	// Returns (nil, nil) nếu không có
	FindOutstanding(ctx context.Context, itemID, borrowerID uuid.UUID) (*model.Loan, error)

	// Update persists a return (returned_at, status, fine)
	// Returns ErrAlreadyReturned if the stored loan is no longer outstanding
	Update(ctx context.Context, loan *model.Loan) error

	// CountOutstandingByItem counts loans of the item still OUTSTANDING
	CountOutstandingByItem(ctx context.Context, itemID uuid.UUID) (int, error)

	// ListByBorrower returns the borrower's loans, newest first; status nil = all
	ListByBorrower(ctx context.Context, borrowerID uuid.UUID, status *model.LoanStatus) ([]model.Loan, error)

	// ListOverdue returns outstanding loans with due_at < asOf, oldest due first
	ListOverdue(ctx context.Context, asOf time.Time, limit int) ([]model.Loan, error)
}

// Stores là cặp store mà một engine operation thấy bên trong unit of work
type Stores struct {
	Items catalogRepo.RepositoryInterface
	Loans RepositoryInterface
}

// UnitOfWork runs fn's reads and writes as one indivisible unit
// fn trả error thì mọi write bị hủy; nil thì commit toàn bộ
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, stores Stores) error) error
}
