package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"library-backend/internal/domains/circulation/model"
	"library-backend/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const loanColumns = `
	id, item_id, borrower_id, issued_at, due_at, returned_at, status, fine
`

// postgresRepository implements RepositoryInterface
type postgresRepository struct {
	db database.DBTX
}

// NewPostgresRepository creates a new PostgreSQL ledger repository
func NewPostgresRepository(db database.DBTX) RepositoryInterface {
	return &postgresRepository{db: db}
}

func scanLoan(row pgx.Row) (*model.Loan, error) {
	var loan model.Loan
	err := row.Scan(
		&loan.ID,
		&loan.ItemID,
		&loan.BorrowerID,
		&loan.IssuedAt,
		&loan.DueAt,
		&loan.ReturnedAt,
		&loan.Status,
		&loan.Fine,
	)
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

// Create implements RepositoryInterface.Create
func (r *postgresRepository) Create(ctx context.Context, loan *model.Loan) error {
	query := `
		INSERT INTO loans (
			id, item_id, borrower_id, issued_at, due_at, returned_at, status, fine
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)
	`

	_, err := r.db.Exec(ctx, query,
		loan.ID,
		loan.ItemID,
		loan.BorrowerID,
		loan.IssuedAt,
		loan.DueAt,
		loan.ReturnedAt,
		loan.Status,
		loan.Fine,
	)
	if err != nil {
		// uq_loans_outstanding là partial unique index (item_id, borrower_id) WHERE status = 'OUTSTANDING'
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return model.NewDuplicateLoanError(loan.ItemID, loan.BorrowerID)
		}
		return fmt.Errorf("failed to insert loan: %w", err)
	}

	return nil
}

// GetByID implements RepositoryInterface.GetByID
func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1`

	loan, err := scanLoan(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.NewLoanNotFoundError(id)
		}
		return nil, fmt.Errorf("failed to get loan by id: %w", err)
	}

	return loan, nil
}

// FindOutstanding implements RepositoryInterface.FindOutstanding
func (r *postgresRepository) FindOutstanding(ctx context.Context, itemID, borrowerID uuid.UUID) (*model.Loan, error) {
	query := `
		SELECT ` + loanColumns + `
		FROM loans
		WHERE item_id = $1 AND borrower_id = $2 AND status = $3
		LIMIT 1
	`

	loan, err := scanLoan(r.db.QueryRow(ctx, query, itemID, borrowerID, model.LoanStatusOutstanding))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find outstanding loan: %w", err)
	}

	return loan, nil
}

// Update implements RepositoryInterface.Update
func (r *postgresRepository) Update(ctx context.Context, loan *model.Loan) error {
	query := `
		UPDATE loans
		SET
			returned_at = $2,
			status = $3,
			fine = $4
		WHERE id = $1 AND status = 'OUTSTANDING'
	`

	result, err := r.db.Exec(ctx, query,
		loan.ID,
		loan.ReturnedAt,
		loan.Status,
		loan.Fine,
	)
	if err != nil {
		return fmt.Errorf("failed to update loan: %w", err)
	}

	if result.RowsAffected() == 0 {
		return model.NewAlreadyReturnedError(loan.ID)
	}

	return nil
}

// CountOutstandingByItem implements RepositoryInterface.CountOutstandingByItem
func (r *postgresRepository) CountOutstandingByItem(ctx context.Context, itemID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM loans WHERE item_id = $1 AND status = 'OUTSTANDING'`

	var count int
	if err := r.db.QueryRow(ctx, query, itemID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count outstanding loans: %w", err)
	}

	return count, nil
}

// ListByBorrower implements RepositoryInterface.ListByBorrower
func (r *postgresRepository) ListByBorrower(ctx context.Context, borrowerID uuid.UUID, status *model.LoanStatus) ([]model.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE borrower_id = $1`
	args := []interface{}{borrowerID}

	if status != nil {
		query += ` AND status = $2`
		args = append(args, *status)
	}
	query += ` ORDER BY issued_at DESC, id ASC`

	return r.queryLoans(ctx, query, args...)
}

// ListOverdue implements RepositoryInterface.ListOverdue
func (r *postgresRepository) ListOverdue(ctx context.Context, asOf time.Time, limit int) ([]model.Loan, error) {
	query := `
		SELECT ` + loanColumns + `
		FROM loans
		WHERE status = 'OUTSTANDING' AND due_at < $1
		ORDER BY due_at ASC, id ASC
		LIMIT $2
	`

	return r.queryLoans(ctx, query, asOf, limit)
}

func (r *postgresRepository) queryLoans(ctx context.Context, query string, args ...interface{}) ([]model.Loan, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}
	defer rows.Close()

	loans := make([]model.Loan, 0)
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan loan row: %w", err)
		}
		loans = append(loans, *loan)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating loan rows: %w", err)
	}

	return loans, nil
}
