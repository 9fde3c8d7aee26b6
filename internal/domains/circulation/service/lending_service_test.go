package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	catalogModel "library-backend/internal/domains/catalog/model"
	catalogRepo "library-backend/internal/domains/catalog/repository"
	"library-backend/internal/domains/circulation/model"
	"library-backend/internal/infrastructure/memstore"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

type engineFixture struct {
	svc   *lendingService
	items catalogRepo.RepositoryInterface
	store *memstore.Store
}

func newFixture(t *testing.T) *engineFixture {
	t.Helper()
	store := memstore.New()
	return &engineFixture{
		svc:   NewLendingService(store, store.Loans()).(*lendingService),
		items: store.Items(),
		store: store,
	}
}

func (f *engineFixture) addItem(t *testing.T, copies int) *catalogModel.Item {
	t.Helper()
	item := catalogModel.NewItem("The Great Gatsby", "F. Scott Fitzgerald", uuid.NewString()[:13], "Fiction", copies, testNow)
	require.NoError(t, f.items.Create(context.Background(), item))
	return item
}

func (f *engineFixture) item(t *testing.T, id uuid.UUID) *catalogModel.Item {
	t.Helper()
	it, err := f.items.GetByID(context.Background(), id)
	require.NoError(t, err)
	return it
}

func (f *engineFixture) outstanding(t *testing.T, itemID uuid.UUID) int {
	t.Helper()
	n, err := f.store.Loans().CountOutstandingByItem(context.Background(), itemID)
	require.NoError(t, err)
	return n
}

// ========================================
// IssueCopy
// ========================================

func TestIssueCopy(t *testing.T) {
	ctx := context.Background()

	t.Run("issues a copy and decrements availability", func(t *testing.T) {
		f := newFixture(t)
		item := f.addItem(t, 2)
		borrower := uuid.New()

		loan, err := f.svc.IssueCopy(ctx, item.ID, borrower, testNow)
		require.NoError(t, err)

		assert.Equal(t, item.ID, loan.ItemID)
		assert.Equal(t, borrower, loan.BorrowerID)
		assert.Equal(t, testNow.Add(model.LoanPeriod), loan.DueAt)
		assert.Equal(t, model.LoanStatusOutstanding, loan.Status)
		assert.True(t, loan.Fine.IsZero())

		got := f.item(t, item.ID)
		assert.Equal(t, 2, got.TotalCopies)
		assert.Equal(t, 1, got.AvailableCopies)

		stored, err := f.svc.GetLoan(ctx, loan.ID)
		require.NoError(t, err)
		assert.Equal(t, loan.ID, stored.ID)
	})

	t.Run("unknown item", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.IssueCopy(ctx, uuid.New(), uuid.New(), testNow)
		assert.ErrorIs(t, err, catalogModel.ErrItemNotFound)
	})

	t.Run("zero availability mutates nothing", func(t *testing.T) {
		f := newFixture(t)
		item := f.addItem(t, 0)
		borrower := uuid.New()

		_, err := f.svc.IssueCopy(ctx, item.ID, borrower, testNow)
		assert.ErrorIs(t, err, model.ErrItemUnavailable)

		got := f.item(t, item.ID)
		assert.Equal(t, 0, got.AvailableCopies)
		loans, err := f.svc.ListBorrowerLoans(ctx, borrower, nil)
		require.NoError(t, err)
		assert.Empty(t, loans)
	})

	t.Run("duplicate outstanding loan is rejected", func(t *testing.T) {
		f := newFixture(t)
		item := f.addItem(t, 3)
		borrower := uuid.New()

		_, err := f.svc.IssueCopy(ctx, item.ID, borrower, testNow)
		require.NoError(t, err)

		_, err = f.svc.IssueCopy(ctx, item.ID, borrower, testNow.Add(time.Hour))
		assert.ErrorIs(t, err, model.ErrDuplicateLoan)
		assert.Equal(t, 2, f.item(t, item.ID).AvailableCopies)
		assert.Equal(t, 1, f.outstanding(t, item.ID))
	})

	t.Run("availability is checked before duplicates", func(t *testing.T) {
		f := newFixture(t)
		item := f.addItem(t, 1)
		borrower := uuid.New()

		_, err := f.svc.IssueCopy(ctx, item.ID, borrower, testNow)
		require.NoError(t, err)

		_, err = f.svc.IssueCopy(ctx, item.ID, borrower, testNow)
		assert.ErrorIs(t, err, model.ErrItemUnavailable)
	})

	t.Run("borrower may re-borrow after returning", func(t *testing.T) {
		f := newFixture(t)
		item := f.addItem(t, 1)
		borrower := uuid.New()

		first, err := f.svc.IssueCopy(ctx, item.ID, borrower, testNow)
		require.NoError(t, err)
		_, err = f.svc.ReturnCopy(ctx, first.ID, testNow.Add(24*time.Hour))
		require.NoError(t, err)

		second, err := f.svc.IssueCopy(ctx, item.ID, borrower, testNow.Add(48*time.Hour))
		require.NoError(t, err)
		assert.NotEqual(t, first.ID, second.ID)
	})

	t.Run("cancelled context", func(t *testing.T) {
		f := newFixture(t)
		item := f.addItem(t, 1)
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := f.svc.IssueCopy(cctx, item.ID, uuid.New(), testNow)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, f.item(t, item.ID).AvailableCopies)
	})
}

// ========================================
// ReturnCopy
// ========================================

func TestReturnCopy(t *testing.T) {
	ctx := context.Background()

	t.Run("on time return has no fine", func(t *testing.T) {
		f := newFixture(t)
		item := f.addItem(t, 1)
		loan, err := f.svc.IssueCopy(ctx, item.ID, uuid.New(), testNow)
		require.NoError(t, err)

		returned, err := f.svc.ReturnCopy(ctx, loan.ID, loan.DueAt)
		require.NoError(t, err)

		assert.Equal(t, model.LoanStatusReturned, returned.Status)
		require.NotNil(t, returned.ReturnedAt)
		assert.True(t, returned.Fine.IsZero())
		assert.Equal(t, 1, f.item(t, item.ID).AvailableCopies)
	})

	t.Run("late return fixes the fine", func(t *testing.T) {
		f := newFixture(t)
		item := f.addItem(t, 1)
		loan, err := f.svc.IssueCopy(ctx, item.ID, uuid.New(), testNow)
		require.NoError(t, err)

		returned, err := f.svc.ReturnCopy(ctx, loan.ID, loan.DueAt.Add(48*time.Hour))
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(20).Equal(returned.Fine))

		stored, err := f.svc.GetLoan(ctx, loan.ID)
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(20).Equal(stored.Fine))
	})

	t.Run("double return is rejected without mutation", func(t *testing.T) {
		f := newFixture(t)
		item := f.addItem(t, 2)
		loan, err := f.svc.IssueCopy(ctx, item.ID, uuid.New(), testNow)
		require.NoError(t, err)

		firstReturn := loan.DueAt.Add(25 * time.Hour)
		_, err = f.svc.ReturnCopy(ctx, loan.ID, firstReturn)
		require.NoError(t, err)

		_, err = f.svc.ReturnCopy(ctx, loan.ID, firstReturn.Add(10*24*time.Hour))
		assert.ErrorIs(t, err, model.ErrAlreadyReturned)

		assert.Equal(t, 2, f.item(t, item.ID).AvailableCopies)
		stored, err := f.svc.GetLoan(ctx, loan.ID)
		require.NoError(t, err)
		assert.Equal(t, firstReturn, *stored.ReturnedAt)
		assert.True(t, decimal.NewFromInt(10).Equal(stored.Fine))
	})

	t.Run("unknown loan", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.ReturnCopy(ctx, uuid.New(), testNow)
		assert.ErrorIs(t, err, model.ErrLoanNotFound)
	})
}

func TestSingleCopyHandOff(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	item := f.addItem(t, 1)
	alice, bob := uuid.New(), uuid.New()

	loanA, err := f.svc.IssueCopy(ctx, item.ID, alice, testNow)
	require.NoError(t, err)

	_, err = f.svc.IssueCopy(ctx, item.ID, bob, testNow)
	require.ErrorIs(t, err, model.ErrItemUnavailable)

	_, err = f.svc.ReturnCopy(ctx, loanA.ID, testNow.Add(24*time.Hour))
	require.NoError(t, err)

	loanB, err := f.svc.IssueCopy(ctx, item.ID, bob, testNow.Add(25*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, bob, loanB.BorrowerID)
	assert.Equal(t, 0, f.item(t, item.ID).AvailableCopies)
}

// ========================================
// AdjustInventory
// ========================================

func TestAdjustInventory(t *testing.T) {
	ctx := context.Background()

	t.Run("shrinks total and available by the same delta", func(t *testing.T) {
		f := newFixture(t)
		item := f.addItem(t, 3)

		adjusted, err := f.svc.AdjustInventory(ctx, item.ID, 1)
		require.NoError(t, err)
		assert.Equal(t, 1, adjusted.TotalCopies)
		assert.Equal(t, 1, adjusted.AvailableCopies)
		assert.Equal(t, 1, f.item(t, item.ID).AvailableCopies)
	})

	t.Run("grows with copies on loan", func(t *testing.T) {
		f := newFixture(t)
		item := f.addItem(t, 2)
		_, err := f.svc.IssueCopy(ctx, item.ID, uuid.New(), testNow)
		require.NoError(t, err)

		adjusted, err := f.svc.AdjustInventory(ctx, item.ID, 5)
		require.NoError(t, err)
		assert.Equal(t, 5, adjusted.TotalCopies)
		assert.Equal(t, 4, adjusted.AvailableCopies)
		assert.Equal(t, f.outstanding(t, item.ID), adjusted.TotalCopies-adjusted.AvailableCopies)
	})

	t.Run("may drive available below zero", func(t *testing.T) {
		f := newFixture(t)
		item := f.addItem(t, 2)
		_, err := f.svc.IssueCopy(ctx, item.ID, uuid.New(), testNow)
		require.NoError(t, err)
		_, err = f.svc.IssueCopy(ctx, item.ID, uuid.New(), testNow)
		require.NoError(t, err)

		adjusted, err := f.svc.AdjustInventory(ctx, item.ID, 1)
		require.NoError(t, err)
		assert.Equal(t, -1, adjusted.AvailableCopies)

		_, err = f.svc.IssueCopy(ctx, item.ID, uuid.New(), testNow)
		assert.ErrorIs(t, err, model.ErrItemUnavailable)
	})

	t.Run("negative total", func(t *testing.T) {
		f := newFixture(t)
		item := f.addItem(t, 3)

		_, err := f.svc.AdjustInventory(ctx, item.ID, -1)
		assert.ErrorIs(t, err, catalogModel.ErrInvalidQuantity)
		assert.Equal(t, 3, f.item(t, item.ID).TotalCopies)
	})

	t.Run("unknown item", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.AdjustInventory(ctx, uuid.New(), 4)
		assert.ErrorIs(t, err, catalogModel.ErrItemNotFound)
	})
}

// ========================================
// DeleteItem
// ========================================

func TestDeleteItem(t *testing.T) {
	ctx := context.Background()

	t.Run("blocked by outstanding loans", func(t *testing.T) {
		f := newFixture(t)
		item := f.addItem(t, 1)
		loan, err := f.svc.IssueCopy(ctx, item.ID, uuid.New(), testNow)
		require.NoError(t, err)

		err = f.svc.DeleteItem(ctx, item.ID)
		assert.ErrorIs(t, err, model.ErrItemHasActiveLoans)
		f.item(t, item.ID)

		_, err = f.svc.ReturnCopy(ctx, loan.ID, testNow.Add(time.Hour))
		require.NoError(t, err)
		require.NoError(t, f.svc.DeleteItem(ctx, item.ID))

		_, err = f.items.GetByID(ctx, item.ID)
		assert.ErrorIs(t, err, catalogModel.ErrItemNotFound)

		// lịch sử mượn vẫn còn
		stored, err := f.svc.GetLoan(ctx, loan.ID)
		require.NoError(t, err)
		assert.Equal(t, model.LoanStatusReturned, stored.Status)
	})

	t.Run("unknown item", func(t *testing.T) {
		f := newFixture(t)
		assert.ErrorIs(t, f.svc.DeleteItem(ctx, uuid.New()), catalogModel.ErrItemNotFound)
	})
}

// ========================================
// READS
// ========================================

func TestListBorrowerLoansAndOverdue(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	first, second := f.addItem(t, 1), f.addItem(t, 1)
	borrower := uuid.New()

	older, err := f.svc.IssueCopy(ctx, first.ID, borrower, testNow)
	require.NoError(t, err)
	newer, err := f.svc.IssueCopy(ctx, second.ID, borrower, testNow.Add(10*24*time.Hour))
	require.NoError(t, err)
	_, err = f.svc.IssueCopy(ctx, first.ID, uuid.New(), testNow)
	require.ErrorIs(t, err, model.ErrItemUnavailable)

	all, err := f.svc.ListBorrowerLoans(ctx, borrower, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, newer.ID, all[0].ID)
	assert.Equal(t, older.ID, all[1].ID)

	_, err = f.svc.ReturnCopy(ctx, newer.ID, testNow.Add(11*24*time.Hour))
	require.NoError(t, err)

	returned := model.LoanStatusReturned
	onlyReturned, err := f.svc.ListBorrowerLoans(ctx, borrower, &returned)
	require.NoError(t, err)
	require.Len(t, onlyReturned, 1)
	assert.Equal(t, newer.ID, onlyReturned[0].ID)

	overdue, err := f.svc.ListOverdue(ctx, older.DueAt.Add(time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, older.ID, overdue[0].ID)

	none, err := f.svc.ListOverdue(ctx, older.DueAt, 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

// ========================================
// CONCURRENCY
// ========================================

func TestIssueCopy_ConcurrentSingleCopyHasOneWinner(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	item := f.addItem(t, 1)

	const borrowers = 32
	var (
		wg          sync.WaitGroup
		mu          sync.Mutex
		wins        int
		unavailable int
	)
	start := make(chan struct{})
	for i := 0; i < borrowers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := f.svc.IssueCopy(ctx, item.ID, uuid.New(), testNow)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, model.ErrItemUnavailable):
				unavailable++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, borrowers-1, unavailable)
	assert.Equal(t, 0, f.item(t, item.ID).AvailableCopies)
	assert.Equal(t, 1, f.outstanding(t, item.ID))
	assert.Zero(t, f.svc.locks.size())
}

func TestIssueCopy_ConcurrentSameBorrower(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	item := f.addItem(t, 5)
	borrower := uuid.New()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.IssueCopy(ctx, item.ID, borrower, testNow)
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, model.ErrDuplicateLoan)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, 4, f.item(t, item.ID).AvailableCopies)
}

func TestConcurrentIssueAndReturnKeepCountersBalanced(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	items := []*catalogModel.Item{f.addItem(t, 3), f.addItem(t, 2), f.addItem(t, 1)}

	var wg sync.WaitGroup
	for w := 0; w < 12; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			borrower := uuid.New()
			for round := 0; round < 20; round++ {
				item := items[(w+round)%len(items)]
				loan, err := f.svc.IssueCopy(ctx, item.ID, borrower, testNow)
				if err != nil {
					// loan giữ lại ở round%3==0 vẫn outstanding khi item quay lại
					if !errors.Is(err, model.ErrItemUnavailable) && !errors.Is(err, model.ErrDuplicateLoan) {
						t.Errorf("issue: %v", err)
					}
					continue
				}
				if round%3 != 0 {
					if _, err := f.svc.ReturnCopy(ctx, loan.ID, testNow.Add(time.Hour)); err != nil {
						t.Errorf("return: %v", err)
					}
				}
			}
		}(w)
	}
	wg.Wait()

	for _, item := range items {
		got := f.item(t, item.ID)
		assert.GreaterOrEqual(t, got.AvailableCopies, 0)
		assert.LessOrEqual(t, got.AvailableCopies, got.TotalCopies)
		assert.Equal(t, f.outstanding(t, item.ID), got.TotalCopies-got.AvailableCopies)
	}
	assert.Zero(t, f.svc.locks.size())
}
