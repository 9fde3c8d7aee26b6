package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoan(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	itemID, borrowerID := uuid.New(), uuid.New()

	loan := NewLoan(itemID, borrowerID, now)

	assert.NotEqual(t, uuid.Nil, loan.ID)
	assert.Equal(t, itemID, loan.ItemID)
	assert.Equal(t, borrowerID, loan.BorrowerID)
	assert.Equal(t, now, loan.IssuedAt)
	assert.Equal(t, now.Add(14*24*time.Hour), loan.DueAt)
	assert.Nil(t, loan.ReturnedAt)
	assert.Equal(t, LoanStatusOutstanding, loan.Status)
	assert.True(t, loan.Fine.IsZero())
}

func TestLoan_MarkReturned(t *testing.T) {
	issued := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("on time", func(t *testing.T) {
		loan := NewLoan(uuid.New(), uuid.New(), issued)
		returnedAt := issued.Add(3 * 24 * time.Hour)

		require.NoError(t, loan.MarkReturned(returnedAt))
		assert.Equal(t, LoanStatusReturned, loan.Status)
		require.NotNil(t, loan.ReturnedAt)
		assert.Equal(t, returnedAt, *loan.ReturnedAt)
		assert.True(t, loan.Fine.IsZero())
	})

	t.Run("late fixes the fine", func(t *testing.T) {
		loan := NewLoan(uuid.New(), uuid.New(), issued)

		require.NoError(t, loan.MarkReturned(loan.DueAt.Add(49*time.Hour)))
		assert.True(t, decimal.NewFromInt(20).Equal(loan.Fine))
	})

	t.Run("second return is rejected without mutation", func(t *testing.T) {
		loan := NewLoan(uuid.New(), uuid.New(), issued)
		first := loan.DueAt.Add(25 * time.Hour)
		require.NoError(t, loan.MarkReturned(first))

		err := loan.MarkReturned(first.Add(30 * 24 * time.Hour))
		assert.ErrorIs(t, err, ErrAlreadyReturned)
		assert.Equal(t, first, *loan.ReturnedAt)
		assert.True(t, decimal.NewFromInt(10).Equal(loan.Fine))
	})
}

func TestLoan_OverdueAndAccruedFine(t *testing.T) {
	issued := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	loan := NewLoan(uuid.New(), uuid.New(), issued)

	assert.False(t, loan.IsOverdue(loan.DueAt))
	assert.True(t, loan.IsOverdue(loan.DueAt.Add(time.Second)))
	assert.True(t, decimal.NewFromInt(30).Equal(loan.AccruedFine(loan.DueAt.Add(72*time.Hour))))

	require.NoError(t, loan.MarkReturned(loan.DueAt.Add(24*time.Hour)))
	assert.False(t, loan.IsOverdue(loan.DueAt.Add(100*24*time.Hour)))
	// fine đã chốt, không tính lại theo asOf
	assert.True(t, decimal.NewFromInt(10).Equal(loan.AccruedFine(loan.DueAt.Add(100*24*time.Hour))))
}

func TestLoan_Clone(t *testing.T) {
	loan := NewLoan(uuid.New(), uuid.New(), time.Now().UTC())
	require.NoError(t, loan.MarkReturned(loan.IssuedAt.Add(time.Hour)))

	c := loan.Clone()
	*c.ReturnedAt = c.ReturnedAt.Add(time.Hour)

	assert.NotEqual(t, *loan.ReturnedAt, *c.ReturnedAt)
}

func TestReturnMessage(t *testing.T) {
	assert.Equal(t, "Book returned successfully!", ReturnMessage(decimal.Zero))
	assert.Equal(t, "Book returned successfully! Fine: Rs. 20.00", ReturnMessage(decimal.NewFromInt(20)))
}
