package service

import (
	"context"
	"testing"
	"time"

	"library-backend/internal/domains/catalog/model"
	circulationService "library-backend/internal/domains/circulation/service"
	"library-backend/internal/infrastructure/memstore"
	"library-backend/internal/shared"
	"library-backend/pkg/cache"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncNotifierRefreshesSnapshot(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)

	store := memstore.New()
	mc := cache.NewMemoryCache()
	svc := NewService(store.Items(), mc)
	lending := circulationService.NewLendingService(store, store.Loans())
	notifier := NewSyncNotifier(svc)

	req := gatsbyRequest()
	req.Copies = 2
	created, err := svc.CreateItem(ctx, req)
	require.NoError(t, err)

	before, err := svc.GetAvailability(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, before.AvailableCopies)

	loan, err := lending.IssueCopy(ctx, created.ID, uuid.New(), now)
	require.NoError(t, err)
	notifier.NotifyAvailabilityChanged(ctx, created.ID, shared.SourceIssue, "")

	after, err := svc.GetAvailability(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, after.AvailableCopies)
	assert.Equal(t, 1, after.OnLoan)

	_, err = lending.ReturnCopy(ctx, loan.ID, now.Add(time.Hour))
	require.NoError(t, err)
	notifier.NotifyAvailabilityChanged(ctx, created.ID, shared.SourceReturn, "")

	after, err = svc.GetAvailability(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, after.AvailableCopies)

	require.NoError(t, lending.DeleteItem(ctx, created.ID))
	notifier.NotifyAvailabilityChanged(ctx, created.ID, shared.SourceDelete, "")

	found, err := mc.Get(ctx, model.AvailabilityCacheKey(created.ID), &model.Availability{})
	require.NoError(t, err)
	assert.False(t, found)

	_, err = svc.GetAvailability(ctx, created.ID)
	assert.ErrorIs(t, err, model.ErrItemNotFound)
}
