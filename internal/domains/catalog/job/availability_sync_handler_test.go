package job

import (
	"context"
	"testing"
	"time"

	"library-backend/internal/domains/catalog/model"
	"library-backend/internal/domains/catalog/service"
	"library-backend/internal/infrastructure/memstore"
	"library-backend/internal/shared"
	"library-backend/pkg/cache"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func syncTask(t *testing.T, itemID string) *asynq.Task {
	t.Helper()
	payload, err := jsoniter.Marshal(shared.AvailabilitySyncPayload{ItemID: itemID, Source: shared.SourceIssue})
	require.NoError(t, err)
	return asynq.NewTask(shared.TypeSyncItemAvailability, payload)
}

func TestAvailabilitySyncHandler(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	mc := cache.NewMemoryCache()
	h := NewAvailabilitySyncHandler(service.NewService(store.Items(), mc))

	item := model.NewItem("1984", "George Orwell", "9780451524935", "Fiction", 2, time.Now().UTC())
	require.NoError(t, store.Items().Create(ctx, item))
	_, err := store.Items().UpdateAvailability(ctx, item.ID, -1)
	require.NoError(t, err)

	t.Run("writes snapshot", func(t *testing.T) {
		require.NoError(t, h.ProcessTask(ctx, syncTask(t, item.ID.String())))

		var snap model.Availability
		found, err := mc.Get(ctx, model.AvailabilityCacheKey(item.ID), &snap)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, 1, snap.AvailableCopies)
		assert.Equal(t, 1, snap.OnLoan)
	})

	t.Run("deleted item clears snapshot", func(t *testing.T) {
		require.NoError(t, store.Items().Delete(ctx, item.ID))
		require.NoError(t, h.ProcessTask(ctx, syncTask(t, item.ID.String())))

		var snap model.Availability
		found, _ := mc.Get(ctx, model.AvailabilityCacheKey(item.ID), &snap)
		assert.False(t, found)
	})

	t.Run("bad payload is not retried", func(t *testing.T) {
		err := h.ProcessTask(ctx, syncTask(t, "not-a-uuid"))
		assert.ErrorIs(t, err, asynq.SkipRetry)

		err = h.ProcessTask(ctx, asynq.NewTask(shared.TypeSyncItemAvailability, []byte("{")))
		assert.ErrorIs(t, err, asynq.SkipRetry)
	})

	t.Run("unknown item is a no-op", func(t *testing.T) {
		assert.NoError(t, h.ProcessTask(ctx, syncTask(t, uuid.NewString())))
	})
}
