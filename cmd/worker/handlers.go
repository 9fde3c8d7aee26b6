package main

import (
	"github.com/hibiken/asynq"

	catalogJob "library-backend/internal/domains/catalog/job"
	circulationJob "library-backend/internal/domains/circulation/job"
	"library-backend/internal/shared"
	"library-backend/pkg/container"
)

// HandlerRegistry holds all job handlers
type HandlerRegistry struct {
	availabilitySync *catalogJob.AvailabilitySyncHandler
	overdueScan      *circulationJob.OverdueScanHandler
}

// initializeHandlers creates all job handlers with their dependencies
func initializeHandlers(c *container.Container) *HandlerRegistry {
	return &HandlerRegistry{
		availabilitySync: catalogJob.NewAvailabilitySyncHandler(c.CatalogService),
		overdueScan: circulationJob.NewOverdueScanHandler(
			c.LendingService,
			c.Cache,
			c.Config.Jobs.OverdueSnapshotTTL,
		),
	}
}

// RegisterHandlers registers all handlers with the mux
func (h *HandlerRegistry) RegisterHandlers(mux *asynq.ServeMux) {
	// Circulation
	mux.HandleFunc(shared.TypeSyncItemAvailability, h.availabilitySync.ProcessTask)

	// Maintenance
	mux.HandleFunc(shared.TypeScanOverdueLoans, h.overdueScan.ProcessTask)
}
