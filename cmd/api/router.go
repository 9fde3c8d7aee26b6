package main

import (
	"library-backend/internal/access"
	"library-backend/internal/shared/middleware"
	"library-backend/pkg/container"

	"github.com/gin-gonic/gin"
)

func SetupRouter(c *container.Container) *gin.Engine {
	router := gin.New()

	// Global middlewares
	router.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
	)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheckHandler(c))

		authed := v1.Group("")
		authed.Use(middleware.AuthMiddleware(c.JWTManager))

		setupItemRoutes(authed, c)
		setupLoanRoutes(authed, c)
	}

	return router
}

// ========================================
// ITEM ROUTES
// ========================================
func setupItemRoutes(rg *gin.RouterGroup, c *container.Container) {
	h := c.CatalogHandler
	can := func(op access.Operation) gin.HandlerFunc {
		return middleware.RequirePermission(c.Policy, op)
	}

	items := rg.Group("/items")
	{
		items.GET("", can(access.OpViewCatalog), h.ListItems)
		items.GET("/export", can(access.OpExportCatalog), h.ExportCatalog)
		items.GET("/:id", can(access.OpViewCatalog), h.GetItem)
		items.GET("/:id/availability", can(access.OpViewCatalog), h.GetAvailability)
		items.POST("", can(access.OpCreateItem), h.CreateItem)
		items.PUT("/:id", can(access.OpUpdateItem), h.UpdateItem)
		items.PATCH("/:id/inventory", can(access.OpAdjustInventory), h.AdjustInventory)
		items.DELETE("/:id", can(access.OpDeleteItem), h.DeleteItem)
	}
}

// ========================================
// LOAN ROUTES
// ========================================
func setupLoanRoutes(rg *gin.RouterGroup, c *container.Container) {
	h := c.CirculationHandler
	can := func(op access.Operation) gin.HandlerFunc {
		return middleware.RequirePermission(c.Policy, op)
	}

	loans := rg.Group("/loans")
	{
		loans.POST("", can(access.OpIssueCopy), h.IssueLoan)
		loans.GET("/me", can(access.OpListOwnLoans), h.ListMyLoans)
		loans.GET("/overdue", can(access.OpListOverdue), h.ListOverdue)
		loans.GET("/overdue/summary", can(access.OpListOverdue), h.OverdueSummary)
		loans.GET("/:id", can(access.OpViewLoan), h.GetLoan)
		loans.POST("/:id/return", can(access.OpReturnCopy), h.ReturnLoan)
	}
}
