package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"library-backend/internal/domains/catalog/model"
	"library-backend/internal/domains/catalog/service"
	circulationModel "library-backend/internal/domains/circulation/model"
	"library-backend/internal/shared"
	"library-backend/internal/shared/response"
	"library-backend/pkg/logger"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// InventoryManager - phần của lending engine mà catalog handler cần
// AdjustInventory và DeleteItem phải đi qua engine để giữ lock theo item
type InventoryManager interface {
	AdjustInventory(ctx context.Context, itemID uuid.UUID, newTotal int) (*model.Item, error)
	DeleteItem(ctx context.Context, itemID uuid.UUID) error
}

// Handler - HTTP Handler cho /items
type Handler struct {
	service   service.ServiceInterface
	inventory InventoryManager
	notifier  shared.AvailabilityNotifier
}

// NewHandler - Constructor with DI
func NewHandler(service service.ServiceInterface, inventory InventoryManager, notifier shared.AvailabilityNotifier) *Handler {
	return &Handler{
		service:   service,
		inventory: inventory,
		notifier:  notifier,
	}
}

// ListItems - GET /v1/items
// Query params: search, category, page, limit
func (h *Handler) ListItems(c *gin.Context) {
	var req model.ListItemsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters")
		return
	}

	data, err := h.service.ListItems(c.Request.Context(), req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, data.Items, &response.Meta{
		Page:  data.Page,
		Limit: data.Limit,
		Total: data.TotalItems,
	})
}

// GetItem - GET /v1/items/:id
func (h *Handler) GetItem(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	item, err := h.service.GetItem(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, item)
}

// GetAvailability - GET /v1/items/:id/availability
// Đọc snapshot từ Redis, miss thì đọc store và ghi lại
func (h *Handler) GetAvailability(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	snapshot, err := h.service.GetAvailability(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, snapshot)
}

// CreateItem - POST /v1/items
// Yêu cầu: staff/admin (RequirePermission chạy trước)
func (h *Handler) CreateItem(c *gin.Context) {
	var req model.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	item, err := h.service.CreateItem(c.Request.Context(), req)
	if err != nil {
		handleError(c, err)
		return
	}

	logger.Info("item created", map[string]interface{}{
		"item_id": item.ID.String(),
		"isbn":    item.ISBN,
		"copies":  item.TotalCopies,
	})
	response.SuccessWithMessage(c, http.StatusCreated, "Book added successfully!", item)
}

// UpdateItem - PUT /v1/items/:id
func (h *Handler) UpdateItem(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req model.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	item, err := h.service.UpdateItemDetails(c.Request.Context(), id, req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.SuccessWithMessage(c, http.StatusOK, "Book updated successfully!", item)
}

// AdjustInventory - PATCH /v1/items/:id/inventory
func (h *Handler) AdjustInventory(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req model.AdjustInventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.ValidationError(c, err)
		return
	}

	item, err := h.inventory.AdjustInventory(c.Request.Context(), id, *req.TotalCopies)
	if err != nil {
		handleError(c, err)
		return
	}

	h.notifier.NotifyAvailabilityChanged(c.Request.Context(), id, shared.SourceAdjust, c.GetString("request_id"))
	logger.Info("inventory adjusted", map[string]interface{}{
		"item_id":   id.String(),
		"total":     item.TotalCopies,
		"available": item.AvailableCopies,
	})

	response.Success(c, http.StatusOK, item.ToResponse())
}

// DeleteItem - DELETE /v1/items/:id
func (h *Handler) DeleteItem(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.inventory.DeleteItem(c.Request.Context(), id); err != nil {
		handleError(c, err)
		return
	}

	h.notifier.NotifyAvailabilityChanged(c.Request.Context(), id, shared.SourceDelete, c.GetString("request_id"))
	logger.Info("item deleted", map[string]interface{}{"item_id": id.String()})

	response.SuccessWithMessage(c, http.StatusOK, "Book deleted successfully!", nil)
}

// ExportCatalog - GET /v1/items/export
func (h *Handler) ExportCatalog(c *gin.Context) {
	f, err := h.service.ExportCatalog(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	defer f.Close()

	filename := fmt.Sprintf("catalog_%s.xlsx", time.Now().UTC().Format("20060102_150405"))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))

	if err := f.Write(c.Writer); err != nil {
		logger.Error("failed to write catalog export", err)
	}
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid item id")
		return uuid.Nil, false
	}
	return id, true
}

// handleError maps domain errors to HTTP responses
func handleError(c *gin.Context, err error) {
	switch {
	case model.IsNotFoundError(err):
		response.NotFound(c, "Book not found")
	case errors.Is(err, model.ErrDuplicateISBN):
		response.Conflict(c, "DUPLICATE_ISBN", "Book with this ISBN already exists!")
	case errors.Is(err, model.ErrInvalidQuantity):
		response.BadRequest(c, err.Error())
	case errors.Is(err, circulationModel.ErrItemHasActiveLoans):
		response.Conflict(c, "ITEM_HAS_ACTIVE_LOANS", "Cannot delete book with active issues!")
	case errors.As(err, new(validation.Errors)):
		response.ValidationError(c, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		response.ErrorResponse(c, http.StatusServiceUnavailable, "TIMEOUT", "request cancelled")
	default:
		logger.Error("catalog request failed", err)
		response.InternalServerError(c, "Internal server error")
	}
}
