package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"library-backend/internal/domains/catalog/model"
	"library-backend/internal/domains/catalog/repository"
	"library-backend/pkg/cache"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

// CatalogService - Implements ServiceInterface
type CatalogService struct {
	repo  repository.RepositoryInterface
	cache cache.Cache
	nowFn func() time.Time
}

// NewService - Constructor with DI
func NewService(repo repository.RepositoryInterface, cache cache.Cache) ServiceInterface {
	return &CatalogService{
		repo:  repo,
		cache: cache,
		nowFn: func() time.Time { return time.Now().UTC() },
	}
}

// CreateItem implements ServiceInterface.CreateItem
func (s *CatalogService) CreateItem(ctx context.Context, req model.CreateItemRequest) (*model.ItemResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if err := s.ensureISBNFree(ctx, req.ISBN, uuid.Nil); err != nil {
		return nil, err
	}

	item := model.NewItem(req.Title, req.Author, req.ISBN, req.Category, req.Copies, s.nowFn())
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, err
	}

	resp := item.ToResponse()
	return &resp, nil
}

// GetItem implements ServiceInterface.GetItem
func (s *CatalogService) GetItem(ctx context.Context, id uuid.UUID) (*model.ItemResponse, error) {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := item.ToResponse()
	return &resp, nil
}

// ListItems implements ServiceInterface.ListItems
func (s *CatalogService) ListItems(ctx context.Context, req model.ListItemsRequest) (*model.ListItemsResponse, error) {
	req.Normalize()

	items, total, err := s.repo.List(ctx, req)
	if err != nil {
		return nil, err
	}

	totalPages := (total + req.Limit - 1) / req.Limit
	return &model.ListItemsResponse{
		Items:      model.ToResponseList(items),
		TotalItems: total,
		TotalPages: totalPages,
		Page:       req.Page,
		Limit:      req.Limit,
	}, nil
}

// UpdateItemDetails implements ServiceInterface.UpdateItemDetails
func (s *CatalogService) UpdateItemDetails(ctx context.Context, id uuid.UUID, req model.UpdateItemRequest) (*model.ItemResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	oldISBN := item.ISBN
	req.ApplyTo(item)
	if item.ISBN != oldISBN {
		if err := s.ensureISBNFree(ctx, item.ISBN, id); err != nil {
			return nil, err
		}
	}

	if err := s.repo.UpdateDetails(ctx, item); err != nil {
		return nil, err
	}

	resp := item.ToResponse()
	return &resp, nil
}

// GetAvailability implements ServiceInterface.GetAvailability
func (s *CatalogService) GetAvailability(ctx context.Context, id uuid.UUID) (*model.Availability, error) {
	var snapshot model.Availability
	found, err := s.cache.Get(ctx, model.AvailabilityCacheKey(id), &snapshot)
	if err == nil && found {
		return &snapshot, nil
	}

	return s.SyncAvailability(ctx, id)
}

// SyncAvailability implements ServiceInterface.SyncAvailability
func (s *CatalogService) SyncAvailability(ctx context.Context, id uuid.UUID) (*model.Availability, error) {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if model.IsNotFoundError(err) {
			// item đã bị xóa: bỏ snapshot cũ
			_ = s.cache.Delete(ctx, model.AvailabilityCacheKey(id))
		}
		return nil, err
	}

	snapshot := model.NewAvailability(item, s.nowFn())
	if err := s.cache.Set(ctx, model.AvailabilityCacheKey(id), snapshot, model.AvailabilityCacheTTL); err != nil {
		return nil, fmt.Errorf("failed to cache availability: %w", err)
	}

	return &snapshot, nil
}

func (s *CatalogService) ensureISBNFree(ctx context.Context, isbn string, self uuid.UUID) error {
	existing, err := s.repo.GetByISBN(ctx, isbn)
	if err != nil {
		if errors.Is(err, model.ErrItemNotFound) {
			return nil
		}
		return err
	}
	if existing.ID != self {
		return model.NewDuplicateISBNError(isbn)
	}
	return nil
}

// ExportCatalog implements ServiceInterface.ExportCatalog
func (s *CatalogService) ExportCatalog(ctx context.Context) (*excelize.File, error) {
	items, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	f, err := buildCatalogExcelFile(items)
	if err != nil {
		return nil, fmt.Errorf("failed to build excel file: %w", err)
	}

	return f, nil
}

const catalogSheet = "Catalog"

func buildCatalogExcelFile(items []model.Item) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", catalogSheet); err != nil {
		return nil, err
	}

	headers := []string{
		"ID",
		"Title",
		"Author",
		"ISBN",
		"Category",
		"Total Copies",
		"Available Copies",
		"On Loan",
		"Created At",
	}

	for colIdx, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(colIdx+1, 1)
		if err := f.SetCellValue(catalogSheet, cell, header); err != nil {
			return nil, err
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err == nil {
		lastHeader, _ := excelize.CoordinatesToCellName(len(headers), 1)
		_ = f.SetCellStyle(catalogSheet, "A1", lastHeader, headerStyle)
	}

	// Data rows, bắt đầu từ row 2
	for i, it := range items {
		row := []interface{}{
			it.ID.String(),
			it.Title,
			it.Author,
			it.ISBN,
			it.Category,
			it.TotalCopies,
			it.AvailableCopies,
			it.OnLoan(),
			it.CreatedAt.Format(time.RFC3339),
		}

		start, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(catalogSheet, start, &row); err != nil {
			return nil, err
		}
	}

	return f, nil
}
