package service

import (
	"context"

	"storefront/internal/models"
	"storefront/internal/store"
	"storefront/internal/util"

	"go.uber.org/zap"
)

// CatalogService handles product catalog operations and keeps the stock
// cache in step with the database.
type CatalogService struct {
	store  Store
	cache  StockCache
	logger *zap.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(store Store, cache StockCache) *CatalogService {
	return &CatalogService{
		store:  store,
		cache:  cache,
		logger: util.GetLogger(),
	}
}

// CreateProductRequest represents an admin product creation
type CreateProductRequest struct {
	SKU         string `json:"sku" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Category    string `json:"category"`
	ImageURL    string `json:"image_url"`
	Price       int64  `json:"price"`
	Stock       int    `json:"stock"`
	Active      *bool  `json:"active,omitempty"`
}

// SetStockRequest sets an absolute stock value guarded by the stock the
// caller last observed.
type SetStockRequest struct {
	Stock         int `json:"stock"`
	ExpectedStock int `json:"expected_stock"`
}

func validateCreateProduct(req *CreateProductRequest) error {
	var violations []models.FieldViolation
	if req.SKU == "" {
		violations = append(violations, models.FieldViolation{Field: "sku", Message: "required"})
	}
	if req.Name == "" {
		violations = append(violations, models.FieldViolation{Field: "name", Message: "required"})
	}
	if req.Price < 0 {
		violations = append(violations, models.FieldViolation{Field: "price", Message: "must not be negative"})
	}
	if req.Stock < 0 {
		violations = append(violations, models.FieldViolation{Field: "stock", Message: "must not be negative"})
	}
	if len(violations) > 0 {
		return &models.ValidationError{Violations: violations}
	}
	return nil
}

// CreateProduct creates a new catalog product
func (cs *CatalogService) CreateProduct(ctx context.Context, req *CreateProductRequest) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.CreateProduct")
	defer span.End()

	if err := validateCreateProduct(req); err != nil {
		return nil, err
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	product := &models.Product{
		SKU:         req.SKU,
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		ImageURL:    req.ImageURL,
		Price:       req.Price,
		Stock:       req.Stock,
		Active:      active,
	}

	if err := cs.store.CreateProduct(ctx, product); err != nil {
		return nil, err
	}

	cs.logger.Info("Product created",
		zap.Int64("product_id", product.ID),
		zap.String("sku", product.SKU))

	if err := cs.cache.SetStock(ctx, product.ID, product.Stock); err != nil {
		cs.logger.Warn("Failed to seed stock cache",
			zap.Int64("product_id", product.ID),
			zap.Error(err))
	}

	return product, nil
}

// GetProduct retrieves a product by ID
func (cs *CatalogService) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	return cs.store.GetProductByID(ctx, id)
}

// ListProducts retrieves products with filter/sort/pagination
func (cs *CatalogService) ListProducts(ctx context.Context, opts store.ListProductsOptions) ([]models.Product, error) {
	return cs.store.ListProducts(ctx, opts)
}

// SetStock sets a product's stock to an absolute value, conditioned on the
// previously observed stock so concurrent adjustments surface as conflicts.
func (cs *CatalogService) SetStock(ctx context.Context, productID int64, req *SetStockRequest) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.SetStock")
	defer span.End()

	if req.Stock < 0 {
		return nil, &models.ValidationError{Violations: []models.FieldViolation{
			{Field: "stock", Message: "must not be negative"},
		}}
	}

	if err := cs.store.SetStock(ctx, productID, req.ExpectedStock, req.Stock); err != nil {
		return nil, err
	}

	cs.logger.Info("Stock updated",
		zap.Int64("product_id", productID),
		zap.Int("stock", req.Stock))

	if err := cs.cache.SetStock(ctx, productID, req.Stock); err != nil {
		cs.logger.Warn("Failed to update stock cache",
			zap.Int64("product_id", productID),
			zap.Error(err))
	}

	return cs.store.GetProductByID(ctx, productID)
}

// RefreshStockCache reloads cached stock for the given products from the
// database. Used by the event worker to reconcile the cache.
func (cs *CatalogService) RefreshStockCache(ctx context.Context, productIDs []int64) error {
	products, err := cs.store.GetProductsByIDs(ctx, productIDs)
	if err != nil {
		return err
	}

	for _, product := range products {
		if err := cs.cache.SetStock(ctx, product.ID, product.Stock); err != nil {
			cs.logger.Error("Failed to refresh stock cache",
				zap.Int64("product_id", product.ID),
				zap.Error(err))
			continue
		}
		util.StockCacheRefreshTotal.Inc()
	}

	return nil
}

// SyncStockCache seeds the stock cache from the full catalog at startup.
func (cs *CatalogService) SyncStockCache(ctx context.Context) error {
	cs.logger.Info("Starting stock cache sync")

	const pageSize = 500
	offset := 0
	count := 0
	for {
		products, err := cs.store.ListProducts(ctx, store.ListProductsOptions{
			Limit:  pageSize,
			Offset: offset,
		})
		if err != nil {
			return err
		}

		for _, product := range products {
			if err := cs.cache.SetStock(ctx, product.ID, product.Stock); err != nil {
				cs.logger.Error("Failed to seed stock cache",
					zap.Int64("product_id", product.ID),
					zap.Error(err))
			}
		}
		count += len(products)

		if len(products) < pageSize {
			break
		}
		offset += pageSize
	}

	cs.logger.Info("Stock cache sync completed", zap.Int("count", count))
	return nil
}
