package service

import (
	"context"

	"storefront/internal/models"
	"storefront/internal/store"
)

// Store is the persistence surface the services depend on. *store.Store
// implements it; tests substitute an in-memory fake with the same
// all-or-nothing PlaceOrder contract.
type Store interface {
	CreateProduct(ctx context.Context, product *models.Product) error
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
	GetProductsByIDs(ctx context.Context, ids []int64) ([]models.Product, error)
	ListProducts(ctx context.Context, opts store.ListProductsOptions) ([]models.Product, error)
	SetStock(ctx context.Context, productID int64, expected, stock int) error
	AddStock(ctx context.Context, productID int64, quantity int) (bool, error)

	PlaceOrder(ctx context.Context, order *models.Order, items []models.OrderItem) error
	GetOrderByID(ctx context.Context, id int64) (*models.Order, error)
	GetOrderByIdempotencyKey(ctx context.Context, key string) (*models.Order, error)
	TransitionOrderStatus(ctx context.Context, orderID int64, from, to, trackingNumber, notes string) (bool, error)
	UpdatePaymentStatus(ctx context.Context, orderID int64, paymentStatus string) error
	GetOrdersByUserID(ctx context.Context, userID int64) ([]models.Order, error)
	ListOrders(ctx context.Context, status string, limit, offset int) ([]models.Order, error)
	GetOrderItemsByOrderID(ctx context.Context, orderID int64) ([]models.OrderItem, error)

	UpsertRating(ctx context.Context, rating *models.ProductRating) (*models.Product, error)
	GetRatingsByProductID(ctx context.Context, productID int64) ([]models.ProductRating, error)
}

// StockCache is the advisory stock cache. Failures are never fatal to the
// calling workflow; the database stays authoritative.
type StockCache interface {
	GetStock(ctx context.Context, productID int64) (int, error)
	SetStock(ctx context.Context, productID int64, stock int) error
	DecrementStock(ctx context.Context, productID int64, quantity int) (bool, error)
	IncrementStock(ctx context.Context, productID int64, quantity int) error
}

// Publisher emits domain events. *broker.EventPublisher implements it.
type Publisher interface {
	PublishOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error
	PublishOrderStatusChanged(ctx context.Context, event *models.OrderStatusChangedEvent) error
	PublishOrderCancelled(ctx context.Context, event *models.OrderCancelledEvent) error
	PublishPaymentStatusChanged(ctx context.Context, event *models.PaymentStatusChangedEvent) error
	PublishProductRated(ctx context.Context, event *models.ProductRatedEvent) error
}
