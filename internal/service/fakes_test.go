package service

import (
	"context"
	"sort"

	"storefront/internal/models"
	"storefront/internal/redisclient"
	"storefront/internal/store"
)

// fakeStore is an in-memory Store with the same all-or-nothing PlaceOrder
// contract as the Postgres implementation.
type fakeStore struct {
	products      map[int64]*models.Product
	orders        map[int64]*models.Order
	items         map[int64][]models.OrderItem
	ratings       map[int64][]models.ProductRating
	processed     map[string]bool
	nextProductID int64
	nextOrderID   int64
	nextRatingID  int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		products:  make(map[int64]*models.Product),
		orders:    make(map[int64]*models.Order),
		items:     make(map[int64][]models.OrderItem),
		ratings:   make(map[int64][]models.ProductRating),
		processed: make(map[string]bool),
	}
}

func (f *fakeStore) addProduct(p models.Product) *models.Product {
	f.nextProductID++
	p.ID = f.nextProductID
	f.products[p.ID] = &p
	return &p
}

func (f *fakeStore) CreateProduct(_ context.Context, product *models.Product) error {
	for _, p := range f.products {
		if p.SKU == product.SKU {
			return &models.ConflictError{Entity: "product sku", ID: p.ID}
		}
	}
	f.nextProductID++
	product.ID = f.nextProductID
	stored := *product
	f.products[product.ID] = &stored
	return nil
}

func (f *fakeStore) GetProductByID(_ context.Context, id int64) (*models.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, &models.NotFoundError{Entity: "product", ID: id}
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) GetProductsByIDs(_ context.Context, ids []int64) ([]models.Product, error) {
	var out []models.Product
	seen := make(map[int64]bool)
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if p, ok := f.products[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeStore) ListProducts(_ context.Context, opts store.ListProductsOptions) ([]models.Product, error) {
	var out []models.Product
	for _, p := range f.products {
		if opts.Category != "" && p.Category != opts.Category {
			continue
		}
		if opts.ActiveOnly && !p.Active {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) SetStock(_ context.Context, productID int64, expected, stock int) error {
	p, ok := f.products[productID]
	if !ok {
		return &models.NotFoundError{Entity: "product", ID: productID}
	}
	if p.Stock != expected {
		return &models.ConflictError{Entity: "product", ID: productID}
	}
	p.Stock = stock
	return nil
}

func (f *fakeStore) AddStock(_ context.Context, productID int64, quantity int) (bool, error) {
	p, ok := f.products[productID]
	if !ok {
		return false, nil
	}
	p.Stock += quantity
	return true, nil
}

func (f *fakeStore) PlaceOrder(_ context.Context, order *models.Order, items []models.OrderItem) error {
	// Validate every line before mutating anything.
	need := make(map[int64]int)
	for _, item := range items {
		need[item.ProductID] += item.Quantity
	}
	for productID, quantity := range need {
		p, ok := f.products[productID]
		if !ok || !p.Active {
			return &models.NotFoundError{Entity: "product", ID: productID}
		}
		if p.Stock < quantity {
			return &models.InsufficientStockError{ProductID: productID, Requested: quantity, Available: p.Stock}
		}
	}

	for productID, quantity := range need {
		f.products[productID].Stock -= quantity
	}

	f.nextOrderID++
	order.ID = f.nextOrderID
	stored := *order
	f.orders[order.ID] = &stored

	for i := range items {
		items[i].OrderID = order.ID
		items[i].ID = int64(i + 1)
	}
	f.items[order.ID] = append([]models.OrderItem(nil), items...)
	return nil
}

func (f *fakeStore) GetOrderByID(_ context.Context, id int64) (*models.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, &models.NotFoundError{Entity: "order", ID: id}
	}
	cp := *o
	return &cp, nil
}

func (f *fakeStore) GetOrderByIdempotencyKey(_ context.Context, key string) (*models.Order, error) {
	for _, o := range f.orders {
		if o.IdempotencyKey == key {
			cp := *o
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) TransitionOrderStatus(_ context.Context, orderID int64, from, to, trackingNumber, notes string) (bool, error) {
	o, ok := f.orders[orderID]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	if trackingNumber != "" {
		o.TrackingNumber = trackingNumber
	}
	if notes != "" {
		o.Notes = notes
	}
	return true, nil
}

func (f *fakeStore) UpdatePaymentStatus(_ context.Context, orderID int64, paymentStatus string) error {
	o, ok := f.orders[orderID]
	if !ok {
		return &models.NotFoundError{Entity: "order", ID: orderID}
	}
	o.PaymentStatus = paymentStatus
	return nil
}

func (f *fakeStore) GetOrdersByUserID(_ context.Context, userID int64) ([]models.Order, error) {
	var out []models.Order
	for _, o := range f.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (f *fakeStore) ListOrders(_ context.Context, status string, limit, offset int) ([]models.Order, error) {
	var out []models.Order
	for _, o := range f.orders {
		if status != "" && o.Status != status {
			continue
		}
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) GetOrderItemsByOrderID(_ context.Context, orderID int64) ([]models.OrderItem, error) {
	return append([]models.OrderItem(nil), f.items[orderID]...), nil
}

func (f *fakeStore) UpsertRating(_ context.Context, rating *models.ProductRating) (*models.Product, error) {
	p, ok := f.products[rating.ProductID]
	if !ok {
		return nil, &models.NotFoundError{Entity: "product", ID: rating.ProductID}
	}

	list := f.ratings[rating.ProductID]
	replaced := false
	for i := range list {
		if list[i].UserID == rating.UserID {
			list[i].Rating = rating.Rating
			list[i].Review = rating.Review
			rating.ID = list[i].ID
			replaced = true
			break
		}
	}
	if !replaced {
		f.nextRatingID++
		rating.ID = f.nextRatingID
		list = append(list, *rating)
	}
	f.ratings[rating.ProductID] = list

	p.AverageRating = models.AverageRating(list)
	p.RatingCount = len(list)
	cp := *p
	return &cp, nil
}

func (f *fakeStore) GetRatingsByProductID(_ context.Context, productID int64) ([]models.ProductRating, error) {
	return append([]models.ProductRating(nil), f.ratings[productID]...), nil
}

func (f *fakeStore) IsEventProcessed(_ context.Context, eventID string) (bool, error) {
	return f.processed[eventID], nil
}

func (f *fakeStore) MarkEventProcessed(_ context.Context, eventID, eventType string) error {
	f.processed[eventID] = true
	return nil
}

// fakeCache implements StockCache over a map.
type fakeCache struct {
	stock map[int64]int
}

func newFakeCache() *fakeCache {
	return &fakeCache{stock: make(map[int64]int)}
}

func (f *fakeCache) GetStock(_ context.Context, productID int64) (int, error) {
	v, ok := f.stock[productID]
	if !ok {
		return 0, redisclient.ErrNotCached
	}
	return v, nil
}

func (f *fakeCache) SetStock(_ context.Context, productID int64, stock int) error {
	f.stock[productID] = stock
	return nil
}

func (f *fakeCache) DecrementStock(_ context.Context, productID int64, quantity int) (bool, error) {
	v, ok := f.stock[productID]
	if !ok {
		return false, redisclient.ErrNotCached
	}
	if v < quantity {
		return false, nil
	}
	f.stock[productID] = v - quantity
	return true, nil
}

func (f *fakeCache) IncrementStock(_ context.Context, productID int64, quantity int) error {
	if _, ok := f.stock[productID]; !ok {
		return redisclient.ErrNotCached
	}
	f.stock[productID] += quantity
	return nil
}

// fakePublisher records published event types.
type fakePublisher struct {
	events []string
}

func (f *fakePublisher) PublishOrderPlaced(_ context.Context, e *models.OrderPlacedEvent) error {
	f.events = append(f.events, e.EventType)
	return nil
}

func (f *fakePublisher) PublishOrderStatusChanged(_ context.Context, e *models.OrderStatusChangedEvent) error {
	f.events = append(f.events, e.EventType)
	return nil
}

func (f *fakePublisher) PublishOrderCancelled(_ context.Context, e *models.OrderCancelledEvent) error {
	f.events = append(f.events, e.EventType)
	return nil
}

func (f *fakePublisher) PublishPaymentStatusChanged(_ context.Context, e *models.PaymentStatusChangedEvent) error {
	f.events = append(f.events, e.EventType)
	return nil
}

func (f *fakePublisher) PublishProductRated(_ context.Context, e *models.ProductRatedEvent) error {
	f.events = append(f.events, e.EventType)
	return nil
}

func (f *fakePublisher) count(eventType string) int {
	n := 0
	for _, e := range f.events {
		if e == eventType {
			n++
		}
	}
	return n
}
