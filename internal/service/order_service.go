package service

import (
	"context"
	"time"

	"storefront/internal/models"
	"storefront/internal/redisclient"
	"storefront/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderService handles the order lifecycle: placement, status transitions
// and payment status.
type OrderService struct {
	store       Store
	cache       StockCache
	publisher   Publisher
	logger      *zap.Logger
	shippingFee int64
}

// NewOrderService creates a new order service
func NewOrderService(store Store, cache StockCache, publisher Publisher, shippingFee int64) *OrderService {
	return &OrderService{
		store:       store,
		cache:       cache,
		publisher:   publisher,
		logger:      util.GetLogger(),
		shippingFee: shippingFee,
	}
}

// PlaceOrderRequest represents a request to place an order
type PlaceOrderRequest struct {
	Items          []OrderItemRequest `json:"items" binding:"required,min=1"`
	AddressLine    string             `json:"address_line" binding:"required"`
	City           string             `json:"city" binding:"required"`
	PostalCode     string             `json:"postal_code" binding:"required"`
	Country        string             `json:"country" binding:"required"`
	PaymentMethod  string             `json:"payment_method" binding:"required"`
	IdempotencyKey string             `json:"idempotency_key,omitempty"`
}

// OrderItemRequest represents one requested line
type OrderItemRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
	Quantity  int   `json:"quantity" binding:"required,min=1"`
}

// TransitionRequest represents a status transition request
type TransitionRequest struct {
	Status         string `json:"status" binding:"required"`
	TrackingNumber string `json:"tracking_number,omitempty"`
	Notes          string `json:"notes,omitempty"`
}

func validatePlaceOrder(req *PlaceOrderRequest) error {
	var violations []models.FieldViolation
	if len(req.Items) == 0 {
		violations = append(violations, models.FieldViolation{Field: "items", Message: "must not be empty"})
	}
	for _, item := range req.Items {
		if item.ProductID <= 0 {
			violations = append(violations, models.FieldViolation{Field: "items.product_id", Message: "must be a positive id"})
		}
		if item.Quantity < 1 {
			violations = append(violations, models.FieldViolation{Field: "items.quantity", Message: "must be at least 1"})
		}
	}
	if req.AddressLine == "" {
		violations = append(violations, models.FieldViolation{Field: "address_line", Message: "required"})
	}
	if req.City == "" {
		violations = append(violations, models.FieldViolation{Field: "city", Message: "required"})
	}
	if req.PostalCode == "" {
		violations = append(violations, models.FieldViolation{Field: "postal_code", Message: "required"})
	}
	if req.Country == "" {
		violations = append(violations, models.FieldViolation{Field: "country", Message: "required"})
	}
	if !models.ValidPaymentMethod(req.PaymentMethod) {
		violations = append(violations, models.FieldViolation{Field: "payment_method", Message: "unknown payment method"})
	}
	if len(violations) > 0 {
		return &models.ValidationError{Violations: violations}
	}
	return nil
}

// PlaceOrder validates every requested line against the catalog, snapshots
// unit prices, and commits the order together with all stock decrements as
// one atomic unit. On any failure no stock mutation survives and no order
// is created.
func (s *OrderService) PlaceOrder(ctx context.Context, userID int64, req *PlaceOrderRequest) (*models.Order, []models.OrderItem, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.PlaceOrder")
	defer span.End()

	start := time.Now()
	defer func() {
		util.OrderPlacementLatency.Observe(time.Since(start).Seconds())
	}()

	if err := validatePlaceOrder(req); err != nil {
		util.OrdersFailedTotal.WithLabelValues("validation").Inc()
		return nil, nil, err
	}

	if req.IdempotencyKey != "" {
		existing, err := s.store.GetOrderByIdempotencyKey(ctx, req.IdempotencyKey)
		if err != nil {
			return nil, nil, err
		}
		if existing != nil {
			s.logger.Info("Duplicate order request detected",
				zap.String("idempotency_key", req.IdempotencyKey),
				zap.Int64("order_id", existing.ID))
			items, err := s.store.GetOrderItemsByOrderID(ctx, existing.ID)
			if err != nil {
				return nil, nil, err
			}
			return existing, items, nil
		}
	} else {
		req.IdempotencyKey = uuid.New().String()
	}

	products, err := s.resolveProducts(ctx, req.Items)
	if err != nil {
		util.OrdersFailedTotal.WithLabelValues("invalid_items").Inc()
		return nil, nil, err
	}

	// Validate every line before touching any stock. The store's
	// conditional decrements re-check inside the transaction, so a
	// concurrent placement can still only fail the whole order, never
	// leave it half-applied.
	items := make([]models.OrderItem, 0, len(req.Items))
	for _, line := range req.Items {
		product := products[line.ProductID]
		if line.Quantity > product.Stock {
			util.OrdersFailedTotal.WithLabelValues("insufficient_stock").Inc()
			return nil, nil, &models.InsufficientStockError{
				ProductID: product.ID,
				Requested: line.Quantity,
				Available: product.Stock,
			}
		}
		items = append(items, models.OrderItem{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: product.Price,
		})
	}

	order := &models.Order{
		UserID:         userID,
		TotalAmount:    models.OrderTotal(items, s.shippingFee),
		ShippingFee:    s.shippingFee,
		Status:         models.OrderStatusPending,
		PaymentMethod:  req.PaymentMethod,
		PaymentStatus:  models.PaymentStatusPending,
		AddressLine:    req.AddressLine,
		City:           req.City,
		PostalCode:     req.PostalCode,
		Country:        req.Country,
		IdempotencyKey: req.IdempotencyKey,
	}

	if err := s.store.PlaceOrder(ctx, order, items); err != nil {
		util.OrdersFailedTotal.WithLabelValues("commit").Inc()
		return nil, nil, err
	}

	util.OrdersPlacedTotal.Inc()
	s.logger.Info("Order placed",
		zap.Int64("order_id", order.ID),
		zap.Int64("user_id", userID),
		zap.Int64("total_amount", order.TotalAmount))

	s.updateCacheAfterPlacement(ctx, items)

	event := &models.OrderPlacedEvent{
		BaseEvent:   newBaseEvent(models.EventTypeOrderPlaced),
		OrderID:     order.ID,
		UserID:      order.UserID,
		TotalAmount: order.TotalAmount,
		Items:       toItemData(items),
	}
	if err := s.publisher.PublishOrderPlaced(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderPlaced event", zap.Error(err))
	}

	return order, items, nil
}

// resolveProducts loads all requested products and requires each to exist
// and be active. The first unresolvable line, in input order, fails the
// request.
func (s *OrderService) resolveProducts(ctx context.Context, items []OrderItemRequest) (map[int64]*models.Product, error) {
	ids := make([]int64, len(items))
	for i, item := range items {
		ids[i] = item.ProductID
	}

	products, err := s.store.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]*models.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	for _, item := range items {
		product, ok := byID[item.ProductID]
		if !ok || !product.Active {
			return nil, &models.NotFoundError{Entity: "product", ID: item.ProductID}
		}
	}

	return byID, nil
}

// updateCacheAfterPlacement mirrors committed decrements into the stock
// cache, best effort.
func (s *OrderService) updateCacheAfterPlacement(ctx context.Context, items []models.OrderItem) {
	for _, item := range items {
		if _, err := s.cache.DecrementStock(ctx, item.ProductID, item.Quantity); err != nil && err != redisclient.ErrNotCached {
			s.logger.Warn("Failed to update stock cache",
				zap.Int64("product_id", item.ProductID),
				zap.Error(err))
		}
	}
}

// TransitionStatus applies a role-gated status transition. The prior status
// is captured before mutation; restock fires exactly when the order moves
// into cancelled from a non-cancelled state.
func (s *OrderService) TransitionStatus(ctx context.Context, orderID int64, role string, req *TransitionRequest) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.TransitionStatus")
	defer span.End()

	if !models.ValidOrderStatus(req.Status) {
		util.TransitionsRejectedTotal.WithLabelValues("invalid_status").Inc()
		return nil, &models.ValidationError{Violations: []models.FieldViolation{
			{Field: "status", Message: "unknown order status"},
		}}
	}

	if !models.RoleMaySetStatus(role, req.Status) {
		util.TransitionsRejectedTotal.WithLabelValues("forbidden").Inc()
		return nil, &models.ForbiddenError{Role: role, Status: req.Status}
	}

	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	prior := order.Status

	// Cancelling an already-cancelled order is an idempotent no-op:
	// nothing is restocked twice.
	if prior == models.OrderStatusCancelled && req.Status == models.OrderStatusCancelled {
		return order, nil
	}

	if !models.TransitionAllowed(prior, req.Status) {
		util.TransitionsRejectedTotal.WithLabelValues("invalid_transition").Inc()
		return nil, &models.ValidationError{Violations: []models.FieldViolation{
			{Field: "status", Message: "invalid transition from " + prior + " to " + req.Status},
		}}
	}

	applied, err := s.store.TransitionOrderStatus(ctx, orderID, prior, req.Status, req.TrackingNumber, req.Notes)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, &models.ConflictError{Entity: "order", ID: orderID}
	}

	util.OrderStatusTransitionsTotal.WithLabelValues(req.Status).Inc()
	s.logger.Info("Order status changed",
		zap.Int64("order_id", orderID),
		zap.String("from", prior),
		zap.String("to", req.Status),
		zap.String("role", role))

	if req.Status == models.OrderStatusCancelled {
		s.restockOrder(ctx, orderID, role)
	}

	statusEvent := &models.OrderStatusChangedEvent{
		BaseEvent:  newBaseEvent(models.EventTypeOrderStatusChanged),
		OrderID:    orderID,
		FromStatus: prior,
		ToStatus:   req.Status,
		ActorRole:  role,
	}
	if err := s.publisher.PublishOrderStatusChanged(ctx, statusEvent); err != nil {
		s.logger.Error("Failed to publish OrderStatusChanged event", zap.Error(err))
	}

	order.Status = req.Status
	if req.TrackingNumber != "" {
		order.TrackingNumber = req.TrackingNumber
	}
	if req.Notes != "" {
		order.Notes = req.Notes
	}
	return order, nil
}

// restockOrder adds every line's quantity back to catalog stock. A missing
// product does not abort the cancellation; it is surfaced as a
// reconciliation warning and skipped.
func (s *OrderService) restockOrder(ctx context.Context, orderID int64, role string) {
	items, err := s.store.GetOrderItemsByOrderID(ctx, orderID)
	if err != nil {
		s.logger.Error("Failed to load items for restock",
			zap.Int64("order_id", orderID),
			zap.Error(err))
		return
	}

	restocked := make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		found, err := s.store.AddStock(ctx, item.ProductID, item.Quantity)
		if err != nil {
			s.logger.Error("Failed to restock product",
				zap.Int64("order_id", orderID),
				zap.Int64("product_id", item.ProductID),
				zap.Error(err))
			continue
		}
		if !found {
			util.RestockAnomaliesTotal.Inc()
			s.logger.Warn("Restock anomaly: product missing during cancellation",
				zap.Int64("order_id", orderID),
				zap.Int64("product_id", item.ProductID),
				zap.Int("quantity", item.Quantity))
			continue
		}

		util.StockRestockedTotal.Add(float64(item.Quantity))
		restocked = append(restocked, item)

		if err := s.cache.IncrementStock(ctx, item.ProductID, item.Quantity); err != nil && err != redisclient.ErrNotCached {
			s.logger.Warn("Failed to restock cache",
				zap.Int64("product_id", item.ProductID),
				zap.Error(err))
		}
	}

	util.OrdersCancelledTotal.Inc()

	event := &models.OrderCancelledEvent{
		BaseEvent:      newBaseEvent(models.EventTypeOrderCancelled),
		OrderID:        orderID,
		RestockedItems: toItemData(restocked),
		ActorRole:      role,
	}
	if err := s.publisher.PublishOrderCancelled(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderCancelled event", zap.Error(err))
	}
}

// UpdatePaymentStatus sets an order's payment status. Role gating (admin
// only) happens at the HTTP layer.
func (s *OrderService) UpdatePaymentStatus(ctx context.Context, orderID int64, paymentStatus string) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.UpdatePaymentStatus")
	defer span.End()

	if !models.ValidPaymentStatus(paymentStatus) {
		return nil, &models.ValidationError{Violations: []models.FieldViolation{
			{Field: "payment_status", Message: "unknown payment status"},
		}}
	}

	if err := s.store.UpdatePaymentStatus(ctx, orderID, paymentStatus); err != nil {
		return nil, err
	}

	s.logger.Info("Payment status updated",
		zap.Int64("order_id", orderID),
		zap.String("payment_status", paymentStatus))

	event := &models.PaymentStatusChangedEvent{
		BaseEvent:     newBaseEvent(models.EventTypePaymentStatusChanged),
		OrderID:       orderID,
		PaymentStatus: paymentStatus,
	}
	if err := s.publisher.PublishPaymentStatusChanged(ctx, event); err != nil {
		s.logger.Error("Failed to publish PaymentStatusChanged event", zap.Error(err))
	}

	return s.store.GetOrderByID(ctx, orderID)
}

// GetOrder retrieves an order and its items
func (s *OrderService) GetOrder(ctx context.Context, orderID int64) (*models.Order, []models.OrderItem, error) {
	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}

	items, err := s.store.GetOrderItemsByOrderID(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}

	return order, items, nil
}

// GetUserOrders retrieves all orders belonging to a user
func (s *OrderService) GetUserOrders(ctx context.Context, userID int64) ([]models.Order, error) {
	return s.store.GetOrdersByUserID(ctx, userID)
}

// ListOrders retrieves orders for staff views
func (s *OrderService) ListOrders(ctx context.Context, status string, limit, offset int) ([]models.Order, error) {
	if status != "" && !models.ValidOrderStatus(status) {
		return nil, &models.ValidationError{Violations: []models.FieldViolation{
			{Field: "status", Message: "unknown order status"},
		}}
	}
	return s.store.ListOrders(ctx, status, limit, offset)
}

func newBaseEvent(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now(),
	}
}

func toItemData(items []models.OrderItem) []models.OrderItemData {
	data := make([]models.OrderItemData, 0, len(items))
	for _, item := range items {
		data = append(data, models.OrderItemData{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	return data
}
