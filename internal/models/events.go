package models

import "time"

// Event types
const (
	EventTypeOrderPlaced          = "ORDER_PLACED"
	EventTypeOrderStatusChanged   = "ORDER_STATUS_CHANGED"
	EventTypeOrderCancelled       = "ORDER_CANCELLED"
	EventTypePaymentStatusChanged = "PAYMENT_STATUS_CHANGED"
	EventTypeProductRated         = "PRODUCT_RATED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderPlacedEvent published when an order is placed and stock committed
type OrderPlacedEvent struct {
	BaseEvent
	OrderID     int64           `json:"order_id"`
	UserID      int64           `json:"user_id"`
	TotalAmount int64           `json:"total_amount"`
	Items       []OrderItemData `json:"items"`
}

// OrderStatusChangedEvent published on every status transition
type OrderStatusChangedEvent struct {
	BaseEvent
	OrderID    int64  `json:"order_id"`
	FromStatus string `json:"from_status"`
	ToStatus   string `json:"to_status"`
	ActorRole  string `json:"actor_role"`
}

// OrderCancelledEvent published when a cancellation restocks line items
type OrderCancelledEvent struct {
	BaseEvent
	OrderID        int64           `json:"order_id"`
	RestockedItems []OrderItemData `json:"restocked_items"`
	ActorRole      string          `json:"actor_role"`
}

// PaymentStatusChangedEvent published when payment status is updated
type PaymentStatusChangedEvent struct {
	BaseEvent
	OrderID       int64  `json:"order_id"`
	PaymentStatus string `json:"payment_status"`
}

// ProductRatedEvent published when a rating is upserted
type ProductRatedEvent struct {
	BaseEvent
	ProductID     int64   `json:"product_id"`
	UserID        int64   `json:"user_id"`
	Rating        int     `json:"rating"`
	AverageRating float64 `json:"average_rating"`
}

// OrderItemData represents item data in events
type OrderItemData struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
	UnitPrice int64 `json:"unit_price"`
}
