package models

import "time"

// Product represents a product in the catalog. Price is in minor units
// (cents). AverageRating and RatingCount are derived from product_ratings
// and recomputed explicitly whenever a rating is written.
type Product struct {
	ID            int64     `db:"id" json:"id"`
	SKU           string    `db:"sku" json:"sku"`
	Name          string    `db:"name" json:"name"`
	Description   string    `db:"description" json:"description"`
	Category      string    `db:"category" json:"category"`
	ImageURL      string    `db:"image_url" json:"image_url"`
	Price         int64     `db:"price" json:"price"`
	Stock         int       `db:"stock" json:"stock"`
	Active        bool      `db:"active" json:"active"`
	AverageRating float64   `db:"average_rating" json:"average_rating"`
	RatingCount   int       `db:"rating_count" json:"rating_count"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// ProductRating is one user's rating of a product. A user has at most one
// rating per product; a resubmission replaces the existing row.
type ProductRating struct {
	ID        int64     `db:"id" json:"id"`
	ProductID int64     `db:"product_id" json:"product_id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	Rating    int       `db:"rating" json:"rating"`
	Review    string    `db:"review" json:"review,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Order represents a customer order.
type Order struct {
	ID             int64     `db:"id" json:"id"`
	UserID         int64     `db:"user_id" json:"user_id"`
	TotalAmount    int64     `db:"total_amount" json:"total_amount"`
	ShippingFee    int64     `db:"shipping_fee" json:"shipping_fee"`
	Status         string    `db:"status" json:"status"`
	PaymentMethod  string    `db:"payment_method" json:"payment_method"`
	PaymentStatus  string    `db:"payment_status" json:"payment_status"`
	TrackingNumber string    `db:"tracking_number" json:"tracking_number,omitempty"`
	Notes          string    `db:"notes" json:"notes,omitempty"`
	AddressLine    string    `db:"address_line" json:"address_line"`
	City           string    `db:"city" json:"city"`
	PostalCode     string    `db:"postal_code" json:"postal_code"`
	Country        string    `db:"country" json:"country"`
	IdempotencyKey string    `db:"idempotency_key" json:"idempotency_key,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// OrderItem is one line of an order. UnitPrice is the product's price at
// placement time, decoupled from later catalog price changes.
type OrderItem struct {
	ID        int64 `db:"id" json:"id"`
	OrderID   int64 `db:"order_id" json:"order_id"`
	ProductID int64 `db:"product_id" json:"product_id"`
	Quantity  int   `db:"quantity" json:"quantity"`
	UnitPrice int64 `db:"unit_price" json:"unit_price"`
}

// Order statuses
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// Payment statuses
const (
	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusFailed   = "failed"
	PaymentStatusRefunded = "refunded"
)

// Payment methods
const (
	PaymentMethodCard         = "card"
	PaymentMethodCOD          = "cod"
	PaymentMethodBankTransfer = "bank_transfer"
)

// Caller roles, supplied pre-validated by the upstream gateway.
const (
	RoleAdmin          = "admin"
	RoleStaff          = "staff"
	RoleStaffWarehouse = "staff_warehouse"
	RoleStaffShipping  = "staff_shipping"
	RoleCustomer       = "customer"
)

// statusRank orders the forward progression. Cancelled is not ranked; it is
// a terminal escape reachable from any non-terminal status.
var statusRank = map[string]int{
	OrderStatusPending:    0,
	OrderStatusProcessing: 1,
	OrderStatusShipped:    2,
	OrderStatusDelivered:  3,
}

// roleAllowedStatuses is the closed set of target statuses each role may
// set via the status-transition operation.
var roleAllowedStatuses = map[string]map[string]bool{
	RoleAdmin: {
		OrderStatusPending:    true,
		OrderStatusProcessing: true,
		OrderStatusShipped:    true,
		OrderStatusDelivered:  true,
		OrderStatusCancelled:  true,
	},
	RoleStaff: {
		OrderStatusPending:    true,
		OrderStatusProcessing: true,
		OrderStatusShipped:    true,
		OrderStatusDelivered:  true,
	},
	RoleStaffWarehouse: {
		OrderStatusProcessing: true,
	},
	RoleStaffShipping: {
		OrderStatusShipped:   true,
		OrderStatusDelivered: true,
	},
}

// ValidOrderStatus reports whether s is a known order status.
func ValidOrderStatus(s string) bool {
	if s == OrderStatusCancelled {
		return true
	}
	_, ok := statusRank[s]
	return ok
}

// ValidPaymentStatus reports whether s is a known payment status.
func ValidPaymentStatus(s string) bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

// ValidPaymentMethod reports whether m is a known payment method.
func ValidPaymentMethod(m string) bool {
	switch m {
	case PaymentMethodCard, PaymentMethodCOD, PaymentMethodBankTransfer:
		return true
	}
	return false
}

// TerminalStatus reports whether no transition may leave s.
func TerminalStatus(s string) bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// RoleMaySetStatus reports whether role is allowed to set target as an
// order status.
func RoleMaySetStatus(role, target string) bool {
	return roleAllowedStatuses[role][target]
}

// TransitionAllowed reports whether moving an order from one status to
// target respects the one-way progression: forward moves only, with
// cancellation as the single escape from any non-terminal status.
func TransitionAllowed(from, target string) bool {
	if TerminalStatus(from) {
		return false
	}
	if target == OrderStatusCancelled {
		return true
	}
	fromRank, ok := statusRank[from]
	if !ok {
		return false
	}
	targetRank, ok := statusRank[target]
	if !ok {
		return false
	}
	return targetRank > fromRank
}

// AverageRating returns the arithmetic mean of the rating values, 0 for an
// empty list.
func AverageRating(ratings []ProductRating) float64 {
	if len(ratings) == 0 {
		return 0
	}
	var sum int
	for _, r := range ratings {
		sum += r.Rating
	}
	return float64(sum) / float64(len(ratings))
}

// OrderTotal returns the order total in minor units: the sum of line
// subtotals plus the shipping fee.
func OrderTotal(items []OrderItem, shippingFee int64) int64 {
	var total int64
	for _, it := range items {
		total += it.UnitPrice * int64(it.Quantity)
	}
	return total + shippingFee
}

// ProcessedEvent for consumer idempotency
type ProcessedEvent struct {
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	ProcessedAt time.Time `db:"processed_at"`
}
