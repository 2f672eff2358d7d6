package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAverageRating(t *testing.T) {
	assert.Equal(t, 0.0, AverageRating(nil))
	assert.Equal(t, 0.0, AverageRating([]ProductRating{}))

	assert.Equal(t, 4.0, AverageRating([]ProductRating{
		{Rating: 3},
		{Rating: 5},
	}))

	assert.InDelta(t, 3.6666, AverageRating([]ProductRating{
		{Rating: 3},
		{Rating: 4},
		{Rating: 4},
	}), 0.001)
}

func TestOrderTotal(t *testing.T) {
	items := []OrderItem{
		{Quantity: 3, UnitPrice: 1000},
		{Quantity: 1, UnitPrice: 250},
	}

	assert.Equal(t, int64(3*1000+250+500), OrderTotal(items, 500))
	assert.Equal(t, int64(500), OrderTotal(nil, 500))
}

func TestTransitionAllowed(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{OrderStatusPending, OrderStatusProcessing, true},
		{OrderStatusPending, OrderStatusShipped, true},
		{OrderStatusProcessing, OrderStatusShipped, true},
		{OrderStatusShipped, OrderStatusDelivered, true},
		{OrderStatusPending, OrderStatusCancelled, true},
		{OrderStatusProcessing, OrderStatusCancelled, true},
		{OrderStatusShipped, OrderStatusCancelled, true},

		// backward or same moves
		{OrderStatusProcessing, OrderStatusPending, false},
		{OrderStatusShipped, OrderStatusProcessing, false},
		{OrderStatusPending, OrderStatusPending, false},

		// nothing leaves a terminal status
		{OrderStatusDelivered, OrderStatusCancelled, false},
		{OrderStatusDelivered, OrderStatusShipped, false},
		{OrderStatusCancelled, OrderStatusPending, false},
		{OrderStatusCancelled, OrderStatusCancelled, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, TransitionAllowed(tt.from, tt.to),
			"from=%s to=%s", tt.from, tt.to)
	}
}

func TestRoleAllowListComplete(t *testing.T) {
	allowed := map[string]map[string]bool{
		RoleAdmin: {
			OrderStatusPending: true, OrderStatusProcessing: true,
			OrderStatusShipped: true, OrderStatusDelivered: true,
			OrderStatusCancelled: true,
		},
		RoleStaff: {
			OrderStatusPending: true, OrderStatusProcessing: true,
			OrderStatusShipped: true, OrderStatusDelivered: true,
		},
		RoleStaffWarehouse: {OrderStatusProcessing: true},
		RoleStaffShipping:  {OrderStatusShipped: true, OrderStatusDelivered: true},
		RoleCustomer:       {},
	}

	statuses := []string{
		OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled,
	}

	for role, targets := range allowed {
		for _, status := range statuses {
			assert.Equal(t, targets[status], RoleMaySetStatus(role, status),
				"role=%s status=%s", role, status)
		}
	}
}

func TestTerminalStatus(t *testing.T) {
	assert.True(t, TerminalStatus(OrderStatusDelivered))
	assert.True(t, TerminalStatus(OrderStatusCancelled))
	assert.False(t, TerminalStatus(OrderStatusPending))
	assert.False(t, TerminalStatus(OrderStatusProcessing))
	assert.False(t, TerminalStatus(OrderStatusShipped))
}

func TestValidators(t *testing.T) {
	assert.True(t, ValidOrderStatus(OrderStatusCancelled))
	assert.False(t, ValidOrderStatus("on_hold"))

	assert.True(t, ValidPaymentStatus(PaymentStatusRefunded))
	assert.False(t, ValidPaymentStatus("declined"))

	assert.True(t, ValidPaymentMethod(PaymentMethodCOD))
	assert.False(t, ValidPaymentMethod("crypto"))
}
