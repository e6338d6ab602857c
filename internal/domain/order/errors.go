// internal/domain/order/errors.go
package order

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyCart is returned when checkout starts with no cart items
	ErrEmptyCart = errors.New("your cart is empty")

	// ErrOrderNotFound is returned when an order does not exist or
	// belongs to another user.
	ErrOrderNotFound = errors.New("order not found")

	// ErrPaymentNotFound is returned when a webhook references an
	// unknown provider transaction.
	ErrPaymentNotFound = errors.New("payment not found")

	// ErrOrderNotPaid is returned when an invoice is requested for an
	// unsettled order.
	ErrOrderNotPaid = errors.New("order is not paid")

	// ErrPriceChanged is returned when the cart re-priced under the
	// checkout lock no longer matches the amount the provider intent
	// was created for. The checkout must be retried.
	ErrPriceChanged = errors.New("cart total changed during checkout, please retry")

	// ErrAmountMismatch is returned when a provider reports a settled
	// amount that differs from the payment we recorded. Never settled
	// automatically; needs a human.
	ErrAmountMismatch = errors.New("provider amount does not match recorded payment")
)

// InvalidTransitionError reports a rejected status change
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid order status transition from %s to %s", e.From, e.To)
}

// InventoryConflictError reports a failed conditional stock decrement
type InventoryConflictError struct {
	ProductID uint
	Available int
}

func (e *InventoryConflictError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: only %d left", e.ProductID, e.Available)
}
