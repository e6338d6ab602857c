// internal/domain/cart/errors.go
package cart

import (
	"errors"
	"fmt"
)

var (
	// ErrItemNotFound is returned when a cart line does not exist or
	// belongs to another user.
	ErrItemNotFound = errors.New("cart item not found")

	// ErrProductNotFound is returned when the product is missing or inactive
	ErrProductNotFound = errors.New("product not found or inactive")

	// Coupon eligibility errors, checked in order
	ErrCouponNotFound   = errors.New("coupon not found")
	ErrCouponInactive   = errors.New("coupon is not active")
	ErrCouponExpired    = errors.New("coupon has expired")
	ErrCouponUsageLimit = errors.New("coupon usage limit reached")
)

// ValidationError reports a rejected request field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// InsufficientInventoryError reports how much stock remains
type InsufficientInventoryError struct {
	ProductID uint
	Available int
}

func (e *InsufficientInventoryError) Error() string {
	return fmt.Sprintf("insufficient inventory for product %d: only %d left", e.ProductID, e.Available)
}

// MinimumOrderError reports the subtotal a coupon requires
type MinimumOrderError struct {
	Required int64
	Subtotal int64
}

func (e *MinimumOrderError) Error() string {
	return fmt.Sprintf("minimum order amount of %d required, cart subtotal is %d", e.Required, e.Subtotal)
}
