// internal/domain/order/service.go
package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/catalog"
	"github.com/your-org/storefront-backend/internal/domain/payment"
	"github.com/your-org/storefront-backend/internal/domain/pricing"
)

// Notifier sends customer-facing order notifications. Failures are
// logged, never propagated.
type Notifier interface {
	SendOrderConfirmation(o *Order) error
}

// Publisher emits order lifecycle events to the event stream
type Publisher interface {
	PublishOrderEvent(ctx context.Context, eventType string, o *Order) error
}

// Event types published on the order stream
const (
	EventOrderCreated   = "order.created"
	EventOrderPaid      = "order.paid"
	EventOrderCancelled = "order.cancelled"
	EventOrderFulfilled = "order.fulfilled"
)

// Service orchestrates order creation, settlement and fulfillment
type Service struct {
	db          *gorm.DB
	config      *config.Config
	cartService *cart.Service
	registry    *payment.Registry
	notifier    Notifier
	publisher   Publisher
	log         *logrus.Logger
}

// NewService creates a new order service. notifier and publisher may be
// nil when the corresponding side effect is disabled.
func NewService(db *gorm.DB, cfg *config.Config, cartService *cart.Service,
	registry *payment.Registry, notifier Notifier, publisher Publisher, log *logrus.Logger) *Service {
	return &Service{
		db:          db,
		config:      cfg,
		cartService: cartService,
		registry:    registry,
		notifier:    notifier,
		publisher:   publisher,
		log:         log,
	}
}

// CreateOrderRequest represents a checkout request
type CreateOrderRequest struct {
	PaymentMethod   payment.Provider `json:"payment_method" binding:"required"`
	ShippingAddress Address          `json:"shipping_address" binding:"required"`
	BillingAddress  *Address         `json:"billing_address"`
	CouponCode      string           `json:"coupon_code"`
	Notes           string           `json:"notes"`
}

// CreateOrderResponse is returned from checkout
type CreateOrderResponse struct {
	OrderID       uint             `json:"order_id"`
	OrderNumber   string           `json:"order_number"`
	Status        Status           `json:"status"`
	TotalAmount   int64            `json:"total_amount"`
	Currency      string           `json:"currency"`
	PaymentStatus payment.Status   `json:"payment_status"`
	Provider      payment.Provider `json:"provider"`
	ClientSecret  string           `json:"client_secret,omitempty"`
}

// CreateOrder turns the user's cart into an order.
//
// COD orders start NEW and settle immediately. Wallet providers create a
// provider payment up front and settle in the same transaction. Stripe
// orders stay PENDING with an unsettled payment until the webhook
// reports the outcome. Inventory is only decremented at settlement.
func (s *Service) CreateOrder(ctx context.Context, userID uint, email string, req *CreateOrderRequest) (*CreateOrderResponse, error) {
	if !req.PaymentMethod.IsValid() {
		return nil, payment.ErrUnsupportedProvider
	}

	if req.CouponCode != "" {
		if _, err := s.cartService.ApplyCoupon(userID, req.CouponCode); err != nil {
			return nil, err
		}
	}

	summary, err := s.cartService.GetSummary(userID)
	if err != nil {
		return nil, err
	}
	if len(summary.Items) == 0 {
		return nil, ErrEmptyCart
	}

	billing := req.ShippingAddress
	if req.BillingAddress != nil && !req.BillingAddress.IsZero() {
		billing = *req.BillingAddress
	}

	now := time.Now().UTC()
	orderNumber := NewOrderNumber(now)
	currency := s.config.Store.Currency

	// Provider payment happens before the transaction so a slow or
	// failing provider never holds row locks.
	var intent *payment.Intent
	if req.PaymentMethod == payment.ProviderCOD {
		intent = &payment.Intent{
			ID:       "cod_" + uuid.NewString(),
			Amount:   summary.Totals.Total,
			Currency: currency,
			Status:   payment.StatusPending,
		}
	} else {
		adapter, err := s.registry.Resolve(req.PaymentMethod)
		if err != nil {
			return nil, err
		}

		callCtx, cancel := context.WithTimeout(ctx, s.config.Payments.ProviderTimeout)
		defer cancel()
		intent, err = adapter.CreatePayment(callCtx, summary.Totals.Total, currency, map[string]string{
			"userId":      fmt.Sprintf("%d", userID),
			"orderNumber": orderNumber,
			"email":       email,
		})
		if err != nil {
			return nil, err
		}
	}

	var created *Order
	err = s.withTransaction(func(tx *gorm.DB) error {
		lockedCart, err := s.cartService.CheckoutCart(tx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEmptyCart
			}
			return err
		}
		if len(lockedCart.Items) == 0 {
			return ErrEmptyCart
		}

		// Re-price under the cart lock with current catalog prices.
		lines := cart.Lines(lockedCart.Items)
		engine := s.cartService.Engine()

		var spec *pricing.CouponSpec
		if lockedCart.Coupon != nil {
			subtotal := engine.Price(lines, nil).Subtotal
			if err := lockedCart.Coupon.Validate(now, subtotal); err != nil {
				return err
			}
			spec = lockedCart.Coupon.ToSpec()
		}
		totals := engine.Price(lines, spec)
		if totals.Clamped {
			s.log.WithField("order_number", orderNumber).Warn("Negative order total clamped to zero")
		}

		// The provider intent was created from the pre-lock summary. If
		// re-pricing under the lock disagrees, the customer would be
		// charged a stale amount; abort and void the intent instead.
		if req.PaymentMethod != payment.ProviderCOD && intent.Amount > 0 && totals.Total != intent.Amount {
			return ErrPriceChanged
		}

		status := StatusPending
		if req.PaymentMethod == payment.ProviderCOD {
			status = StatusNew
		}

		o := &Order{
			OrderNumber:     orderNumber,
			UserID:          userID,
			Email:           email,
			Status:          status,
			SubtotalAmount:  totals.Subtotal,
			TaxAmount:       totals.Tax,
			ShippingAmount:  totals.Shipping,
			DiscountAmount:  totals.Discount,
			TotalAmount:     totals.Total,
			ShippingAddress: req.ShippingAddress,
			BillingAddress:  billing,
			Currency:        currency,
			Notes:           req.Notes,
			CouponCode:      summary.CouponCode,
			Items:           snapshotItems(lockedCart.Items),
		}
		if err := tx.Create(o).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		pay := &Payment{
			OrderID:       o.ID,
			Provider:      req.PaymentMethod,
			TransactionID: intent.ID,
			Amount:        totals.Total,
			Currency:      currency,
			Status:        payment.StatusPending,
			RawResponse:   marshalIntent(intent),
		}
		if err := tx.Create(pay).Error; err != nil {
			return fmt.Errorf("failed to create payment: %w", err)
		}

		if req.PaymentMethod.IsSynchronous() {
			if err := s.settle(tx, o, pay.ID); err != nil {
				return err
			}
			if err := s.cartService.ClearCart(tx, lockedCart.ID); err != nil {
				return err
			}
		}

		created = o
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrPriceChanged) && req.PaymentMethod != payment.ProviderCOD {
			s.voidIntent(ctx, req.PaymentMethod, intent.ID)
		}
		return nil, err
	}

	eventType := EventOrderCreated
	if created.Status == StatusPaid {
		eventType = EventOrderPaid
	}
	s.fireSideEffects(created, eventType, true)

	resp := &CreateOrderResponse{
		OrderID:       created.ID,
		OrderNumber:   created.OrderNumber,
		Status:        created.Status,
		TotalAmount:   created.TotalAmount,
		Currency:      created.Currency,
		Provider:      req.PaymentMethod,
		PaymentStatus: paymentStatusFor(created.Status),
		ClientSecret:  intent.ClientSecret,
	}
	return resp, nil
}

// settle moves an order to PAID. The payment row update is a
// compare-and-swap on PENDING: a second settlement attempt for the same
// payment finds zero affected rows and stops, which makes the whole
// operation idempotent. Stock decrements are conditional so concurrent
// settlements can never oversell.
func (s *Service) settle(tx *gorm.DB, o *Order, paymentID uint) error {
	now := time.Now().UTC()

	res := tx.Model(&Payment{}).
		Where("id = ? AND status = ?", paymentID, payment.StatusPending).
		Updates(map[string]interface{}{
			"status":       payment.StatusCompleted,
			"processed_at": now,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to settle payment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrAlreadySettled
	}

	items := o.Items
	if len(items) == 0 {
		if err := tx.Where("order_id = ?", o.ID).Find(&items).Error; err != nil {
			return fmt.Errorf("failed to load order items: %w", err)
		}
	}

	for _, item := range items {
		res := tx.Model(&catalog.Product{}).
			Where("id = ? AND quantity >= ?", item.ProductID, item.Quantity).
			Update("quantity", gorm.Expr("quantity - ?", item.Quantity))
		if res.Error != nil {
			return fmt.Errorf("failed to decrement stock: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			var prod catalog.Product
			available := 0
			if err := tx.Select("quantity").First(&prod, item.ProductID).Error; err == nil {
				available = prod.Quantity
			}
			return &InventoryConflictError{ProductID: item.ProductID, Available: available}
		}
	}

	if !CanTransition(o.Status, StatusPaid) {
		return &InvalidTransitionError{From: o.Status, To: StatusPaid}
	}
	err := tx.Model(&Order{}).Where("id = ?", o.ID).Updates(map[string]interface{}{
		"status":  StatusPaid,
		"paid_at": now,
	}).Error
	if err != nil {
		return fmt.Errorf("failed to mark order paid: %w", err)
	}
	o.Status = StatusPaid
	o.PaidAt = &now

	if o.CouponCode != "" {
		err := tx.Model(&cart.Coupon{}).Where("code = ?", o.CouponCode).
			Update("used_count", gorm.Expr("used_count + 1")).Error
		if err != nil {
			return fmt.Errorf("failed to count coupon use: %w", err)
		}
	}

	return nil
}

// ErrAlreadySettled reports that the payment left PENDING before this
// settlement attempt; callers treat it as a successful no-op.
var ErrAlreadySettled = errors.New("payment already settled")

// GetOrder returns one of the user's orders with items and payments
func (s *Service) GetOrder(userID, orderID uint) (*Order, error) {
	var o Order
	err := s.db.Preload("Items").Preload("Payments").
		Where("id = ? AND user_id = ?", orderID, userID).First(&o).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to retrieve order: %w", err)
	}
	return &o, nil
}

// GetUserOrders returns the user's orders, newest first
func (s *Service) GetUserOrders(userID uint, page, limit int) ([]Order, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var total int64
	if err := s.db.Model(&Order{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	var orders []Order
	err := s.db.Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to retrieve orders: %w", err)
	}

	return orders, total, nil
}

// CancelOrder cancels one of the user's orders. Settled orders get their
// inventory restored; pending provider payments are marked cancelled.
func (s *Service) CancelOrder(ctx context.Context, userID, orderID uint) (*Order, error) {
	var cancelled *Order
	err := s.withTransaction(func(tx *gorm.DB) error {
		var o Order
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND user_id = ?", orderID, userID).First(&o).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}

		if !CanTransition(o.Status, StatusCancelled) {
			return &InvalidTransitionError{From: o.Status, To: StatusCancelled}
		}

		if o.IsPaid() {
			var items []OrderItem
			if err := tx.Where("order_id = ?", o.ID).Find(&items).Error; err != nil {
				return fmt.Errorf("failed to load order items: %w", err)
			}
			for _, item := range items {
				err := tx.Model(&catalog.Product{}).Where("id = ?", item.ProductID).
					Update("quantity", gorm.Expr("quantity + ?", item.Quantity)).Error
				if err != nil {
					return fmt.Errorf("failed to restore stock: %w", err)
				}
			}
		}

		now := time.Now().UTC()
		err = tx.Model(&Order{}).Where("id = ?", o.ID).Updates(map[string]interface{}{
			"status":       StatusCancelled,
			"cancelled_at": now,
		}).Error
		if err != nil {
			return fmt.Errorf("failed to cancel order: %w", err)
		}

		err = tx.Model(&Payment{}).
			Where("order_id = ? AND status = ?", o.ID, payment.StatusPending).
			Update("status", payment.StatusCancelled).Error
		if err != nil {
			return fmt.Errorf("failed to cancel payments: %w", err)
		}

		o.Status = StatusCancelled
		o.CancelledAt = &now
		cancelled = &o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cancelProviderPayments(ctx, cancelled)
	s.fireSideEffects(cancelled, EventOrderCancelled, false)
	return cancelled, nil
}

// MarkFulfilled transitions a paid order to FULFILLED after its shipment
// has been created.
func (s *Service) MarkFulfilled(userID, orderID uint) (*Order, error) {
	var fulfilled *Order
	err := s.withTransaction(func(tx *gorm.DB) error {
		var o Order
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND user_id = ?", orderID, userID).First(&o).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}

		if !CanTransition(o.Status, StatusFulfilled) {
			return &InvalidTransitionError{From: o.Status, To: StatusFulfilled}
		}

		now := time.Now().UTC()
		err = tx.Model(&Order{}).Where("id = ?", o.ID).Updates(map[string]interface{}{
			"status":       StatusFulfilled,
			"fulfilled_at": now,
		}).Error
		if err != nil {
			return fmt.Errorf("failed to mark order fulfilled: %w", err)
		}

		o.Status = StatusFulfilled
		o.FulfilledAt = &now
		fulfilled = &o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.fireSideEffects(fulfilled, EventOrderFulfilled, false)
	return fulfilled, nil
}

// withTransaction runs fn inside a transaction with a rollback-on-panic
// guard.
func (s *Service) withTransaction(fn func(tx *gorm.DB) error) error {
	tx := s.db.Begin()
	if tx.Error != nil {
		return fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit().Error
}

// voidIntent best-effort cancels a provider intent that will never be
// attached to an order.
func (s *Service) voidIntent(ctx context.Context, provider payment.Provider, intentID string) {
	adapter, err := s.registry.Resolve(provider)
	if err != nil {
		return
	}
	callCtx, cancel := context.WithTimeout(ctx, s.config.Payments.ProviderTimeout)
	defer cancel()
	if _, err := adapter.CancelPayment(callCtx, intentID); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"provider":  provider,
			"intent_id": intentID,
		}).Warn("Failed to void stale payment intent")
	}
}

// cancelProviderPayments asks the provider to void pending intents.
// Best effort: the local state is already CANCELLED.
func (s *Service) cancelProviderPayments(ctx context.Context, o *Order) {
	var payments []Payment
	if err := s.db.Where("order_id = ?", o.ID).Find(&payments).Error; err != nil {
		s.log.WithError(err).WithField("order_id", o.ID).Warn("Failed to load payments for provider cancel")
		return
	}

	for _, p := range payments {
		if p.Provider == payment.ProviderCOD || p.Status != payment.StatusCancelled {
			continue
		}
		adapter, err := s.registry.Resolve(p.Provider)
		if err != nil {
			continue
		}
		callCtx, cancel := context.WithTimeout(ctx, s.config.Payments.ProviderTimeout)
		if _, err := adapter.CancelPayment(callCtx, p.TransactionID); err != nil {
			s.log.WithError(err).WithFields(logrus.Fields{
				"order_id": o.ID,
				"provider": p.Provider,
			}).Warn("Provider payment cancel failed")
		}
		cancel()
	}
}

// fireSideEffects runs post-commit notifications asynchronously. Nothing
// here can fail the already-committed order operation.
func (s *Service) fireSideEffects(o *Order, eventType string, notify bool) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.log.WithField("order_number", o.OrderNumber).Errorf("Side effect panic: %v", r)
			}
		}()

		if notify && s.notifier != nil {
			if err := s.notifier.SendOrderConfirmation(o); err != nil {
				s.log.WithError(err).WithField("order_number", o.OrderNumber).
					Warn("Order confirmation email failed")
			}
		}

		if s.publisher != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := s.publisher.PublishOrderEvent(ctx, eventType, o); err != nil {
				s.log.WithError(err).WithFields(logrus.Fields{
					"order_number": o.OrderNumber,
					"event_type":   eventType,
				}).Warn("Order event publish failed")
			}
		}
	}()
}

func snapshotItems(items []cart.CartItem) []OrderItem {
	snapshot := make([]OrderItem, len(items))
	for i, item := range items {
		unitPrice := item.Price
		sku := ""
		name := ""
		weight := 0.0
		if item.Product != nil {
			unitPrice = item.Product.EffectivePrice(item.Variant)
			sku = item.Product.SKU
			name = item.Product.Name
			// Weight 0 means unknown; the carrier substitutes its default.
			weight = item.Product.EffectiveWeight(item.Variant, 0)
		}
		if item.Variant != nil {
			sku = item.Variant.SKU
		}
		snapshot[i] = OrderItem{
			ProductID:        item.ProductID,
			ProductVariantID: item.ProductVariantID,
			SKU:              sku,
			Name:             name,
			Quantity:         item.Quantity,
			Price:            unitPrice,
			TotalPrice:       unitPrice * int64(item.Quantity),
			Weight:           weight,
		}
	}
	return snapshot
}

func marshalIntent(intent *payment.Intent) string {
	data, err := json.Marshal(intent)
	if err != nil {
		return ""
	}
	return string(data)
}

func paymentStatusFor(status Status) payment.Status {
	if status == StatusPaid || status == StatusFulfilled {
		return payment.StatusCompleted
	}
	return payment.StatusPending
}
