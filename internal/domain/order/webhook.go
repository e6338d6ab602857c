// internal/domain/order/webhook.go
package order

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/payment"
)

// HandlePaymentSucceeded settles the payment identified by (provider,
// transaction id). Redelivered events are no-ops: the payment row's
// compare-and-swap and the unique (provider, transaction_id) index make
// a second delivery find nothing left to do.
//
// When no payment row exists yet the order is built from the user's cart
// (the user id travels in the intent metadata) and settled in the same
// transaction.
func (s *Service) HandlePaymentSucceeded(ctx context.Context, provider payment.Provider, txnID string, intent *payment.WebhookIntent) error {
	var settled *Order

	err := s.withTransaction(func(tx *gorm.DB) error {
		var p Payment
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("provider = ? AND transaction_id = ?", provider, txnID).
			First(&p).Error
		switch {
		case err == nil:
			if p.Status != payment.StatusPending {
				// Already settled, failed or cancelled; nothing to do.
				return nil
			}
			if intent != nil && intent.Amount > 0 && intent.Amount != p.Amount {
				s.log.WithFields(logrus.Fields{
					"transaction_id":  txnID,
					"provider_amount": intent.Amount,
					"payment_amount":  p.Amount,
				}).Error("Webhook amount disagrees with recorded payment, refusing to settle")
				return ErrAmountMismatch
			}
			return s.settleExisting(tx, &p, &settled)
		case errors.Is(err, gorm.ErrRecordNotFound):
			return s.settleFromCart(tx, provider, txnID, intent, &settled)
		default:
			return fmt.Errorf("failed to look up payment: %w", err)
		}
	})
	if err != nil {
		if errors.Is(err, ErrAlreadySettled) {
			return nil
		}
		return err
	}

	if settled != nil {
		s.fireSideEffects(settled, EventOrderPaid, true)
	}
	return nil
}

// HandlePaymentFailed marks the payment FAILED and cancels its order
func (s *Service) HandlePaymentFailed(ctx context.Context, provider payment.Provider, txnID string) error {
	var cancelled *Order

	err := s.withTransaction(func(tx *gorm.DB) error {
		var p Payment
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("provider = ? AND transaction_id = ?", provider, txnID).
			First(&p).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPaymentNotFound
			}
			return fmt.Errorf("failed to look up payment: %w", err)
		}
		if p.Status != payment.StatusPending {
			return nil
		}

		if err := tx.Model(&p).Update("status", payment.StatusFailed).Error; err != nil {
			return fmt.Errorf("failed to mark payment failed: %w", err)
		}

		var o Order
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&o, p.OrderID).Error; err != nil {
			return fmt.Errorf("failed to load order: %w", err)
		}
		if !CanTransition(o.Status, StatusCancelled) {
			return nil
		}

		now := time.Now().UTC()
		err = tx.Model(&Order{}).Where("id = ?", o.ID).Updates(map[string]interface{}{
			"status":       StatusCancelled,
			"cancelled_at": now,
		}).Error
		if err != nil {
			return fmt.Errorf("failed to cancel order: %w", err)
		}

		o.Status = StatusCancelled
		o.CancelledAt = &now
		cancelled = &o
		return nil
	})
	if err != nil {
		return err
	}

	if cancelled != nil {
		s.fireSideEffects(cancelled, EventOrderCancelled, false)
	}
	return nil
}

// settleExisting settles a known PENDING payment and clears the cart it
// originated from.
func (s *Service) settleExisting(tx *gorm.DB, p *Payment, settled **Order) error {
	var o Order
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&o, p.OrderID).Error
	if err != nil {
		return fmt.Errorf("failed to load order: %w", err)
	}

	if err := s.settle(tx, &o, p.ID); err != nil {
		return err
	}
	if err := s.clearUserCart(tx, o.UserID); err != nil {
		return err
	}

	*settled = &o
	return nil
}

// settleFromCart builds an order from the user's current cart for a
// provider transaction that has no local payment row, then settles it.
// The unique (provider, transaction_id) index turns a concurrent
// duplicate delivery into a no-op.
func (s *Service) settleFromCart(tx *gorm.DB, provider payment.Provider, txnID string, intent *payment.WebhookIntent, settled **Order) error {
	if intent == nil {
		return ErrPaymentNotFound
	}
	userID, err := strconv.ParseUint(intent.Metadata["userId"], 10, 32)
	if err != nil {
		s.log.WithField("transaction_id", txnID).Warn("Webhook intent carries no usable userId")
		return ErrPaymentNotFound
	}

	lockedCart, err := s.cartService.CheckoutCart(tx, uint(userID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEmptyCart
		}
		return err
	}
	if len(lockedCart.Items) == 0 {
		return ErrEmptyCart
	}

	now := time.Now().UTC()
	lines := cart.Lines(lockedCart.Items)
	engine := s.cartService.Engine()

	var couponCode string
	var totals = engine.Price(lines, nil)
	if lockedCart.Coupon != nil {
		if err := lockedCart.Coupon.Validate(now, totals.Subtotal); err == nil {
			totals = engine.Price(lines, lockedCart.Coupon.ToSpec())
			couponCode = lockedCart.Coupon.Code
		}
	}

	if intent.Amount > 0 && intent.Amount != totals.Total {
		s.log.WithFields(logrus.Fields{
			"transaction_id":  txnID,
			"provider_amount": intent.Amount,
			"cart_total":      totals.Total,
		}).Error("Webhook amount disagrees with cart total, refusing to build order")
		return ErrAmountMismatch
	}

	o := &Order{
		OrderNumber:    orderNumberFromIntent(intent, now),
		UserID:         uint(userID),
		Email:          intent.Metadata["email"],
		Status:         StatusPending,
		SubtotalAmount: totals.Subtotal,
		TaxAmount:      totals.Tax,
		ShippingAmount: totals.Shipping,
		DiscountAmount: totals.Discount,
		TotalAmount:    totals.Total,
		Currency:       s.config.Store.Currency,
		CouponCode:     couponCode,
		Items:          snapshotItems(lockedCart.Items),
	}
	if err := tx.Create(o).Error; err != nil {
		return fmt.Errorf("failed to create order from webhook: %w", err)
	}

	p := &Payment{
		OrderID:       o.ID,
		Provider:      provider,
		TransactionID: txnID,
		Amount:        totals.Total,
		Currency:      s.config.Store.Currency,
		Status:        payment.StatusPending,
	}
	if err := tx.Create(p).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// A concurrent delivery won the unique index race.
			s.log.WithFields(logrus.Fields{
				"provider":       provider,
				"transaction_id": txnID,
			}).Info("Duplicate webhook delivery ignored")
			return ErrAlreadySettled
		}
		return fmt.Errorf("failed to create payment from webhook: %w", err)
	}

	if err := s.settle(tx, o, p.ID); err != nil {
		return err
	}
	if err := s.cartService.ClearCart(tx, lockedCart.ID); err != nil {
		return err
	}

	*settled = o
	return nil
}

func (s *Service) clearUserCart(tx *gorm.DB, userID uint) error {
	lockedCart, err := s.cartService.CheckoutCart(tx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	return s.cartService.ClearCart(tx, lockedCart.ID)
}

func orderNumberFromIntent(intent *payment.WebhookIntent, now time.Time) string {
	if number := intent.Metadata["orderNumber"]; number != "" {
		return number
	}
	return NewOrderNumber(now)
}
