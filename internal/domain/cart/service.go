// internal/domain/cart/service.go
package cart

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/catalog"
	"github.com/your-org/storefront-backend/internal/domain/pricing"
)

// Service handles cart business logic
type Service struct {
	db     *gorm.DB
	config *config.Config
	engine pricing.Engine
	log    *logrus.Logger
}

// NewService creates a new cart service
func NewService(db *gorm.DB, cfg *config.Config, log *logrus.Logger) *Service {
	return &Service{
		db:     db,
		config: cfg,
		engine: pricing.Engine{
			TaxRateBps:            cfg.Store.TaxRateBps,
			ShippingFlatRate:      cfg.Store.ShippingFlatRate,
			FreeShippingThreshold: cfg.Store.FreeShippingThreshold,
		},
		log: log,
	}
}

// Engine exposes the pricing engine shared with the order service
func (s *Service) Engine() pricing.Engine {
	return s.engine
}

// AddItemRequest represents an add-to-cart request
type AddItemRequest struct {
	ProductID        uint  `json:"product_id" binding:"required"`
	ProductVariantID *uint `json:"product_variant_id"`
	Quantity         int   `json:"quantity" binding:"required"`
}

// UpdateItemRequest represents a cart line update. Quantity 0 removes the line.
type UpdateItemRequest struct {
	Quantity int `json:"quantity" binding:"min=0"`
}

// AddItem adds a product to the user's cart, merging into an existing
// line for the same (product, variant) by incrementing its quantity.
func (s *Service) AddItem(userID uint, req *AddItemRequest) (*Summary, error) {
	if req.Quantity < 1 || req.Quantity > s.config.Store.MaxLineQuantity {
		return nil, &ValidationError{
			Field:   "quantity",
			Message: fmt.Sprintf("must be between 1 and %d", s.config.Store.MaxLineQuantity),
		}
	}

	prod, variant, err := s.resolveProduct(req.ProductID, req.ProductVariantID)
	if err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		c, err := s.lockOrCreateCart(tx, userID)
		if err != nil {
			return err
		}

		existing, err := s.findLine(tx, c.ID, req.ProductID, req.ProductVariantID)
		if err != nil {
			return err
		}

		newQuantity := req.Quantity
		if existing != nil {
			newQuantity += existing.Quantity
		}
		if newQuantity > s.config.Store.MaxLineQuantity {
			newQuantity = s.config.Store.MaxLineQuantity
		}
		if newQuantity > prod.Quantity {
			return &InsufficientInventoryError{ProductID: prod.ID, Available: prod.Quantity}
		}

		price := prod.EffectivePrice(variant)
		if existing != nil {
			return tx.Model(existing).Updates(map[string]interface{}{
				"quantity": newQuantity,
				"price":    price,
			}).Error
		}

		return tx.Create(&CartItem{
			CartID:           c.ID,
			ProductID:        req.ProductID,
			ProductVariantID: req.ProductVariantID,
			Quantity:         newQuantity,
			Price:            price,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	return s.refreshAndSummarize(userID)
}

// UpdateItem changes a cart line's quantity. The line must belong to the
// user's cart; quantity 0 removes it.
func (s *Service) UpdateItem(userID uint, itemID uint, req *UpdateItemRequest) (*Summary, error) {
	if req.Quantity < 0 || req.Quantity > s.config.Store.MaxLineQuantity {
		return nil, &ValidationError{
			Field:   "quantity",
			Message: fmt.Sprintf("must be between 0 and %d", s.config.Store.MaxLineQuantity),
		}
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		c, err := s.lockCart(tx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrItemNotFound
			}
			return err
		}

		var item CartItem
		if err := tx.Where("id = ? AND cart_id = ?", itemID, c.ID).First(&item).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrItemNotFound
			}
			return err
		}

		if req.Quantity == 0 {
			return tx.Delete(&item).Error
		}

		prod, variant, err := s.resolveProduct(item.ProductID, item.ProductVariantID)
		if err != nil {
			return err
		}
		if req.Quantity > prod.Quantity {
			return &InsufficientInventoryError{ProductID: prod.ID, Available: prod.Quantity}
		}

		return tx.Model(&item).Updates(map[string]interface{}{
			"quantity": req.Quantity,
			"price":    prod.EffectivePrice(variant),
		}).Error
	})
	if err != nil {
		return nil, err
	}

	return s.refreshAndSummarize(userID)
}

// RemoveItem deletes a cart line. Removing an absent line is a no-op.
func (s *Service) RemoveItem(userID uint, itemID uint) (*Summary, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		c, err := s.lockCart(tx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		return tx.Where("id = ? AND cart_id = ?", itemID, c.ID).Delete(&CartItem{}).Error
	})
	if err != nil {
		return nil, err
	}

	return s.refreshAndSummarize(userID)
}

// ApplyCoupon validates a coupon code against the cart's subtotal and
// attaches it, caching the computed discount on the cart.
func (s *Service) ApplyCoupon(userID uint, code string) (*Summary, error) {
	var coupon Coupon
	if err := s.db.Where("code = ?", NormalizeCode(code)).First(&coupon).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCouponNotFound
		}
		return nil, fmt.Errorf("failed to look up coupon: %w", err)
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		c, err := s.lockOrCreateCart(tx, userID)
		if err != nil {
			return err
		}

		lines, err := s.loadLines(tx, c.ID)
		if err != nil {
			return err
		}

		subtotal := s.engine.Price(lines, nil).Subtotal
		if err := coupon.Validate(time.Now().UTC(), subtotal); err != nil {
			return err
		}

		discount := s.engine.Price(lines, coupon.ToSpec()).Discount
		return tx.Model(c).Updates(map[string]interface{}{
			"coupon_id":       coupon.ID,
			"discount_amount": discount,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	return s.GetSummary(userID)
}

// RemoveCoupon detaches any coupon from the user's cart
func (s *Service) RemoveCoupon(userID uint) (*Summary, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		c, err := s.lockCart(tx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		return tx.Model(c).Updates(map[string]interface{}{
			"coupon_id":       nil,
			"discount_amount": 0,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	return s.GetSummary(userID)
}

// GetSummary returns the priced cart. A user without a cart gets an
// all-zero summary rather than an error.
func (s *Service) GetSummary(userID uint) (*Summary, error) {
	c, err := s.loadCart(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &Summary{UserID: userID, Items: []CartItem{}}, nil
		}
		return nil, fmt.Errorf("failed to retrieve cart: %w", err)
	}

	return s.summarize(c), nil
}

// CheckoutCart locks the user's cart inside the caller's transaction and
// returns it with items, current product rows and coupon preloaded.
func (s *Service) CheckoutCart(tx *gorm.DB, userID uint) (*Cart, error) {
	var c Cart
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).First(&c).Error
	if err != nil {
		return nil, err
	}

	err = tx.Preload("Product").Preload("Variant").
		Where("cart_id = ?", c.ID).Order("id").Find(&c.Items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load cart items: %w", err)
	}

	if c.CouponID != nil {
		var coupon Coupon
		if err := tx.First(&coupon, *c.CouponID).Error; err == nil {
			c.Coupon = &coupon
		}
	}

	return &c, nil
}

// ClearCart empties the cart and detaches its coupon inside the caller's
// transaction. Used by settlement after a successful payment.
func (s *Service) ClearCart(tx *gorm.DB, cartID uint) error {
	if err := tx.Where("cart_id = ?", cartID).Delete(&CartItem{}).Error; err != nil {
		return fmt.Errorf("failed to clear cart items: %w", err)
	}
	return tx.Model(&Cart{}).Where("id = ?", cartID).Updates(map[string]interface{}{
		"coupon_id":       nil,
		"discount_amount": 0,
	}).Error
}

// Lines converts cart items to pricing line items, preferring the current
// catalog price over the stored snapshot when the product is loaded.
func Lines(items []CartItem) []pricing.LineItem {
	lines := make([]pricing.LineItem, len(items))
	for i, item := range items {
		unitPrice := item.Price
		if item.Product != nil {
			unitPrice = item.Product.EffectivePrice(item.Variant)
		}
		lines[i] = pricing.LineItem{
			ProductID: item.ProductID,
			VariantID: item.ProductVariantID,
			Quantity:  item.Quantity,
			UnitPrice: unitPrice,
		}
	}
	return lines
}

// summarize prices the cart. With a coupon attached the cached
// DiscountAmount is used as-is so concurrent reads during checkout see
// one stable discount; the cache is refreshed only by cart mutations.
func (s *Service) summarize(c *Cart) *Summary {
	lines := Lines(c.Items)

	var totals pricing.Result
	var code string
	if c.Coupon != nil {
		code = c.Coupon.Code
		totals = s.engine.PriceWithDiscount(lines, c.DiscountAmount)
	} else {
		totals = s.engine.Price(lines, nil)
	}

	summary := &Summary{
		CartID:     c.ID,
		UserID:     c.UserID,
		Items:      c.Items,
		CouponCode: code,
		Totals:     totals,
		UpdatedAt:  c.UpdatedAt,
	}
	if summary.Items == nil {
		summary.Items = []CartItem{}
	}
	return summary
}

// refreshAndSummarize recomputes the cached coupon discount after a cart
// mutation, persists it, then returns the summary priced from the new
// cache.
func (s *Service) refreshAndSummarize(userID uint) (*Summary, error) {
	c, err := s.loadCart(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &Summary{UserID: userID, Items: []CartItem{}}, nil
		}
		return nil, fmt.Errorf("failed to retrieve cart: %w", err)
	}

	if c.Coupon != nil {
		discount := s.engine.Price(Lines(c.Items), c.Coupon.ToSpec()).Discount
		if discount != c.DiscountAmount {
			err = s.db.Model(&Cart{}).Where("id = ?", c.ID).
				Update("discount_amount", discount).Error
			if err != nil {
				s.log.WithError(err).WithField("cart_id", c.ID).
					Warn("Failed to refresh cached coupon discount")
			} else {
				c.DiscountAmount = discount
			}
		}
	}

	return s.summarize(c), nil
}

func (s *Service) loadCart(userID uint) (*Cart, error) {
	var c Cart
	err := s.db.Preload("Items").Preload("Items.Product").Preload("Items.Variant").
		Preload("Coupon").Where("user_id = ?", userID).First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Service) resolveProduct(productID uint, variantID *uint) (*catalog.Product, *catalog.ProductVariant, error) {
	var prod catalog.Product
	err := s.db.Where("id = ? AND is_active = ?", productID, true).First(&prod).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrProductNotFound
		}
		return nil, nil, fmt.Errorf("failed to load product: %w", err)
	}

	var variant *catalog.ProductVariant
	if variantID != nil {
		var v catalog.ProductVariant
		err := s.db.Where("id = ? AND product_id = ? AND is_active = ?", *variantID, productID, true).
			First(&v).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil, ErrProductNotFound
			}
			return nil, nil, fmt.Errorf("failed to load product variant: %w", err)
		}
		variant = &v
	}

	return &prod, variant, nil
}

// lockCart takes a row lock on the user's cart so concurrent mutations of
// the same cart serialize.
func (s *Service) lockCart(tx *gorm.DB, userID uint) (*Cart, error) {
	var c Cart
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Service) lockOrCreateCart(tx *gorm.DB, userID uint) (*Cart, error) {
	c, err := s.lockCart(tx, userID)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	created := &Cart{UserID: userID}
	if err := tx.Create(created).Error; err != nil {
		// Lost a create race on the unique user_id index, lock the winner.
		c, lockErr := s.lockCart(tx, userID)
		if lockErr != nil {
			return nil, fmt.Errorf("failed to create cart: %w", err)
		}
		return c, nil
	}
	return created, nil
}

func (s *Service) findLine(tx *gorm.DB, cartID, productID uint, variantID *uint) (*CartItem, error) {
	query := tx.Where("cart_id = ? AND product_id = ?", cartID, productID)
	if variantID != nil {
		query = query.Where("product_variant_id = ?", *variantID)
	} else {
		query = query.Where("product_variant_id IS NULL")
	}

	var item CartItem
	if err := query.First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (s *Service) loadLines(tx *gorm.DB, cartID uint) ([]pricing.LineItem, error) {
	var items []CartItem
	err := tx.Preload("Product").Preload("Variant").
		Where("cart_id = ?", cartID).Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load cart items: %w", err)
	}
	return Lines(items), nil
}
