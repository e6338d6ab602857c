// Package pricing computes cart and order totals. The engine is pure:
// integer arithmetic on minor units, no I/O, no float money.
package pricing

// CouponType enumerates the supported discount types
type CouponType string

const (
	CouponTypePercentage CouponType = "PERCENTAGE"
	CouponTypeFixed      CouponType = "FIXED"
)

// LineItem is one priced cart line
type LineItem struct {
	ProductID uint
	VariantID *uint
	Quantity  int
	UnitPrice int64 // minor units
}

// CouponSpec carries the discount parameters relevant to pricing
type CouponSpec struct {
	Code        string
	Type        CouponType
	Value       int64 // percent for PERCENTAGE, minor units for FIXED
	MaxDiscount int64 // cap for PERCENTAGE, 0 = uncapped
}

// Result is a fully priced summary, all amounts in minor units.
// Clamped reports that the raw total came out negative and was raised
// to zero; callers treat it as a data-integrity signal worth logging.
type Result struct {
	Subtotal  int64 `json:"subtotal"`
	Discount  int64 `json:"discount"`
	Tax       int64 `json:"tax"`
	Shipping  int64 `json:"shipping"`
	Total     int64 `json:"total"`
	ItemCount int   `json:"item_count"`
	Clamped   bool  `json:"-"`
}

// Engine prices carts. All fields are minor units except TaxRateBps,
// which is basis points (1000 = 10%).
type Engine struct {
	TaxRateBps            int64
	ShippingFlatRate      int64
	FreeShippingThreshold int64
}

// Price computes the totals for the given lines and optional coupon.
// Tax applies to the discounted subtotal and rounds half-up. Shipping is
// free once the subtotal reaches the threshold. Total never goes below zero.
func (e Engine) Price(items []LineItem, coupon *CouponSpec) Result {
	result := e.sum(items)
	result.Discount = e.discount(result.Subtotal, coupon)
	return e.finish(result)
}

// PriceWithDiscount computes the totals with an already-decided discount
// amount instead of deriving one from a coupon. Used when a cart carries
// a cached discount that must stay stable across reads.
func (e Engine) PriceWithDiscount(items []LineItem, discount int64) Result {
	result := e.sum(items)

	if discount < 0 {
		discount = 0
	}
	if discount > result.Subtotal {
		discount = result.Subtotal
	}
	result.Discount = discount

	return e.finish(result)
}

func (e Engine) sum(items []LineItem) Result {
	var result Result
	for _, item := range items {
		result.Subtotal += item.UnitPrice * int64(item.Quantity)
		result.ItemCount += item.Quantity
	}
	return result
}

func (e Engine) finish(result Result) Result {
	taxable := result.Subtotal - result.Discount
	result.Tax = (taxable*e.TaxRateBps + 5000) / 10000

	if result.Subtotal < e.FreeShippingThreshold {
		result.Shipping = e.ShippingFlatRate
	}

	result.Total = result.Subtotal + result.Tax + result.Shipping - result.Discount
	if result.Total < 0 {
		result.Total = 0
		result.Clamped = true
	}

	return result
}

func (e Engine) discount(subtotal int64, coupon *CouponSpec) int64 {
	if coupon == nil || subtotal <= 0 {
		return 0
	}

	var discount int64
	switch coupon.Type {
	case CouponTypePercentage:
		discount = subtotal * coupon.Value / 100
		if coupon.MaxDiscount > 0 && discount > coupon.MaxDiscount {
			discount = coupon.MaxDiscount
		}
	case CouponTypeFixed:
		discount = coupon.Value
	default:
		return 0
	}

	if discount > subtotal {
		discount = subtotal
	}
	if discount < 0 {
		discount = 0
	}
	return discount
}
