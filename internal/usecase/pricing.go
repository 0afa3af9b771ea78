package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	domainErrors "github.com/suravi/checkout/internal/domain/errors"
	"github.com/suravi/checkout/internal/domain/model"
	"github.com/suravi/checkout/internal/domain/repository"
)

// PricingEngine computes the price breakdown for a cart snapshot.
type PricingEngine struct {
	inventory repository.InventoryRepository
	coupons   repository.CouponRepository
	settings  repository.SettingsRepository
	logger    *slog.Logger
}

// NewPricingEngine constructs PricingEngine.
func NewPricingEngine(
	inventory repository.InventoryRepository,
	coupons repository.CouponRepository,
	settings repository.SettingsRepository,
	logger *slog.Logger,
) *PricingEngine {
	return &PricingEngine{inventory: inventory, coupons: coupons, settings: settings, logger: logger}
}

// Quote validates stock for the lines and derives the full breakdown:
// items price, MRP savings, coupon discount, shipping and total. A coupon
// that does not qualify is ignored rather than failing the quote.
func (e *PricingEngine) Quote(ctx context.Context, lines []model.CartLine, couponCode string) (*model.PriceBreakdown, error) {
	if len(lines) == 0 {
		return nil, domainErrors.ErrItemsNotFound
	}

	required := make(map[model.StockKey]int)
	for _, l := range lines {
		required[l.Key()] += l.Quantity
	}
	for key, qty := range required {
		available, err := e.inventory.Available(ctx, key)
		if err != nil {
			return nil, err
		}
		if available < qty {
			return nil, domainErrors.ErrInsufficientStock
		}
	}

	var breakdown model.PriceBreakdown
	for _, l := range lines {
		breakdown.ItemsPrice += l.Price * float64(l.Quantity)
		breakdown.DiscountOnMRP += (l.OriginalPrice - l.Price) * float64(l.Quantity)
	}

	if code := strings.ToUpper(strings.TrimSpace(couponCode)); code != "" {
		discount, applied, err := e.couponDiscount(ctx, code, breakdown.ItemsPrice)
		if err != nil {
			return nil, err
		}
		if applied {
			breakdown.CouponCode = code
			breakdown.CouponDiscount = discount
		} else {
			e.logger.Info("coupon not applied", slog.String("code", code))
		}
	}

	settings, err := e.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	subtotal := breakdown.ItemsPrice - breakdown.CouponDiscount
	if subtotal < settings.FreeShippingThreshold {
		breakdown.ShippingPrice = settings.DeliveryFee
	}
	breakdown.TotalPrice = subtotal + breakdown.ShippingPrice

	return &breakdown, nil
}

func (e *PricingEngine) couponDiscount(ctx context.Context, code string, itemsPrice float64) (float64, bool, error) {
	coupon, err := e.coupons.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return 0, false, nil
		}
		return 0, false, err
	}

	if !coupon.Active {
		return 0, false, nil
	}
	if coupon.ExpiresAt != nil && coupon.ExpiresAt.Before(time.Now()) {
		return 0, false, nil
	}
	if itemsPrice < coupon.MinPurchase {
		return 0, false, nil
	}

	var discount float64
	switch coupon.Type {
	case model.CouponTypePercentage:
		discount = itemsPrice * coupon.Value / 100
		if coupon.MaxDiscount != nil && discount > *coupon.MaxDiscount {
			discount = *coupon.MaxDiscount
		}
	case model.CouponTypeFixed:
		discount = coupon.Value
	default:
		return 0, false, nil
	}

	if discount > itemsPrice {
		discount = itemsPrice
	}
	return discount, true, nil
}
