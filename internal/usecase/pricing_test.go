package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	domainErrors "github.com/suravi/checkout/internal/domain/errors"
	"github.com/suravi/checkout/internal/domain/model"
	testhelpers "github.com/suravi/checkout/internal/test"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func float64Ptr(v float64) *float64 { return &v }

func shirtLines() []model.CartLine {
	return []model.CartLine{
		{ID: 10, ProductID: 5, Name: "Linen Shirt", Slug: "linen-shirt", Variant: "black", Size: "m", Price: 600, OriginalPrice: 750, Quantity: 2},
	}
}

func newPricingEngine(stock map[model.StockKey]int, coupons map[string]*model.Coupon) *PricingEngine {
	return NewPricingEngine(
		testhelpers.NewInventoryRepositoryStub(stock),
		&testhelpers.CouponRepositoryStub{Coupons: coupons},
		&testhelpers.SettingsRepositoryStub{Settings: model.Settings{FreeShippingThreshold: 2000, DeliveryFee: 150}},
		discardLogger(),
	)
}

func TestQuoteWithCappedPercentageCoupon(t *testing.T) {
	stock := map[model.StockKey]int{{ProductID: 5, Variant: "black", Size: "m"}: 10}
	coupons := map[string]*model.Coupon{
		"SAVE10": {Code: "SAVE10", Type: model.CouponTypePercentage, Value: 10, MinPurchase: 500, MaxDiscount: float64Ptr(100), Active: true},
	}
	engine := newPricingEngine(stock, coupons)

	breakdown, err := engine.Quote(context.Background(), shirtLines(), "save10")
	if err != nil {
		t.Fatalf("quote returned error: %v", err)
	}
	if breakdown.ItemsPrice != 1200 {
		t.Fatalf("unexpected items price %v", breakdown.ItemsPrice)
	}
	if breakdown.DiscountOnMRP != 300 {
		t.Fatalf("unexpected mrp discount %v", breakdown.DiscountOnMRP)
	}
	if breakdown.CouponCode != "SAVE10" || breakdown.CouponDiscount != 100 {
		t.Fatalf("expected capped coupon discount 100, got %q %v", breakdown.CouponCode, breakdown.CouponDiscount)
	}
	if breakdown.ShippingPrice != 150 {
		t.Fatalf("unexpected shipping %v", breakdown.ShippingPrice)
	}
	if breakdown.TotalPrice != 1250 {
		t.Fatalf("unexpected total %v", breakdown.TotalPrice)
	}
}

func TestQuoteFixedCoupon(t *testing.T) {
	stock := map[model.StockKey]int{{ProductID: 5, Variant: "black", Size: "m"}: 10}
	coupons := map[string]*model.Coupon{
		"FLAT200": {Code: "FLAT200", Type: model.CouponTypeFixed, Value: 200, Active: true},
	}
	engine := newPricingEngine(stock, coupons)

	breakdown, err := engine.Quote(context.Background(), shirtLines(), "FLAT200")
	if err != nil {
		t.Fatalf("quote returned error: %v", err)
	}
	if breakdown.CouponDiscount != 200 || breakdown.TotalPrice != 1150 {
		t.Fatalf("unexpected breakdown: %+v", breakdown)
	}
}

func TestQuoteIgnoresUnusableCoupons(t *testing.T) {
	stock := map[model.StockKey]int{{ProductID: 5, Variant: "black", Size: "m"}: 10}
	expired := time.Now().Add(-time.Hour)
	coupons := map[string]*model.Coupon{
		"INACTIVE": {Code: "INACTIVE", Type: model.CouponTypeFixed, Value: 50, Active: false},
		"EXPIRED":  {Code: "EXPIRED", Type: model.CouponTypeFixed, Value: 50, Active: true, ExpiresAt: &expired},
		"BIGMIN":   {Code: "BIGMIN", Type: model.CouponTypeFixed, Value: 50, MinPurchase: 5000, Active: true},
	}
	engine := newPricingEngine(stock, coupons)

	for _, code := range []string{"UNKNOWN", "INACTIVE", "EXPIRED", "BIGMIN"} {
		breakdown, err := engine.Quote(context.Background(), shirtLines(), code)
		if err != nil {
			t.Fatalf("quote with coupon %q returned error: %v", code, err)
		}
		if breakdown.CouponCode != "" || breakdown.CouponDiscount != 0 {
			t.Fatalf("coupon %q should have been ignored: %+v", code, breakdown)
		}
		if breakdown.TotalPrice != 1350 {
			t.Fatalf("unexpected total with coupon %q: %v", code, breakdown.TotalPrice)
		}
	}
}

func TestQuoteCouponCappedAtItemsPrice(t *testing.T) {
	stock := map[model.StockKey]int{{ProductID: 5, Variant: "black", Size: "m"}: 10}
	coupons := map[string]*model.Coupon{
		"HUGE": {Code: "HUGE", Type: model.CouponTypeFixed, Value: 5000, Active: true},
	}
	engine := newPricingEngine(stock, coupons)

	breakdown, err := engine.Quote(context.Background(), shirtLines(), "HUGE")
	if err != nil {
		t.Fatalf("quote returned error: %v", err)
	}
	if breakdown.CouponDiscount != 1200 {
		t.Fatalf("expected discount capped at items price, got %v", breakdown.CouponDiscount)
	}
	if breakdown.TotalPrice != 150 {
		t.Fatalf("unexpected total %v", breakdown.TotalPrice)
	}
}

func TestQuoteFreeShippingOverThreshold(t *testing.T) {
	stock := map[model.StockKey]int{{ProductID: 5, Variant: "black", Size: "m"}: 10}
	engine := newPricingEngine(stock, nil)

	lines := []model.CartLine{
		{ID: 10, ProductID: 5, Variant: "black", Size: "m", Price: 1200, OriginalPrice: 1200, Quantity: 2},
	}
	breakdown, err := engine.Quote(context.Background(), lines, "")
	if err != nil {
		t.Fatalf("quote returned error: %v", err)
	}
	if breakdown.ShippingPrice != 0 {
		t.Fatalf("expected free shipping, got %v", breakdown.ShippingPrice)
	}
	if breakdown.TotalPrice != 2400 {
		t.Fatalf("unexpected total %v", breakdown.TotalPrice)
	}
}

func TestQuoteInsufficientStock(t *testing.T) {
	stock := map[model.StockKey]int{{ProductID: 5, Variant: "black", Size: "m"}: 1}
	engine := newPricingEngine(stock, nil)

	if _, err := engine.Quote(context.Background(), shirtLines(), ""); !errors.Is(err, domainErrors.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
}

func TestQuoteAggregatesDuplicateUnits(t *testing.T) {
	stock := map[model.StockKey]int{{ProductID: 5, Variant: "black", Size: "m"}: 3}
	engine := newPricingEngine(stock, nil)

	lines := append(shirtLines(), model.CartLine{ID: 11, ProductID: 5, Variant: "black", Size: "m", Price: 600, OriginalPrice: 750, Quantity: 2})
	if _, err := engine.Quote(context.Background(), lines, ""); !errors.Is(err, domainErrors.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock for aggregated quantity, got %v", err)
	}
}

func TestQuoteEmptyLines(t *testing.T) {
	engine := newPricingEngine(nil, nil)
	if _, err := engine.Quote(context.Background(), nil, ""); !errors.Is(err, domainErrors.ErrItemsNotFound) {
		t.Fatalf("expected items not found, got %v", err)
	}
}

func TestQuoteCouponLookupError(t *testing.T) {
	stock := map[model.StockKey]int{{ProductID: 5, Variant: "black", Size: "m"}: 10}
	engine := NewPricingEngine(
		testhelpers.NewInventoryRepositoryStub(stock),
		&testhelpers.CouponRepositoryStub{Err: errors.New("db down")},
		&testhelpers.SettingsRepositoryStub{Settings: model.Settings{FreeShippingThreshold: 2000, DeliveryFee: 150}},
		discardLogger(),
	)
	if _, err := engine.Quote(context.Background(), shirtLines(), "SAVE10"); err == nil {
		t.Fatal("expected coupon lookup error to propagate")
	}
}

func TestQuoteSettingsError(t *testing.T) {
	stock := map[model.StockKey]int{{ProductID: 5, Variant: "black", Size: "m"}: 10}
	engine := NewPricingEngine(
		testhelpers.NewInventoryRepositoryStub(stock),
		&testhelpers.CouponRepositoryStub{},
		&testhelpers.SettingsRepositoryStub{Err: errors.New("no settings")},
		discardLogger(),
	)
	if _, err := engine.Quote(context.Background(), shirtLines(), ""); err == nil {
		t.Fatal("expected settings error to propagate")
	}
}
