package model

// CartLine is a cart item joined with its product, ready for pricing.
type CartLine struct {
	ID            int64
	ProductID     int64
	Name          string
	Slug          string
	Variant       string
	Size          string
	Image         string
	Price         float64
	OriginalPrice float64
	Quantity      int
}

// Key returns the inventory unit the line draws from.
func (l CartLine) Key() StockKey {
	return StockKey{ProductID: l.ProductID, Variant: l.Variant, Size: l.Size}
}
