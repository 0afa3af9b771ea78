package model

// StockKey identifies the finest-grained inventory unit.
type StockKey struct {
	ProductID int64
	Variant   string
	Size      string
}
