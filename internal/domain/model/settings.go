package model

// Settings is the store-wide pricing configuration singleton.
type Settings struct {
	FreeShippingThreshold float64
	DeliveryFee           float64
}
