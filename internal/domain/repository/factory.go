package repository

// Factory describes access to different domain repositories.
type Factory interface {
	Users() UserRepository
	Orders() OrderRepository
	Inventory() InventoryRepository
	Carts() CartRepository
	Addresses() AddressRepository
	Coupons() CouponRepository
	Settings() SettingsRepository
}
