package model

// Address is a delivery address. Orders keep a value snapshot of it,
// not a live reference.
type Address struct {
	ID         int64
	UserID     int64
	FullName   string
	Phone      string
	Line1      string
	City       string
	District   string
	PostalCode string
}
