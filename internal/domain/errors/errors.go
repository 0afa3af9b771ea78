package errors

import "errors"

var (
	ErrAlreadyExists      = errors.New("already exists")
	ErrNotFound           = errors.New("not found")
	ErrNotOwner           = errors.New("order belongs to another user")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrInvalidAddress     = errors.New("shipping address not found")
	ErrItemsNotFound      = errors.New("selected cart items not found")
	ErrOrderNotPending    = errors.New("order is not awaiting payment")
	ErrAlreadyPaid        = errors.New("order already paid")
	ErrVerificationFailed = errors.New("payment verification failed")
	ErrInvalidState       = errors.New("order state does not allow this operation")
)
