package ledger

import "errors"

// Ledger rejections. All of them leave the ledger unchanged.
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrItemNotFound      = errors.New("item not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrDuplicateSerial   = errors.New("serial number already registered")
)
