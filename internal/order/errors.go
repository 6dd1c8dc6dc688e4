package order

import "errors"

var (
	ErrEmptyCart           = errors.New("cart is empty, nothing to checkout")
	ErrInvalidShippingInfo = errors.New("invalid shipping info")
	ErrCheckoutInProgress  = errors.New("checkout already in progress for this session")
	ErrReplayOrMismatch    = errors.New("stale or mismatched payment callback")
	ErrOrderNotFound       = errors.New("order not found")
	ErrTxnAlreadyRecorded  = errors.New("gateway transaction already recorded")
)
