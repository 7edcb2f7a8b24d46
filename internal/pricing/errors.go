package pricing

import "errors"

var (
	// ErrInvalidQuantity is returned for a quantity outside 1..MaxQuantity.
	ErrInvalidQuantity = errors.New("invalid quantity")
	// ErrInvalidPromotion indicates a discount rate outside [0,1].
	ErrInvalidPromotion = errors.New("invalid promotion")
	// ErrUnknownProduct is returned when an item cannot be resolved to a priced product.
	ErrUnknownProduct = errors.New("unknown product")
	// ErrInvalidPrice indicates a unit price outside 0..MaxUnitPrice.
	ErrInvalidPrice = errors.New("invalid unit price")
	// ErrInvalidDeliveryMode is returned for an unrecognised delivery mode.
	ErrInvalidDeliveryMode = errors.New("invalid delivery mode")
)
