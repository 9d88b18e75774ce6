package auction

import "github.com/pkg/errors"

var (
	ErrInvalidBid     = errors.New("invalid bid amount")
	ErrStaleBid       = errors.New("bid does not exceed the minimum next bid")
	ErrItemNotFound   = errors.New("item not found")
	ErrNotWinner      = errors.New("user is not the winner of this item")
	ErrAuctionClosed  = errors.New("auction is closed")
	ErrInvalidItem    = errors.New("invalid item")
	ErrOrderNotFound  = errors.New("order not found")
	ErrOrderExists    = errors.New("order already exists for this item")
	ErrOrderProcessed = errors.New("order already processed")
	ErrPaymentFailed  = errors.New("payment failed")
)
