package auction

import (
	"context"
	"time"

	"auctionhouse/internal/database"
	"auctionhouse/internal/model"
	"auctionhouse/internal/money"
)

// Store is the persistence the engine runs on. Every method called with the context handed to
// the WithItemTx callback joins that transaction.
type Store interface {
	WithItemTx(ctx context.Context, itemID string, fn func(ctx context.Context) error) error

	ItemInsert(ctx context.Context, i model.Item) error
	ItemFindOne(ctx context.Context, itemID string) (model.Item, error)
	ItemsFind(ctx context.Context, itemIDs []string) ([]model.Item, error)
	ItemsFindAll(ctx context.Context) ([]model.Item, error)
	ItemPriceUpdate(ctx context.Context, itemID string, from, to money.Money, now time.Time) error
	ItemSettle(ctx context.Context, i model.Item) error

	BidInsert(ctx context.Context, b model.ManualBid) error
	BidFindHighest(ctx context.Context, itemID string) (model.ManualBid, error)
	BidsFindByItem(ctx context.Context, itemID string) ([]model.ManualBid, error)
	BidItemIDsByBidder(ctx context.Context, bidder string) ([]string, error)

	ProxyBidInsert(ctx context.Context, pb model.ProxyBid) error
	ProxyBidsFindActive(ctx context.Context, itemID string) ([]model.ProxyBid, error)
	ProxyBidDeactivate(ctx context.Context, pb model.ProxyBid, now time.Time) error
	ProxyBidsDeactivate(ctx context.Context, itemID string, bidder string, now time.Time) (int, error)

	OrderInsert(ctx context.Context, o model.Order) error
	OrderFindOne(ctx context.Context, orderID string) (model.Order, error)
	OrdersFindByUser(ctx context.Context, user string) ([]model.Order, error)
	OrdersFindByItem(ctx context.Context, itemID string) ([]model.Order, error)
	OrderUpdate(ctx context.Context, o model.Order, from model.OrderStatus) error
}

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// IsOpen reports whether bids are still accepted on the item at now.
func IsOpen(i model.Item, now time.Time) bool {
	return !i.Closed() && now.Before(i.EndTime)
}

var (
	_ Store = database.Database{}
	_ Store = (*database.Memory)(nil)
)
