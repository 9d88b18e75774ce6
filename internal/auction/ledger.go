package auction

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"auctionhouse/internal/database"
	"auctionhouse/internal/model"
	"auctionhouse/internal/money"
)

// Ledger is the append-only bid history of each item. It is the only writer of an item's
// current price.
type Ledger struct {
	Store Store
}

// Record appends a bid and moves item's current price to amount, both in one transaction that
// joins the caller's when there is one. item is updated in place on success.
func (l Ledger) Record(ctx context.Context, item *model.Item, bidder string, amount money.Money, automated bool, now time.Time) (model.ManualBid, error) {
	if !amount.GreaterThan(item.CurrentPrice) {
		return model.ManualBid{}, errors.Wrapf(ErrStaleBid, "amount %s does not exceed current price %s of Item %s",
			amount, item.CurrentPrice, item.ID)
	}

	b := model.ManualBid{
		ID:        uuid.NewString(),
		ItemID:    item.ID,
		Bidder:    bidder,
		Amount:    amount,
		Automated: automated,
		CreatedAt: now,
	}
	err := l.Store.WithItemTx(ctx, item.ID, func(ctx context.Context) error {
		if err := l.Store.BidInsert(ctx, b); err != nil {
			return errors.WithMessagef(err, "error recording Bid on Item %s", item.ID)
		}
		return l.Store.ItemPriceUpdate(ctx, item.ID, item.CurrentPrice, amount, now)
	})
	if err != nil {
		return model.ManualBid{}, err
	}

	item.CurrentPrice = amount
	item.UpdatedAt = now
	return b, nil
}

// Highest returns the greatest bid on the item, earliest first among equals, or nil.
func (l Ledger) Highest(ctx context.Context, itemID string) (*model.ManualBid, error) {
	b, err := l.Store.BidFindHighest(ctx, itemID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (l Ledger) History(ctx context.Context, itemID string) ([]model.ManualBid, error) {
	return l.Store.BidsFindByItem(ctx, itemID)
}
