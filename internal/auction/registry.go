package auction

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"auctionhouse/internal/model"
	"auctionhouse/internal/money"
)

// Registry holds standing proxy bids. A bidder has at most one active proxy bid per item.
type Registry struct {
	Store Store
}

// Upsert replaces the bidder's active proxy bid on the item with a new one, in one transaction
// that joins the caller's when there is one.
func (r Registry) Upsert(ctx context.Context, itemID, bidder string, maxBid money.Money, now time.Time) (model.ProxyBid, error) {
	pb := model.ProxyBid{
		ID:        uuid.NewString(),
		ItemID:    itemID,
		Bidder:    bidder,
		MaxBid:    maxBid,
		Active:    true,
		CreatedAt: now,
	}
	err := r.Store.WithItemTx(ctx, itemID, func(ctx context.Context) error {
		if _, err := r.Store.ProxyBidsDeactivate(ctx, itemID, bidder, now); err != nil {
			return errors.WithMessagef(err, "error replacing ProxyBid of %s on Item %s", bidder, itemID)
		}
		return errors.WithMessagef(r.Store.ProxyBidInsert(ctx, pb),
			"error registering ProxyBid of %s on Item %s", bidder, itemID)
	})
	if err != nil {
		return model.ProxyBid{}, err
	}
	return pb, nil
}

// Active returns the item's active proxy bids, highest max first, earliest first among equals.
func (r Registry) Active(ctx context.Context, itemID string) ([]model.ProxyBid, error) {
	return r.Store.ProxyBidsFindActive(ctx, itemID)
}

func (r Registry) Deactivate(ctx context.Context, pb model.ProxyBid, now time.Time) error {
	return r.Store.ProxyBidDeactivate(ctx, pb, now)
}

// DeactivateAll closes every remaining proxy bid on the item.
func (r Registry) DeactivateAll(ctx context.Context, itemID string, now time.Time) (int, error) {
	return r.Store.ProxyBidsDeactivate(ctx, itemID, "", now)
}
