package database

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"auctionhouse/internal/model"
)

func (db Database) ProxyBidInsert(ctx context.Context, pb model.ProxyBid) error {
	_, err := db.Collection(CollectionProxyBids).InsertOne(ctx, pb)
	if mongo.IsDuplicateKeyError(err) {
		return errors.Wrapf(ErrConflict, "active ProxyBid already exists, ItemID: %s, bidder: %s", pb.ItemID, pb.Bidder)
	}
	return errors.Wrapf(err, "error inserting ProxyBid: %+v", pb)
}

// ProxyBidsFindActive returns the active proxy bids of an item, highest maximum first and the
// earliest registration first among equal maximums.
func (db Database) ProxyBidsFindActive(ctx context.Context, itemID string) ([]model.ProxyBid, error) {
	pbs := []model.ProxyBid{}
	opts := options.Find().SetSort(bson.D{{Key: "max_bid", Value: -1}, {Key: "created_at", Value: 1}})
	cur, err := db.Collection(CollectionProxyBids).Find(ctx, bson.M{"item_id": itemID, "active": true}, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "error getting cursor to find active ProxyBids for ItemID: %s", itemID)
	}
	if err = cur.All(ctx, &pbs); err != nil {
		return nil, errors.Wrapf(err, "error getting active ProxyBids from cursor for ItemID: %s", itemID)
	}
	return pbs, nil
}

// ProxyBidDeactivate is a no-op for proxy bids that are already inactive.
func (db Database) ProxyBidDeactivate(ctx context.Context, pb model.ProxyBid, now time.Time) error {
	_, err := db.Collection(CollectionProxyBids).UpdateOne(
		ctx,
		bson.M{"_id": pb.ID, "active": true},
		bson.M{"$set": bson.M{"active": false, "deactivated_at": now}},
	)
	return errors.Wrapf(err, "error deactivating ProxyBid with ID: %s", pb.ID)
}

// ProxyBidsDeactivate deactivates the active proxy bids of an item, only those of bidder when
// bidder is not empty.
func (db Database) ProxyBidsDeactivate(ctx context.Context, itemID string, bidder string, now time.Time) (int, error) {
	filter := bson.M{"item_id": itemID, "active": true}
	if bidder != "" {
		filter["bidder"] = bidder
	}
	res, err := db.Collection(CollectionProxyBids).UpdateMany(
		ctx,
		filter,
		bson.M{"$set": bson.M{"active": false, "deactivated_at": now}},
	)
	if err != nil {
		return 0, errors.Wrapf(err, "error deactivating ProxyBids, ItemID: %s, bidder: %q", itemID, bidder)
	}
	return int(res.ModifiedCount), nil
}
