package database

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"auctionhouse/internal/model"
)

func (db Database) BidInsert(ctx context.Context, b model.ManualBid) error {
	_, err := db.Collection(CollectionBids).InsertOne(ctx, b)
	return errors.Wrapf(err, "error inserting Bid: %+v", b)
}

// BidFindHighest returns the bid with the greatest amount, the earliest one on ties.
func (db Database) BidFindHighest(ctx context.Context, itemID string) (model.ManualBid, error) {
	var b model.ManualBid
	opts := options.FindOne().SetSort(bson.D{{Key: "amount", Value: -1}, {Key: "created_at", Value: 1}})
	err := db.Collection(CollectionBids).FindOne(ctx, bson.M{"item_id": itemID}, opts).Decode(&b)
	if err != nil {
		return b, wrapFind(err, "error finding highest Bid for ItemID: %s", itemID)
	}
	return b, nil
}

func (db Database) BidsFindByItem(ctx context.Context, itemID string) ([]model.ManualBid, error) {
	bs := []model.ManualBid{}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "amount", Value: 1}})
	cur, err := db.Collection(CollectionBids).Find(ctx, bson.M{"item_id": itemID}, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "error getting cursor to find Bids for ItemID: %s", itemID)
	}
	if err = cur.All(ctx, &bs); err != nil {
		return nil, errors.Wrapf(err, "error getting Bids from cursor for ItemID: %s", itemID)
	}
	return bs, nil
}

func (db Database) BidItemIDsByBidder(ctx context.Context, bidder string) ([]string, error) {
	vs, err := db.Collection(CollectionBids).Distinct(ctx, "item_id", bson.M{"bidder": bidder})
	if err != nil {
		return nil, errors.Wrapf(err, "error finding distinct ItemIDs for bidder: %s", bidder)
	}
	itemIDs := make([]string, 0, len(vs))
	for _, v := range vs {
		if id, ok := v.(string); ok {
			itemIDs = append(itemIDs, id)
		}
	}
	return itemIDs, nil
}
