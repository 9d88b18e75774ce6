package database

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"auctionhouse/internal/model"
	"auctionhouse/internal/money"
)

func (db Database) ItemInsert(ctx context.Context, i model.Item) error {
	_, err := db.Collection(CollectionItems).InsertOne(ctx, i)
	if mongo.IsDuplicateKeyError(err) {
		return errors.Wrapf(ErrDuplicate, "error inserting Item with ID: %s", i.ID)
	}
	return errors.Wrapf(err, "error inserting Item: %+v", i)
}

func (db Database) ItemFindOne(ctx context.Context, itemID string) (model.Item, error) {
	var i model.Item
	err := db.Collection(CollectionItems).FindOne(ctx, bson.M{"_id": itemID}).Decode(&i)
	if err != nil {
		return i, wrapFind(err, "error finding Item with ID: %s", itemID)
	}
	return i, nil
}

func (db Database) ItemsFind(ctx context.Context, itemIDs []string) ([]model.Item, error) {
	is := []model.Item{}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := db.Collection(CollectionItems).Find(ctx, bson.M{"_id": bson.M{"$in": itemIDs}}, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "error getting cursor to find Items, itemIDs: %v", itemIDs)
	}
	if err = cur.All(ctx, &is); err != nil {
		return nil, errors.Wrapf(err, "error getting Items from cursor, itemIDs: %v", itemIDs)
	}
	return is, nil
}

func (db Database) ItemsFindAll(ctx context.Context) ([]model.Item, error) {
	is := []model.Item{}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := db.Collection(CollectionItems).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "error getting cursor to find all Items")
	}
	if err = cur.All(ctx, &is); err != nil {
		return nil, errors.Wrap(err, "error getting all Items from cursor")
	}
	return is, nil
}

// ItemPriceUpdate moves the current price of a live item from the price the caller observed.
func (db Database) ItemPriceUpdate(ctx context.Context, itemID string, from, to money.Money, now time.Time) error {
	res, err := db.Collection(CollectionItems).UpdateOne(
		ctx,
		bson.M{"_id": itemID, "status": model.ItemLive, "current_price": from},
		bson.M{"$set": bson.M{
			"current_price": to,
			"updated_at":    now,
		}},
	)
	if err != nil {
		return errors.Wrapf(err, "error updating Item price, ItemID: %s, from: %s, to: %s", itemID, from, to)
	}
	if res.MatchedCount == 0 {
		return errors.Wrapf(ErrConflict, "Item not matched when updating price, ItemID: %s, from: %s, to: %s",
			itemID, from, to)
	}
	return nil
}

// ItemSettle writes the final status, winner and price of an item that is still live.
func (db Database) ItemSettle(ctx context.Context, i model.Item) error {
	res, err := db.Collection(CollectionItems).UpdateOne(
		ctx,
		bson.M{"_id": i.ID, "status": model.ItemLive},
		bson.M{"$set": bson.M{
			"status":        i.Status,
			"winner":        i.Winner,
			"current_price": i.CurrentPrice,
			"updated_at":    i.UpdatedAt,
		}},
	)
	if err != nil {
		return errors.Wrapf(err, "error settling Item with ID: %s, status: %s", i.ID, i.Status)
	}
	if res.MatchedCount == 0 {
		return errors.Wrapf(ErrConflict, "Item not live when settling, ItemID: %s", i.ID)
	}
	return nil
}
