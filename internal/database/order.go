package database

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"auctionhouse/internal/model"
)

func (db Database) OrderInsert(ctx context.Context, o model.Order) error {
	_, err := db.Collection(CollectionOrders).InsertOne(ctx, o)
	return errors.Wrapf(err, "error inserting Order: %+v", o)
}

func (db Database) OrderFindOne(ctx context.Context, orderID string) (model.Order, error) {
	var o model.Order
	err := db.Collection(CollectionOrders).FindOne(ctx, bson.M{"_id": orderID}).Decode(&o)
	if err != nil {
		return o, wrapFind(err, "error finding Order with ID: %s", orderID)
	}
	return o, nil
}

func (db Database) OrdersFindByUser(ctx context.Context, user string) ([]model.Order, error) {
	return db.ordersFind(ctx, bson.M{"user": user})
}

func (db Database) OrdersFindByItem(ctx context.Context, itemID string) ([]model.Order, error) {
	return db.ordersFind(ctx, bson.M{"item_id": itemID})
}

func (db Database) ordersFind(ctx context.Context, filter bson.M) ([]model.Order, error) {
	orders := []model.Order{}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := db.Collection(CollectionOrders).Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "error getting cursor to find Orders, filter: %v", filter)
	}
	if err = cur.All(ctx, &orders); err != nil {
		return nil, errors.Wrapf(err, "error getting Orders from cursor, filter: %v", filter)
	}
	return orders, nil
}

// OrderUpdate writes status and payment intent of an order that is still in status from.
func (db Database) OrderUpdate(ctx context.Context, o model.Order, from model.OrderStatus) error {
	res, err := db.Collection(CollectionOrders).UpdateOne(
		ctx,
		bson.M{"_id": o.ID, "status": from},
		bson.M{"$set": bson.M{
			"status":            o.Status,
			"payment_intent_id": o.PaymentIntentID,
			"updated_at":        o.UpdatedAt,
		}},
	)
	if err != nil {
		return errors.Wrapf(err, "error updating Order with ID: %s", o.ID)
	}
	if res.MatchedCount == 0 {
		return errors.Wrapf(ErrConflict, "Order not in status %s when updating, OrderID: %s", from, o.ID)
	}
	return nil
}
