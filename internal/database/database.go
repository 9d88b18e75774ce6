package database

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

const (
	DefaultName             = "auctionhouse_db"
	CollectionItems         = "items"
	CollectionBids          = "bids"
	CollectionProxyBids     = "proxy_bids"
	CollectionOrders        = "orders"
	defaultMaxTxAttempts    = 3
	transientTransactionErr = "TransientTransactionError"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate")
	// ErrConflict is returned when a conditional write finds the document in another state
	// than the one the caller observed.
	ErrConflict = errors.New("conflicting update")
	// ErrTransient is returned when a transaction kept failing with retryable errors.
	ErrTransient = errors.New("transient storage failure")
)

type locker interface {
	Lock(ctx context.Context, key string) (func() error, error)
}

type Database struct {
	*mongo.Database
	Locker        locker
	MaxTxAttempts int
}

func ConnectDB(ctx context.Context, dbURI string, dbName string) (*mongo.Client, error) {
	c, err := mongo.Connect(ctx, options.Client().ApplyURI(dbURI))
	if err != nil {
		return nil, err
	}
	if err = c.Ping(ctx, nil); err != nil {
		return nil, errors.Wrapf(err, "error pinging mongo at: %s", dbURI)
	}

	db := c.Database(dbName)

	_, err = db.Collection(CollectionBids).Indexes().CreateMany(
		ctx,
		[]mongo.IndexModel{
			{
				Keys: bson.D{
					{Key: "item_id", Value: 1},
					{Key: "amount", Value: -1},
					{Key: "created_at", Value: 1},
				},
			},
			{
				Keys: bson.D{{Key: "bidder", Value: 1}},
			},
		},
	)
	if err != nil {
		return nil, err
	}

	_, err = db.Collection(CollectionProxyBids).Indexes().CreateMany(
		ctx,
		[]mongo.IndexModel{
			{
				Keys: bson.D{
					{Key: "item_id", Value: 1},
					{Key: "active", Value: 1},
					{Key: "max_bid", Value: -1},
					{Key: "created_at", Value: 1},
				},
			},
			{
				// one active proxy bid per bidder and item
				Keys: bson.D{
					{Key: "item_id", Value: 1},
					{Key: "bidder", Value: 1},
				},
				Options: options.Index().
					SetUnique(true).
					SetPartialFilterExpression(bson.M{"active": true}),
			},
		},
	)
	if err != nil {
		return nil, err
	}

	_, err = db.Collection(CollectionOrders).Indexes().CreateMany(
		ctx,
		[]mongo.IndexModel{
			{
				Keys: bson.D{
					{Key: "user", Value: 1},
					{Key: "created_at", Value: -1},
				},
			},
			{
				Keys: bson.D{{Key: "item_id", Value: 1}},
			},
		},
	)
	if err != nil {
		return nil, err
	}

	// transactions cannot create collections on older servers
	if err = db.CreateCollection(ctx, CollectionItems); err != nil && !isNamespaceExists(err) {
		return nil, err
	}

	return c, nil
}

func isNamespaceExists(err error) bool {
	var ce mongo.CommandError
	return errors.As(err, &ce) && ce.Name == "NamespaceExists"
}

// WithItemTx runs fn while holding the item's lock, inside a mongo transaction. fn must use the
// context it is given for every database call so they join the transaction. Calls made with a
// context that already carries a session join that session instead of starting a new one.
func (db Database) WithItemTx(ctx context.Context, itemID string, fn func(ctx context.Context) error) error {
	if mongo.SessionFromContext(ctx) != nil {
		return fn(ctx)
	}
	if db.Locker == nil {
		return errors.New("WithItemTx: no locker configured")
	}

	unlock, err := db.Locker.Lock(ctx, "item:"+itemID)
	if err != nil {
		return errors.WithMessagef(err, "error locking Item with ID: %s", itemID)
	}
	// the lock expires on its own if releasing fails
	defer func() { _ = unlock() }()

	sess, err := db.Client().StartSession()
	if err != nil {
		return errors.Wrap(err, "error starting mongo session")
	}
	defer sess.EndSession(ctx)

	txOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.New(writeconcern.WMajority()))

	attempts := db.MaxTxAttempts
	if attempts <= 0 {
		attempts = defaultMaxTxAttempts
	}
	for attempt := 1; ; attempt++ {
		_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
			return nil, fn(sc)
		}, txOpts)
		if err == nil || !isTransient(err) {
			return err
		}
		if attempt >= attempts {
			return errors.WithMessagef(ErrTransient, "transaction for Item with ID: %s failed %d times: %v",
				itemID, attempt, err)
		}
	}
}

func isTransient(err error) bool {
	var le mongo.LabeledError
	return errors.As(err, &le) && le.HasErrorLabel(transientTransactionErr)
}

func wrapFind(err error, format string, args ...any) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return errors.Wrapf(ErrNotFound, format, args...)
	}
	return errors.Wrapf(err, format, args...)
}
