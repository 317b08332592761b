package database

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	Name                    = "price_tracker_db"
	CollectionItems         = "items"
	CollectionItemHistories = "item_histories"
	CollectionUsers         = "users"
	CollectionNotifications = "notifications"
)

type Database struct {
	*mongo.Database
}

var (
	ErrItemNotFound = errors.New("item not found")
	ErrUserNotFound = errors.New("user not found")
)

func ConnectDB(ctx context.Context, dbURI string) (*mongo.Client, error) {
	c, err := mongo.Connect(ctx, options.Client().ApplyURI(dbURI))
	if err != nil {
		return nil, errors.Wrapf(err, "error connecting to %s", dbURI)
	}
	if err = c.Ping(ctx, nil); err != nil {
		return nil, errors.Wrapf(err, "error pinging %s", dbURI)
	}
	if err = EnsureIndexes(ctx, Database{Database: c.Database(Name)}); err != nil {
		return nil, err
	}
	return c, nil
}

func EnsureIndexes(ctx context.Context, db Database) error {
	_, err := db.Collection(CollectionItems).Indexes().CreateMany(
		ctx,
		[]mongo.IndexModel{
			{
				Keys:    bson.D{{Key: "short_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{
				Keys: bson.D{{Key: "user_id", Value: 1}},
			},
			{
				Keys: bson.D{{Key: "last_checked", Value: 1}, {Key: "_id", Value: 1}},
			},
		},
	)
	if err != nil {
		return errors.Wrap(err, "error creating indexes on items")
	}

	_, err = db.Collection(CollectionItemHistories).Indexes().CreateOne(
		ctx,
		mongo.IndexModel{
			Keys: bson.D{
				{Key: "item_id", Value: 1},
				{Key: "ts", Value: -1},
			},
			Options: options.Index().SetUnique(true),
		},
	)
	if err != nil {
		return errors.Wrap(err, "error creating indexes on item_histories")
	}

	_, err = db.Collection(CollectionNotifications).Indexes().CreateOne(
		ctx,
		mongo.IndexModel{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "sent_at", Value: -1}},
		},
	)
	return errors.Wrap(err, "error creating indexes on notifications")
}
