package database

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"pricetracker/internal/model"
)

// UserUpsert registers u, or refreshes its names when it already exists.
// It reports whether the user was newly created.
func (db Database) UserUpsert(ctx context.Context, u model.User) (created bool, err error) {
	res, err := db.Collection(CollectionUsers).UpdateOne(
		ctx,
		bson.M{"_id": u.ID},
		bson.M{
			"$set": bson.M{
				"username":   u.Username,
				"first_name": u.FirstName,
				"last_name":  u.LastName,
			},
			"$setOnInsert": bson.M{
				"max_items":  u.MaxItems,
				"created_at": time.Now(),
			},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return false, errors.Wrapf(err, "error upserting User with ID: %s", u.ID)
	}
	return res.UpsertedCount > 0, nil
}

func (db Database) UserFindByID(ctx context.Context, id string) (model.User, error) {
	var u model.User
	err := db.Collection(CollectionUsers).FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return u, ErrUserNotFound
	}
	return u, errors.Wrapf(err, "error finding User with ID: %s", id)
}

// UserLoginTokenUpdate replaces the stored login token, invalidating the previous one.
func (db Database) UserLoginTokenUpdate(ctx context.Context, id string, lt model.LoginToken) error {
	res, err := db.Collection(CollectionUsers).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"login_token": lt}})
	if err != nil {
		return errors.Wrapf(err, "error updating LoginToken for User with ID: %s", id)
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (db Database) UserLoginTokenRemove(ctx context.Context, id string) error {
	_, err := db.Collection(CollectionUsers).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$unset": bson.M{"login_token": ""}})
	return errors.Wrapf(err, "error removing LoginToken for User with ID: %s", id)
}
