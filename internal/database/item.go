package database

import (
	"context"
	"crypto/rand"
	"math/big"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"pricetracker/internal/misc"
	"pricetracker/internal/model"
)

const (
	shortIDAlphabet    = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	shortIDLength      = 6
	shortIDMaxAttempts = 5
)

func newShortID() (string, error) {
	b := make([]byte, shortIDLength)
	alphabetLen := big.NewInt(int64(len(shortIDAlphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			return "", errors.Wrap(err, "error generating short ID")
		}
		b[i] = shortIDAlphabet[n.Int64()]
	}
	return string(b), nil
}

// ItemInsert stores a new item under a fresh short ID, drawing again when the ID is already taken.
func (db Database) ItemInsert(ctx context.Context, i model.TrackedItem) (model.TrackedItem, error) {
	i.ID = primitive.NilObjectID
	if i.CreatedAt.IsZero() {
		i.CreatedAt = time.Now()
	}
	for attempt := 1; attempt <= shortIDMaxAttempts; attempt++ {
		shortID, err := newShortID()
		if err != nil {
			return i, err
		}
		i.ShortID = shortID
		r, err := db.Collection(CollectionItems).InsertOne(ctx, i)
		if err == nil {
			i.ID = r.InsertedID.(primitive.ObjectID)
			return i, nil
		}
		if !mongo.IsDuplicateKeyError(err) {
			return i, errors.Wrapf(err, "error inserting Item with URL: %s", i.URL)
		}
	}
	return i, errors.Errorf("error inserting Item with URL: %s, no free short ID after %d attempts",
		i.URL, shortIDMaxAttempts)
}

func dueItemsQuery(asOf time.Time, limit int) (bson.M, *options.FindOptions) {
	filter := bson.M{"last_checked": bson.M{"$lt": misc.StartOfDayUTC(asOf)}}
	opts := options.Find().
		SetSort(bson.D{{Key: "last_checked", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(limit))
	return filter, opts
}

// ItemsFindDue returns at most limit items not checked yet during asOf's UTC day, least recently checked first.
func (db Database) ItemsFindDue(ctx context.Context, asOf time.Time, limit int) ([]model.TrackedItem, error) {
	is := []model.TrackedItem{}
	if limit <= 0 {
		return is, nil
	}
	filter, opts := dueItemsQuery(asOf, limit)
	cur, err := db.Collection(CollectionItems).Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "error getting cursor to find due Items, asOf: %s", asOf.Format(time.RFC3339))
	}
	if err = cur.All(ctx, &is); err != nil {
		return nil, errors.Wrapf(err, "error getting due Items from cursor, asOf: %s", asOf.Format(time.RFC3339))
	}
	return is, nil
}

func (db Database) itemUpdate(ctx context.Context, itemID primitive.ObjectID, update bson.M) error {
	res, err := db.Collection(CollectionItems).UpdateOne(ctx, bson.M{"_id": itemID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrItemNotFound
	}
	return nil
}

// ItemRecordSuccess stores a freshly observed price and clears the error streak.
// last_checked never moves backwards.
func (db Database) ItemRecordSuccess(ctx context.Context, itemID primitive.ObjectID, price int64, ts time.Time) error {
	err := db.itemUpdate(ctx, itemID, bson.M{
		"$set": bson.M{
			"current_price": price,
			"error_count":   0,
			"last_error":    nil,
			"last_error_at": nil,
		},
		"$max": bson.M{"last_checked": ts},
	})
	return errors.WithMessagef(err, "error recording success for ItemID: %s, Price: %d", itemID.Hex(), price)
}

// ItemRecordFailure bumps the error streak, leaving price and last_checked untouched.
func (db Database) ItemRecordFailure(ctx context.Context, itemID primitive.ObjectID, errMsg string, ts time.Time) error {
	err := db.itemUpdate(ctx, itemID, bson.M{
		"$inc": bson.M{"error_count": 1},
		"$set": bson.M{
			"last_error":    errMsg,
			"last_error_at": ts,
		},
	})
	return errors.WithMessagef(err, "error recording failure for ItemID: %s", itemID.Hex())
}

func (db Database) ItemTargetPriceUpdate(ctx context.Context, itemID primitive.ObjectID, target *int64) error {
	err := db.itemUpdate(ctx, itemID, bson.M{"$set": bson.M{"target_price": target}})
	return errors.WithMessagef(err, "error updating target price for ItemID: %s", itemID.Hex())
}

func (db Database) ItemFindByShortID(ctx context.Context, userID string, shortID string) (model.TrackedItem, error) {
	var i model.TrackedItem
	err := db.Collection(CollectionItems).FindOne(ctx, bson.M{"user_id": userID, "short_id": shortID}).Decode(&i)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return i, ErrItemNotFound
	}
	return i, errors.Wrapf(err, "error finding Item with ShortID: %s", shortID)
}

func (db Database) ItemsFindByUser(ctx context.Context, userID string) ([]model.TrackedItem, error) {
	is := []model.TrackedItem{}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := db.Collection(CollectionItems).Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "error getting cursor to find Items, UserID: %s", userID)
	}
	if err = cur.All(ctx, &is); err != nil {
		return nil, errors.Wrapf(err, "error getting Items from cursor, UserID: %s", userID)
	}
	return is, nil
}

func (db Database) ItemCountByUser(ctx context.Context, userID string) (int, error) {
	n, err := db.Collection(CollectionItems).CountDocuments(ctx, bson.M{"user_id": userID})
	return int(n), errors.Wrapf(err, "error counting Items, UserID: %s", userID)
}

// ItemDelete removes the item together with its price history.
func (db Database) ItemDelete(ctx context.Context, itemID primitive.ObjectID) error {
	res, err := db.Collection(CollectionItems).DeleteOne(ctx, bson.M{"_id": itemID})
	if err != nil {
		return errors.Wrapf(err, "error deleting Item with ID: %s", itemID.Hex())
	}
	if res.DeletedCount == 0 {
		return ErrItemNotFound
	}
	return db.ItemHistoryDeleteAll(ctx, itemID)
}
