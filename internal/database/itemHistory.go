package database

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"pricetracker/internal/model"
)

func (db Database) ItemHistoryInsert(ctx context.Context, ih model.ItemHistory) error {
	_, err := db.Collection(CollectionItemHistories).InsertOne(ctx, ih)
	return errors.Wrapf(err, "error inserting ItemHistory for ItemID: %s", ih.ItemID.Hex())
}

// ItemHistoryDeleteAll removes every observation of the item.
func (db Database) ItemHistoryDeleteAll(ctx context.Context, itemID primitive.ObjectID) error {
	_, err := db.Collection(CollectionItemHistories).DeleteMany(ctx, bson.M{"item_id": itemID})
	return errors.Wrapf(err, "error deleting ItemHistory of Item with ID: %s", itemID.Hex())
}

func itemHistoryStatsPipeline(itemID primitive.ObjectID, excludeLatest bool) mongo.Pipeline {
	p := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"item_id": itemID}}},
		{{Key: "$sort", Value: bson.D{{Key: "ts", Value: -1}}}},
	}
	if excludeLatest {
		p = append(p, bson.D{{Key: "$skip", Value: 1}})
	}
	return append(p, bson.D{{Key: "$group", Value: bson.M{
		"_id":     nil,
		"count":   bson.M{"$sum": 1},
		"lowest":  bson.M{"$min": "$pr"},
		"highest": bson.M{"$max": "$pr"},
		"latest":  bson.M{"$first": "$pr"},
	}}})
}

// ItemHistoryStats aggregates an item's observations. With excludeLatest the most recent
// observation is left out, giving the history as it was before the last append.
func (db Database) ItemHistoryStats(ctx context.Context, itemID primitive.ObjectID, excludeLatest bool) (model.PriceStats, error) {
	var stats model.PriceStats
	cur, err := db.Collection(CollectionItemHistories).Aggregate(ctx, itemHistoryStatsPipeline(itemID, excludeLatest))
	if err != nil {
		return stats, errors.Wrapf(err, "error aggregating ItemHistory for ItemID: %s", itemID.Hex())
	}
	defer func() {
		_ = cur.Close(ctx)
	}()
	if cur.Next(ctx) {
		if err = cur.Decode(&stats); err != nil {
			return stats, errors.Wrapf(err, "error decoding ItemHistory stats for ItemID: %s", itemID.Hex())
		}
	}
	return stats, errors.Wrapf(cur.Err(), "error reading ItemHistory stats for ItemID: %s", itemID.Hex())
}

func (db Database) ItemHistoryFindAll(ctx context.Context, itemID primitive.ObjectID) ([]model.ItemHistory, error) {
	ihs := []model.ItemHistory{}
	opts := options.Find().SetSort(bson.M{"ts": 1})
	cur, err := db.Collection(CollectionItemHistories).Find(ctx, bson.M{"item_id": itemID}, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "error getting cursor to find ItemHistory for ItemID: %s", itemID.Hex())
	}
	if err = cur.All(ctx, &ihs); err != nil {
		return nil, errors.Wrapf(err, "error getting ItemHistory from cursor for ItemID: %s", itemID.Hex())
	}
	return ihs, nil
}
