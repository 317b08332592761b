package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ItemHistory is one price observation of a TrackedItem. Observations are only ever appended.
type ItemHistory struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	ItemID    primitive.ObjectID `bson:"item_id" json:"-"`
	Price     int64              `bson:"pr" json:"pr"`
	Timestamp time.Time          `bson:"ts" json:"ts"`
}

// PriceStats aggregates the observations of one item. Count is 0 when there were none.
type PriceStats struct {
	Count   int   `bson:"count"`
	Lowest  int64 `bson:"lowest"`
	Highest int64 `bson:"highest"`
	Latest  int64 `bson:"latest"`
}
