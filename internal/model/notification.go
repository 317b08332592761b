package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Notification struct {
	ID       primitive.ObjectID `bson:"_id,omitempty"`
	UserID   string             `bson:"user_id"`
	ItemID   primitive.ObjectID `bson:"item_id"`
	Kind     string             `bson:"kind"`
	OldPrice int64              `bson:"old_price"`
	NewPrice int64              `bson:"new_price"`
	SentAt   time.Time          `bson:"sent_at"`
}
