package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TrackedItem struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	ShortID      string             `bson:"short_id" json:"short_id"`
	URL          string             `bson:"url" json:"url"`
	Title        string             `bson:"title" json:"title"`
	CurrentPrice int64              `bson:"current_price" json:"current_price"`
	TargetPrice  *int64             `bson:"target_price" json:"target_price,omitempty"`
	LastChecked  time.Time          `bson:"last_checked" json:"last_checked"`
	ErrorCount   int                `bson:"error_count" json:"error_count"`
	LastError    *string            `bson:"last_error" json:"last_error,omitempty"`
	LastErrorAt  *time.Time         `bson:"last_error_at" json:"-"`
	UserID       string             `bson:"user_id" json:"-"`
	CreatedAt    time.Time          `bson:"created_at" json:"-"`
}

// HasTarget reports whether the owner set a target price.
func (i TrackedItem) HasTarget() bool {
	return i.TargetPrice != nil
}
