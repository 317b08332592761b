package database

import (
	"context"

	"github.com/pkg/errors"
	"pricetracker/internal/model"
)

func (db Database) NotificationInsert(ctx context.Context, n model.Notification) error {
	_, err := db.Collection(CollectionNotifications).InsertOne(ctx, n)
	return errors.Wrapf(err, "error inserting Notification for UserID: %s, ItemID: %s", n.UserID, n.ItemID.Hex())
}
