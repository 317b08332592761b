package server

import (
	"context"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"pricetracker/internal/model"
	"pricetracker/internal/monitor"
)

const DefaultMaxItemsPerUser = 5

type Server struct {
	DB              store
	Client          snapshotSource
	Monitor         runner
	Logger          logger
	AuthSecretKey   jwk.Key
	RegistrationKey string
	MaxItemsPerUser int
	Now             func() time.Time
}

type store interface {
	UserUpsert(ctx context.Context, u model.User) (bool, error)
	UserFindByID(ctx context.Context, id string) (model.User, error)
	UserLoginTokenUpdate(ctx context.Context, id string, lt model.LoginToken) error
	UserLoginTokenRemove(ctx context.Context, id string) error

	ItemInsert(ctx context.Context, i model.TrackedItem) (model.TrackedItem, error)
	ItemFindByShortID(ctx context.Context, userID string, shortID string) (model.TrackedItem, error)
	ItemsFindByUser(ctx context.Context, userID string) ([]model.TrackedItem, error)
	ItemCountByUser(ctx context.Context, userID string) (int, error)
	ItemTargetPriceUpdate(ctx context.Context, itemID primitive.ObjectID, target *int64) error
	ItemDelete(ctx context.Context, itemID primitive.ObjectID) error

	ItemHistoryInsert(ctx context.Context, ih model.ItemHistory) error
	ItemHistoryFindAll(ctx context.Context, itemID primitive.ObjectID) ([]model.ItemHistory, error)
}

type snapshotSource interface {
	GetSnapshot(ctx context.Context, url string) (model.Snapshot, error)
}

type runner interface {
	Run(ctx context.Context) (monitor.RunSummary, error)
}

type logger interface {
	Debugf(format string, v ...any)
	Infof(format string, v ...any)
	Warnf(format string, v ...any)
	Errorf(format string, v ...any)
	Tracef(format string, v ...any)
}

func (s Server) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s Server) maxItems(u model.User) int {
	if u.MaxItems > 0 {
		return u.MaxItems
	}
	if s.MaxItemsPerUser > 0 {
		return s.MaxItemsPerUser
	}
	return DefaultMaxItemsPerUser
}
