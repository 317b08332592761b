package database

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
	"pricetracker/internal/model"
)

func TestDueItemsQuery(t *testing.T) {
	asOf := time.Date(2024, 3, 15, 9, 45, 0, 0, time.UTC)
	filter, opts := dueItemsQuery(asOf, 10)

	lc, ok := filter["last_checked"].(bson.M)
	if !ok {
		t.Fatalf("filter has no last_checked condition: %#v", filter)
	}
	if got, want := lc["$lt"].(time.Time), time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("$lt = %v, want %v", got, want)
	}
	if opts.Limit == nil || *opts.Limit != 10 {
		t.Errorf("limit = %v, want 10", opts.Limit)
	}
	sort, ok := opts.Sort.(bson.D)
	if !ok || len(sort) != 2 || sort[0].Key != "last_checked" || sort[0].Value != 1 || sort[1].Key != "_id" {
		t.Errorf("sort = %#v, want last_checked asc then _id", opts.Sort)
	}
}

func TestItemHistoryStatsPipeline(t *testing.T) {
	id := primitive.NewObjectID()
	if got := len(itemHistoryStatsPipeline(id, false)); got != 3 {
		t.Errorf("pipeline without exclusion has %d stages, want 3", got)
	}
	p := itemHistoryStatsPipeline(id, true)
	if len(p) != 4 {
		t.Fatalf("pipeline with exclusion has %d stages, want 4", len(p))
	}
	if p[2][0].Key != "$skip" {
		t.Errorf("third stage = %s, want $skip", p[2][0].Key)
	}
}

func TestNewShortID(t *testing.T) {
	for n := 0; n < 100; n++ {
		id, err := newShortID()
		if err != nil {
			t.Fatal(err)
		}
		if len(id) != shortIDLength {
			t.Fatalf("len(%q) = %d", id, len(id))
		}
		for _, r := range id {
			if !strings.ContainsRune(shortIDAlphabet, r) {
				t.Fatalf("%q contains %q outside the alphabet", id, r)
			}
		}
	}
}

func TestDatabaseMock(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	ns := Name + "." + CollectionItems

	mt.Run("ItemsFindDue decodes items", func(mt *mtest.T) {
		db := Database{Database: mt.DB}
		id1, id2 := primitive.NewObjectID(), primitive.NewObjectID()
		ts := time.Date(2024, 3, 13, 8, 0, 0, 0, time.UTC)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(1, ns, mtest.FirstBatch,
				bson.D{{Key: "_id", Value: id1}, {Key: "short_id", Value: "AB12CD"}, {Key: "current_price", Value: int64(60000)}, {Key: "last_checked", Value: ts}},
				bson.D{{Key: "_id", Value: id2}, {Key: "short_id", Value: "ZZ99ZZ"}, {Key: "current_price", Value: int64(12000)}, {Key: "last_checked", Value: ts.Add(time.Hour)}},
			),
			mtest.CreateCursorResponse(0, ns, mtest.NextBatch),
		)

		is, err := db.ItemsFindDue(ctx, time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC), 10)
		if err != nil {
			mt.Fatalf("ItemsFindDue: %v", err)
		}
		if len(is) != 2 || is[0].ID != id1 || is[1].ID != id2 {
			mt.Fatalf("got %+v", is)
		}
		if is[0].CurrentPrice != 60000 || !is[0].LastChecked.Equal(ts) {
			mt.Errorf("first item decoded as %+v", is[0])
		}
	})

	mt.Run("ItemsFindDue with zero limit skips the query", func(mt *mtest.T) {
		db := Database{Database: mt.DB}
		is, err := db.ItemsFindDue(ctx, time.Now(), 0)
		if err != nil || len(is) != 0 {
			mt.Errorf("got %v, %v", is, err)
		}
	})

	mt.Run("ItemRecordFailure on missing item", func(mt *mtest.T) {
		db := Database{Database: mt.DB}
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))
		err := db.ItemRecordFailure(ctx, primitive.NewObjectID(), "[timeout] deadline", time.Now())
		if !errors.Is(err, ErrItemNotFound) {
			mt.Errorf("err = %v, want ErrItemNotFound", err)
		}
	})

	mt.Run("ItemRecordSuccess", func(mt *mtest.T) {
		db := Database{Database: mt.DB}
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))
		if err := db.ItemRecordSuccess(ctx, primitive.NewObjectID(), 48000, time.Now()); err != nil {
			mt.Errorf("ItemRecordSuccess: %v", err)
		}
	})

	mt.Run("ItemHistoryStats", func(mt *mtest.T) {
		db := Database{Database: mt.DB}
		mt.AddMockResponses(mtest.CreateCursorResponse(0, Name+"."+CollectionItemHistories, mtest.FirstBatch,
			bson.D{
				{Key: "_id", Value: nil},
				{Key: "count", Value: int32(3)},
				{Key: "lowest", Value: int64(100)},
				{Key: "highest", Value: int64(120)},
				{Key: "latest", Value: int64(100)},
			},
		))
		stats, err := db.ItemHistoryStats(ctx, primitive.NewObjectID(), true)
		if err != nil {
			mt.Fatalf("ItemHistoryStats: %v", err)
		}
		want := model.PriceStats{Count: 3, Lowest: 100, Highest: 120, Latest: 100}
		if stats != want {
			mt.Errorf("stats = %+v, want %+v", stats, want)
		}
	})

	mt.Run("ItemHistoryStats without history", func(mt *mtest.T) {
		db := Database{Database: mt.DB}
		mt.AddMockResponses(mtest.CreateCursorResponse(0, Name+"."+CollectionItemHistories, mtest.FirstBatch))
		stats, err := db.ItemHistoryStats(ctx, primitive.NewObjectID(), true)
		if err != nil {
			mt.Fatalf("ItemHistoryStats: %v", err)
		}
		if stats.Count != 0 {
			mt.Errorf("stats = %+v, want zero", stats)
		}
	})

	mt.Run("ItemHistoryDeleteAll", func(mt *mtest.T) {
		db := Database{Database: mt.DB}
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 2}))
		if err := db.ItemHistoryDeleteAll(ctx, primitive.NewObjectID()); err != nil {
			mt.Errorf("ItemHistoryDeleteAll: %v", err)
		}
	})

	mt.Run("ItemInsert retries on short ID collision", func(mt *mtest.T) {
		db := Database{Database: mt.DB}
		mt.AddMockResponses(
			mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "E11000 duplicate key error"}),
			mtest.CreateSuccessResponse(),
		)
		i, err := db.ItemInsert(ctx, model.TrackedItem{URL: "https://www.tokopedia.com/shop/item", UserID: "42"})
		if err != nil {
			mt.Fatalf("ItemInsert: %v", err)
		}
		if i.ID.IsZero() || len(i.ShortID) != shortIDLength {
			mt.Errorf("inserted item = %+v", i)
		}
	})

	mt.Run("ItemInsert gives up after repeated collisions", func(mt *mtest.T) {
		db := Database{Database: mt.DB}
		for n := 0; n < shortIDMaxAttempts; n++ {
			mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "E11000 duplicate key error"}))
		}
		if _, err := db.ItemInsert(ctx, model.TrackedItem{URL: "https://www.tokopedia.com/shop/item"}); err == nil {
			mt.Error("expected error after exhausting attempts")
		}
	})

	mt.Run("UserLoginTokenUpdate on missing user", func(mt *mtest.T) {
		db := Database{Database: mt.DB}
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))
		err := db.UserLoginTokenUpdate(ctx, "42", model.LoginToken{TokenID: "jti"})
		if !errors.Is(err, ErrUserNotFound) {
			mt.Errorf("err = %v, want ErrUserNotFound", err)
		}
	})

	mt.Run("UserUpsert reports creation", func(mt *mtest.T) {
		db := Database{Database: mt.DB}
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 0},
			bson.E{Key: "upserted", Value: bson.A{bson.D{{Key: "index", Value: 0}, {Key: "_id", Value: "42"}}}},
		))
		created, err := db.UserUpsert(ctx, model.User{ID: "42", Username: "budi", MaxItems: 5})
		if err != nil || !created {
			mt.Errorf("created = %v, err = %v", created, err)
		}
	})
}
