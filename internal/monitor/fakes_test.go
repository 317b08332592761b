package monitor

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"pricetracker/internal/database"
	"pricetracker/internal/misc"
	"pricetracker/internal/model"
)

type testLogger struct{ t *testing.T }

func (l testLogger) Debugf(format string, v ...any) { l.t.Logf("DEBUG: "+format, v...) }
func (l testLogger) Infof(format string, v ...any)  { l.t.Logf("INFO : "+format, v...) }
func (l testLogger) Warnf(format string, v ...any)  { l.t.Logf("WARN : "+format, v...) }
func (l testLogger) Errorf(format string, v ...any) { l.t.Logf("ERROR: "+format, v...) }

// memStore is an in-memory ItemStore, PriceLedger and NotificationLog.
type memStore struct {
	mu            sync.Mutex
	items         map[primitive.ObjectID]*model.TrackedItem
	history       []model.ItemHistory
	notifications []model.Notification

	failFindDue error
	failInsert  error
}

func newMemStore(is ...model.TrackedItem) *memStore {
	s := &memStore{items: map[primitive.ObjectID]*model.TrackedItem{}}
	for n := range is {
		i := is[n]
		s.items[i.ID] = &i
	}
	return s
}

func (s *memStore) item(id primitive.ObjectID) model.TrackedItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.items[id]
}

func (s *memStore) ItemsFindDue(_ context.Context, asOf time.Time, limit int) ([]model.TrackedItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failFindDue != nil {
		return nil, s.failFindDue
	}
	cutoff := misc.StartOfDayUTC(asOf)
	var due []model.TrackedItem
	for _, i := range s.items {
		if i.LastChecked.Before(cutoff) {
			due = append(due, *i)
		}
	}
	sort.Slice(due, func(a, b int) bool {
		if !due[a].LastChecked.Equal(due[b].LastChecked) {
			return due[a].LastChecked.Before(due[b].LastChecked)
		}
		return due[a].ID.Hex() < due[b].ID.Hex()
	})
	if len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (s *memStore) ItemRecordSuccess(_ context.Context, id primitive.ObjectID, price int64, ts time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.items[id]
	if !ok {
		return errors.WithMessage(database.ErrItemNotFound, "record success")
	}
	i.CurrentPrice = price
	if ts.After(i.LastChecked) {
		i.LastChecked = ts
	}
	i.ErrorCount = 0
	i.LastError = nil
	i.LastErrorAt = nil
	return nil
}

func (s *memStore) ItemRecordFailure(_ context.Context, id primitive.ObjectID, msg string, ts time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.items[id]
	if !ok {
		return errors.WithMessage(database.ErrItemNotFound, "record failure")
	}
	i.ErrorCount++
	i.LastError = &msg
	i.LastErrorAt = &ts
	return nil
}

func (s *memStore) ItemHistoryInsert(_ context.Context, ih model.ItemHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failInsert != nil {
		return s.failInsert
	}
	s.history = append(s.history, ih)
	return nil
}

func (s *memStore) ItemHistoryStats(_ context.Context, id primitive.ObjectID, excludeLatest bool) (model.PriceStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	hs := s.historyOf(id)
	if excludeLatest && len(hs) > 0 {
		// drop the observation with the newest ts, not the last appended
		newest := 0
		for n, h := range hs {
			if !h.Timestamp.Before(hs[newest].Timestamp) {
				newest = n
			}
		}
		hs = append(hs[:newest], hs[newest+1:]...)
	}
	var st model.PriceStats
	var latestTs time.Time
	for n, h := range hs {
		if n == 0 || h.Price < st.Lowest {
			st.Lowest = h.Price
		}
		if n == 0 || h.Price > st.Highest {
			st.Highest = h.Price
		}
		if n == 0 || !h.Timestamp.Before(latestTs) {
			st.Latest, latestTs = h.Price, h.Timestamp
		}
		st.Count++
	}
	return st, nil
}

func (s *memStore) ItemHistoryDeleteAll(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.history[:0]
	for _, h := range s.history {
		if h.ItemID != id {
			kept = append(kept, h)
		}
	}
	s.history = kept
	return nil
}

func (s *memStore) historyOf(id primitive.ObjectID) []model.ItemHistory {
	var hs []model.ItemHistory
	for _, h := range s.history {
		if h.ItemID == id {
			hs = append(hs, h)
		}
	}
	return hs
}

func (s *memStore) NotificationInsert(_ context.Context, n model.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = append(s.notifications, n)
	return nil
}

// fakeSource answers by URL; unknown URLs fail with an HTTP error.
type fakeSource struct {
	snapshots map[string]model.Snapshot
	errs      map[string]error
	calls     []string
}

func (f *fakeSource) GetSnapshot(_ context.Context, url string) (model.Snapshot, error) {
	f.calls = append(f.calls, url)
	if err, ok := f.errs[url]; ok {
		return model.Snapshot{}, err
	}
	if s, ok := f.snapshots[url]; ok {
		return s, nil
	}
	return model.Snapshot{}, model.NewFetchError(model.FetchErrorHTTP, url, "HTTP 404: Not Found")
}

type sentMessage struct {
	userID  string
	message string
}

type fakeNotifier struct {
	sent []sentMessage
	err  error
}

func (f *fakeNotifier) Notify(_ context.Context, userID string, message string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMessage{userID: userID, message: message})
	return nil
}

func int64p(v int64) *int64 { return &v }

func newItem(url string, price int64, lastChecked time.Time) model.TrackedItem {
	return model.TrackedItem{
		ID:           primitive.NewObjectID(),
		ShortID:      "ABC123",
		URL:          url,
		Title:        "Item " + url,
		CurrentPrice: price,
		LastChecked:  lastChecked,
		UserID:       "42",
	}
}

func snapshot(url string, price int64) model.Snapshot {
	return model.Snapshot{Title: "Item " + url, Price: price, Currency: "IDR", Available: true, URL: url}
}
