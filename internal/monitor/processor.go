package monitor

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"pricetracker/internal/database"
	"pricetracker/internal/misc"
	"pricetracker/internal/model"
)

// Outcome describes what happened to one item during a run.
type Outcome struct {
	Item     model.TrackedItem
	Snapshot model.Snapshot
	Err      *model.FetchError
	Decision Decision
	Notified bool
	// Removed is set when the item disappeared from the store mid-run.
	Removed bool
}

// ProcessItem fetches one item, records the result, and notifies its owner when the
// new price is worth it. Fetch and delivery failures end up in the Outcome; the
// returned error is reserved for the store and for ctx ending mid-fetch.
func (m Monitor) ProcessItem(ctx context.Context, i model.TrackedItem, now time.Time) (Outcome, error) {
	out := Outcome{Item: i}
	itemName := misc.StringLimit(i.Title, 45)

	fetchCtx, cancel := context.WithTimeout(ctx, m.fetchTimeout())
	s, err := m.Source.GetSnapshot(fetchCtx, i.URL)
	cancel()
	if err != nil {
		if ctx.Err() != nil {
			return out, errors.WithMessagef(ctx.Err(), "fetch of Item ID: %s interrupted", i.ID.Hex())
		}
		out.Err = model.AsFetchError(err, i.URL)
		m.Logger.Warnf("ProcessItem: Fetch failed for Item: %s, ID: %s, kind: %s, err: %v",
			itemName, i.ID.Hex(), out.Err.Kind, out.Err.Message)
		if err = m.Items.ItemRecordFailure(ctx, i.ID, out.Err.Error(), now); err != nil {
			return out, m.itemGone(&out, err)
		}
		return out, nil
	}
	out.Snapshot = s

	m.Logger.Debugf("ProcessItem: Inserting ItemHistory for Item: %s, ID: %s, price: %d", itemName, i.ID.Hex(), s.Price)
	if err = m.Ledger.ItemHistoryInsert(ctx, model.ItemHistory{ItemID: i.ID, Price: s.Price, Timestamp: now}); err != nil {
		return out, err
	}
	history, err := m.Ledger.ItemHistoryStats(ctx, i.ID, true)
	if err != nil {
		return out, err
	}
	if err = m.Items.ItemRecordSuccess(ctx, i.ID, s.Price, now); err != nil {
		if err = m.itemGone(&out, err); err != nil {
			return out, err
		}
		// the item's history was cascaded away before this observation landed
		return out, m.Ledger.ItemHistoryDeleteAll(ctx, i.ID)
	}

	out.Decision = Decide(i.CurrentPrice, s, i.TargetPrice, history)
	if out.Decision == DecisionNone {
		m.Logger.Debugf("ProcessItem: Nothing to notify for Item: %s, ID: %s, price: %d -> %d",
			itemName, i.ID.Hex(), i.CurrentPrice, s.Price)
		return out, nil
	}

	out.Notified = m.notify(ctx, out, now)
	return out, nil
}

// itemGone turns a missing-item store error into an item-level outcome.
func (m Monitor) itemGone(out *Outcome, err error) error {
	if errors.Is(err, database.ErrItemNotFound) {
		m.Logger.Infof("ProcessItem: Item ID: %s was removed during the run", out.Item.ID.Hex())
		out.Removed = true
		return nil
	}
	return err
}

func (m Monitor) notify(ctx context.Context, out Outcome, now time.Time) bool {
	i := out.Item
	msg := formatMessage(out.Decision, i, out.Snapshot)

	notifyCtx, cancel := context.WithTimeout(ctx, m.fetchTimeout())
	defer cancel()
	m.Logger.Infof("notify: Sending %s notification to UserID: %s for Item ID: %s", out.Decision, i.UserID, i.ID.Hex())
	if err := m.Notifier.Notify(notifyCtx, i.UserID, msg); err != nil {
		m.Logger.Errorf("notify: Error notifying UserID: %s for Item ID: %s, err: %v", i.UserID, i.ID.Hex(), err)
		return false
	}

	if m.Notifications != nil {
		n := model.Notification{
			UserID:   i.UserID,
			ItemID:   i.ID,
			Kind:     out.Decision.String(),
			OldPrice: i.CurrentPrice,
			NewPrice: out.Snapshot.Price,
			SentAt:   now,
		}
		if err := m.Notifications.NotificationInsert(ctx, n); err != nil {
			m.Logger.Errorf("notify: Error logging Notification for Item ID: %s, err: %v", i.ID.Hex(), err)
		}
	}
	return true
}
