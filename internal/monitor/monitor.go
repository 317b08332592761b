package monitor

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"pricetracker/internal/model"
)

const (
	DefaultBatchSize    = 10
	DefaultItemDelay    = time.Second
	DefaultFetchTimeout = 10 * time.Second
)

type ItemStore interface {
	ItemsFindDue(ctx context.Context, asOf time.Time, limit int) ([]model.TrackedItem, error)
	ItemRecordSuccess(ctx context.Context, itemID primitive.ObjectID, price int64, ts time.Time) error
	ItemRecordFailure(ctx context.Context, itemID primitive.ObjectID, errMsg string, ts time.Time) error
}

type PriceLedger interface {
	ItemHistoryInsert(ctx context.Context, ih model.ItemHistory) error
	ItemHistoryStats(ctx context.Context, itemID primitive.ObjectID, excludeLatest bool) (model.PriceStats, error)
	ItemHistoryDeleteAll(ctx context.Context, itemID primitive.ObjectID) error
}

type SnapshotSource interface {
	GetSnapshot(ctx context.Context, url string) (model.Snapshot, error)
}

type Notifier interface {
	Notify(ctx context.Context, userID string, message string) error
}

type NotificationLog interface {
	NotificationInsert(ctx context.Context, n model.Notification) error
}

type logger interface {
	Debugf(format string, v ...any)
	Infof(format string, v ...any)
	Warnf(format string, v ...any)
	Errorf(format string, v ...any)
}

// Monitor re-checks due items and notifies their owners of price events.
// Zero values of the optional fields fall back to defaults.
type Monitor struct {
	Items         ItemStore
	Ledger        PriceLedger
	Source        SnapshotSource
	Notifier      Notifier
	Notifications NotificationLog
	Lease         Lease
	Policy        RetryPolicy
	Logger        logger

	BatchSize    int
	ItemDelay    time.Duration
	FetchTimeout time.Duration
	Now          func() time.Time
}

type RunSummary struct {
	RunID     string `json:"run_id"`
	LeaseHeld bool   `json:"lease_held"`
	Selected  int    `json:"selected"`
	Skipped   int    `json:"skipped"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
	Notified  int    `json:"notified"`
}

func (m Monitor) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

func (m Monitor) batchSize() int {
	if m.BatchSize > 0 {
		return m.BatchSize
	}
	return DefaultBatchSize
}

func (m Monitor) fetchTimeout() time.Duration {
	if m.FetchTimeout > 0 {
		return m.FetchTimeout
	}
	return DefaultFetchTimeout
}

func (m Monitor) lease() Lease {
	if m.Lease != nil {
		return m.Lease
	}
	return NopLease{}
}

func (m Monitor) policy() RetryPolicy {
	if m.Policy != nil {
		return m.Policy
	}
	return AlwaysRetry{}
}

// Run performs one monitoring pass. Per-item fetch and notification failures are recorded
// and never returned; a store failure aborts the pass and is returned.
func (m Monitor) Run(ctx context.Context) (RunSummary, error) {
	sum := RunSummary{RunID: uuid.NewString()}

	held, err := m.lease().Acquire(ctx, sum.RunID)
	if err != nil {
		return sum, err
	}
	if !held {
		m.Logger.Infof("Run: Another run holds the lease, skipping, RunID: %s", sum.RunID)
		return sum, nil
	}
	sum.LeaseHeld = true
	defer func() {
		if err := m.lease().Release(context.WithoutCancel(ctx), sum.RunID); err != nil {
			m.Logger.Errorf("Run: Error releasing lease, RunID: %s, err: %v", sum.RunID, err)
		}
	}()

	asOf := m.now()
	is, skipped, err := m.selectDue(ctx, asOf)
	if err != nil {
		return sum, errors.WithMessage(err, "error selecting due Items")
	}
	sum.Selected = len(is) + len(skipped)
	sum.Skipped = len(skipped)
	for _, i := range skipped {
		m.Logger.Debugf("Run: Backing off Item ID: %s, errors: %d, next eligible: %s",
			i.ID.Hex(), i.ErrorCount, m.policy().NextEligibleTime(i).Format(time.RFC3339))
	}
	if len(is) == 0 {
		m.Logger.Debugf("Run: No Items due, RunID: %s", sum.RunID)
		return sum, nil
	}
	m.Logger.Infof("Run: Processing %d Item(s), RunID: %s", len(is), sum.RunID)

	for n, i := range is {
		if n > 0 {
			if err = m.pause(ctx); err != nil {
				return sum, err
			}
		}

		out, err := m.ProcessItem(ctx, i, m.now())
		if err != nil {
			return sum, errors.WithMessagef(err, "error processing Item ID: %s", i.ID.Hex())
		}
		switch {
		case out.Err != nil:
			sum.Failed++
		case out.Removed:
		default:
			sum.Succeeded++
		}
		if out.Notified {
			sum.Notified++
		}
	}

	m.Logger.Infof("Run: Finished, RunID: %s, succeeded: %d, failed: %d, skipped: %d, notified: %d",
		sum.RunID, sum.Succeeded, sum.Failed, sum.Skipped, sum.Notified)
	return sum, nil
}

// selectDue returns up to batchSize due items the retry policy lets through, oldest first,
// along with the backing-off items passed over to find them.
func (m Monitor) selectDue(ctx context.Context, asOf time.Time) ([]model.TrackedItem, []model.TrackedItem, error) {
	var due, skipped []model.TrackedItem
	want := m.batchSize()
	limit := want
	for {
		is, err := m.Items.ItemsFindDue(ctx, asOf, limit)
		if err != nil {
			return nil, nil, err
		}
		due, skipped = due[:0], skipped[:0]
		for _, i := range is {
			if len(due) == want {
				break
			}
			if m.policy().ShouldSkip(i, asOf) {
				skipped = append(skipped, i)
				continue
			}
			due = append(due, i)
		}
		if len(due) == want || len(is) < limit {
			return due, skipped, nil
		}
		limit = want + len(skipped)
	}
}

func (m Monitor) pause(ctx context.Context) error {
	if m.ItemDelay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(m.ItemDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// RunInInterval runs a pass on every tick until ctx is done.
func (m Monitor) RunInInterval(ctx context.Context, ticker *time.Ticker) {
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			m.Logger.Infof("RunInInterval: Stopping, err: %v", ctx.Err())
			return
		case <-ticker.C:
			if _, err := m.Run(ctx); err != nil {
				m.Logger.Errorf("RunInInterval: Run failed, err: %v", err)
			}
		}
	}
}
