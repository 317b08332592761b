package monitor

import (
	"time"

	"pricetracker/internal/misc"
	"pricetracker/internal/model"
)

// RetryPolicy decides whether a due item is worth fetching on this run.
type RetryPolicy interface {
	ShouldSkip(i model.TrackedItem, now time.Time) bool
	NextEligibleTime(i model.TrackedItem) time.Time
}

// AlwaysRetry fetches every due item, however long its error streak.
type AlwaysRetry struct{}

func (AlwaysRetry) ShouldSkip(model.TrackedItem, time.Time) bool {
	return false
}

func (AlwaysRetry) NextEligibleTime(i model.TrackedItem) time.Time {
	return nextDay(i.LastChecked)
}

func nextDay(t time.Time) time.Time {
	return misc.StartOfDayUTC(t).AddDate(0, 0, 1)
}

// ExponentialBackoff spaces out retries of failing items: after n consecutive errors
// the item waits Base*2^(n-1), capped at Max, from its last error.
type ExponentialBackoff struct {
	Base time.Duration
	Max  time.Duration
}

func (b ExponentialBackoff) delay(errorCount int) time.Duration {
	d := b.Base
	for n := 1; n < errorCount && d < b.Max; n++ {
		d *= 2
	}
	return misc.Min(d, b.Max)
}

func (b ExponentialBackoff) NextEligibleTime(i model.TrackedItem) time.Time {
	next := nextDay(i.LastChecked)
	if i.ErrorCount == 0 || i.LastErrorAt == nil {
		return next
	}
	backoff := i.LastErrorAt.Add(b.delay(i.ErrorCount))
	if backoff.After(next) {
		return backoff
	}
	return next
}

func (b ExponentialBackoff) ShouldSkip(i model.TrackedItem, now time.Time) bool {
	return now.Before(b.NextEligibleTime(i))
}
