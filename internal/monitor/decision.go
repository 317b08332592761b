package monitor

import "pricetracker/internal/model"

//go:generate go run golang.org/x/tools/cmd/stringer -type=Decision -linecomment

// Decision is the notification verdict for one successful fetch.
type Decision int

const (
	DecisionNone          Decision = iota // none
	DecisionTargetReached                 // target_reached
	DecisionNewLow                        // new_low
	DecisionPriceDrop                     // price_drop
)

// Decide picks at most one notification for a fresh snapshot. Checks run in priority order:
// the target price, then a new all-time low against every earlier observation in history,
// then a plain drop from previousPrice.
func Decide(previousPrice int64, snapshot model.Snapshot, targetPrice *int64, history model.PriceStats) Decision {
	switch {
	case targetPrice != nil && snapshot.Price <= *targetPrice:
		return DecisionTargetReached
	case history.Count > 0 && snapshot.Price < history.Lowest:
		return DecisionNewLow
	case snapshot.Price < previousPrice:
		return DecisionPriceDrop
	default:
		return DecisionNone
	}
}
