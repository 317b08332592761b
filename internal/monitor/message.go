package monitor

import (
	"fmt"

	"pricetracker/internal/misc"
	"pricetracker/internal/model"
)

const titleLimit = 50

func formatMessage(d Decision, i model.TrackedItem, s model.Snapshot) string {
	title := misc.StringLimit(i.Title, titleLimit)
	switch d {
	case DecisionTargetReached:
		return fmt.Sprintf("✅ Price alert! %s: %s (target: %s)",
			title, misc.FormatIDR(s.Price), misc.FormatIDR(*i.TargetPrice))
	case DecisionNewLow:
		return fmt.Sprintf("📉 Lowest price! %s: %s", title, misc.FormatIDR(s.Price))
	case DecisionPriceDrop:
		return fmt.Sprintf("🔻 Price drop! %s: %s → %s",
			title, misc.FormatIDR(i.CurrentPrice), misc.FormatIDR(s.Price))
	default:
		return ""
	}
}
