package misc

import (
	"time"

	"golang.org/x/exp/constraints"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func Max[T constraints.Ordered](a, b T) T {
	if a > b {
		return a
	}
	return b
}

func Min[T constraints.Ordered](a, b T) T {
	if a < b {
		return a
	}
	return b
}

// StringLimit cuts s to at most n runes, marking the cut with "...".
func StringLimit(s string, n int) string {
	if n < 0 {
		return ""
	}
	rs := []rune(s)
	if n <= 3 {
		return string(rs[:Min(n, len(rs))])
	}
	if len(rs) > n {
		return string(rs[:n-3]) + "..."
	}
	return s
}

func BytesLimit(bs []byte, n int) []byte {
	if n < 0 {
		return nil
	}
	if n <= 3 {
		return bs[:Min(n, len(bs))]
	}
	if len(bs) > n {
		return append(bs[:n-3:n-3], "..."...)
	}
	return bs
}

var idrPrinter = message.NewPrinter(language.Indonesian)

// FormatIDR renders an amount of rupiah the way id-ID locales do, e.g. Rp48.000.
func FormatIDR(amount int64) string {
	return "Rp" + idrPrinter.Sprintf("%d", amount)
}

// StartOfDayUTC truncates t to midnight of its UTC calendar day.
func StartOfDayUTC(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
