package misc

import (
	"testing"
	"time"
)

func TestStringLimit(t *testing.T) {
	tests := []struct {
		s    string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly ten", 11, "exactly ten"},
		{"this is too long", 10, "this is..."},
		{"abcdef", 3, "abc"},
		{"abc", -1, ""},
		{"Sepatu Lari 👟👟👟", 14, "Sepatu Lari..."},
		{"👟👟👟👟👟", 4, "👟..."},
	}
	for _, tt := range tests {
		if got := StringLimit(tt.s, tt.n); got != tt.want {
			t.Errorf("StringLimit(%q, %d) = %q, want %q", tt.s, tt.n, got, tt.want)
		}
	}
}

func TestBytesLimitDoesNotClobberInput(t *testing.T) {
	in := []byte("0123456789")
	got := BytesLimit(in, 6)
	if string(got) != "012..." {
		t.Errorf("BytesLimit = %q", got)
	}
	if string(in) != "0123456789" {
		t.Errorf("input modified: %q", in)
	}
}

func TestFormatIDR(t *testing.T) {
	tests := []struct {
		amount int64
		want   string
	}{
		{0, "Rp0"},
		{950, "Rp950"},
		{48000, "Rp48.000"},
		{1250000, "Rp1.250.000"},
	}
	for _, tt := range tests {
		if got := FormatIDR(tt.amount); got != tt.want {
			t.Errorf("FormatIDR(%d) = %q, want %q", tt.amount, got, tt.want)
		}
	}
}

func TestStartOfDayUTC(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*60*60)
	tests := []struct {
		in   time.Time
		want time.Time
	}{
		{time.Date(2024, 5, 10, 15, 30, 0, 0, time.UTC), time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)},
		{time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC), time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)},
		// 03:00 WIB is still the previous day in UTC.
		{time.Date(2024, 5, 10, 3, 0, 0, 0, jakarta), time.Date(2024, 5, 9, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		if got := StartOfDayUTC(tt.in); !got.Equal(tt.want) {
			t.Errorf("StartOfDayUTC(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestMinMax(t *testing.T) {
	if Min(3, 5) != 3 || Max(3, 5) != 5 {
		t.Error("Min/Max on ints")
	}
	if Min("b", "a") != "a" {
		t.Error("Min on strings")
	}
}
