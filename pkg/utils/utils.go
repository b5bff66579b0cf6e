package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DayLayout is the calendar-day key format used across the tracker.
const DayLayout = "2006-01-02"

// StorageLayout always writes a numeric offset, +00:00 included, so a
// trailing "Z" only ever appears on legacy UTC stamps.
const StorageLayout = "2006-01-02T15:04:05-07:00"

func locOrLocal(loc *time.Location) *time.Location {
	if loc == nil {
		return time.Local
	}
	return loc
}

// LocalDayString returns the YYYY-MM-DD key of the calendar day containing t in loc.
func LocalDayString(t time.Time, loc *time.Location) string {
	return t.In(locOrLocal(loc)).Format(DayLayout)
}

// IsSameLocalDay reports whether a and b fall on the same calendar day in loc.
func IsSameLocalDay(a, b time.Time, loc *time.Location) bool {
	return LocalDayString(a, loc) == LocalDayString(b, loc)
}

// StartOfDay truncates t to midnight of its calendar day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(locOrLocal(loc))
	y, m, d := local.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, local.Location())
}

// AtHour returns hour:00 local time on the calendar day containing t in loc.
func AtHour(t time.Time, hour int, loc *time.Location) time.Time {
	local := t.In(locOrLocal(loc))
	y, m, d := local.Date()
	return time.Date(y, m, d, hour, 0, 0, 0, local.Location())
}

// NormalizeForStorage truncates t to local midnight and serializes it with
// StorageLayout. The offset in effect at that midnight is kept in the string.
func NormalizeForStorage(t time.Time, loc *time.Location) string {
	return StartOfDay(t, loc).Format(StorageLayout)
}

// isLegacyUTC reports whether a stored stamp uses the "Z" designator.
func isLegacyUTC(stored string) bool {
	s := strings.TrimSpace(stored)
	return strings.HasSuffix(s, "Z") || strings.HasSuffix(s, "z")
}

// ParseStored parses a stored follow-up timestamp.
func ParseStored(stored string) (time.Time, error) {
	s := strings.TrimSpace(stored)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02T15:04:05.000Z07:00", s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", stored)
}

// DayStringFromStored returns the day key a stored timestamp was normalized to.
//
// A timestamp carrying a numeric offset, +00:00 included, keeps its own
// calendar date, so a record written at local midnight stays on that day
// after the zone changes. "Z" stamps carry no storage-time zone and are
// re-derived in loc.
func DayStringFromStored(stored string, loc *time.Location) (string, error) {
	t, err := ParseStored(stored)
	if err != nil {
		return "", err
	}
	if isLegacyUTC(stored) {
		return LocalDayString(t, loc), nil
	}
	return t.Format(DayLayout), nil
}

// ParseDay parses a YYYY-MM-DD key as midnight of that day in loc.
func ParseDay(day string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DayLayout, strings.TrimSpace(day), locOrLocal(loc))
}

// ParseFollowUpInput accepts either a bare day key or an RFC 3339 instant.
func ParseFollowUpInput(input string, loc *time.Location) (time.Time, error) {
	s := strings.TrimSpace(input)
	if t, err := ParseDay(s, loc); err == nil {
		return t, nil
	}
	return ParseStored(s)
}

// ParseAmount leniently parses a free-text loan amount. Grouping commas,
// spaces and a leading rupee sign are ignored.
func ParseAmount(raw string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "₹")
	s = strings.NewReplacer(",", "", " ", "").Replace(s)
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// FormatINR renders an amount in Indian digit grouping, e.g. ₹12,34,567.
// Fractions are rounded to whole rupees.
func FormatINR(amount decimal.Decimal) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Neg()
	}
	digits := amount.Round(0).StringFixed(0)

	if len(digits) > 3 {
		head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
		var groups []string
		for len(head) > 2 {
			groups = append([]string{head[len(head)-2:]}, groups...)
			head = head[:len(head)-2]
		}
		if head != "" {
			groups = append([]string{head}, groups...)
		}
		digits = strings.Join(groups, ",") + "," + tail
	}

	return sign + "₹" + digits
}
