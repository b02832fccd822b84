package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// VehicleTypes maps vehicle ids to type names.
var VehicleTypes = map[string]string{
	"0": "sedan",
	"1": "mpv",
	"2": "van",
	"3": "luxury sedan",
	"4": "shuttle",
}

// PaymentMethods maps known payment method ids to names. Unknown ids keep the
// id as their name.
var PaymentMethods = map[string]string{
	"0": "cash payment",
	"1": "online payment",
	"2": "bizdev/partner payment",
}

// TimestampLayout is the export's timestamp format: UTC, milliseconds, Z suffix.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// ParseTimestamp parses an order timestamp.
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(TimestampLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, s)
	}
	return t, nil
}

// SeasonDelimiter separates the prefix and year of a season label.
const SeasonDelimiter = "-"

// ParseSeasonLabel returns the year segment of a "Season-YYYY" label.
func ParseSeasonLabel(label string) (string, error) {
	parts := strings.Split(label, SeasonDelimiter)
	if len(parts) < 2 || strings.TrimSpace(parts[1]) == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidSeasonLabel, label)
	}
	return strings.TrimSpace(parts[1]), nil
}

// SortedKeys returns a table's keys in order.
func SortedKeys(table map[string]string) []string {
	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
