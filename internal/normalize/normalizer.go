// Package normalize coerces raw market API records into canonical trades.
// Records that cannot satisfy the Trade invariants are dropped, never
// retried, and never fail the batch.
package normalize

import (
	"encoding/json"
	"errors"
	"math"
	"time"

	"item-price-lab/internal/domain"
)

// ErrMalformedTimestamp is returned when the time field is neither a numeric
// epoch nor a parseable calendar date-time.
var ErrMalformedTimestamp = errors.New("malformed timestamp")

// msEpochThreshold separates second-resolution epochs from millisecond ones.
// Anything below it is treated as seconds.
const msEpochThreshold = 1e12

// timeLayouts are the calendar formats accepted for string timestamps.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTimestamp converts the raw time field to epoch milliseconds.
func ParseTimestamp(raw json.RawMessage) (int64, error) {
	if len(raw) == 0 {
		return 0, ErrMalformedTimestamp
	}

	var epoch float64
	if err := json.Unmarshal(raw, &epoch); err == nil {
		if math.IsNaN(epoch) || math.IsInf(epoch, 0) || epoch <= 0 {
			return 0, ErrMalformedTimestamp
		}
		if epoch < msEpochThreshold {
			return int64(epoch * 1000), nil
		}
		return int64(epoch), nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, ErrMalformedTimestamp
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UnixMilli(), nil
		}
	}
	return 0, ErrMalformedTimestamp
}

// Normalize coerces a raw batch into canonical trades, preserving order.
// The second return is the number of records dropped. Drops happen for an
// unparseable timestamp, a missing or non-positive price, a non-positive
// amount, or non-finite values; an absent amount defaults to 1.
func Normalize(raws []domain.RawTrade) ([]domain.Trade, int) {
	trades := make([]domain.Trade, 0, len(raws))
	dropped := 0

	for _, raw := range raws {
		ts, err := ParseTimestamp(raw.Time)
		if err != nil {
			dropped++
			continue
		}

		if raw.Price == nil {
			dropped++
			continue
		}
		price := *raw.Price

		amount := 1.0
		if raw.Amount != nil {
			amount = *raw.Amount
		}

		if !validPositive(price) || !validPositive(amount) {
			dropped++
			continue
		}

		trades = append(trades, domain.Trade{
			TimestampMs: ts,
			Price:       price,
			Amount:      amount,
		})
	}

	return trades, dropped
}

func validPositive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
