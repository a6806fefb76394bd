package domain

import "encoding/json"

// RawTrade is one record as delivered by the market history API.
// Nothing about it is validated: the time field may be a numeric epoch or a
// calendar string, price may be missing or garbage, amount may be absent.
type RawTrade struct {
	Time   json.RawMessage `json:"time"`
	Price  *float64        `json:"price"`
	Amount *float64        `json:"amount"`
}

// Trade is a normalized trade record. Invariants (enforced by the
// normalizer, not here): TimestampMs is epoch milliseconds, Price > 0,
// Amount > 0, both finite.
type Trade struct {
	TimestampMs int64   // trade time, Unix ms
	Price       float64 // recorded price, interpretation undecided
	Amount      float64 // units traded, defaults to 1 when the source omits it
}

// UnitInterpretation is the per-batch decision of what the recorded price
// field means.
type UnitInterpretation string

const (
	// InterpretationPerUnit means the recorded price is already a per-unit price.
	InterpretationPerUnit UnitInterpretation = "per_unit"

	// InterpretationStackTotal means the recorded price covers the whole
	// stack and must be divided by amount.
	InterpretationStackTotal UnitInterpretation = "stack_total"
)

// ResolvedTrade is a Trade plus the unit price derived from the batch-wide
// interpretation choice.
type ResolvedTrade struct {
	Trade
	UnitPrice float64
}
