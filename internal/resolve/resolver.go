// Package resolve decides, once per acquisition batch, whether the recorded
// price field is already a per-unit price or a stack total.
package resolve

import (
	"item-price-lab/internal/domain"
	"item-price-lab/internal/stats"
)

// DefaultLargePriceCeiling is the per-unit price above which the recorded
// prices are considered implausible for the target domain. An empirically
// chosen safety net, kept configurable.
const DefaultLargePriceCeiling = 1_000_000

// Decision carries the interpretation choice and the evidence behind it.
type Decision struct {
	Interpretation domain.UnitInterpretation
	RelMADPerUnit  float64 // dispersion of the price-as-unit-price candidate
	RelMADStack    float64 // dispersion of the price/amount candidate
}

// Choose evaluates the two candidate unit-price series over one batch and
// picks the interpretation with the lower relative dispersion. The second
// return is false for an empty batch, which yields no resolution at all.
//
// The stack-total reading wins when its relative MAD is strictly lower, or
// when the per-unit reading's median exceeds largePriceCeiling while the
// stack reading's median is smaller: unit prices that large are themselves
// evidence of stack-total pricing.
func Choose(trades []domain.Trade, largePriceCeiling float64) (Decision, bool) {
	if len(trades) == 0 {
		return Decision{}, false
	}

	perUnit := make([]float64, len(trades))
	perStack := make([]float64, len(trades))
	for i, t := range trades {
		perUnit[i] = t.Price
		perStack[i] = t.Price / t.Amount
	}

	d := Decision{
		Interpretation: domain.InterpretationPerUnit,
		RelMADPerUnit:  stats.RelativeMAD(perUnit),
		RelMADStack:    stats.RelativeMAD(perStack),
	}

	medianA, _ := stats.Median(perUnit)
	medianB, _ := stats.Median(perStack)

	if d.RelMADStack < d.RelMADPerUnit {
		d.Interpretation = domain.InterpretationStackTotal
	} else if medianA > largePriceCeiling && medianB < medianA {
		d.Interpretation = domain.InterpretationStackTotal
	}

	return d, true
}

// Resolve applies one batch-wide interpretation choice to every trade.
// An empty batch resolves to nil.
func Resolve(trades []domain.Trade, largePriceCeiling float64) ([]domain.ResolvedTrade, Decision) {
	decision, ok := Choose(trades, largePriceCeiling)
	if !ok {
		return nil, decision
	}

	resolved := make([]domain.ResolvedTrade, len(trades))
	for i, t := range trades {
		unit := t.Price
		if decision.Interpretation == domain.InterpretationStackTotal {
			unit = t.Price / t.Amount
		}
		resolved[i] = domain.ResolvedTrade{Trade: t, UnitPrice: unit}
	}
	return resolved, decision
}
