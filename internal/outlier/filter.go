// Package outlier flags individually anomalous unit prices within one
// window's trade subset using the modified z-score.
package outlier

import (
	"math"

	"item-price-lab/internal/domain"
	"item-price-lab/internal/stats"
)

// Defaults. Empirically chosen thresholds, kept configurable.
const (
	DefaultZThreshold = 2.5
	DefaultMinSamples = 5
)

// Config controls outlier detection for one filtering pass.
type Config struct {
	// ZThreshold is the absolute modified z-score above which a trade is
	// flagged.
	ZThreshold float64

	// MinSamples is the minimum window population before detection is
	// attempted; below it every trade is treated as clean.
	MinSamples int
}

// DefaultConfig returns the default filter configuration.
func DefaultConfig() Config {
	return Config{ZThreshold: DefaultZThreshold, MinSamples: DefaultMinSamples}
}

// Result splits one window's trades into clean data and flagged outliers.
type Result struct {
	Clean    []domain.ResolvedTrade
	Outliers []domain.OutlierRecord
}

// Filter runs one detection pass over the trades inside one window. The
// reference median and MAD are computed from this subset only, so a trade
// flagged here may be clean in a wider window. A zero MAD (all unit prices
// identical) flags nothing.
func Filter(trades []domain.ResolvedTrade, windowDays int, cfg Config) Result {
	if len(trades) < cfg.MinSamples {
		return Result{Clean: trades}
	}

	prices := make([]float64, len(trades))
	for i, t := range trades {
		prices[i] = t.UnitPrice
	}

	median, _ := stats.Median(prices)
	mad, _ := stats.MAD(prices, median)
	if mad == 0 {
		return Result{Clean: trades}
	}

	res := Result{Clean: make([]domain.ResolvedTrade, 0, len(trades))}
	for _, t := range trades {
		z := stats.ModifiedZScore(t.UnitPrice, median, mad)
		if math.Abs(z) > cfg.ZThreshold {
			res.Outliers = append(res.Outliers, domain.OutlierRecord{
				TimestampMs: t.TimestampMs,
				Price:       t.Price,
				Amount:      t.Amount,
				UnitPrice:   t.UnitPrice,
				WindowDays:  windowDays,
				Score:       z,
			})
			continue
		}
		res.Clean = append(res.Clean, t)
	}
	return res
}
