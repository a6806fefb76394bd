// Package window computes the per-window weighted statistics over resolved
// trades. Each window is an independent pass: cutoff filtering, outlier
// detection against the window's own median/MAD, then aggregation over the
// surviving trades.
package window

import (
	"math"
	"time"

	"item-price-lab/internal/domain"
	"item-price-lab/internal/outlier"
	"item-price-lab/internal/stats"
)

const dayMs = 24 * 60 * 60 * 1000

// Cutoff returns the oldest timestamp (inclusive) admitted by a trailing
// window of the given length ending at now.
func Cutoff(now time.Time, days int) int64 {
	return now.UnixMilli() - int64(days)*dayMs
}

// Within returns the trades at or after cutoffMs, order preserved.
func Within(trades []domain.ResolvedTrade, cutoffMs int64) []domain.ResolvedTrade {
	out := make([]domain.ResolvedTrade, 0, len(trades))
	for _, t := range trades {
		if t.TimestampMs >= cutoffMs {
			out = append(out, t)
		}
	}
	return out
}

// Aggregate produces WindowStats for one (item, window) pair. Full float64
// precision is kept through the pipeline; rounding happens exactly once per
// reported statistic. math.Round rounds half away from zero, which is the
// reporting policy.
func Aggregate(resolved []domain.ResolvedTrade, windowDays int, now time.Time, cfg outlier.Config) domain.WindowStats {
	inWindow := Within(resolved, Cutoff(now, windowDays))

	ws := domain.WindowStats{
		WindowDays:  windowDays,
		SampleCount: len(inWindow),
	}
	if len(inWindow) == 0 {
		return ws
	}

	filtered := outlier.Filter(inWindow, windowDays, cfg)
	ws.Outliers = filtered.Outliers
	ws.CleanCount = len(filtered.Clean)
	if ws.CleanCount == 0 {
		// Everything was flagged: statistics stay absent, the raw count and
		// the outlier records are still reported.
		return ws
	}

	prices := make([]float64, ws.CleanCount)
	amounts := make([]float64, ws.CleanCount)
	minP, maxP := math.Inf(1), math.Inf(-1)
	for i, t := range filtered.Clean {
		prices[i] = t.UnitPrice
		amounts[i] = t.Amount
		ws.TotalUnits += t.Amount
		if t.UnitPrice < minP {
			minP = t.UnitPrice
		}
		if t.UnitPrice > maxP {
			maxP = t.UnitPrice
		}
	}

	if avg, ok := stats.WeightedMean(prices, amounts); ok {
		ws.Average = rounded(avg)
	}
	if mean, ok := stats.Mean(prices); ok {
		ws.Mean = &mean
	}
	if median, ok := stats.Median(prices); ok {
		ws.Median = &median
	}
	ws.Min = rounded(minP)
	ws.Max = rounded(maxP)

	return ws
}

func rounded(v float64) *float64 {
	r := math.Round(v)
	return &r
}
