package reporting

import (
	"fmt"
	"time"

	"item-price-lab/internal/domain"
	"item-price-lab/internal/outlier"
)

// Generator converts pipeline reports into the rendered Report.
type Generator struct {
	zThreshold float64
	now        func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a report generator. zThreshold is echoed into
// ledger reasons so the rendered ledger is self-describing.
func NewGenerator(zThreshold float64) *Generator {
	if zThreshold == 0 {
		zThreshold = outlier.DefaultZThreshold
	}
	return &Generator{
		zThreshold: zThreshold,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate flattens per-item reports into the final Report. Item order
// is preserved.
func (g *Generator) Generate(runID, region string, reports []domain.ItemReport) *Report {
	out := &Report{
		GeneratedAt: g.now(),
		RunID:       runID,
		Region:      region,
		Names:       make(map[string]string, len(reports)),
		ItemCount:   len(reports),
	}

	for i := range reports {
		rep := &reports[i]
		out.Names[rep.Key] = rep.Name
		out.Results = append(out.Results, flatten(rep))
		if rep.Err != "" {
			out.FailedCount++
			continue
		}
		for _, w := range rep.Windows {
			for _, o := range w.Outliers {
				out.Ledger = append(out.Ledger, LedgerRow{
					ItemKey:     rep.Key,
					WindowDays:  o.WindowDays,
					TimestampMs: o.TimestampMs,
					Price:       o.Price,
					Amount:      o.Amount,
					UnitPrice:   o.UnitPrice,
					Reason:      fmt.Sprintf("modified z-score %.2f exceeds %.1f", o.Score, g.zThreshold),
				})
			}
		}
	}
	out.OutlierCount = len(out.Ledger)
	return out
}

// flatten projects a per-window report onto the flat two-window result
// record. Windows other than 1 and 7 days are carried in the report's
// Windows but have no column here.
func flatten(rep *domain.ItemReport) domain.ItemResult {
	res := domain.ItemResult{ID: rep.Key, Error: rep.Err}
	if day := rep.Window(1); day != nil {
		res.Avg24h = day.Average
		res.SampleCountLast24h = day.SampleCount
		res.CleanSampleCount24h = day.CleanCount
		res.OutliersRemoved24h = len(day.Outliers)
		res.Min24h = day.Min
		res.Max24h = day.Max
	}
	if week := rep.Window(7); week != nil {
		res.Avg7d = week.Average
		res.SampleCountLast7d = week.SampleCount
		res.CleanSampleCount7d = week.CleanCount
		res.OutliersRemoved7d = len(week.Outliers)
		res.Min7d = week.Min
		res.Max7d = week.Max
		res.TotalUnits7d = week.TotalUnits
	}
	return res
}
