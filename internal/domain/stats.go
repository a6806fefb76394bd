package domain

// OutlierRecord is one trade flagged by the outlier filter for one window.
// The same trade can be an outlier in a narrow window and clean data in a
// wider one: the reference median/MAD is recomputed per window.
type OutlierRecord struct {
	TimestampMs int64
	Price       float64
	Amount      float64
	UnitPrice   float64
	WindowDays  int
	Score       float64 // modified z-score that triggered the flag
}

// WindowStats is the robust price estimate for one (item, window) pair.
// Statistic pointers are nil when the window holds no clean trades;
// a nil average with SampleCount > 0 means every trade was flagged.
type WindowStats struct {
	WindowDays  int
	Average     *float64 // amount-weighted mean of clean unit prices, rounded
	Mean        *float64 // unweighted mean, diagnostic
	Median      *float64 // unweighted median, diagnostic
	Min         *float64 // rounded
	Max         *float64 // rounded
	SampleCount int      // trades inside the window before filtering
	CleanCount  int      // trades that survived the outlier filter
	TotalUnits  float64  // sum of clean amounts
	Outliers    []OutlierRecord
}

// ItemReport is the full per-item pipeline outcome: every requested window's
// statistics, or a terminal error. Err set means no statistics were produced
// for the item at all.
type ItemReport struct {
	Item
	Windows []WindowStats
	Err     string
}

// Window returns the stats for the given window length, nil if absent.
func (r *ItemReport) Window(days int) *WindowStats {
	for i := range r.Windows {
		if r.Windows[i].WindowDays == days {
			return &r.Windows[i]
		}
	}
	return nil
}
