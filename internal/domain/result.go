package domain

// ItemResult is the flat per-item record written to the result sink.
// Statistic pointers are nil (rendered as null) when the corresponding
// window produced no clean trades. Error set means the fetch failed and no
// statistics exist for the item; consumers must distinguish that from a
// result whose windows are merely empty.
type ItemResult struct {
	ID string `json:"id"`

	Avg24h              *float64 `json:"avg24h"`
	SampleCountLast24h  int      `json:"sampleCountLast24h"`
	CleanSampleCount24h int      `json:"cleanSampleCount24h"`
	OutliersRemoved24h  int      `json:"outliersRemoved24h"`
	Min24h              *float64 `json:"min24h"`
	Max24h              *float64 `json:"max24h"`

	Avg7d              *float64 `json:"avg7d"`
	SampleCountLast7d  int      `json:"sampleCountLast7d"`
	CleanSampleCount7d int      `json:"cleanSampleCount7d"`
	OutliersRemoved7d  int      `json:"outliersRemoved7d"`
	Min7d              *float64 `json:"min7d"`
	Max7d              *float64 `json:"max7d"`
	TotalUnits7d       float64  `json:"totalUnits7d"`

	Error string `json:"error,omitempty"`
}
