package reporting

import (
	"fmt"
	"strings"

	"item-price-lab/internal/domain"
)

// RenderResultsCSV renders per-item results as a CSV string. Absent
// statistics render as empty cells.
func RenderResultsCSV(results []domain.ItemResult) string {
	var sb strings.Builder

	// Header
	sb.WriteString("id,avg24h,sample_count_24h,clean_count_24h,outliers_removed_24h,min24h,max24h,")
	sb.WriteString("avg7d,sample_count_7d,clean_count_7d,outliers_removed_7d,min7d,max7d,total_units_7d,error\n")

	// Rows
	for _, r := range results {
		sb.WriteString(fmt.Sprintf("%s,%s,%d,%d,%d,%s,%s,%s,%d,%d,%d,%s,%s,%g,%s\n",
			r.ID,
			csvFloat(r.Avg24h),
			r.SampleCountLast24h,
			r.CleanSampleCount24h,
			r.OutliersRemoved24h,
			csvFloat(r.Min24h),
			csvFloat(r.Max24h),
			csvFloat(r.Avg7d),
			r.SampleCountLast7d,
			r.CleanSampleCount7d,
			r.OutliersRemoved7d,
			csvFloat(r.Min7d),
			csvFloat(r.Max7d),
			r.TotalUnits7d,
			csvEscape(r.Error),
		))
	}

	return sb.String()
}

// RenderLedgerCSV renders the outlier ledger as a CSV string.
func RenderLedgerCSV(rows []LedgerRow) string {
	var sb strings.Builder

	sb.WriteString("item_key,window_days,timestamp_ms,price,amount,unit_price,reason\n")
	for _, row := range rows {
		sb.WriteString(fmt.Sprintf("%s,%d,%d,%g,%g,%g,%s\n",
			row.ItemKey,
			row.WindowDays,
			row.TimestampMs,
			row.Price,
			row.Amount,
			row.UnitPrice,
			csvEscape(row.Reason),
		))
	}
	return sb.String()
}

func csvFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%g", *v)
}

func csvEscape(s string) string {
	if strings.ContainsAny(s, ",\"\n") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}
