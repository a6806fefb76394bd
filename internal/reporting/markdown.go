package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders the run summary as a Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Price Estimation Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Run: %s | Region: %s\n\n", r.RunID, r.Region))
	sb.WriteString(fmt.Sprintf("Items: %d | Failed: %d | Outliers removed: %d\n\n",
		r.ItemCount, r.FailedCount, r.OutlierCount))

	// Per-item table
	sb.WriteString("## Results\n\n")
	sb.WriteString("| Item | Avg 24h | Samples 24h | Avg 7d | Samples 7d | Units 7d | Status |\n")
	sb.WriteString("|------|---------|-------------|--------|------------|----------|--------|\n")
	for _, res := range r.Results {
		name := r.Names[res.ID]
		if name == "" {
			name = res.ID
		}
		status := "OK"
		if res.Error != "" {
			status = "FAILED"
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %d | %s | %d | %g | %s |\n",
			name,
			mdFloat(res.Avg24h),
			res.SampleCountLast24h,
			mdFloat(res.Avg7d),
			res.SampleCountLast7d,
			res.TotalUnits7d,
			status,
		))
	}
	sb.WriteString("\n")

	// Failures get their own section so the table stays scannable.
	if r.FailedCount > 0 {
		sb.WriteString("## Failures\n\n")
		for _, res := range r.Results {
			if res.Error != "" {
				sb.WriteString(fmt.Sprintf("- `%s`: %s\n", res.ID, res.Error))
			}
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func mdFloat(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%g", *v)
}
