package reporting

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteFiles renders the report to dir: results.json, results.csv,
// outliers.csv and report.md. The directory is created when missing.
// Output is deterministic for an unchanged report and fixed clock.
func WriteFiles(r *Report, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	jsonBody, err := RenderResultsJSON(r.Results)
	if err != nil {
		return fmt.Errorf("render json: %w", err)
	}
	files := map[string][]byte{
		"results.json": jsonBody,
		"results.csv":  []byte(RenderResultsCSV(r.Results)),
		"outliers.csv": []byte(RenderLedgerCSV(r.Ledger)),
		"report.md":    []byte(RenderMarkdown(r)),
	}
	for name, body := range files {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, body, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return nil
}
