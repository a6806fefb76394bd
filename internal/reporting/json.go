package reporting

import (
	"encoding/json"

	"item-price-lab/internal/domain"
)

// RenderResultsJSON renders per-item results as indented JSON. Absent
// statistics render as null, the contract consumers key on.
func RenderResultsJSON(results []domain.ItemResult) ([]byte, error) {
	if results == nil {
		results = []domain.ItemResult{}
	}
	out, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}
