package report

import (
	"encoding/json"
	"fmt"

	"github.com/quantbench/stratbot/internal/domain"
)

// MarshalRunJSON renders a run record (inputs plus report) as indented JSON
// for archival and CLI output.
func MarshalRunJSON(run domain.BacktestRun) ([]byte, error) {
	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("report: marshal run: %w", err)
	}
	return data, nil
}
