package main

import (
	"encoding/json"
	"io"

	"sleeperrecap/internal/audit"
)

// auditOutput is the --json shape of the offline audit command.
type auditOutput struct {
	LeagueID string       `json:"league_id"`
	Season   int          `json:"season"`
	Week     int          `json:"week"`
	Dir      string       `json:"dir"`
	Report   audit.Report `json:"report"`
}

func newAuditOutput(sel weekSelection, dir string, report audit.Report) auditOutput {
	return auditOutput{
		LeagueID: sel.LeagueID,
		Season:   sel.Season,
		Week:     sel.Week,
		Dir:      dir,
		Report:   report,
	}
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
