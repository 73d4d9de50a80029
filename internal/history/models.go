package history

import "time"

// Status is the lifecycle state of a run.
type Status string

// Run statuses.
const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Run is one ledger row.
type Run struct {
	ID             string    `json:"run_id"`
	LeagueID       string    `json:"league_id"`
	Season         int       `json:"season"`
	Week           int       `json:"week"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at,omitempty"`
	Status         Status    `json:"status"`
	Verdict        string    `json:"verdict,omitempty"`
	InitialVerdict string    `json:"initial_verdict,omitempty"`
	IssueCount     int       `json:"issue_count"`
	Patched        bool      `json:"patched"`
	Degraded       bool      `json:"degraded"`
	EstimatedCost  float64   `json:"estimated_cost_usd"`
	RecapPath      string    `json:"recap_path,omitempty"`
	Error          string    `json:"error,omitempty"`
}

// Duration is the wall time of a finished run.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() || r.StartedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Filter narrows List. Zero values match everything.
type Filter struct {
	LeagueID string
	Season   int
	Week     int
	Limit    int
}
