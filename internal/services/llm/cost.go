package llm

import (
	"strings"
	"sync"
)

// price is USD per one million tokens.
type price struct {
	key    string
	input  float64
	output float64
}

// Longer keys first so "gpt-4o-mini" is not priced as "gpt-4o" or "gpt-4".
var priceTable = []price{
	{"gpt-4.1-mini", 1, 4},
	{"gpt-3.5-turbo", 0.5, 1.5},
	{"gpt-4o-mini", 0.15, 0.6},
	{"gpt-4-turbo", 10, 30},
	{"sonar-mini", 0.2, 0.2},
	{"gpt-5-mini", 2, 8},
	{"gpt-4.1", 5, 15},
	{"gpt-4o", 2.5, 10},
	{"gpt-5", 10, 30},
	{"gpt-4", 30, 60},
	{"sonar", 1, 1},
}

// EstimateTokens approximates token count at four characters per token.
func EstimateTokens(text string) int {
	return len(text) / 4
}

// EstimateCost prices a call in USD. Unknown models cost zero.
func EstimateCost(model string, promptTokens, completionTokens int) float64 {
	m := strings.ToLower(model)
	for _, p := range priceTable {
		if strings.Contains(m, p.key) {
			return (float64(promptTokens)*p.input + float64(completionTokens)*p.output) / 1_000_000
		}
	}
	return 0
}

// CallRecord describes one completed provider call.
type CallRecord struct {
	Step     string
	Provider string
	Model    string
	Tokens   int
	CostUSD  float64
}

// Meter accumulates estimated spend across a run.
type Meter struct {
	mu    sync.Mutex
	calls []CallRecord
}

// Record adds a call to the meter.
func (m *Meter) Record(rec CallRecord) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, rec)
}

// Total returns the number of calls and the summed cost.
func (m *Meter) Total() (int, float64) {
	if m == nil {
		return 0, 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var sum float64
	for _, c := range m.calls {
		sum += c.CostUSD
	}
	return len(m.calls), sum
}

// Calls returns a copy of the recorded calls.
func (m *Meter) Calls() []CallRecord {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]CallRecord(nil), m.calls...)
}
