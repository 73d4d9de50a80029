package evidence

import (
	"bytes"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// SourceAPIData marks evidence derived from league data only.
const SourceAPIData = "api-data"

// Kickoff windows accepted from research output.
var kickoffWindows = map[string]struct{}{
	"TNF": {}, "Sun Early": {}, "Sun Late": {}, "SNF": {}, "MNF": {},
}

// Citation is a referenced source.
type Citation struct {
	ID        int    `json:"id"`
	Title     string `json:"title,omitempty"`
	URL       string `json:"url,omitempty"`
	Publisher string `json:"publisher,omitempty"`
	Date      string `json:"date,omitempty"`
}

// UnmarshalJSON accepts ids encoded as numbers or numeric strings.
func (c *Citation) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID        json.RawMessage `json:"id"`
		Title     string          `json:"title"`
		URL       string          `json:"url"`
		Publisher string          `json:"publisher"`
		Date      string          `json:"date"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = Citation{Title: raw.Title, URL: raw.URL, Publisher: raw.Publisher, Date: raw.Date}
	c.ID = parseLooseInt(raw.ID)
	return nil
}

func parseLooseInt(raw json.RawMessage) int {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return int(n)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.Atoi(strings.Trim(strings.TrimSpace(s), "[]")); err == nil {
			return v
		}
	}
	return 0
}

// Stats holds numeric week stats. Non-numeric values are dropped on decode.
type Stats map[string]float64

// UnmarshalJSON keeps numbers and numeric strings, discarding everything else.
func (s *Stats) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Stats, len(raw))
	for key, value := range raw {
		var n float64
		if err := json.Unmarshal(value, &n); err == nil {
			out[key] = n
			continue
		}
		var str string
		if err := json.Unmarshal(value, &str); err == nil {
			if v, err := strconv.ParseFloat(strings.TrimSpace(str), 64); err == nil {
				out[key] = v
			}
		}
	}
	*s = out
	return nil
}

// Injury is the reported health status.
type Injury struct {
	Status string `json:"status,omitempty"`
	Impact string `json:"impact,omitempty"`
}

// Quote is an attributed remark.
type Quote struct {
	Text   string `json:"text"`
	Source string `json:"source,omitempty"`
}

// Finding is the evidence gathered for one player.
type Finding struct {
	Player            string  `json:"player"`
	Team              string  `json:"team_name"`
	Starter           *bool   `json:"is_starter,omitempty"`
	WeekStats         Stats   `json:"week_stats"`
	ProjectionContext string  `json:"projection_context,omitempty"`
	Notes             string  `json:"advanced_notes,omitempty"`
	Injury            *Injury `json:"injury,omitempty"`
	Quotes            []Quote `json:"quotes,omitempty"`
	QuoteSourceID     int     `json:"quote_source_id,omitempty"`
	KickoffWindow     string  `json:"kickoff_window,omitempty"`
}

// Record is the evidence for a week.
type Record struct {
	Findings   []Finding  `json:"player_evidence"`
	Citations  []Citation `json:"references"`
	Degraded   bool       `json:"degraded"`
	Source     string     `json:"source"`
	GatheredAt time.Time  `json:"gathered_at"`
}

// CitationIDs returns the set of known citation ids.
func (r *Record) CitationIDs() map[int]struct{} {
	if r == nil {
		return map[int]struct{}{}
	}
	ids := make(map[int]struct{}, len(r.Citations))
	for _, c := range r.Citations {
		ids[c.ID] = struct{}{}
	}
	return ids
}

// PlayerNames lists every player named in findings.
func (r *Record) PlayerNames() []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.Findings))
	for _, f := range r.Findings {
		if name := strings.TrimSpace(f.Player); name != "" {
			out = append(out, name)
		}
	}
	return out
}

// normalize drops findings without a player and numbers citations that
// arrived without an id.
func (r *Record) normalize() {
	findings := r.Findings[:0]
	for _, f := range r.Findings {
		f.Player = strings.TrimSpace(f.Player)
		if f.Player == "" {
			continue
		}
		if _, ok := kickoffWindows[f.KickoffWindow]; !ok {
			f.KickoffWindow = ""
		}
		if f.WeekStats == nil {
			f.WeekStats = Stats{}
		}
		findings = append(findings, f)
	}
	r.Findings = findings

	used := make(map[int]struct{}, len(r.Citations))
	var kept, unnumbered []Citation
	for _, c := range r.Citations {
		if c.ID <= 0 {
			if c.URL != "" || c.Title != "" {
				unnumbered = append(unnumbered, c)
			}
			continue
		}
		if _, dup := used[c.ID]; dup {
			continue
		}
		used[c.ID] = struct{}{}
		kept = append(kept, c)
	}
	next := nextCitationID(kept)
	for _, c := range unnumbered {
		c.ID = next
		next++
		kept = append(kept, c)
	}
	r.Citations = kept
}

func nextCitationID(citations []Citation) int {
	next := 1
	for _, c := range citations {
		if c.ID >= next {
			next = c.ID + 1
		}
	}
	return next
}

// MergeURLs appends provider-reported source URLs that are not already cited.
func (r *Record) MergeURLs(urls []string) {
	seen := make(map[string]struct{}, len(r.Citations))
	for _, c := range r.Citations {
		if c.URL != "" {
			seen[c.URL] = struct{}{}
		}
	}
	next := nextCitationID(r.Citations)
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		host := hostOf(u)
		r.Citations = append(r.Citations, Citation{ID: next, Title: host, URL: u, Publisher: host})
		next++
	}
}

func hostOf(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return raw
	}
	return strings.TrimPrefix(parsed.Host, "www.")
}
