package sleeper

import (
	"context"
	"errors"
	"sort"
	"time"

	"sleeperrecap/internal/services"
)

// DraftStatusComplete marks a finished draft.
const DraftStatusComplete = "complete"

// Draft is a league draft.
type Draft struct {
	DraftID   string `json:"draft_id"`
	LeagueID  string `json:"league_id"`
	Season    string `json:"season"`
	Status    string `json:"status"`
	Type      string `json:"type"`
	StartTime int64  `json:"start_time"`
}

// DraftPick is one selection in a draft.
type DraftPick struct {
	PickNo    int    `json:"pick_no"`
	Round     int    `json:"round"`
	DraftSlot int    `json:"draft_slot"`
	PlayerID  string `json:"player_id"`
	PickedBy  string `json:"picked_by"`
	RosterID  int    `json:"roster_id"`
	IsKeeper  *bool  `json:"is_keeper"`
	Timestamp int64  `json:"timestamp"`
}

// PickedAt returns the pick time in UTC, zero when Sleeper sent none.
func (p DraftPick) PickedAt() time.Time {
	if p.Timestamp <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(p.Timestamp).UTC()
}

// Drafts lists a league's drafts. A league without drafts yields an empty
// slice.
func (c *Client) Drafts(ctx context.Context, leagueID string) ([]Draft, error) {
	var drafts []Draft
	if err := c.get(ctx, "league/"+leagueID+"/drafts", &drafts); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return []Draft{}, nil
		}
		return nil, err
	}
	return drafts, nil
}

// DraftPicks fetches every pick of a draft ordered by pick number.
func (c *Client) DraftPicks(ctx context.Context, draftID string) ([]DraftPick, error) {
	var picks []DraftPick
	if err := c.get(ctx, "draft/"+draftID+"/picks", &picks); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return []DraftPick{}, nil
		}
		return nil, err
	}
	sort.SliceStable(picks, func(i, j int) bool { return picks[i].PickNo < picks[j].PickNo })
	return picks, nil
}

// LatestDraft picks the most recently started completed draft, or the most
// recent draft of any status when none has completed.
func LatestDraft(drafts []Draft) (Draft, bool) {
	var latest, latestComplete Draft
	var found, foundComplete bool
	for _, d := range drafts {
		if !found || d.StartTime > latest.StartTime {
			latest, found = d, true
		}
		if d.Status == DraftStatusComplete && (!foundComplete || d.StartTime > latestComplete.StartTime) {
			latestComplete, foundComplete = d, true
		}
	}
	if foundComplete {
		return latestComplete, true
	}
	return latest, found
}
