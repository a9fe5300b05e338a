package fetcher

import (
	"encoding/json"
	"strconv"
	"strings"

	"uocsclub.net/hrlb/internal/types"
)

type LeaderboardResponse struct {
	Total  FlexInt             `json:"total"`
	Models []*LeaderboardModel `json:"models"`
}

type LeaderboardModel struct {
	Rank             FlexInt `json:"rank"`
	Hacker           string  `json:"hacker"`
	SolvedChallenges FlexInt `json:"solved_challenges"`
	TimeTaken        FlexInt `json:"time_taken"` // seconds, sometimes sent as a float
}

// FlexInt decodes a JSON number, a numeric string or null. Anything it can't
// read as a number leaves it invalid rather than failing the whole page.
type FlexInt struct {
	Value int
	Valid bool
}

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	*f = FlexInt{}

	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		return nil
	}

	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		raw = strings.TrimSpace(s)
	}

	if len(raw) == 0 {
		return nil
	}

	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}

	f.Value = int(n)
	f.Valid = true
	return nil
}

func (f FlexInt) ptr() *int {
	if !f.Valid {
		return nil
	}
	v := f.Value
	return &v
}

func (l *LeaderboardResponse) ToPage() *types.Page {
	if l == nil {
		return nil
	}

	page := &types.Page{
		Total:   l.Total.Value,
		Entries: make([]types.Entry, 0, len(l.Models)),
	}

	for _, model := range l.Models {
		if model == nil {
			continue
		}

		page.Entries = append(page.Entries, types.Entry{
			Rank:             model.Rank.ptr(),
			Hacker:           model.Hacker,
			SolvedChallenges: model.SolvedChallenges.ptr(),
			TimeTaken:        model.TimeTaken.ptr(),
		})
	}

	return page
}
