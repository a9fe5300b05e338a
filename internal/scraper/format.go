package scraper

import (
	"fmt"
	"sort"

	"uocsclub.net/hrlb/internal/types"
)

// FormatTime renders a second count as HH:MM:SS. Hours are not capped at 24.
func FormatTime(seconds int) string {
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	remaining := seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, remaining)
}

// SortByRank orders entries by ascending rank in place. Entries without a
// rank keep their relative order and go after every ranked entry.
func SortByRank(entries []types.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i].Rank, entries[j].Rank
		if a == nil || b == nil {
			return a != nil && b == nil
		}
		return *a < *b
	})
}

func ToRow(entry types.Entry) types.Row {
	row := types.Row{
		Rank:        types.NotAvailable,
		User:        types.NotAvailable,
		SolvedCount: types.NotAvailable,
		TimeTaken:   types.NotAvailable,
	}

	if entry.Rank != nil {
		row.Rank = *entry.Rank
	}
	if len(entry.Hacker) != 0 {
		row.User = entry.Hacker
	}
	if entry.SolvedChallenges != nil {
		row.SolvedCount = *entry.SolvedChallenges
	}
	if entry.TimeTaken != nil {
		row.TimeTaken = FormatTime(*entry.TimeTaken)
	}

	return row
}

func ToRows(entries []types.Entry) []types.Row {
	rows := make([]types.Row, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, ToRow(entry))
	}
	return rows
}
