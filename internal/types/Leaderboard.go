package types

import "time"

// NotAvailable is the placeholder written for fields the upstream left out.
const NotAvailable = "N/A"

type Entry struct {
	Rank             *int // nil when upstream omits it
	Hacker           string
	SolvedChallenges *int
	TimeTaken        *int // seconds
}

type Page struct {
	Total   int
	Entries []Entry
}

// Row is one output line of the exported sheet. Each field holds either
// its native value or NotAvailable.
type Row struct {
	Rank        any `json:"Rank"`
	User        any `json:"User"`
	SolvedCount any `json:"Solved Count"`
	TimeTaken   any `json:"Time Taken"`
}

// Columns lists the sheet header in output order.
var Columns = []string{"Rank", "User", "Solved Count", "Time Taken"}

func (r Row) Values() []any {
	return []any{r.Rank, r.User, r.SolvedCount, r.TimeTaken}
}

type Snapshot struct {
	Id          string
	ContestSlug string
	CreatedAt   time.Time
	Rows        []Row
}

type SnapshotInfo struct {
	Id          string
	ContestSlug string
	CreatedAt   time.Time
	RowCount    int
}
