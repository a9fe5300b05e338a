package fetcher

import "fmt"

type ErrorKind string

const (
	// ErrorKindRequest means no request could be built, e.g. for an unusable slug.
	ErrorKindRequest ErrorKind = "request"

	// ErrorKindNetwork means the upstream never answered.
	ErrorKindNetwork ErrorKind = "network"

	// ErrorKindStatus means the upstream answered with a non-2xx status.
	ErrorKindStatus ErrorKind = "status"

	// ErrorKindDecode means a 2xx body was not a leaderboard page.
	ErrorKindDecode ErrorKind = "decode"
)

// Error describes why a single page could not be fetched.
type Error struct {
	Kind    ErrorKind
	Offset  int
	Message string

	// StatusCode is 0 when the upstream never answered.
	StatusCode int
	// Body is the start of the upstream error body, if any.
	Body string
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("leaderboard %s error at offset %d (status %d): %s", e.Kind, e.Offset, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("leaderboard %s error at offset %d: %s", e.Kind, e.Offset, e.Message)
}
