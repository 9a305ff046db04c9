package model

import "time"

// Account represents the subset of Mastodon account fields used by the tool.
type Account struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Acct     string `json:"acct"`
}

// Status represents a subset of Mastodon status fields used by the tool.
// Timestamps marshal as RFC 3339 strings, which is the format the backup
// file expects for nested datetimes.
type Status struct {
	ID          string    `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	Content     string    `json:"content"`
	InReplyToID *string   `json:"in_reply_to_id"`
	Reblog      *Status   `json:"reblog"`
	URL         string    `json:"url,omitempty"`
	Visibility  string    `json:"visibility,omitempty"`
}

// IsReply reports whether the status replies to another status.
func (s Status) IsReply() bool { return s.InReplyToID != nil }

// IsReblog reports whether the status boosts another status.
func (s Status) IsReblog() bool { return s.Reblog != nil }

// Candidate is a status that passed every filter and is queued for
// logging and, outside preview mode, deletion.
type Candidate struct {
	ID        string
	Status    Status
	CreatedAt time.Time // normalized to UTC
}

// RunResult summarizes one processor run. Scanned is an upper bound
// (pages fetched times page size), not an exact post count.
type RunResult struct {
	Scanned int
	Matched int
	Deleted int
	Failed  int
}
