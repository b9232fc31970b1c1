package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// PostStatus is the triage state of a posting.
type PostStatus string

const (
	StatusNew        PostStatus = "new"
	StatusSaved      PostStatus = "saved"
	StatusApplied    PostStatus = "applied"
	StatusInProgress PostStatus = "in_progress"
	StatusDismissed  PostStatus = "dismissed"
)

// Statuses lists every status in triage order (used for sorting lists).
var Statuses = []PostStatus{StatusNew, StatusSaved, StatusApplied, StatusInProgress, StatusDismissed}

var ErrInvalidStatus = errors.New("invalid status")

func ParseStatus(s string) (PostStatus, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, st := range Statuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// Rank returns the position of the status in triage order, or len(Statuses)
// for unknown values.
func (s PostStatus) Rank() int {
	for i, st := range Statuses {
		if st == s {
			return i
		}
	}
	return len(Statuses)
}

// Thread is a monthly hiring discussion whose child items are postings.
type Thread struct {
	ID        int64
	Title     string
	Month     string // YYYY-MM
	PostedAt  time.Time
	FetchedAt time.Time
}

// NewPosting is what ingestion writes. Triage fields are left to their
// column defaults.
type NewPosting struct {
	ID       int64
	ThreadID int64
	Author   string // empty means unknown
	Content  string
	Company  string // empty means absent
	IsRemote bool
	PostedAt time.Time
}
