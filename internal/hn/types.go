package hn

import (
	"errors"
	"fmt"
	"time"
)

// ThreadRef is a discovered hiring thread.
type ThreadRef struct {
	ID        int64
	Title     string
	CreatedAt time.Time
}

// Item is a story or comment from the item endpoint. Absent fields decode
// to their zero values.
type Item struct {
	ID      int64   `json:"id"`
	Type    string  `json:"type"`
	By      string  `json:"by"`
	Text    string  `json:"text"`
	Title   string  `json:"title"`
	Time    int64   `json:"time"`
	Kids    []int64 `json:"kids"`
	Deleted bool    `json:"deleted"`
	Dead    bool    `json:"dead"`
}

// PostedAt converts the epoch-seconds creation time.
func (it Item) PostedAt() time.Time {
	return time.Unix(it.Time, 0).UTC()
}

// Usable reports whether the item can become a posting: it has text and is
// neither deleted nor dead.
func (it Item) Usable() bool {
	return it.Text != "" && !it.Deleted && !it.Dead
}

// ItemResult is the outcome of fetching one id. Err != nil means the item
// was omitted.
type ItemResult struct {
	ID   int64
	Item Item
	Err  error
}

func (r ItemResult) Omitted() bool { return r.Err != nil }

// Fetched returns the successfully fetched items in request order.
func Fetched(results []ItemResult) []Item {
	out := make([]Item, 0, len(results))
	for _, r := range results {
		if r.Err == nil {
			out = append(out, r.Item)
		}
	}
	return out
}

// ErrItemMissing is the cause when the item endpoint answers null.
var ErrItemMissing = errors.New("item not found")

// RemoteFetchError reports a failed request to either endpoint.
type RemoteFetchError struct {
	URL        string
	StatusCode int // 0 when no response was read
	Err        error
}

func (e *RemoteFetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *RemoteFetchError) Unwrap() error { return e.Err }

type searchResponse struct {
	Hits []searchHit `json:"hits"`
}

type searchHit struct {
	ObjectID   string `json:"objectID"`
	Title      string `json:"title"`
	CreatedAt  string `json:"created_at"`
	CreatedAtI int64  `json:"created_at_i"`
}
