// Package hn talks to the thread search endpoint and the item endpoint of
// the hiring-thread source.
package hn

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultSearchURL = "https://hn.algolia.com/api/v1/search_by_date?tags=story,author_whoishiring&query=who+is+hiring&hitsPerPage=10"
	DefaultItemURL   = "https://hacker-news.firebaseio.com/v0/item"
	DefaultBatchSize = 20
	DefaultTimeout   = 20 * time.Second
	DefaultUserAgent = "job-search/1.0 (+local)"
)

var (
	reHiring = regexp.MustCompile(`(?i)who is hiring`)
	reWants  = regexp.MustCompile(`(?i)who wants`)
)

type Config struct {
	SearchURL string
	ItemURL   string // base; "/{id}.json" is appended
	BatchSize int
	Timeout   time.Duration
	UserAgent string
}

type Client struct {
	cfg     Config
	hc      *http.Client
	limiter *HostLimiter
}

// New fills zero Config fields with defaults. limiter may be nil.
func New(cfg Config, limiter *HostLimiter) *Client {
	if cfg.SearchURL == "" {
		cfg.SearchURL = DefaultSearchURL
	}
	if cfg.ItemURL == "" {
		cfg.ItemURL = DefaultItemURL
	}
	cfg.ItemURL = strings.TrimRight(cfg.ItemURL, "/")
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	return &Client{
		cfg:     cfg,
		hc:      &http.Client{Timeout: cfg.Timeout},
		limiter: limiter,
	}
}

// DiscoverThreads returns at most limit hiring threads, newest first.
// Offered-postings threads only: "who wants to be hired" threads are dropped.
func (c *Client) DiscoverThreads(ctx context.Context, limit int) ([]ThreadRef, error) {
	var res searchResponse
	if err := c.getJSON(ctx, c.cfg.SearchURL, &res); err != nil {
		return nil, err
	}

	type hit struct {
		ref ThreadRef
		at  int64
	}
	hits := make([]hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		if !reHiring.MatchString(h.Title) || reWants.MatchString(h.Title) {
			continue
		}
		id, err := strconv.ParseInt(h.ObjectID, 10, 64)
		if err != nil {
			continue
		}
		created, err := time.Parse(time.RFC3339, h.CreatedAt)
		if err != nil {
			// A hit without any usable timestamp cannot be placed in a month.
			if h.CreatedAtI <= 0 {
				continue
			}
			created = time.Unix(h.CreatedAtI, 0)
		}
		hits = append(hits, hit{
			ref: ThreadRef{ID: id, Title: h.Title, CreatedAt: created.UTC()},
			at:  created.Unix(),
		})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].at > hits[j].at })

	if limit >= 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	out := make([]ThreadRef, len(hits))
	for i, h := range hits {
		out[i] = h.ref
	}
	return out, nil
}

// FetchItem fetches one item. A null body (unknown id) is reported as a
// *RemoteFetchError wrapping ErrItemMissing.
func (c *Client) FetchItem(ctx context.Context, id int64) (Item, error) {
	u := fmt.Sprintf("%s/%d.json", c.cfg.ItemURL, id)

	var it *Item
	if err := c.getJSON(ctx, u, &it); err != nil {
		return Item{}, err
	}
	if it == nil {
		return Item{}, &RemoteFetchError{URL: u, Err: ErrItemMissing}
	}
	return *it, nil
}

// FetchItems fetches ids in batches of BatchSize. Requests inside a batch run
// concurrently and the next batch starts once all of them have finished.
// Failures never abort the call; they are carried in the per-id result.
func (c *Client) FetchItems(ctx context.Context, ids []int64) []ItemResult {
	results := make([]ItemResult, len(ids))
	for start := 0; start < len(ids); start += c.cfg.BatchSize {
		end := min(start+c.cfg.BatchSize, len(ids))

		var g errgroup.Group
		for i := start; i < end; i++ {
			g.Go(func() error {
				it, err := c.FetchItem(ctx, ids[i])
				results[i] = ItemResult{ID: ids[i], Item: it, Err: err}
				return nil
			})
		}
		_ = g.Wait()
	}
	return results
}

func (c *Client) getJSON(ctx context.Context, u string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return &RemoteFetchError{URL: u, Err: err}
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")

	if err := c.limiter.WaitURL(ctx, u); err != nil {
		return &RemoteFetchError{URL: u, Err: err}
	}

	res, err := c.hc.Do(req)
	if err != nil {
		return &RemoteFetchError{URL: u, Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return &RemoteFetchError{URL: u, StatusCode: res.StatusCode, Err: fmt.Errorf("unexpected status %d", res.StatusCode)}
	}
	if err := json.NewDecoder(res.Body).Decode(v); err != nil {
		return &RemoteFetchError{URL: u, Err: fmt.Errorf("decode: %w", err)}
	}
	return nil
}
