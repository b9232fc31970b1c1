// Package ingest pulls new postings from the hiring threads into the store.
//
// A run discovers the most recent threads, and for each thread in turn
// fetches only the child items that are not stored yet, extracts company and
// remote flag, and inserts them in a single transaction per thread. Runs are
// safe to repeat and to overlap: the store ignores ids it already has.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/helrabelo/job-search/internal/domain"
	"github.com/helrabelo/job-search/internal/extract"
	"github.com/helrabelo/job-search/internal/hn"
	"github.com/helrabelo/job-search/internal/metrics"
)

const DefaultThreadLimit = 2

// Source is the remote side of a run.
type Source interface {
	DiscoverThreads(ctx context.Context, limit int) ([]hn.ThreadRef, error)
	FetchItem(ctx context.Context, id int64) (hn.Item, error)
	FetchItems(ctx context.Context, ids []int64) []hn.ItemResult
}

// Store is the local side of a run.
type Store interface {
	EnsureSchema(ctx context.Context) error
	KnownPostingIDs(ctx context.Context) (map[int64]struct{}, error)
	UpsertThread(ctx context.Context, t domain.Thread) error
	InsertPostings(ctx context.Context, posts []domain.NewPosting) (int, error)
	CountPostings(ctx context.Context) (int, error)
}

// Summary is the result of one run.
type Summary struct {
	NewPosts       int `json:"newPosts"`
	TotalPosts     int `json:"totalPosts"`
	ThreadsChecked int `json:"threadsChecked"`
}

type Ingester struct {
	source      Source
	store       Store
	threadLimit int
	now         func() time.Time
	logger      *slog.Logger
}

// Option configures an Ingester.
type Option func(*Ingester) error

// WithThreadLimit sets how many of the most recent threads a run checks.
// Default is DefaultThreadLimit.
func WithThreadLimit(n int) Option {
	return func(in *Ingester) error {
		if n < 1 {
			return fmt.Errorf("thread limit must be positive, got %d", n)
		}
		in.threadLimit = n
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(in *Ingester) error {
		if logger == nil {
			logger = slog.Default()
		}
		in.logger = logger
		return nil
	}
}

// WithClock overrides the time source used for fetched_at.
func WithClock(now func() time.Time) Option {
	return func(in *Ingester) error {
		if now != nil {
			in.now = now
		}
		return nil
	}
}

func New(source Source, store Store, opts ...Option) (*Ingester, error) {
	if source == nil {
		return nil, ErrSourceRequired
	}
	if store == nil {
		return nil, ErrStoreRequired
	}

	in := &Ingester{
		source:      source,
		store:       store,
		threadLimit: DefaultThreadLimit,
		now:         time.Now,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(in); err != nil {
			return nil, err
		}
	}
	in.logger = in.logger.With("component", "ingest")
	return in, nil
}

// Run performs one ingestion pass. A failing thread is logged and skipped;
// Run only fails when the store cannot be prepared or read, discovery fails,
// or every discovered thread failed.
func (in *Ingester) Run(ctx context.Context) (sum Summary, err error) {
	start := time.Now()
	defer func() {
		metrics.ObserveRun(sum.NewPosts, sum.ThreadsChecked, time.Since(start), err)
	}()

	if err := in.store.EnsureSchema(ctx); err != nil {
		return Summary{}, fmt.Errorf("%w: %w", ErrIngestionFailed, err)
	}

	threads, err := in.source.DiscoverThreads(ctx, in.threadLimit)
	if err != nil {
		return Summary{}, fmt.Errorf("%w: discover threads: %w", ErrIngestionFailed, err)
	}
	if len(threads) == 0 {
		in.logger.Info("no hiring threads found")
		return Summary{}, nil
	}

	known, err := in.store.KnownPostingIDs(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("%w: load known ids: %w", ErrIngestionFailed, err)
	}

	var threadErrs []error
	for _, t := range threads {
		added, err := in.ingestThread(ctx, t, known)
		if err != nil {
			in.logger.Error("thread failed", "thread_id", t.ID, "title", t.Title, "error", err)
			threadErrs = append(threadErrs, fmt.Errorf("thread %d: %w", t.ID, err))
			continue
		}
		sum.NewPosts += added
	}
	sum.ThreadsChecked = len(threads)

	if len(threadErrs) == len(threads) {
		return sum, fmt.Errorf("%w: %w", ErrIngestionFailed, errors.Join(threadErrs...))
	}

	total, err := in.store.CountPostings(ctx)
	if err != nil {
		return sum, fmt.Errorf("%w: count postings: %w", ErrIngestionFailed, err)
	}
	sum.TotalPosts = total

	in.logger.Info("ingestion finished",
		"new_posts", sum.NewPosts,
		"total_posts", sum.TotalPosts,
		"threads_checked", sum.ThreadsChecked,
		"failed_threads", len(threadErrs),
		"duration", time.Since(start))
	return sum, nil
}

func (in *Ingester) ingestThread(ctx context.Context, t hn.ThreadRef, known map[int64]struct{}) (int, error) {
	log := in.logger.With("thread_id", t.ID)

	if err := in.store.UpsertThread(ctx, domain.Thread{
		ID:        t.ID,
		Title:     t.Title,
		Month:     extract.Period(t.Title, t.CreatedAt),
		PostedAt:  t.CreatedAt,
		FetchedAt: in.now(),
	}); err != nil {
		return 0, err
	}

	parent, err := in.source.FetchItem(ctx, t.ID)
	if err != nil {
		return 0, fmt.Errorf("fetch thread item: %w", err)
	}
	if len(parent.Kids) == 0 {
		log.Debug("thread has no postings yet")
		return 0, nil
	}

	delta := make([]int64, 0, len(parent.Kids))
	for _, id := range parent.Kids {
		if _, ok := known[id]; !ok {
			delta = append(delta, id)
		}
	}
	if len(delta) == 0 {
		log.Debug("no unseen postings", "kids", len(parent.Kids))
		return 0, nil
	}

	results := in.source.FetchItems(ctx, delta)

	posts := make([]domain.NewPosting, 0, len(results))
	omitted, skipped := 0, 0
	for _, r := range results {
		if r.Omitted() {
			omitted++
			log.Debug("item omitted", "item_id", r.ID, "error", r.Err)
			continue
		}
		if !r.Item.Usable() {
			skipped++
			continue
		}
		posts = append(posts, newPosting(t.ID, r.ID, r.Item))
	}
	metrics.ObserveItems(len(results)-omitted, omitted)

	added, err := in.store.InsertPostings(ctx, posts)
	if err != nil {
		return 0, fmt.Errorf("store postings: %w", err)
	}

	log.Info("thread ingested",
		"kids", len(parent.Kids),
		"delta", len(delta),
		"omitted", omitted,
		"skipped", skipped,
		"added", added)
	return added, nil
}

func newPosting(threadID, id int64, it hn.Item) domain.NewPosting {
	company, _ := extract.Company(it.Text)
	return domain.NewPosting{
		ID:       id,
		ThreadID: threadID,
		Author:   it.By,
		Content:  it.Text,
		Company:  company,
		IsRemote: extract.IsRemote(it.Text),
		PostedAt: it.PostedAt(),
	}
}
