package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helrabelo/job-search/internal/domain"
	"github.com/helrabelo/job-search/internal/hn"
	"github.com/helrabelo/job-search/internal/store"
)

// fakeSource serves threads and items from memory and records which ids
// were requested.
type fakeSource struct {
	mu          sync.Mutex
	threads     []hn.ThreadRef
	items       map[int64]hn.Item
	failItems   map[int64]bool
	discoverErr error
	fetched     []int64
}

func (f *fakeSource) DiscoverThreads(_ context.Context, limit int) ([]hn.ThreadRef, error) {
	if f.discoverErr != nil {
		return nil, f.discoverErr
	}
	if len(f.threads) > limit {
		return f.threads[:limit], nil
	}
	return f.threads, nil
}

func (f *fakeSource) FetchItem(_ context.Context, id int64) (hn.Item, error) {
	f.mu.Lock()
	f.fetched = append(f.fetched, id)
	f.mu.Unlock()

	if f.failItems[id] {
		return hn.Item{}, &hn.RemoteFetchError{URL: fmt.Sprintf("item/%d", id), StatusCode: 500}
	}
	it, ok := f.items[id]
	if !ok {
		return hn.Item{}, &hn.RemoteFetchError{URL: fmt.Sprintf("item/%d", id), Err: hn.ErrItemMissing}
	}
	return it, nil
}

func (f *fakeSource) FetchItems(ctx context.Context, ids []int64) []hn.ItemResult {
	out := make([]hn.ItemResult, len(ids))
	for i, id := range ids {
		it, err := f.FetchItem(ctx, id)
		out[i] = hn.ItemResult{ID: id, Item: it, Err: err}
	}
	return out
}

func (f *fakeSource) reset() {
	f.mu.Lock()
	f.fetched = nil
	f.mu.Unlock()
}

var (
	febThread = hn.ThreadRef{ID: 1000, Title: "Ask HN: Who is hiring? (February 2026)", CreatedAt: time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)}
	janThread = hn.ThreadRef{ID: 900, Title: "Ask HN: Who is hiring?", CreatedAt: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)}
)

func newFakeSource() *fakeSource {
	return &fakeSource{
		threads: []hn.ThreadRef{febThread, janThread},
		items: map[int64]hn.Item{
			1000: {ID: 1000, Kids: []int64{1, 2, 3, 4}},
			900:  {ID: 900, Kids: []int64{5}},
			1:    {ID: 1, By: "alice", Text: "Acme Corp | Backend Engineer | Remote<br>We are hiring...", Time: 1769950000},
			2:    {ID: 2, By: "bob", Text: "<p>Random comment with no delimiters", Time: 1769950100},
			3:    {ID: 3, By: "carol", Text: "Ghost Inc | SRE", Time: 1769950200, Deleted: true},
			4:    {ID: 4, Time: 1769950300},
			5:    {ID: 5, By: "dan", Text: "Beta — Data — Onsite", Time: 1767400000},
		},
	}
}

func openStore(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "jobs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newIngester(t *testing.T, src Source, st Store, opts ...Option) *Ingester {
	t.Helper()
	in, err := New(src, st, opts...)
	require.NoError(t, err)
	return in
}

func TestNewRequiresDependencies(t *testing.T) {
	_, err := New(nil, openStore(t))
	assert.ErrorIs(t, err, ErrSourceRequired)

	_, err = New(newFakeSource(), nil)
	assert.ErrorIs(t, err, ErrStoreRequired)

	_, err = New(newFakeSource(), openStore(t), WithThreadLimit(0))
	assert.Error(t, err)
}

func TestRunIngestsNewPostings(t *testing.T) {
	db := openStore(t)
	src := newFakeSource()
	in := newIngester(t, src, db)
	ctx := context.Background()

	sum, err := in.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, Summary{NewPosts: 3, TotalPosts: 3, ThreadsChecked: 2}, sum)

	p, err := store.GetPost(ctx, db.Pool, 1)
	require.NoError(t, err)
	require.NotNil(t, p.Company)
	assert.Equal(t, "Acme Corp", *p.Company)
	assert.True(t, p.IsRemote)
	assert.Equal(t, "2026-02", p.Month)
	require.NotNil(t, p.Author)
	assert.Equal(t, "alice", *p.Author)

	p, err = store.GetPost(ctx, db.Pool, 2)
	require.NoError(t, err)
	require.NotNil(t, p.Company)
	assert.Equal(t, "Random comment with no delimiters", *p.Company)
	assert.False(t, p.IsRemote)

	_, err = store.GetPost(ctx, db.Pool, 3)
	assert.ErrorIs(t, err, store.ErrNotFound, "deleted item must not be stored")
	_, err = store.GetPost(ctx, db.Pool, 4)
	assert.ErrorIs(t, err, store.ErrNotFound, "item without text must not be stored")

	p, err = store.GetPost(ctx, db.Pool, 5)
	require.NoError(t, err)
	assert.Equal(t, "2026-01", p.Month)
	require.NotNil(t, p.Company)
	assert.Equal(t, "Beta", *p.Company)
}

func TestRunIsIdempotent(t *testing.T) {
	db := openStore(t)
	src := newFakeSource()
	in := newIngester(t, src, db)
	ctx := context.Background()

	_, err := in.Run(ctx)
	require.NoError(t, err)

	src.reset()
	sum, err := in.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, Summary{NewPosts: 0, TotalPosts: 3, ThreadsChecked: 2}, sum)
	// Items 3 and 4 were never stored, so they are still in the delta.
	assert.ElementsMatch(t, []int64{1000, 3, 4, 900}, src.fetched)
}

func TestRunFetchesOnlyTheDelta(t *testing.T) {
	db := openStore(t)
	src := newFakeSource()
	src.threads = []hn.ThreadRef{febThread}
	src.items[1000] = hn.Item{ID: 1000, Kids: []int64{1, 2}}
	in := newIngester(t, src, db)
	ctx := context.Background()

	_, err := in.Run(ctx)
	require.NoError(t, err)

	for id := int64(10); id < 13; id++ {
		src.items[id] = hn.Item{ID: id, By: "x", Text: fmt.Sprintf("Co%d | Role", id), Time: 1769950000}
	}
	src.items[1000] = hn.Item{ID: 1000, Kids: []int64{1, 2, 10, 11, 12}}
	src.reset()

	sum, err := in.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, sum.NewPosts)
	assert.Equal(t, 5, sum.TotalPosts)
	assert.Equal(t, []int64{1000, 10, 11, 12}, src.fetched)
}

func TestRunNoThreads(t *testing.T) {
	db := openStore(t)
	src := newFakeSource()
	src.threads = nil

	sum, err := newIngester(t, src, db).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Summary{}, sum)
	assert.Empty(t, src.fetched)
}

func TestRunDiscoveryFailure(t *testing.T) {
	src := newFakeSource()
	cause := &hn.RemoteFetchError{URL: "search", StatusCode: 503}
	src.discoverErr = cause

	_, err := newIngester(t, src, openStore(t)).Run(context.Background())
	require.ErrorIs(t, err, ErrIngestionFailed)
	var rfe *hn.RemoteFetchError
	require.ErrorAs(t, err, &rfe)
	assert.Equal(t, 503, rfe.StatusCode)
}

func TestRunSkipsFailedThread(t *testing.T) {
	db := openStore(t)
	src := newFakeSource()
	src.failItems = map[int64]bool{1000: true}
	ctx := context.Background()

	sum, err := newIngester(t, src, db).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, Summary{NewPosts: 1, TotalPosts: 1, ThreadsChecked: 2}, sum)

	threads, err := store.ListThreads(ctx, db.Pool)
	require.NoError(t, err)
	assert.Len(t, threads, 2, "thread rows are upserted before the item fetch")
}

func TestRunFailsWhenEveryThreadFails(t *testing.T) {
	src := newFakeSource()
	src.failItems = map[int64]bool{1000: true, 900: true}

	_, err := newIngester(t, src, openStore(t)).Run(context.Background())
	require.ErrorIs(t, err, ErrIngestionFailed)
	assert.Contains(t, err.Error(), "thread 1000")
	assert.Contains(t, err.Error(), "thread 900")
}

func TestRunOmitsFailedItems(t *testing.T) {
	db := openStore(t)
	src := newFakeSource()
	src.failItems = map[int64]bool{2: true}

	sum, err := newIngester(t, src, db).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, sum.NewPosts)

	src.failItems = nil
	sum, err = newIngester(t, src, db).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sum.NewPosts, "the omitted item is picked up by the next run")
}

func TestRunRespectsThreadLimit(t *testing.T) {
	src := newFakeSource()
	sum, err := newIngester(t, src, openStore(t), WithThreadLimit(1)).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sum.ThreadsChecked)
	assert.NotContains(t, src.fetched, int64(900))
}

func TestRunUsesClockForFetchedAt(t *testing.T) {
	db := openStore(t)
	fixed := time.Date(2026, 2, 15, 8, 30, 0, 0, time.UTC)
	_, err := newIngester(t, newFakeSource(), db, WithClock(func() time.Time { return fixed })).Run(context.Background())
	require.NoError(t, err)

	threads, err := store.ListThreads(context.Background(), db.Pool)
	require.NoError(t, err)
	require.NotEmpty(t, threads)
	assert.Equal(t, "2026-02-15T08:30:00Z", threads[0].FetchedAt)
	assert.Equal(t, "2026-02", threads[0].Month)
	assert.Equal(t, "2026-01", threads[1].Month)
}

// failingStore fails the posting insert of one thread.
type failingStore struct {
	*store.DB
	failThread int64
}

func (s failingStore) InsertPostings(ctx context.Context, posts []domain.NewPosting) (int, error) {
	if len(posts) > 0 && posts[0].ThreadID == s.failThread {
		return 0, errors.New("disk full")
	}
	return s.DB.InsertPostings(ctx, posts)
}

func TestRunKeepsCommittedThreads(t *testing.T) {
	db := openStore(t)
	st := failingStore{DB: db, failThread: 900}

	sum, err := newIngester(t, newFakeSource(), st).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Summary{NewPosts: 2, TotalPosts: 2, ThreadsChecked: 2}, sum)
}

func TestConcurrentRunsDoNotDuplicate(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	var wg sync.WaitGroup
	sums := make([]Summary, 3)
	for i := range sums {
		db, err := store.Open(filepath.Join(dir, "shared.db"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = db.Close() })

		in := newIngester(t, newFakeSource(), db)
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := in.Run(ctx)
			assert.NoError(t, err)
			sums[i] = s
		}()
	}
	wg.Wait()

	added := 0
	for _, s := range sums {
		added += s.NewPosts
	}
	assert.Equal(t, 3, added)

	db, err := store.Open(filepath.Join(dir, "shared.db"))
	require.NoError(t, err)
	defer db.Close()
	n, err := db.CountPostings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

// TestRunAgainstHTTPSource drives the real client against fake endpoints.
func TestRunAgainstHTTPSource(t *testing.T) {
	var itemHits atomic.Int32
	var mu sync.Mutex
	kids := []int64{501, 502, 503}

	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"hits":[
{"objectID":"500","title":"Ask HN: Who is hiring? (March 2026)","created_at":"2026-03-02T16:00:00Z","created_at_i":1772467200},
{"objectID":"499","title":"Ask HN: Who wants to be hired? (March 2026)","created_at":"2026-03-02T16:00:00Z","created_at_i":1772467201}]}`))
	})
	mux.HandleFunc("/item/", func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/item/"), ".json")
		id, _ := strconv.ParseInt(raw, 10, 64)
		switch {
		case id == 500:
			mu.Lock()
			defer mu.Unlock()
			_ = json.NewEncoder(w).Encode(hn.Item{ID: 500, Kids: kids})
		case id == 503:
			w.WriteHeader(http.StatusBadGateway)
		default:
			itemHits.Add(1)
			_ = json.NewEncoder(w).Encode(hn.Item{ID: id, By: "u", Text: fmt.Sprintf("Co%d | remote", id), Time: 1772500000})
		}
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := hn.New(hn.Config{SearchURL: srv.URL + "/search", ItemURL: srv.URL + "/item", BatchSize: 2}, nil)
	db := openStore(t)
	in := newIngester(t, client, db)
	ctx := context.Background()

	sum, err := in.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, Summary{NewPosts: 2, TotalPosts: 2, ThreadsChecked: 1}, sum)
	assert.Equal(t, int32(2), itemHits.Load())

	mu.Lock()
	kids = append(kids, 504)
	mu.Unlock()
	sum, err = in.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.NewPosts)
	assert.Equal(t, int32(3), itemHits.Load(), "only the unseen item is fetched")
}
