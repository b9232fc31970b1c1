package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helrabelo/job-search/internal/config"
	"github.com/helrabelo/job-search/internal/hn"
	"github.com/helrabelo/job-search/internal/ingest"
	"github.com/helrabelo/job-search/internal/store"
)

func fakeSource(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"hits":[{"objectID":"700","title":"Ask HN: Who is hiring? (April 2026)","created_at":"2026-04-01T16:00:00Z","created_at_i":1775059200}]}`))
	})
	mux.HandleFunc("/item/", func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.ParseInt(strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/item/"), ".json"), 10, 64)
		if id == 700 {
			_ = json.NewEncoder(w).Encode(hn.Item{ID: 700, Kids: []int64{701, 702}})
			return
		}
		_ = json.NewEncoder(w).Encode(hn.Item{ID: id, By: "founder", Text: "Initech | Go | Remote", Time: 1775100000})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeConfig(t *testing.T, dir, sourceURL string) {
	t.Helper()
	cfg := config.Default()
	cfg.App.DataDir = dir
	cfg.Ingest.SearchURL = sourceURL + "/search"
	cfg.Ingest.ItemURL = sourceURL + "/item"
	cfg.Ingest.ThreadLimit = 1
	require.NoError(t, config.SaveAtomic(filepath.Join(dir, config.FileName), cfg))
}

func TestMigrateCommand(t *testing.T) {
	t.Setenv(config.EnvDataDir, "")
	dir := t.TempDir()
	var out bytes.Buffer

	err := newApp(&out).Run([]string{"engine", "--data-dir", dir, "migrate"})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "schema up to date")

	assert.FileExists(t, filepath.Join(dir, config.FileName))
	assert.FileExists(t, filepath.Join(dir, dbFileName))
}

func TestScrapeCommand(t *testing.T) {
	t.Setenv(config.EnvDataDir, "")
	dir := t.TempDir()
	writeConfig(t, dir, fakeSource(t).URL)

	var out bytes.Buffer
	require.NoError(t, newApp(&out).Run([]string{"engine", "--data-dir", dir, "scrape"}))

	var sum ingest.Summary
	require.NoError(t, json.Unmarshal(out.Bytes(), &sum), out.String())
	assert.Equal(t, ingest.Summary{NewPosts: 2, TotalPosts: 2, ThreadsChecked: 1}, sum)

	out.Reset()
	require.NoError(t, newApp(&out).Run([]string{"engine", "--data-dir", dir, "scrape"}))
	require.NoError(t, json.Unmarshal(out.Bytes(), &sum))
	assert.Zero(t, sum.NewPosts)
	assert.Equal(t, 2, sum.TotalPosts)

	db, err := store.Open(filepath.Join(dir, dbFileName))
	require.NoError(t, err)
	defer db.Close()
	p, err := store.GetPost(context.Background(), db.Pool, 701)
	require.NoError(t, err)
	require.NotNil(t, p.Company)
	assert.Equal(t, "Initech", *p.Company)
	assert.True(t, p.IsRemote)
	assert.Equal(t, "2026-04", p.Month)
}

func TestScrapeCommandRejectsInvalidConfig(t *testing.T) {
	t.Setenv(config.EnvDataDir, "")
	dir := t.TempDir()
	path := filepath.Join(dir, config.FileName)
	require.NoError(t, os.WriteFile(path, []byte("ingest:\n  thread_limit: 0\n"), 0o644))

	err := newApp(&bytes.Buffer{}).Run([]string{"engine", "--data-dir", dir, "--config", path, "scrape"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ingest.thread_limit")
}

func TestLiveIngesterUsesCurrentConfig(t *testing.T) {
	dir := t.TempDir()
	src := fakeSource(t)

	db, err := store.Open(filepath.Join(dir, dbFileName))
	require.NoError(t, err)
	defer db.Close()

	cfg := config.Default()
	cfg.Ingest.SearchURL = "http://127.0.0.1:1/unreachable"
	cfg.Ingest.ItemURL = src.URL + "/item"
	cfg.Ingest.RequestTimeoutSeconds = 1
	live := liveIngester{cfgVal: new(atomic.Value), db: db}
	live.cfgVal.Store(cfg)

	_, err = live.Run(context.Background())
	require.Error(t, err)

	cfg.Ingest.SearchURL = src.URL + "/search"
	live.cfgVal.Store(cfg)
	sum, err := live.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, sum.NewPosts)
}
