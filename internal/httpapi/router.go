package httpapi

import (
	"net/http"
	"strings"

	"github.com/helrabelo/job-search/internal/metrics"
)

func NewMux(d Deps) *http.ServeMux {
	mux := http.NewServeMux()

	// Posts
	ph := PostsHandler{Deps: d}
	mux.HandleFunc("/posts", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ph.List,
	}))
	mux.HandleFunc("/posts/", methodMux(map[string]http.HandlerFunc{
		http.MethodGet:   ph.Get,   // /posts/{id}
		http.MethodPatch: ph.Patch, // /posts/{id} or /posts/bulk
	}))
	mux.HandleFunc("/threads", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ph.Threads,
	}))

	// Profile keywords
	kh := KeywordsHandler{Deps: d}
	mux.HandleFunc("/keywords", methodMux(map[string]http.HandlerFunc{
		http.MethodGet:  kh.List,
		http.MethodPost: kh.Create,
	}))
	mux.HandleFunc("/keywords/", methodMux(map[string]http.HandlerFunc{
		http.MethodDelete: kh.DeleteByPath,
	}))

	sth := StatsHandler{Deps: d}
	mux.HandleFunc("/stats", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: sth.Get,
	}))

	// Ingestion
	sch := ScrapeHandler{Deps: d}
	mux.HandleFunc("/scrape", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: sch.Run,
	}))
	mux.HandleFunc("/scrape/status", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: sch.Status,
	}))

	// Config
	ch := ConfigHandler{Deps: d}
	mux.HandleFunc("/config", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Get,
		http.MethodPut: ch.Put,
	}))
	mux.HandleFunc("/config/validate", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Validate,
	}))
	mux.HandleFunc("/config/path", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Path,
	}))

	hh := HealthHandler{Deps: d}
	mux.HandleFunc("/health", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: hh.Health,
	}))
	mux.Handle("/metrics", metrics.Handler())

	return mux
}

// NewHandler is NewMux behind the standard middleware chain.
func NewHandler(d Deps) http.Handler {
	logger := d.logger().With("component", "http")
	return Chain(NewMux(d),
		RequestID,
		Recover(logger),
		AccessLog(logger),
		Cors,
		metrics.Middleware(routeLabel),
	)
}

// routeLabel collapses id-bearing paths so metric labels stay bounded.
func routeLabel(r *http.Request) string {
	p := r.URL.Path
	switch {
	case p == "/posts/bulk":
		return p
	case strings.HasPrefix(p, "/posts/"):
		return "/posts/{id}"
	case strings.HasPrefix(p, "/keywords/"):
		return "/keywords/{id}"
	}
	switch p {
	case "/posts", "/threads", "/keywords", "/stats", "/scrape", "/scrape/status",
		"/config", "/config/validate", "/config/path", "/health", "/metrics":
		return p
	}
	return "other"
}
