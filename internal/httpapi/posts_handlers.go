package httpapi

import (
	"errors"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/helrabelo/job-search/internal/domain"
	"github.com/helrabelo/job-search/internal/extract"
	"github.com/helrabelo/job-search/internal/rank"
	"github.com/helrabelo/job-search/internal/store"
)

type PostsHandler struct {
	Deps
}

type postView struct {
	store.Post
	Preview         string   `json:"preview"`
	ContentHTML     string   `json:"content_html"`
	MatchScore      int      `json:"match_score"`
	MatchedKeywords []string `json:"matched_keywords"`
	Links           []string `json:"links,omitempty"`
}

func newPostView(p store.Post, scorer rank.Scorer, detail bool) postView {
	score, tags := scorer.Score(extract.StripMarkup(p.Content))
	if tags == nil {
		tags = []string{}
	}
	v := postView{
		Post:            p,
		Preview:         extract.Preview(p.Content),
		ContentHTML:     extract.SafeHTML(p.Content),
		MatchScore:      score,
		MatchedKeywords: tags,
	}
	if detail {
		v.Links = extract.Links(p.Content)
	}
	return v
}

func (h PostsHandler) scorer(r *http.Request) (rank.Scorer, error) {
	kws, err := store.KeywordTerms(r.Context(), h.Store.Pool)
	if err != nil {
		return nil, err
	}
	return rank.KeywordScorer{Keywords: kws}, nil
}

type listPostsResponse struct {
	Posts           []postView `json:"posts"`
	Total           int        `json:"total"`
	Page            int        `json:"page"`
	TotalPages      int        `json:"totalPages"`
	ProfileKeywords []string   `json:"profileKeywords"`
}

// List serves GET /posts.
func (h PostsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, err := queryInt(r, "page", 1)
	if err != nil {
		WriteError(w, r, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	limit, err := queryInt(r, "limit", store.DefaultPageSize)
	if err != nil {
		WriteError(w, r, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	threadID, err := queryInt(r, "thread_id", 0)
	if err != nil {
		WriteError(w, r, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	status := strings.TrimSpace(q.Get("status"))
	if status != "" && status != "all" {
		st, err := domain.ParseStatus(status)
		if err != nil {
			WriteError(w, r, http.StatusBadRequest, "invalid_status", err.Error())
			return
		}
		status = string(st)
	}

	db := h.Store.Pool
	keywords, err := store.KeywordTerms(r.Context(), db)
	if err != nil {
		writeInternal(w, r, h.Deps, err)
		return
	}

	f := store.PostFilter{
		Status:   status,
		Remote:   queryFlag(r, "remote"),
		ThreadID: int64(threadID),
		Search:   q.Get("search"),
		Page:     page,
		Limit:    limit,
	}
	// An empty profile leaves the listing unfiltered.
	if queryFlag(r, "match_keywords") && len(keywords) > 0 {
		f.Keywords = keywords
	}

	posts, total, err := store.ListPosts(r.Context(), db, f)
	if err != nil {
		writeInternal(w, r, h.Deps, err)
		return
	}

	if limit < 1 {
		limit = store.DefaultPageSize
	}
	limit = min(limit, store.MaxPageSize)

	resp := listPostsResponse{
		Posts:           make([]postView, 0, len(posts)),
		Total:           total,
		Page:            max(page, 1),
		TotalPages:      int(math.Ceil(float64(total) / float64(limit))),
		ProfileKeywords: keywords,
	}
	scorer := rank.KeywordScorer{Keywords: keywords}
	for _, p := range posts {
		resp.Posts = append(resp.Posts, newPostView(p, scorer, false))
	}
	WriteJSON(w, http.StatusOK, resp)
}

// Get serves GET /posts/{id}.
func (h PostsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idFromPath(r.URL.Path, "/posts/")
	if !ok {
		WriteError(w, r, http.StatusBadRequest, "bad_request", "invalid post id")
		return
	}
	p, err := store.GetPost(r.Context(), h.Store.Pool, id)
	if errors.Is(err, store.ErrNotFound) {
		WriteError(w, r, http.StatusNotFound, "not_found", "post not found")
		return
	}
	if err != nil {
		writeInternal(w, r, h.Deps, err)
		return
	}
	h.writePost(w, r, p)
}

const maxNotesLen = 10000

type patchPostRequest struct {
	Status    *string   `json:"status"`
	Notes     optString `json:"notes"`
	AppliedAt optString `json:"applied_at"`
}

type bulkPatchRequest struct {
	IDs           []int64 `json:"ids" validate:"required,min=1,max=1000,dive,gt=0"`
	Status        *string `json:"status"`
	DismissReason *string `json:"dismiss_reason" validate:"omitempty,max=200"`
}

// Patch serves PATCH /posts/{id} and PATCH /posts/bulk.
func (h PostsHandler) Patch(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/posts/bulk" {
		h.bulk(w, r)
		return
	}

	id, ok := idFromPath(r.URL.Path, "/posts/")
	if !ok {
		WriteError(w, r, http.StatusBadRequest, "bad_request", "invalid post id")
		return
	}

	var req patchPostRequest
	if err := decodeValidate(r, &req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	var u store.PostUpdate
	if req.Status != nil {
		st, err := domain.ParseStatus(*req.Status)
		if err != nil {
			WriteError(w, r, http.StatusBadRequest, "invalid_status", err.Error())
			return
		}
		u.Status = &st
	}
	if req.Notes.Set {
		switch {
		case req.Notes.cleared():
			u.ClearNotes = true
		case len(req.Notes.Value) > maxNotesLen:
			WriteError(w, r, http.StatusBadRequest, "bad_request", `notes failed "max"`)
			return
		default:
			u.Notes = &req.Notes.Value
		}
	}
	if req.AppliedAt.Set {
		if req.AppliedAt.cleared() {
			u.ClearAppliedAt = true
		} else {
			t, err := parseAppliedAt(req.AppliedAt.Value)
			if err != nil {
				WriteError(w, r, http.StatusBadRequest, "bad_request", err.Error())
				return
			}
			u.AppliedAt = &t
		}
	}

	p, err := store.UpdatePost(r.Context(), h.Store.Pool, id, u)
	if errors.Is(err, store.ErrNotFound) {
		WriteError(w, r, http.StatusNotFound, "not_found", "post not found")
		return
	}
	if err != nil {
		writeInternal(w, r, h.Deps, err)
		return
	}
	h.writePost(w, r, p)
}

func (h PostsHandler) writePost(w http.ResponseWriter, r *http.Request, p store.Post) {
	scorer, err := h.scorer(r)
	if err != nil {
		writeInternal(w, r, h.Deps, err)
		return
	}
	WriteJSON(w, http.StatusOK, newPostView(p, scorer, true))
}

func (h PostsHandler) bulk(w http.ResponseWriter, r *http.Request) {
	var req bulkPatchRequest
	if err := decodeValidate(r, &req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	u := store.BulkUpdate{IDs: req.IDs, DismissReason: req.DismissReason}
	if req.Status != nil {
		st, err := domain.ParseStatus(*req.Status)
		if err != nil {
			WriteError(w, r, http.StatusBadRequest, "invalid_status", err.Error())
			return
		}
		u.Status = &st
	}

	n, err := store.BulkUpdatePosts(r.Context(), h.Store.Pool, u)
	if err != nil {
		writeInternal(w, r, h.Deps, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]int{"updated": n})
}

// Threads serves GET /threads.
func (h PostsHandler) Threads(w http.ResponseWriter, r *http.Request) {
	threads, err := store.ListThreads(r.Context(), h.Store.Pool)
	if err != nil {
		writeInternal(w, r, h.Deps, err)
		return
	}
	WriteJSON(w, http.StatusOK, threads)
}

// parseAppliedAt accepts a calendar date or a full RFC3339 timestamp.
func parseAppliedAt(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, errors.New("applied_at must be YYYY-MM-DD or RFC3339")
	}
	return t, nil
}
