package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/helrabelo/job-search/internal/store"
)

type KeywordsHandler struct {
	Deps
}

type createKeywordRequest struct {
	Keyword string `json:"keyword" validate:"required,max=100"`
}

func (h KeywordsHandler) List(w http.ResponseWriter, r *http.Request) {
	kws, err := store.ListKeywords(r.Context(), h.Store.Pool)
	if err != nil {
		writeInternal(w, r, h.Deps, err)
		return
	}
	WriteJSON(w, http.StatusOK, kws)
}

func (h KeywordsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createKeywordRequest
	if err := decodeValidate(r, &req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	if strings.TrimSpace(req.Keyword) == "" {
		WriteError(w, r, http.StatusBadRequest, "bad_request", "keyword is required")
		return
	}

	k, err := store.AddKeyword(r.Context(), h.Store.Pool, req.Keyword)
	if errors.Is(err, store.ErrDuplicateKeyword) {
		WriteError(w, r, http.StatusConflict, "duplicate_keyword", "keyword already exists")
		return
	}
	if err != nil {
		writeInternal(w, r, h.Deps, err)
		return
	}
	WriteJSON(w, http.StatusCreated, k)
}

// DeleteByPath expects /keywords/{id}.
func (h KeywordsHandler) DeleteByPath(w http.ResponseWriter, r *http.Request) {
	id, ok := idFromPath(r.URL.Path, "/keywords/")
	if !ok {
		WriteError(w, r, http.StatusBadRequest, "bad_request", "invalid keyword id")
		return
	}
	err := store.DeleteKeyword(r.Context(), h.Store.Pool, id)
	if errors.Is(err, store.ErrNotFound) {
		WriteError(w, r, http.StatusNotFound, "not_found", "keyword not found")
		return
	}
	if err != nil {
		writeInternal(w, r, h.Deps, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
