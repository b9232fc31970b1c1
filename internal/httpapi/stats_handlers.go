package httpapi

import (
	"net/http"

	"github.com/helrabelo/job-search/internal/config"
	"github.com/helrabelo/job-search/internal/store"
)

type StatsHandler struct {
	Deps
}

func (h StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	cfg := h.CfgVal.Load().(config.Config)
	st, err := store.LoadStats(r.Context(), h.Store.Pool, cfg.Stats.TechKeywords, cfg.Stats.TopN)
	if err != nil {
		writeInternal(w, r, h.Deps, err)
		return
	}
	WriteJSON(w, http.StatusOK, st)
}
