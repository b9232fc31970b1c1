package httpapi

import (
	"net/http"
)

type ScrapeHandler struct {
	Deps
}

func (h ScrapeHandler) Status(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.Runner.Status())
}

// Run performs a synchronous ingestion run and returns its summary.
func (h ScrapeHandler) Run(w http.ResponseWriter, r *http.Request) {
	sum, err := h.Runner.Run(r.Context())
	if err != nil {
		h.logger().Error("scrape failed", "request_id", RequestIDFrom(r.Context()), "error", err)
		WriteError(w, r, http.StatusInternalServerError, "scrape_failed", err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, sum)
}
