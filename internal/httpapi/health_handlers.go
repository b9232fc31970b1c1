package httpapi

import (
	"net/http"
)

type HealthHandler struct {
	Deps
}

func (h HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Pool.PingContext(r.Context()); err != nil {
		WriteJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "error": err.Error()})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"ok": true})
}
