package handlers

import (
	"net/http"
	"strconv"
)

// HandleNotifications returns the toasts and dialogs newer than ?since=
func (h *Handler) HandleNotifications(w http.ResponseWriter, r *http.Request) {
	var since int64
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			h.writeError(w, "Invalid since parameter", http.StatusBadRequest)
			return
		}
		since = parsed
	}
	h.writeJSON(w, h.feed.Since(since))
}
