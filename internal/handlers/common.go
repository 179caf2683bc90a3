package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/grupomess/erp/internal/capture"
	"github.com/grupomess/erp/internal/eventloop"
	"github.com/grupomess/erp/internal/notify"
	"github.com/grupomess/erp/internal/shell"
)

// Handler turns HTTP requests into user actions on the shell. Every action
// runs on the event loop; handlers never touch shell state directly.
type Handler struct {
	app       *shell.App
	loop      *eventloop.Loop
	feed      *notify.Feed
	maxUpload int64
}

func New(app *shell.App, loop *eventloop.Loop, feed *notify.Feed) *Handler {
	return &Handler{
		app:       app,
		loop:      loop,
		feed:      feed,
		maxUpload: 10 * 1024 * 1024,
	}
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	h.writeJSONStatus(w, http.StatusOK, data)
}

func (h *Handler) writeJSONStatus(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message)
	http.Error(w, message, code)
}

// onLoop runs fn on the event loop and reports whether it ran
func (h *Handler) onLoop(w http.ResponseWriter, r *http.Request, fn func()) bool {
	if err := h.loop.Call(r.Context(), fn); err != nil {
		if errors.Is(err, eventloop.ErrStopped) {
			h.writeError(w, "Application is shutting down", http.StatusServiceUnavailable)
		} else {
			h.writeError(w, "Request cancelled: "+err.Error(), http.StatusServiceUnavailable)
		}
		return false
	}
	return true
}

// Folio helpers
type folioAction func(ctrl *capture.Controller)

// withFolio runs fn against the open folio screen, answering 401/404 when there is none
func (h *Handler) withFolio(w http.ResponseWriter, r *http.Request, fn folioAction) bool {
	var loggedIn, open bool
	if !h.onLoop(w, r, func() {
		loggedIn = h.app.LoggedIn()
		if !loggedIn {
			return
		}
		var ctrl *capture.Controller
		ctrl, open = h.app.Folio()
		if open {
			fn(ctrl)
		}
	}) {
		return false
	}

	switch {
	case !loggedIn:
		h.writeError(w, "Not logged in", http.StatusUnauthorized)
		return false
	case !open:
		h.writeError(w, "Folio screen not open", http.StatusNotFound)
		return false
	}
	return true
}
