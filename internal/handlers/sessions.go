package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/grupomess/erp/internal/auth"
	"github.com/grupomess/erp/internal/models"
	"github.com/grupomess/erp/internal/shell"
)

type screenResponse struct {
	Screen models.Screen   `json:"screen"`
	Stack  []models.Screen `json:"stack"`
}

func (h *Handler) screen() screenResponse {
	return screenResponse{Screen: h.app.Screen(), Stack: h.app.Stack()}
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Identifier string `json:"identifier"`
		Secret     string `json:"secret"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	// The login form trims the identifier field, never the secret
	identifier := strings.TrimSpace(request.Identifier)

	var err error
	var resp screenResponse
	if !h.onLoop(w, r, func() {
		err = h.app.Login(identifier, request.Secret)
		resp = h.screen()
	}) {
		return
	}

	if errors.Is(err, auth.ErrInvalidCredentials) {
		h.writeError(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}
	h.writeJSON(w, resp)
}

func (h *Handler) HandlePassword(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Current string `json:"current"`
		New     string `json:"new"`
		Confirm string `json:"confirm"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	var err error
	var resp screenResponse
	if !h.onLoop(w, r, func() {
		err = h.app.ChangePassword(request.Current, request.New, request.Confirm)
		resp = h.screen()
	}) {
		return
	}

	switch {
	case errors.Is(err, shell.ErrNotLoggedIn):
		h.writeError(w, "Not logged in", http.StatusUnauthorized)
	case errors.Is(err, auth.ErrMissingFields):
		h.writeError(w, "Missing fields", http.StatusBadRequest)
	case errors.Is(err, auth.ErrPasswordMismatch):
		h.writeError(w, "Passwords do not match", http.StatusBadRequest)
	case err != nil:
		h.writeError(w, err.Error(), http.StatusInternalServerError)
	default:
		h.writeJSON(w, resp)
	}
}

func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	var loggedIn bool
	var resp screenResponse
	if !h.onLoop(w, r, func() {
		loggedIn = h.app.LoggedIn()
		if loggedIn {
			h.app.Logout()
		}
		resp = h.screen()
	}) {
		return
	}

	if !loggedIn {
		h.writeError(w, "Not logged in", http.StatusUnauthorized)
		return
	}
	h.writeJSON(w, resp)
}

func (h *Handler) HandleScreen(w http.ResponseWriter, r *http.Request) {
	var resp screenResponse
	if !h.onLoop(w, r, func() { resp = h.screen() }) {
		return
	}
	h.writeJSON(w, resp)
}
