package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/grupomess/erp/internal/capture"
	"github.com/grupomess/erp/internal/models"
	"github.com/grupomess/erp/internal/shell"
	"github.com/grupomess/erp/internal/storage"
)

// HandleFolioEnter opens the folio screen
func (h *Handler) HandleFolioEnter(w http.ResponseWriter, r *http.Request) {
	var err error
	var view models.FolioView
	if !h.onLoop(w, r, func() {
		var ctrl *capture.Controller
		ctrl, err = h.app.OpenFolio()
		if err == nil {
			view = ctrl.View()
		}
	}) {
		return
	}

	if errors.Is(err, shell.ErrNotLoggedIn) {
		h.writeError(w, "Not logged in", http.StatusUnauthorized)
		return
	}
	h.writeJSON(w, view)
}

// HandleFolioExit leaves the folio screen, discarding unsaved photos
func (h *Handler) HandleFolioExit(w http.ResponseWriter, r *http.Request) {
	if !h.withFolio(w, r, func(*capture.Controller) {
		h.app.CloseFolio()
	}) {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleFolio(w http.ResponseWriter, r *http.Request) {
	var view models.FolioView
	if !h.withFolio(w, r, func(ctrl *capture.Controller) {
		view = ctrl.View()
	}) {
		return
	}
	h.writeJSON(w, view)
}

// HandleFolioName replaces the folio field, as typing into it would
func (h *Handler) HandleFolioName(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Folio string `json:"folio"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	var view models.FolioView
	if !h.withFolio(w, r, func(ctrl *capture.Controller) {
		ctrl.SetFolio(request.Folio)
		view = ctrl.View()
	}) {
		return
	}
	h.writeJSON(w, view)
}

// HandleSave persists the photos under the folio name
func (h *Handler) HandleSave(w http.ResponseWriter, r *http.Request) {
	var report *storage.SaveReport
	var err error
	if !h.withFolio(w, r, func(ctrl *capture.Controller) {
		report, err = ctrl.Save(r.Context())
	}) {
		return
	}

	switch {
	case errors.Is(err, storage.ErrNoPhotos):
		h.writeError(w, "No photos to save", http.StatusUnprocessableEntity)
	case errors.Is(err, storage.ErrNoFolio):
		h.writeError(w, "No folio captured", http.StatusUnprocessableEntity)
	case err != nil:
		h.writeError(w, err.Error(), http.StatusInternalServerError)
	default:
		h.writeJSON(w, report)
	}
}
