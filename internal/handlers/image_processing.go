package handlers

import (
	"bytes"
	"image/jpeg"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/grupomess/erp/internal/capture"
	"github.com/grupomess/erp/internal/models"
	"github.com/grupomess/erp/internal/storage"
)

func photoIndex(r *http.Request) (int, bool) {
	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil || index < 0 {
		return 0, false
	}
	return index, true
}

// HandlePhoto renders one captured photo as JPEG for the thumbnail list
func (h *Handler) HandlePhoto(w http.ResponseWriter, r *http.Request) {
	index, ok := photoIndex(r)
	if !ok {
		h.writeError(w, "Invalid photo index", http.StatusBadRequest)
		return
	}

	var photo models.Photo
	var found bool
	if !h.withFolio(w, r, func(ctrl *capture.Controller) {
		photo, found = ctrl.Session().Photo(index)
	}) {
		return
	}
	if !found || photo.Image == nil {
		h.writeError(w, "Photo not found", http.StatusNotFound)
		return
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, photo.Image, &jpeg.Options{Quality: storage.JPEGQuality}); err != nil {
		h.writeError(w, "Failed to encode photo: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", storage.MIMEJPEG)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Error("Unable to write photo", "index", index, "err", err)
	}
}

// HandleDeletePhoto removes one photo from the list
func (h *Handler) HandleDeletePhoto(w http.ResponseWriter, r *http.Request) {
	index, ok := photoIndex(r)
	if !ok {
		h.writeError(w, "Invalid photo index", http.StatusBadRequest)
		return
	}

	var inRange bool
	var view models.FolioView
	if !h.withFolio(w, r, func(ctrl *capture.Controller) {
		inRange = index < ctrl.Session().Count()
		if inRange {
			ctrl.DeleteAt(index)
		}
		view = ctrl.View()
	}) {
		return
	}

	if !inRange {
		h.writeError(w, "Photo not found", http.StatusNotFound)
		return
	}
	h.writeJSON(w, view)
}
