package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
)

// Routes builds the HTTP surface of the shell
func (h *Handler) Routes() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			slog.Error("Unable to write healthcheck", "err", err)
		}
	}).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/login", h.HandleLogin).Methods(http.MethodPost)
	api.HandleFunc("/password", h.HandlePassword).Methods(http.MethodPost)
	api.HandleFunc("/logout", h.HandleLogout).Methods(http.MethodPost)
	api.HandleFunc("/screen", h.HandleScreen).Methods(http.MethodGet)
	api.HandleFunc("/notifications", h.HandleNotifications).Methods(http.MethodGet)

	api.HandleFunc("/folio", h.HandleFolioEnter).Methods(http.MethodPost)
	api.HandleFunc("/folio", h.HandleFolioExit).Methods(http.MethodDelete)
	api.HandleFunc("/folio", h.HandleFolio).Methods(http.MethodGet)
	api.HandleFunc("/folio/name", h.HandleFolioName).Methods(http.MethodPut)
	api.HandleFunc("/folio/scan", h.HandleScan).Methods(http.MethodPost)
	api.HandleFunc("/folio/photos", h.HandleCapture).Methods(http.MethodPost)
	api.HandleFunc("/folio/photos/{index:[0-9]+}", h.HandlePhoto).Methods(http.MethodGet)
	api.HandleFunc("/folio/photos/{index:[0-9]+}", h.HandleDeletePhoto).Methods(http.MethodDelete)
	api.HandleFunc("/folio/save", h.HandleSave).Methods(http.MethodPost)

	return r
}
