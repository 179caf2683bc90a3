package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/grupomess/erp/internal/camera"
	"github.com/grupomess/erp/internal/capture"
)

// HandleScan takes one photo and reads the folio name from it
func (h *Handler) HandleScan(w http.ResponseWriter, r *http.Request) {
	h.handleCapture(w, r, false)
}

// HandleCapture takes one photo and appends it to the folio's list
func (h *Handler) HandleCapture(w http.ResponseWriter, r *http.Request) {
	h.handleCapture(w, r, true)
}

func (h *Handler) handleCapture(w http.ResponseWriter, r *http.Request, multi bool) {
	cam, err := h.cameraFromRequest(r)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var reqErr error
	if !h.withFolio(w, r, func(ctrl *capture.Controller) {
		if multi {
			reqErr = ctrl.CaptureMore(cam)
		} else {
			reqErr = ctrl.Scan(cam)
		}
	}) {
		return
	}

	if errors.Is(reqErr, capture.ErrCaptureInProgress) {
		h.writeError(w, "A camera request is already in progress", http.StatusConflict)
		return
	}

	mode := "scan"
	if multi {
		mode = "multi_capture"
	}
	h.writeJSONStatus(w, http.StatusAccepted, map[string]any{
		"message": "Capture requested",
		"mode":    mode,
	})
}

// cameraFromRequest picks the camera for a capture: an uploaded file, an
// image URL, or the device camera when the request carries neither.
func (h *Handler) cameraFromRequest(r *http.Request) (camera.Camera, error) {
	contentType := r.Header.Get("Content-Type")

	switch {
	case strings.Contains(contentType, "application/json"):
		var request struct {
			ImageURL string `json:"image_url"`
		}
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
		if request.ImageURL == "" {
			return nil, errors.New("image_url is required")
		}
		return camera.URL{Location: request.ImageURL, MaxBytes: h.maxUpload}, nil

	case strings.Contains(contentType, "multipart/form-data"):
		file, _, err := r.FormFile("file")
		if err != nil {
			file, _, err = r.FormFile("files")
			if err != nil {
				return nil, fmt.Errorf("failed to read file: %w", err)
			}
		}
		defer file.Close()

		fileData, err := io.ReadAll(io.LimitReader(file, h.maxUpload+1))
		if err != nil {
			return nil, fmt.Errorf("failed to read file contents: %w", err)
		}
		if int64(len(fileData)) > h.maxUpload {
			return nil, fmt.Errorf("file too large (max %dMB)", h.maxUpload/(1024*1024))
		}
		return camera.Still{Data: fileData}, nil

	default:
		return nil, nil
	}
}
