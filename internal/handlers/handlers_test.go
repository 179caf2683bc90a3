package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/grupomess/erp/internal/auth"
	"github.com/grupomess/erp/internal/camera"
	"github.com/grupomess/erp/internal/capture"
	"github.com/grupomess/erp/internal/eventloop"
	"github.com/grupomess/erp/internal/models"
	"github.com/grupomess/erp/internal/notify"
	"github.com/grupomess/erp/internal/ocr"
	"github.com/grupomess/erp/internal/shell"
	"github.com/grupomess/erp/internal/storage"
)

type fakeRecognizer struct {
	text string
}

func (f fakeRecognizer) RecognizeText(context.Context, image.Image) (string, error) {
	return f.text, nil
}

type testServer struct {
	*httptest.Server
	root string
	feed *notify.Feed
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	loop := eventloop.New(16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = loop.Run(ctx)
	}()

	root := t.TempDir()
	feed := notify.NewFeed(0)
	writer := storage.NewWriter(storage.NewDownloads(root))
	adapter := ocr.NewAdapter(fakeRecognizer{text: "F-778"}, loop)

	app := shell.New(shell.Options{
		Gate:     auth.NewGate(),
		Notifier: feed,
		NewFolio: func() *capture.Controller {
			return capture.NewController(capture.Options{
				Permissions: camera.Grant(true),
				OCR:         adapter,
				Writer:      writer,
				Notifier:    feed,
				Loop:        loop,
			})
		},
	})

	srv := httptest.NewServer(New(app, loop, feed).Routes())
	t.Cleanup(func() {
		srv.Close()
		cancel()
		<-done
	})
	return &testServer{Server: srv, root: root, feed: feed}
}

func (s *testServer) do(t *testing.T, method, path, contentType string, body io.Reader) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, s.URL+path, body)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := s.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (s *testServer) doJSON(t *testing.T, method, path string, payload any) *http.Response {
	t.Helper()
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		body = bytes.NewReader(data)
	}
	return s.do(t, method, path, "application/json", body)
}

func (s *testServer) login(t *testing.T) {
	t.Helper()
	resp := s.doJSON(t, http.MethodPost, "/api/login", map[string]string{
		"identifier": auth.AdminIdentifier,
		"secret":     "1234",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d", resp.StatusCode)
	}
}

func (s *testServer) upload(t *testing.T, path string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "photo.png")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	img := image.NewRGBA(image.Rect(0, 0, 8, 6))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})
	if err := png.Encode(part, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("multipart close: %v", err)
	}
	return s.do(t, http.MethodPost, path, mw.FormDataContentType(), &buf)
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

// waitFolio polls the folio view until cond holds
func (s *testServer) waitFolio(t *testing.T, cond func(models.FolioView) bool) models.FolioView {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		resp := s.do(t, http.MethodGet, "/api/folio", "", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("folio status = %d", resp.StatusCode)
		}
		view := decode[models.FolioView](t, resp)
		if cond(view) {
			return view
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for folio view, last = %+v", view)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHealthcheck(t *testing.T) {
	s := newTestServer(t)
	resp := s.do(t, http.MethodGet, "/healthcheck", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestLogin(t *testing.T) {
	tests := []struct {
		name       string
		identifier string
		secret     string
		wantStatus int
		wantScreen models.Screen
		wantToast  string
	}{
		{"valid", auth.AdminIdentifier, "1234", http.StatusOK, models.ScreenMain, "Login successful"},
		{"identifier is trimmed", "  " + auth.AdminIdentifier + " ", "1234", http.StatusOK, models.ScreenMain, "Login successful"},
		{"wrong secret", auth.AdminIdentifier, "4321", http.StatusUnauthorized, "", "Invalid credentials"},
		{"secret is not trimmed", auth.AdminIdentifier, " 1234", http.StatusUnauthorized, "", "Invalid credentials"},
		{"empty", "", "", http.StatusUnauthorized, "", "Invalid credentials"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			resp := s.doJSON(t, http.MethodPost, "/api/login", map[string]string{
				"identifier": tt.identifier,
				"secret":     tt.secret,
			})
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if tt.wantScreen != "" {
				got := decode[screenResponse](t, resp)
				if got.Screen != tt.wantScreen {
					t.Errorf("screen = %q, want %q", got.Screen, tt.wantScreen)
				}
			}
			last, ok := s.feed.Last()
			if !ok || last.Message != tt.wantToast {
				t.Errorf("last toast = %q, want %q", last.Message, tt.wantToast)
			}
		})
	}
}

func TestLoginInvalidJSON(t *testing.T) {
	s := newTestServer(t)
	resp := s.do(t, http.MethodPost, "/api/login", "application/json", strings.NewReader("{"))
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestFolioRequiresLogin(t *testing.T) {
	s := newTestServer(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/api/folio"},
		{http.MethodGet, "/api/folio"},
		{http.MethodPost, "/api/folio/save"},
		{http.MethodPost, "/api/logout"},
	} {
		resp := s.doJSON(t, tc.method, tc.path, nil)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("%s %s status = %d, want 401", tc.method, tc.path, resp.StatusCode)
		}
	}
}

func TestFolioNotOpen(t *testing.T) {
	s := newTestServer(t)
	s.login(t)

	resp := s.do(t, http.MethodGet, "/api/folio", "", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestPasswordChange(t *testing.T) {
	tests := []struct {
		name       string
		current    string
		newSecret  string
		confirm    string
		wantStatus int
		wantToast  string
	}{
		{"missing fields", "1234", "", "", http.StatusBadRequest, "Please fill in all fields"},
		{"mismatch", "1234", "abcd", "abce", http.StatusBadRequest, "Passwords do not match"},
		{"success", "1234", "abcd", "abcd", http.StatusOK, "Password changed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			s.login(t)

			resp := s.doJSON(t, http.MethodPost, "/api/password", map[string]string{
				"current": tt.current,
				"new":     tt.newSecret,
				"confirm": tt.confirm,
			})
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			last, _ := s.feed.Last()
			if last.Message != tt.wantToast {
				t.Errorf("toast = %q, want %q", last.Message, tt.wantToast)
			}

			screen := decode[screenResponse](t, s.do(t, http.MethodGet, "/api/screen", "", nil))
			wantScreen := models.ScreenChangePassword
			if tt.wantStatus == http.StatusOK {
				wantScreen = models.ScreenMain
			}
			if screen.Screen != wantScreen {
				t.Errorf("screen = %q, want %q", screen.Screen, wantScreen)
			}
		})
	}
}

func TestFolioWorkflow(t *testing.T) {
	s := newTestServer(t)
	s.login(t)

	resp := s.doJSON(t, http.MethodPost, "/api/folio", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("enter folio status = %d", resp.StatusCode)
	}

	resp = s.upload(t, "/api/folio/scan")
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("scan status = %d, want 202", resp.StatusCode)
	}
	view := s.waitFolio(t, func(v models.FolioView) bool { return v.Folio != "" })
	if view.Folio != "F-778" || view.Count != 0 {
		t.Fatalf("after scan view = %+v", view)
	}

	for i := 0; i < 3; i++ {
		s.waitFolio(t, func(v models.FolioView) bool { return !v.Capturing })
		resp = s.upload(t, "/api/folio/photos")
		if resp.StatusCode != http.StatusAccepted {
			t.Fatalf("capture %d status = %d, want 202", i, resp.StatusCode)
		}
	}
	view = s.waitFolio(t, func(v models.FolioView) bool { return v.Count == 3 && !v.Capturing })
	if !view.MultiCapture {
		t.Error("multi capture mode not set")
	}

	resp = s.do(t, http.MethodGet, "/api/folio/photos/0", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("photo status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != storage.MIMEJPEG {
		t.Errorf("Content-Type = %q", ct)
	}

	resp = s.do(t, http.MethodDelete, "/api/folio/photos/1", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}
	if got := decode[models.FolioView](t, resp); got.Count != 2 {
		t.Errorf("count after delete = %d, want 2", got.Count)
	}

	resp = s.do(t, http.MethodDelete, "/api/folio/photos/9", "", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("delete out of range status = %d, want 404", resp.StatusCode)
	}

	resp = s.doJSON(t, http.MethodPost, "/api/folio/save", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("save status = %d", resp.StatusCode)
	}
	report := decode[storage.SaveReport](t, resp)
	if report.Written() != 2 || report.Failed != 0 {
		t.Errorf("report = %+v", report)
	}

	var names []string
	entries, err := os.ReadDir(filepath.Join(s.root, storage.DownloadsDir, "F-778"))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	for _, e := range entries {
		names = append(names, e.Name())
	}
	if diff := cmp.Diff([]string{"F-778_foto_1.jpg", "F-778_foto_2.jpg"}, names); diff != "" {
		t.Errorf("saved files mismatch (-want +got):\n%s", diff)
	}

	last, _ := s.feed.Last()
	if last.Kind != models.NotificationDialog || last.Message != "Photos were saved in the folder Downloads/F-778" {
		t.Errorf("last notification = %+v", last)
	}

	resp = s.doJSON(t, http.MethodPost, "/api/folio/save", nil)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("second save status = %d, want 422", resp.StatusCode)
	}
}

func TestSaveWithoutFolio(t *testing.T) {
	s := newTestServer(t)
	s.login(t)
	s.doJSON(t, http.MethodPost, "/api/folio", nil)

	s.upload(t, "/api/folio/photos")
	s.waitFolio(t, func(v models.FolioView) bool { return v.Count == 1 && !v.Capturing })

	resp := s.doJSON(t, http.MethodPost, "/api/folio/save", nil)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", resp.StatusCode)
	}
	last, _ := s.feed.Last()
	if last.Message != "No folio captured" {
		t.Errorf("toast = %q", last.Message)
	}

	resp = s.doJSON(t, http.MethodPut, "/api/folio/name", map[string]string{"folio": "  "})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("name status = %d", resp.StatusCode)
	}
	resp = s.doJSON(t, http.MethodPost, "/api/folio/save", nil)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("blank folio save status = %d, want 422", resp.StatusCode)
	}
}

func TestCaptureWithoutDevice(t *testing.T) {
	s := newTestServer(t)
	s.login(t)
	s.doJSON(t, http.MethodPost, "/api/folio", nil)

	resp := s.do(t, http.MethodPost, "/api/folio/photos", "", nil)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", resp.StatusCode)
	}
	s.waitFolio(t, func(v models.FolioView) bool { return !v.Capturing })

	last, _ := s.feed.Last()
	if last.Message != "Could not open the camera" {
		t.Errorf("toast = %q", last.Message)
	}
}

func TestNotificationsSince(t *testing.T) {
	s := newTestServer(t)
	s.doJSON(t, http.MethodPost, "/api/login", map[string]string{"identifier": "x", "secret": "y"})
	s.login(t)

	all := decode[[]models.Notification](t, s.do(t, http.MethodGet, "/api/notifications", "", nil))
	if len(all) != 2 {
		t.Fatalf("got %d notifications, want 2", len(all))
	}
	newer := decode[[]models.Notification](t, s.do(t, http.MethodGet, "/api/notifications?since="+strconv.FormatInt(all[0].ID, 10), "", nil))
	if len(newer) != 1 || newer[0].Message != "Login successful" {
		t.Errorf("since filter = %+v", newer)
	}

	resp := s.do(t, http.MethodGet, "/api/notifications?since=abc", "", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestLogoutReturnsToLogin(t *testing.T) {
	s := newTestServer(t)
	s.login(t)
	s.doJSON(t, http.MethodPost, "/api/folio", nil)

	resp := s.doJSON(t, http.MethodPost, "/api/logout", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	got := decode[screenResponse](t, resp)
	if diff := cmp.Diff(screenResponse{Screen: models.ScreenLogin, Stack: []models.Screen{models.ScreenLogin}}, got); diff != "" {
		t.Errorf("screen mismatch (-want +got):\n%s", diff)
	}

	resp = s.do(t, http.MethodGet, "/api/folio", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("folio after logout status = %d, want 401", resp.StatusCode)
	}
}

func TestCameraFromRequest_UploadLimit(t *testing.T) {
	h := &Handler{maxUpload: 16}

	tests := []struct {
		name    string
		size    int
		wantErr bool
	}{
		{"under limit", 15, false},
		{"exactly at limit", 16, false},
		{"over limit", 17, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			mw := multipart.NewWriter(&buf)
			part, err := mw.CreateFormFile("file", "photo.jpg")
			if err != nil {
				t.Fatalf("CreateFormFile: %v", err)
			}
			if _, err := part.Write(bytes.Repeat([]byte{0xff}, tt.size)); err != nil {
				t.Fatalf("Write: %v", err)
			}
			if err := mw.Close(); err != nil {
				t.Fatalf("multipart close: %v", err)
			}

			req := httptest.NewRequest(http.MethodPost, "/api/folio/photos", &buf)
			req.Header.Set("Content-Type", mw.FormDataContentType())

			cam, err := h.cameraFromRequest(req)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error for an oversized upload")
				}
				return
			}
			if err != nil {
				t.Fatalf("cameraFromRequest: %v", err)
			}
			still, ok := cam.(camera.Still)
			if !ok || len(still.Data) != tt.size {
				t.Errorf("camera = %T with %d bytes, want camera.Still with %d", cam, len(still.Data), tt.size)
			}
		})
	}
}
