package capture

import (
	"context"
	"errors"
	"image"
	"log/slog"

	"github.com/grupomess/erp/internal/camera"
	"github.com/grupomess/erp/internal/eventloop"
	"github.com/grupomess/erp/internal/models"
	"github.com/grupomess/erp/internal/notify"
	"github.com/grupomess/erp/internal/ocr"
	"github.com/grupomess/erp/internal/storage"
)

// ErrCaptureInProgress is returned when a camera request is already outstanding
var ErrCaptureInProgress = errors.New("a camera request is already in progress")

// Options wires the folio screen to its collaborators
type Options struct {
	Permissions camera.Permissions
	// Device is used when a request does not bring its own camera
	Device   camera.Camera
	OCR      *ocr.Adapter
	Writer   *storage.Writer
	Notifier notify.Notifier
	Loop     eventloop.Poster
}

// Controller is the folio screen. Every method except the spawned camera
// request runs on the event loop.
type Controller struct {
	session  *Session
	perms    camera.Permissions
	device   camera.Camera
	ocr      *ocr.Adapter
	writer   *storage.Writer
	notifier notify.Notifier
	loop     eventloop.Poster
	spawn    func(func())

	ctx       context.Context
	cancel    context.CancelFunc
	capturing bool
	closed    bool
}

// NewController enters the folio screen with an empty session
func NewController(opts Options) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		session:  NewSession(),
		perms:    opts.Permissions,
		device:   opts.Device,
		ocr:      opts.OCR,
		writer:   opts.Writer,
		notifier: opts.Notifier,
		loop:     opts.Loop,
		spawn:    func(fn func()) { go fn() },
		ctx:      ctx,
		cancel:   cancel,
	}
	if c.loop == nil {
		c.loop = eventloop.Inline{}
	}
	if c.perms == nil {
		c.perms = camera.Grant(true)
	}
	return c
}

// Synchronous runs camera requests on the caller's goroutine
func (c *Controller) Synchronous() *Controller {
	c.spawn = func(fn func()) { fn() }
	return c
}

// Session exposes the photo list for rendering
func (c *Controller) Session() *Session {
	return c.session
}

// Close leaves the screen. Results still in flight are dropped.
func (c *Controller) Close() {
	c.closed = true
	c.cancel()
	c.session.Clear()
}

// Scan takes one photo and reads the folio from it
func (c *Controller) Scan(cam camera.Camera) error {
	return c.request(false, cam)
}

// CaptureMore takes one photo and appends it to the list
func (c *Controller) CaptureMore(cam camera.Camera) error {
	return c.request(true, cam)
}

func (c *Controller) request(multi bool, cam camera.Camera) error {
	if c.capturing {
		return ErrCaptureInProgress
	}
	c.session.SetMode(multi)
	if cam == nil {
		cam = c.device
	}

	c.capturing = true
	ctx := c.ctx
	c.spawn(func() {
		res := camera.Request(ctx, c.perms, cam)
		if !c.loop.Post(func() {
			c.capturing = false
			c.OnCaptureResult(res)
		}) {
			slog.Warn("Dropped camera result, event loop stopped", "status", res.Status)
		}
	})
	return nil
}

// OnCaptureResult applies a camera result to the screen
func (c *Controller) OnCaptureResult(res camera.Result) {
	if c.closed {
		slog.Debug("Ignoring camera result for closed folio screen", "status", res.Status)
		return
	}

	switch res.Status {
	case camera.StatusSuccess:
		if c.session.MultiCapture() {
			count := c.session.Append(models.Photo{Image: res.Image})
			slog.Info("Photo captured", "session_id", c.session.ID(), "count", count)
			return
		}
		c.scanText(res.Image)
	case camera.StatusDenied:
		c.notifier.Toast("Camera permission denied")
	case camera.StatusUnavailable:
		c.notifier.Toast("Could not open the camera")
	default:
		slog.Error("Camera capture failed", "err", res.Err)
		msg := "Capture failed"
		if res.Err != nil {
			msg += ": " + res.Err.Error()
		}
		c.notifier.Toast(msg)
	}
}

func (c *Controller) scanText(img image.Image) {
	if c.ocr == nil {
		c.notifier.Toast("Error scanning: text recognition is not configured")
		return
	}
	c.ocr.Recognize(c.ctx, img, func(res ocr.Result) {
		if c.closed {
			return
		}
		if res.Err != nil {
			slog.Error("Error scanning folio", "err", res.Err)
			c.notifier.Toast("Error scanning: " + res.Err.Error())
			return
		}
		c.session.SetFolio(res.Text)
		slog.Info("Folio scanned", "session_id", c.session.ID(), "folio", res.Text)
	})
}

// DeleteAt removes a photo from the list and returns the new count
func (c *Controller) DeleteAt(index int) int {
	return c.session.DeleteAt(index)
}

// SetFolio replaces the folio field, as typing into it would
func (c *Controller) SetFolio(text string) {
	c.session.SetFolio(text)
}

// View renders the screen state
func (c *Controller) View() models.FolioView {
	v := c.session.View()
	v.Capturing = c.capturing
	return v
}

// Save persists the photos under the folio name. Once validation passes the
// list and folio field are cleared, even if single photos failed to write.
func (c *Controller) Save(ctx context.Context) (*storage.SaveReport, error) {
	report, err := c.writer.Save(ctx, c.session.Photos(), c.session.Folio())
	if err != nil {
		c.notifier.Toast(saveMessage(err))
		return nil, err
	}

	c.session.Clear()
	if report.Failed > 0 {
		slog.Warn("Folio saved with failures", "folio", report.Folio, "failed", report.Failed, "written", report.Written())
	}
	c.notifier.Dialog("Photos saved", "Photos were saved in the folder "+report.Folder)
	return report, nil
}

func saveMessage(err error) string {
	switch {
	case errors.Is(err, storage.ErrNoPhotos):
		return "No photos to save"
	case errors.Is(err, storage.ErrNoFolio):
		return "No folio captured"
	default:
		return err.Error()
	}
}
