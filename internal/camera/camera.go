// Package camera models the "capture one photo" external request and its
// result variants.
package camera

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
)

// Status is the outcome of a capture request
type Status int

const (
	StatusSuccess Status = iota
	StatusDenied
	StatusUnavailable
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusDenied:
		return "denied"
	case StatusUnavailable:
		return "unavailable"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Result is delivered exactly once per capture request
type Result struct {
	Status Status
	Image  image.Image
	Err    error
}

func Success(img image.Image) Result { return Result{Status: StatusSuccess, Image: img} }
func Denied() Result                 { return Result{Status: StatusDenied} }
func Unavailable() Result            { return Result{Status: StatusUnavailable} }
func Failed(err error) Result        { return Result{Status: StatusFailed, Err: err} }

// Camera returns one image per invocation
type Camera interface {
	Capture(ctx context.Context) Result
}

// Permissions gates access to the camera
type Permissions interface {
	Granted() bool
	// Request asks for the permission and reports whether it was given
	Request(ctx context.Context) bool
}

// Grant is a fixed permission answer
type Grant bool

func (g Grant) Granted() bool                  { return bool(g) }
func (g Grant) Request(_ context.Context) bool { return bool(g) }

// Request checks the permission, asking for it when needed, then opens the camera.
// A nil camera means no capture handler is present.
func Request(ctx context.Context, perms Permissions, cam Camera) Result {
	if perms != nil && !perms.Granted() && !perms.Request(ctx) {
		return Denied()
	}
	if cam == nil {
		return Unavailable()
	}
	return cam.Capture(ctx)
}

// Decode turns encoded image bytes into a capture result
func Decode(r io.Reader) Result {
	img, _, err := image.Decode(r)
	if err != nil {
		return Failed(fmt.Errorf("failed to decode image: %w", err))
	}
	return Success(img)
}

// Still is a camera that returns an image already delivered by the client
type Still struct {
	Data []byte
}

func (s Still) Capture(_ context.Context) Result {
	if len(s.Data) == 0 {
		return Failed(errors.New("empty image"))
	}
	return Decode(bytes.NewReader(s.Data))
}

// URL is a camera that downloads its image from a remote location
type URL struct {
	Location string
	Client   *http.Client
	MaxBytes int64
}

func (u URL) Capture(ctx context.Context) Result {
	client := u.Client
	if client == nil {
		client = http.DefaultClient
	}
	maxBytes := u.MaxBytes
	if maxBytes <= 0 {
		maxBytes = 10 * 1024 * 1024
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.Location, nil)
	if err != nil {
		return Failed(fmt.Errorf("failed to create image request: %w", err))
	}
	resp, err := client.Do(req)
	if err != nil {
		return Unavailable()
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Failed(fmt.Errorf("failed to download image: HTTP %d", resp.StatusCode))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes))
	if err != nil {
		return Failed(fmt.Errorf("failed to read image data: %w", err))
	}
	return Decode(bytes.NewReader(data))
}
