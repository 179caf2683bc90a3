package ocr

import (
	"context"
	"image"
	"log/slog"

	"github.com/grupomess/erp/internal/eventloop"
)

// Result is the single outcome of an asynchronous recognition
type Result struct {
	Text string
	Err  error
}

// Adapter runs recognitions off the event loop and delivers the result back on it
type Adapter struct {
	recognizer Recognizer
	loop       eventloop.Poster
	spawn      func(func())
}

// NewAdapter wires a recognizer to the loop that receives its callbacks
func NewAdapter(r Recognizer, loop eventloop.Poster) *Adapter {
	return &Adapter{
		recognizer: r,
		loop:       loop,
		spawn:      func(fn func()) { go fn() },
	}
}

// Synchronous makes Recognize run the call on the caller's goroutine
func (a *Adapter) Synchronous() *Adapter {
	a.spawn = func(fn func()) { fn() }
	return a
}

// Recognize submits img and calls done on the loop exactly once.
// There is no timeout beyond ctx.
func (a *Adapter) Recognize(ctx context.Context, img image.Image, done func(Result)) {
	a.spawn(func() {
		text, err := a.recognizer.RecognizeText(ctx, img)
		res := Result{Text: text, Err: err}
		if !a.loop.Post(func() { done(res) }) {
			slog.Warn("Dropped OCR result, event loop stopped", "err", err)
		}
	})
}
