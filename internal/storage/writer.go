package storage

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/grupomess/erp/internal/models"
)

const (
	// DownloadsDir is the public collection folios are saved under
	DownloadsDir = "Downloads"
	// JPEGQuality is the encoder quality for saved photos
	JPEGQuality = 90
	MIMEJPEG    = "image/jpeg"
)

var (
	ErrNoPhotos = errors.New("no photos to save")
	ErrNoFolio  = errors.New("no folio captured")
)

// Recorder keeps a journal of attempted writes
type Recorder interface {
	Record(records ...models.SavedPhoto) error
}

// SaveReport describes one batch save
type SaveReport struct {
	Folio  string              `json:"folio"`
	Folder string              `json:"folder"`
	Photos []models.SavedPhoto `json:"photos"`
	Failed int                 `json:"failed"`
}

// Written is the number of photos that were fully written
func (r *SaveReport) Written() int {
	return len(r.Photos) - r.Failed
}

// Writer persists a folio's photos as JPEG files in the public downloads area
type Writer struct {
	store    MediaStore
	recorder Recorder
	now      func() time.Time
}

func NewWriter(store MediaStore) *Writer {
	return &Writer{store: store, now: time.Now}
}

// WithRecorder journals every attempted write to r
func (w *Writer) WithRecorder(r Recorder) *Writer {
	w.recorder = r
	return w
}

// FileName is the target name of the photo at 1-based position i
func FileName(folio string, i int) string {
	return fmt.Sprintf("%s_foto_%d.jpg", CleanName(folio), i)
}

// Folder is the relative folder a folio's photos are saved in
func Folder(folio string) string {
	return path.Join(DownloadsDir, CleanName(folio))
}

// Save writes every photo, best effort. A failed item is logged and skipped;
// items already written are kept.
func (w *Writer) Save(ctx context.Context, photos []models.Photo, folio string) (*SaveReport, error) {
	if len(photos) == 0 {
		return nil, ErrNoPhotos
	}
	folio = strings.TrimSpace(folio)
	if folio == "" {
		return nil, ErrNoFolio
	}

	report := &SaveReport{
		Folio:  folio,
		Folder: Folder(folio),
		Photos: make([]models.SavedPhoto, 0, len(photos)),
	}

	for i, photo := range photos {
		record := models.SavedPhoto{
			Folio:        folio,
			FileName:     FileName(folio, i+1),
			RelativePath: report.Folder,
		}

		uri, n, err := w.writeOne(ctx, record, photo.Image)
		record.URI = uri
		record.Bytes = n
		record.SavedAt = w.now()
		if err != nil {
			record.Error = err.Error()
			report.Failed++
			slog.Error("Failed to save photo", "folio", folio, "filename", record.FileName, "err", err)
		} else {
			slog.Info("Photo saved", "folio", folio, "filename", record.FileName, "bytes", n)
		}
		report.Photos = append(report.Photos, record)
	}

	if w.recorder != nil {
		if err := w.recorder.Record(report.Photos...); err != nil {
			slog.Warn("Failed to record saved photos", "folio", folio, "err", err)
		}
	}

	return report, nil
}

func (w *Writer) writeOne(ctx context.Context, record models.SavedPhoto, img image.Image) (string, int64, error) {
	if img == nil {
		return "", 0, errors.New("photo has no image data")
	}

	uri, err := w.store.Insert(ctx, Entry{
		DisplayName:  record.FileName,
		MIMEType:     MIMEJPEG,
		RelativePath: record.RelativePath,
	})
	if err != nil {
		return "", 0, fmt.Errorf("failed to insert entry: %w", err)
	}

	out, err := w.store.OpenWriter(ctx, uri)
	if err != nil {
		return uri, 0, err
	}
	counter := &countingWriter{w: out}
	encodeErr := jpeg.Encode(counter, img, &jpeg.Options{Quality: JPEGQuality})
	closeErr := out.Close()
	if encodeErr != nil {
		return uri, counter.n, fmt.Errorf("failed to encode jpeg: %w", encodeErr)
	}
	if closeErr != nil {
		return uri, counter.n, fmt.Errorf("failed to close %s: %w", uri, closeErr)
	}
	return uri, counter.n, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
