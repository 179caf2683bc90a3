// Package capture holds the folio screen: the in-memory photo list, the
// folio-name field and the capture/scan/save sequencing around them.
package capture

import (
	"time"

	"github.com/google/uuid"
	"github.com/grupomess/erp/internal/models"
)

// Session is the photo list behind one visit to the folio screen.
// It is owned by the event loop and is not safe for concurrent use.
type Session struct {
	id        string
	photos    []models.Photo
	multi     bool
	folio     string
	createdAt time.Time
}

// NewSession starts an empty session
func NewSession() *Session {
	return &Session{id: uuid.NewString(), createdAt: time.Now()}
}

// ID identifies the session in logs and views
func (s *Session) ID() string { return s.id }

// SetMode chooses what the next successful capture does
func (s *Session) SetMode(multi bool) { s.multi = multi }

// MultiCapture reports whether captures are appended to the list
func (s *Session) MultiCapture() bool { return s.multi }

// Append adds a photo at the end of the list and returns the new count
func (s *Session) Append(p models.Photo) int {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CapturedAt.IsZero() {
		p.CapturedAt = time.Now()
	}
	s.photos = append(s.photos, p)
	return len(s.photos)
}

// DeleteAt removes the photo at index. An out-of-range index is a no-op.
func (s *Session) DeleteAt(index int) int {
	if index < 0 || index >= len(s.photos) {
		return len(s.photos)
	}
	s.photos = append(s.photos[:index], s.photos[index+1:]...)
	return len(s.photos)
}

// Count is the number of photos in the list
func (s *Session) Count() int { return len(s.photos) }

// Photos returns a copy of the list in capture order
func (s *Session) Photos() []models.Photo {
	out := make([]models.Photo, len(s.photos))
	copy(out, s.photos)
	return out
}

// Photo returns the photo at index
func (s *Session) Photo(index int) (models.Photo, bool) {
	if index < 0 || index >= len(s.photos) {
		return models.Photo{}, false
	}
	return s.photos[index], true
}

// Folio returns the folio field as typed or scanned
func (s *Session) Folio() string { return s.folio }

// SetFolio replaces the folio field
func (s *Session) SetFolio(text string) { s.folio = text }

// Clear discards every photo and resets the folio field
func (s *Session) Clear() {
	s.photos = nil
	s.folio = ""
}

// View renders the session for the thumbnail list
func (s *Session) View() models.FolioView {
	view := models.FolioView{
		SessionID:    s.id,
		Folio:        s.folio,
		MultiCapture: s.multi,
		Count:        len(s.photos),
		Photos:       make([]models.PhotoView, 0, len(s.photos)),
	}
	for i, p := range s.photos {
		pv := models.PhotoView{Index: i, ID: p.ID}
		if p.Image != nil {
			b := p.Image.Bounds()
			pv.Width, pv.Height = b.Dx(), b.Dy()
		}
		view.Photos = append(view.Photos, pv)
	}
	return view
}
