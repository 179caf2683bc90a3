package notify

import (
	"log/slog"
	"sync"
	"time"

	"github.com/grupomess/erp/internal/models"
)

// Notifier shows status messages to the user
type Notifier interface {
	// Toast shows a transient, non-blocking message
	Toast(message string)
	// Dialog shows a confirmation the user has to acknowledge
	Dialog(title, message string)
}

// Feed keeps the most recent notifications so a client can poll them
type Feed struct {
	mu     sync.Mutex
	items  []models.Notification
	nextID int64
	limit  int
	now    func() time.Time
}

// NewFeed creates a feed that retains at most limit notifications
func NewFeed(limit int) *Feed {
	if limit <= 0 {
		limit = 100
	}
	return &Feed{limit: limit, nextID: 1, now: time.Now}
}

func (f *Feed) Toast(message string) {
	slog.Info("Toast", "message", message)
	f.add(models.Notification{Kind: models.NotificationToast, Message: message})
}

func (f *Feed) Dialog(title, message string) {
	slog.Info("Dialog", "title", title, "message", message)
	f.add(models.Notification{Kind: models.NotificationDialog, Title: title, Message: message})
}

func (f *Feed) add(n models.Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n.ID = f.nextID
	n.At = f.now()
	f.nextID++
	f.items = append(f.items, n)
	if len(f.items) > f.limit {
		f.items = f.items[len(f.items)-f.limit:]
	}
}

// Since returns the retained notifications with an ID greater than id
func (f *Feed) Since(id int64) []models.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := make([]models.Notification, 0, len(f.items))
	for _, n := range f.items {
		if n.ID > id {
			result = append(result, n)
		}
	}
	return result
}

// Last returns the most recent notification, if any
func (f *Feed) Last() (models.Notification, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.items) == 0 {
		return models.Notification{}, false
	}
	return f.items[len(f.items)-1], true
}
