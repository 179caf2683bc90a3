package camera

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Inbox is a device camera backed by a drop directory. Each capture consumes
// the oldest image file found there.
type Inbox struct {
	dir string
}

func NewInbox(dir string) *Inbox {
	return &Inbox{dir: dir}
}

func (c *Inbox) Capture(_ context.Context) Result {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		switch {
		case errors.Is(err, fs.ErrPermission):
			return Denied()
		case errors.Is(err, fs.ErrNotExist):
			return Unavailable()
		default:
			return Failed(fmt.Errorf("failed to read camera inbox: %w", err))
		}
	}

	type candidate struct {
		path    string
		modTime time.Time
	}
	var candidates []candidate
	for _, entry := range entries {
		if entry.IsDir() || !isImageName(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		candidates = append(candidates, candidate{path: filepath.Join(c.dir, entry.Name()), modTime: info.ModTime()})
	}
	if len(candidates) == 0 {
		return Unavailable()
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].modTime.Equal(candidates[j].modTime) {
			return candidates[i].path < candidates[j].path
		}
		return candidates[i].modTime.Before(candidates[j].modTime)
	})

	path := candidates[0].path
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return Denied()
		}
		return Failed(fmt.Errorf("failed to open captured image: %w", err))
	}
	result := Decode(file)
	file.Close()

	if err := os.Remove(path); err != nil {
		slog.Warn("Failed to consume inbox image", "path", path, "err", err)
	}
	return result
}

func isImageName(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png", ".gif":
		return true
	}
	return false
}
