package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ErrOutsideRoot is returned for entries whose location escapes the store root
var ErrOutsideRoot = errors.New("location outside of public storage")

// Entry describes a new item in the public media collection
type Entry struct {
	DisplayName  string
	MIMEType     string
	RelativePath string
}

// MediaStore is the content-insertion API for world-visible files.
// Callers never need a filesystem path: Insert returns an opaque URI to write to.
type MediaStore interface {
	Insert(ctx context.Context, entry Entry) (string, error)
	OpenWriter(ctx context.Context, uri string) (io.WriteCloser, error)
}

// Downloads is a MediaStore rooted at a public directory on disk
type Downloads struct {
	root string
	mu   sync.Mutex
}

// NewDownloads returns a store whose relative paths resolve under root
func NewDownloads(root string) *Downloads {
	return &Downloads{root: root}
}

// Root returns the directory the store writes under
func (d *Downloads) Root() string {
	return d.root
}

// Insert creates an empty item and returns its URI. An existing item with the
// same name is never overwritten; the new one gets a " (n)" suffix instead.
func (d *Downloads) Insert(_ context.Context, entry Entry) (string, error) {
	if strings.TrimSpace(entry.DisplayName) == "" {
		return "", fmt.Errorf("invalid display name %q", entry.DisplayName)
	}
	entry.DisplayName = CleanName(entry.DisplayName)

	dir, err := d.resolve(entry.RelativePath)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", entry.RelativePath, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	ext := filepath.Ext(entry.DisplayName)
	base := strings.TrimSuffix(entry.DisplayName, ext)
	for n := 0; ; n++ {
		name := entry.DisplayName
		if n > 0 {
			name = fmt.Sprintf("%s (%d)%s", base, n, ext)
		}
		path := filepath.Join(dir, name)
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to create %s: %w", name, err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("failed to create %s: %w", name, err)
		}
		return path, nil
	}
}

// CleanName makes s usable as a single file or folder name. Path separators,
// characters other filesystems reject and control characters become "_", and
// a name made only of dots is replaced so it cannot refer to a parent folder.
func CleanName(s string) string {
	cleaned := strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f || strings.ContainsRune(`/\:*?"<>|`, r) {
			return '_'
		}
		return r
	}, s)
	if strings.Trim(cleaned, ".") == "" {
		return strings.Repeat("_", len(cleaned))
	}
	return cleaned
}

// OpenWriter truncates and opens the item behind uri for writing
func (d *Downloads) OpenWriter(_ context.Context, uri string) (io.WriteCloser, error) {
	if !d.contains(uri) {
		return nil, ErrOutsideRoot
	}
	f, err := os.OpenFile(uri, os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", uri, err)
	}
	return f, nil
}

func (d *Downloads) resolve(relativePath string) (string, error) {
	rel := filepath.Clean(filepath.FromSlash(relativePath))
	if filepath.IsAbs(rel) || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, relativePath)
	}
	return filepath.Join(d.root, rel), nil
}

func (d *Downloads) contains(path string) bool {
	rel, err := filepath.Rel(d.root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}
