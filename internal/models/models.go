package models

import (
	"image"
	"time"
)

// Screen identifies a destination in the shell's navigation stack
type Screen string

const (
	ScreenLogin          Screen = "login"
	ScreenMain           Screen = "main"
	ScreenFolio          Screen = "folio"
	ScreenChangePassword Screen = "change_password"
)

// Photo is a single camera capture held in memory by a folio session
type Photo struct {
	ID         string      `json:"id"`
	Image      image.Image `json:"-"`
	CapturedAt time.Time   `json:"captured_at"`
}

// PhotoView is the list-item representation of a captured photo
type PhotoView struct {
	Index  int    `json:"index"`
	ID     string `json:"id"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// FolioView is what the folio screen renders
type FolioView struct {
	SessionID    string      `json:"session_id"`
	Folio        string      `json:"folio"`
	MultiCapture bool        `json:"multi_capture"`
	Count        int         `json:"count"`
	Photos       []PhotoView `json:"photos"`
	Capturing    bool        `json:"capturing"`
}

// SavedPhoto records one attempted write of a session photo
type SavedPhoto struct {
	Folio        string    `json:"folio" yaml:"folio" parquet:"folio"`
	FileName     string    `json:"file_name" yaml:"file_name" parquet:"file_name"`
	RelativePath string    `json:"relative_path" yaml:"relative_path" parquet:"relative_path"`
	URI          string    `json:"uri,omitempty" yaml:"uri,omitempty" parquet:"uri"`
	Bytes        int64     `json:"bytes" yaml:"bytes" parquet:"bytes"`
	SavedAt      time.Time `json:"saved_at" yaml:"saved_at" parquet:"saved_at,timestamp"`
	Error        string    `json:"error,omitempty" yaml:"error,omitempty" parquet:"error"`
}

// NotificationKind distinguishes transient toasts from blocking dialogs
type NotificationKind string

const (
	NotificationToast  NotificationKind = "toast"
	NotificationDialog NotificationKind = "dialog"
)

// Notification is a user-facing status message
type Notification struct {
	ID      int64            `json:"id"`
	Kind    NotificationKind `json:"kind"`
	Title   string           `json:"title,omitempty"`
	Message string           `json:"message"`
	At      time.Time        `json:"at"`
}
