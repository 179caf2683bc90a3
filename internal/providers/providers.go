package providers

import (
	"context"
)

// Config represents the configuration for a text-recognition request
type Config struct {
	Model       string
	Temperature float64
	Prompt      string
	// Image is the encoded picture to read, ImageMIME its media type
	Image     []byte
	ImageMIME string
}

// Provider defines the interface for a vision-capable LLM provider
type Provider interface {
	ExtractText(ctx context.Context, config Config) (string, error)
}
