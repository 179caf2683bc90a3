package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"log/slog"
	"strings"

	"github.com/grupomess/erp/internal/gemini"
	"github.com/grupomess/erp/internal/ollama"
	"github.com/grupomess/erp/internal/openai"
	"github.com/grupomess/erp/internal/providers"
)

// Recognizer reads the text out of a single image
type Recognizer interface {
	RecognizeText(ctx context.Context, img image.Image) (string, error)
}

// Config selects and configures the recognition provider
type Config struct {
	Provider     string `mapstructure:"provider"`
	Model        string `mapstructure:"model"`
	OllamaURL    string `mapstructure:"ollama_url"`
	OpenAIKey    string `mapstructure:"openai_api_key"`
	OpenAIURL    string `mapstructure:"openai_url"`
	GeminiAPIKey string `mapstructure:"gemini_api_key"`
}

// Service handles OCR extraction from images
type Service struct {
	provider string
	model    string
	backends map[string]providers.Provider
}

// NewService creates a new OCR service
func NewService(cfg Config) *Service {
	provider := cfg.Provider
	if provider == "" {
		provider = "ollama"
	}
	s := &Service{
		provider: provider,
		model:    cfg.Model,
		backends: map[string]providers.Provider{
			"ollama": ollama.New(cfg.OllamaURL),
			"openai": openai.New(cfg.OpenAIKey, cfg.OpenAIURL),
			"gemini": gemini.New(cfg.GeminiAPIKey),
		},
	}
	if s.model == "" {
		s.model = defaultModel(provider)
	}
	return s
}

// WithProvider registers or replaces a named backend
func (s *Service) WithProvider(name string, p providers.Provider) *Service {
	s.backends[name] = p
	return s
}

func defaultModel(provider string) string {
	switch provider {
	case "openai":
		return "gpt-4o"
	case "ollama":
		return "mistral-small3.2:24b"
	case "gemini":
		return "gemini-1.5-flash"
	default:
		return ""
	}
}

// Provider returns the configured provider name
func (s *Service) Provider() string {
	return s.provider
}

// RecognizeText extracts the visible text of img using the configured provider
func (s *Service) RecognizeText(ctx context.Context, img image.Image) (string, error) {
	backend, ok := s.backends[s.provider]
	if !ok {
		return "", fmt.Errorf("unsupported OCR provider: %s", s.provider)
	}
	if img == nil {
		return "", fmt.Errorf("no image to recognize")
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return "", fmt.Errorf("failed to encode image for OCR: %w", err)
	}

	text, err := backend.ExtractText(ctx, providers.Config{
		Model:       s.model,
		Temperature: 0.0, // Zero temperature for exact OCR
		Prompt:      buildOCRPrompt(),
		Image:       buf.Bytes(),
		ImageMIME:   "image/jpeg",
	})
	if err != nil {
		return "", err
	}

	text = strings.TrimSpace(text)
	slog.Info("Extracted OCR text", "provider", s.provider, "model", s.model, "length", len(text))
	return text, nil
}

func buildOCRPrompt() string {
	return `You are performing OCR (Optical Character Recognition) on a photo of a document.

Extract ALL visible text from the image exactly as it appears, preserving:
- Line breaks
- Capitalization
- Punctuation and special characters
- Order of text elements

Do not add any interpretation, commentary, or explanations.
Provide ONLY the extracted text. Do not include phrases like "Here is the text:".`
}
