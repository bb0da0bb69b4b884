package ocr

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"
)

// Provider is the interface for OCR backends.
type Provider interface {
	// Recognize runs OCR on an encoded image (PNG or JPEG bytes) and
	// returns the resulting annotation.
	Recognize(ctx context.Context, image []byte) (*Annotation, error)
	// Name returns a human-readable provider name (e.g., "google").
	Name() string
}

// ProviderConfig holds OCR provider configuration.
type ProviderConfig struct {
	Provider  string        // "google", "tesseract"
	APIKey    string        // API key for remote providers (empty = read from env)
	Languages []string      // language hints (e.g., "en"); provider-specific codes
	BaseURL   string        // optional URL override for remote providers
	Timeout   time.Duration // per-request timeout for remote providers (0 = default)
}

// DefaultRecognizeTimeout bounds a single remote OCR round-trip.
const DefaultRecognizeTimeout = 60 * time.Second

// NewProvider creates an OCR provider from the given config.
func NewProvider(cfg ProviderConfig) (Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "google":
		key := cfg.APIKey
		if key == "" {
			key = os.Getenv("GOOGLE_VISION_API_KEY")
		}
		if key == "" {
			key = os.Getenv("GOOGLE_API_KEY")
		}
		if key == "" {
			return nil, fmt.Errorf("google provider requires GOOGLE_VISION_API_KEY or GOOGLE_API_KEY env var")
		}
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "https://vision.googleapis.com/v1"
		}
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultRecognizeTimeout
		}
		return &visionProvider{
			apiKey:    key,
			baseURL:   baseURL,
			languages: cfg.Languages,
			timeout:   timeout,
		}, nil

	case "tesseract":
		langs := cfg.Languages
		if len(langs) == 0 {
			if env := os.Getenv("TESSERACT_LANGS"); env != "" {
				langs = strings.Split(env, ",")
			}
		}
		return &tesseractProvider{languages: langs}, nil

	default:
		return nil, fmt.Errorf("unknown OCR provider: %q (supported: google, tesseract)", cfg.Provider)
	}
}
