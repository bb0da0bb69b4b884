package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// tesseractProvider implements Provider using a local Tesseract install via
// gosseract. Tesseract reports plain text only, so annotations from this
// provider are always flat.
type tesseractProvider struct {
	languages []string
}

func (t *tesseractProvider) Name() string {
	return "tesseract"
}

func (t *tesseractProvider) Recognize(ctx context.Context, image []byte) (*Annotation, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("empty image")
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	c := gosseract.NewClient()
	defer c.Close()

	if len(t.languages) > 0 {
		if err := c.SetLanguage(t.languages...); err != nil {
			return nil, fmt.Errorf("setting languages: %w", err)
		}
	}
	if err := c.SetImageFromBytes(image); err != nil {
		return nil, fmt.Errorf("setting image: %w", err)
	}

	text, err := c.Text()
	if err != nil {
		return nil, fmt.Errorf("recognizing text: %w", err)
	}

	return &Annotation{Text: strings.TrimSpace(text)}, nil
}
