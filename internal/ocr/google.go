package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// visionProvider implements Provider using the Google Cloud Vision REST API
// with DOCUMENT_TEXT_DETECTION, which returns both the flat text and the
// full page hierarchy.
type visionProvider struct {
	apiKey    string
	baseURL   string
	languages []string
	timeout   time.Duration
	client    http.Client
}

// Vision API request/response types.
type visionRequest struct {
	Requests []visionAnnotateRequest `json:"requests"`
}

type visionAnnotateRequest struct {
	Image        visionImage         `json:"image"`
	Features     []visionFeature     `json:"features"`
	ImageContext *visionImageContext `json:"imageContext,omitempty"`
}

type visionImage struct {
	Content string `json:"content"`
}

type visionFeature struct {
	Type string `json:"type"`
}

type visionImageContext struct {
	LanguageHints []string `json:"languageHints,omitempty"`
}

type visionResponse struct {
	Responses []visionAnnotateResponse `json:"responses"`
	Error     *visionError             `json:"error,omitempty"`
}

type visionAnnotateResponse struct {
	FullTextAnnotation *visionTextAnnotation `json:"fullTextAnnotation,omitempty"`
	Error              *visionError          `json:"error,omitempty"`
}

// visionTextAnnotation mirrors the response hierarchy. The page structure
// uses the same field names as Annotation, so it decodes directly into the
// shared types.
type visionTextAnnotation struct {
	Text  string `json:"text"`
	Pages []Page `json:"pages,omitempty"`
}

type visionError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

func (v *visionProvider) Name() string {
	return "google"
}

func (v *visionProvider) Recognize(ctx context.Context, image []byte) (*Annotation, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("empty image")
	}

	req := visionRequest{
		Requests: []visionAnnotateRequest{
			{
				Image:    visionImage{Content: base64.StdEncoding.EncodeToString(image)},
				Features: []visionFeature{{Type: "DOCUMENT_TEXT_DETECTION"}},
			},
		},
	}
	if len(v.languages) > 0 {
		req.Requests[0].ImageContext = &visionImageContext{LanguageHints: v.languages}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	if v.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.timeout)
		defer cancel()
	}

	url := fmt.Sprintf("%s/images:annotate?key=%s", v.baseURL, v.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("vision API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var vResp visionResponse
	if err := json.Unmarshal(respBody, &vResp); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}

	if vResp.Error != nil {
		return nil, fmt.Errorf("vision API error: %s (code %d)", vResp.Error.Message, vResp.Error.Code)
	}
	if len(vResp.Responses) == 0 {
		return nil, fmt.Errorf("empty response from vision API")
	}

	r := vResp.Responses[0]
	if r.Error != nil {
		return nil, fmt.Errorf("vision API error: %s (code %d)", r.Error.Message, r.Error.Code)
	}
	if r.FullTextAnnotation == nil {
		// Blank page: no text detected is a data condition, not a failure.
		return &Annotation{}, nil
	}

	return &Annotation{
		Text:  r.FullTextAnnotation.Text,
		Pages: r.FullTextAnnotation.Pages,
	}, nil
}
