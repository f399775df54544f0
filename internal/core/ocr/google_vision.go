package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultVisionEndpoint is the Google Cloud Vision API base URL
const DefaultVisionEndpoint = "https://vision.googleapis.com"

// FeatureTextDetection is the only feature requested from the Vision API
const FeatureTextDetection = "TEXT_DETECTION"

// GoogleVisionProvider implements OCR using the Google Cloud Vision REST API
type GoogleVisionProvider struct {
	endpoint string
	client   *http.Client
}

// NewGoogleVisionProvider creates a new Google Vision OCR provider.
// timeout bounds the whole call, including reading the response body.
func NewGoogleVisionProvider(endpoint string, timeout time.Duration) *GoogleVisionProvider {
	if endpoint == "" {
		endpoint = DefaultVisionEndpoint
	}
	return &GoogleVisionProvider{
		endpoint: strings.TrimRight(endpoint, "/"),
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// GetProviderName returns the provider name
func (p *GoogleVisionProvider) GetProviderName() string {
	return "Google Cloud Vision"
}

// AnnotateRequest is the images:annotate request envelope
type AnnotateRequest struct {
	Requests []AnnotateRequestItem `json:"requests"`
}

// AnnotateRequestItem is a single image entry of AnnotateRequest
type AnnotateRequestItem struct {
	Image    AnnotateImage     `json:"image"`
	Features []AnnotateFeature `json:"features"`
}

// AnnotateImage holds the base64 encoded image content
type AnnotateImage struct {
	Content string `json:"content"`
}

// AnnotateFeature selects a Vision feature
type AnnotateFeature struct {
	Type string `json:"type"`
}

type visionResponse struct {
	Responses []struct {
		FullTextAnnotation *struct {
			Text string `json:"text"`
		} `json:"fullTextAnnotation"`
		Error *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error,omitempty"`
	} `json:"responses"`
}

// NewAnnotateRequest wraps JPEG bytes in the TEXT_DETECTION envelope
func NewAnnotateRequest(jpegData []byte) AnnotateRequest {
	return AnnotateRequest{
		Requests: []AnnotateRequestItem{
			{
				Image:    AnnotateImage{Content: EncodeBase64(jpegData)},
				Features: []AnnotateFeature{{Type: FeatureTextDetection}},
			},
		},
	}
}

// ExtractText posts the image to images:annotate and reads
// responses[0].fullTextAnnotation.text
func (p *GoogleVisionProvider) ExtractText(ctx context.Context, apiKey string, jpegData []byte) (*OCRResult, error) {
	jsonData, err := json.Marshal(NewAnnotateRequest(jpegData))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1/images:annotate?key=%s", p.endpoint, url.QueryEscape(apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", stripURL(err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, wrapTransport("google vision request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// the status alone decides the outcome, a failed body read only loses detail
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(errBody)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, wrapTransport("failed to read response", err)
	}

	return parseVisionResponse(body)
}

func parseVisionResponse(body []byte) (*OCRResult, error) {
	var visionResp visionResponse
	if err := json.Unmarshal(body, &visionResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if len(visionResp.Responses) == 0 {
		return nil, errors.New("no response from Google Vision")
	}

	first := visionResp.Responses[0]
	if first.Error != nil {
		// the per-image error does not change the outcome, the image simply has no text
		log.Warn().Int("code", first.Error.Code).Str("message", first.Error.Message).Msg("⚠️ Google Vision returned an image error")
	}
	if first.FullTextAnnotation == nil {
		return &OCRResult{Found: false}, nil
	}
	return &OCRResult{Text: first.FullTextAnnotation.Text, Found: true}, nil
}

// wrapTransport keeps timeouts recognizable and drops the request URL,
// which carries the API key, from the error text
func wrapTransport(msg string, err error) error {
	if isTimeout(err) {
		return fmt.Errorf("%s: %w: %v", msg, ErrTimeout, stripURL(err))
	}
	return fmt.Errorf("%s: %w", msg, stripURL(err))
}

func stripURL(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return fmt.Errorf("%s: %w", ue.Op, ue.Err)
	}
	return err
}
