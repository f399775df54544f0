package ocr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	vision "google.golang.org/api/vision/v1"
)

// SDKProvider implements OCR through the generated Vision v1 client.
// It sends the same TEXT_DETECTION request as GoogleVisionProvider.
type SDKProvider struct {
	endpoint string
	client   *http.Client
}

// NewSDKProvider creates a Vision client backed provider
func NewSDKProvider(endpoint string, timeout time.Duration) *SDKProvider {
	if endpoint == "" {
		endpoint = DefaultVisionEndpoint
	}
	return &SDKProvider{
		endpoint: strings.TrimRight(endpoint, "/") + "/",
		client:   &http.Client{Timeout: timeout},
	}
}

// GetProviderName returns the provider name
func (p *SDKProvider) GetProviderName() string {
	return "Google Cloud Vision (SDK)"
}

// ExtractText runs images:annotate through the Vision service
func (p *SDKProvider) ExtractText(ctx context.Context, apiKey string, jpegData []byte) (*OCRResult, error) {
	// The API key goes on the call: WithHTTPClient disables option-based auth.
	svc, err := vision.NewService(ctx,
		option.WithHTTPClient(p.client),
		option.WithEndpoint(p.endpoint),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create vision service: %w", err)
	}

	req := &vision.BatchAnnotateImagesRequest{
		Requests: []*vision.AnnotateImageRequest{
			{
				Image:    &vision.Image{Content: EncodeBase64(jpegData)},
				Features: []*vision.Feature{{Type: FeatureTextDetection}},
			},
		},
	}

	resp, err := svc.Images.Annotate(req).Context(ctx).Do(googleapi.QueryParameter("key", apiKey))
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) {
			return nil, &HTTPError{StatusCode: gerr.Code, Body: gerr.Message}
		}
		return nil, wrapTransport("vision annotate failed", err)
	}

	if len(resp.Responses) == 0 {
		return nil, errors.New("no response from Google Vision")
	}
	first := resp.Responses[0]
	if first.FullTextAnnotation == nil {
		return &OCRResult{Found: false}, nil
	}
	return &OCRResult{Text: first.FullTextAnnotation.Text, Found: true}, nil
}
