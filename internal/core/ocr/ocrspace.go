package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// DefaultOCRSpaceEndpoint is the OCR.space API base URL
const DefaultOCRSpaceEndpoint = "https://api.ocr.space"

// OCRSpaceProvider implements OCR using OCR.space API.
// It uses the same stored API key as the Vision engines.
type OCRSpaceProvider struct {
	endpoint string
	language string
	client   *http.Client
}

// NewOCRSpaceProvider creates a new OCR.space provider
func NewOCRSpaceProvider(endpoint, language string, timeout time.Duration) *OCRSpaceProvider {
	if endpoint == "" {
		endpoint = DefaultOCRSpaceEndpoint
	}
	if language == "" {
		language = "eng"
	}
	return &OCRSpaceProvider{
		endpoint: strings.TrimRight(endpoint, "/"),
		language: language,
		client:   &http.Client{Timeout: timeout},
	}
}

// GetProviderName returns the provider name
func (p *OCRSpaceProvider) GetProviderName() string {
	return "OCR.space"
}

type ocrSpaceResponse struct {
	ParsedResults []struct {
		ParsedText        string `json:"ParsedText"`
		FileParseExitCode int    `json:"FileParseExitCode"`
	} `json:"ParsedResults"`
	OCRExitCode           int      `json:"OCRExitCode"`
	IsErroredOnProcessing bool     `json:"IsErroredOnProcessing"`
	ErrorMessage          []string `json:"ErrorMessage,omitempty"`
}

// ExtractText uploads the JPEG as multipart form data to /parse/image
func (p *OCRSpaceProvider) ExtractText(ctx context.Context, apiKey string, jpegData []byte) (*OCRResult, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", "image.jpg")
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(jpegData); err != nil {
		return nil, fmt.Errorf("failed to write image data: %w", err)
	}
	if err := writer.WriteField("language", p.language); err != nil {
		return nil, fmt.Errorf("failed to write language: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint+"/parse/image", &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	// header rather than form field so the key never shows up in a URL
	req.Header.Set("apikey", apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, wrapTransport("ocrspace request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, wrapTransport("failed to read response", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var ocrResp ocrSpaceResponse
	if err := json.Unmarshal(body, &ocrResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if ocrResp.IsErroredOnProcessing {
		errMsg := "unknown error"
		if len(ocrResp.ErrorMessage) > 0 {
			errMsg = ocrResp.ErrorMessage[0]
		}
		return nil, fmt.Errorf("ocrspace processing error: %s", errMsg)
	}

	if len(ocrResp.ParsedResults) == 0 || strings.TrimSpace(ocrResp.ParsedResults[0].ParsedText) == "" {
		return &OCRResult{Found: false}, nil
	}
	return &OCRResult{Text: ocrResp.ParsedResults[0].ParsedText, Found: true}, nil
}
