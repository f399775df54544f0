package ocr

import "context"

// Provider interface for OCR engines
type Provider interface {
	// ExtractText sends a JPEG image to the engine and returns the recognized text
	ExtractText(ctx context.Context, apiKey string, jpegData []byte) (*OCRResult, error)

	// GetProviderName returns the provider name
	GetProviderName() string
}

// KeylessProvider is implemented by engines that do not need an API key.
type KeylessProvider interface {
	Keyless() bool
}

// OCRResult contains the extracted text
type OCRResult struct {
	Text  string `json:"text"`  // Recognized text
	Found bool   `json:"found"` // False when the engine returned no text annotation
}

// KeyProvider looks up the OCR provider API key
type KeyProvider interface {
	APIKey(ctx context.Context) (string, error)
}

// KeyProviderFunc adapts a plain function to KeyProvider
type KeyProviderFunc func(ctx context.Context) (string, error)

// APIKey calls f(ctx)
func (f KeyProviderFunc) APIKey(ctx context.Context) (string, error) {
	return f(ctx)
}

func requiresKey(p Provider) bool {
	if k, ok := p.(KeylessProvider); ok {
		return !k.Keyless()
	}
	return true
}
