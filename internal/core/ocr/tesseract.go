package ocr

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// TesseractProvider implements OCR using the local Tesseract engine
type TesseractProvider struct {
	tesseractPath string
	language      string
	timeout       time.Duration
}

// NewTesseractProvider creates a new Tesseract OCR provider
// language can be "eng", "ind" (Indonesian), or "eng+ind" for both
func NewTesseractProvider(language string, timeout time.Duration) *TesseractProvider {
	if language == "" {
		language = "eng"
	}

	return &TesseractProvider{
		tesseractPath: "tesseract", // Assumes tesseract is in PATH
		language:      language,
		timeout:       timeout,
	}
}

// Keyless reports that Tesseract runs without an API key
func (p *TesseractProvider) Keyless() bool { return true }

// ExtractText runs tesseract over the JPEG; the key is ignored
func (p *TesseractProvider) ExtractText(ctx context.Context, _ string, jpegData []byte) (*OCRResult, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	tempDir, err := os.MkdirTemp("", "ocr-relay-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	tempImagePath := filepath.Join(tempDir, "image.jpg")
	tempOutputPath := filepath.Join(tempDir, "output")

	if err := os.WriteFile(tempImagePath, jpegData, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write temp image: %w", err)
	}

	// tesseract input.jpg output -l eng
	cmd := exec.CommandContext(ctx, p.tesseractPath, tempImagePath, tempOutputPath, "-l", p.language)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("tesseract: %w: %v", ErrTimeout, ctx.Err())
		}
		return nil, fmt.Errorf("tesseract command failed: %w, output: %s", err, strings.TrimSpace(string(output)))
	}

	// tesseract adds the .txt extension itself
	textBytes, err := os.ReadFile(tempOutputPath + ".txt")
	if err != nil {
		return nil, fmt.Errorf("failed to read tesseract output: %w", err)
	}

	text := strings.TrimSpace(string(textBytes))
	if text == "" {
		return &OCRResult{Found: false}, nil
	}
	return &OCRResult{Text: text, Found: true}, nil
}

// GetProviderName returns the name of the provider
func (p *TesseractProvider) GetProviderName() string {
	return "Tesseract OCR"
}
