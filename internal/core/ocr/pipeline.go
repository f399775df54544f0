package ocr

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
)

// Pipeline runs one OCR attempt: load image, look up key, call the provider.
// It makes at most one provider call and never retries.
type Pipeline struct {
	source   ImageSource
	keys     KeyProvider
	provider Provider
}

// NewPipeline creates a pipeline for the image file at imagePath
func NewPipeline(imagePath string, keys KeyProvider, provider Provider) *Pipeline {
	return NewPipelineFromSource(FileSource(imagePath), keys, provider)
}

// NewPipelineFromSource creates a pipeline reading its image from source
func NewPipelineFromSource(source ImageSource, keys KeyProvider, provider Provider) *Pipeline {
	return &Pipeline{
		source:   source,
		keys:     keys,
		provider: provider,
	}
}

// ImagePath returns where the image is read from
func (p *Pipeline) ImagePath() string {
	return p.source.Location()
}

// GetProviderName returns the name of the configured provider
func (p *Pipeline) GetProviderName() string {
	return p.provider.GetProviderName()
}

// Run produces exactly one Outcome. Local failures short-circuit before the network.
func (p *Pipeline) Run(ctx context.Context) Outcome {
	var apiKey string
	if requiresKey(p.provider) {
		key, err := p.keys.APIKey(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("⚠️ API key lookup failed")
		}
		apiKey = strings.TrimSpace(key)
		if apiKey == "" {
			return LocalFailure(ReasonMissingKey)
		}
	}

	img, err := LoadFrom(ctx, p.source)
	if err != nil {
		log.Warn().Err(err).Str("path", p.source.Location()).Msg("⚠️ Image not loaded")
		return LocalFailure(ReasonMissingImage)
	}

	jpegData, err := EncodeJPEG(img)
	if err != nil {
		return TransportError(err.Error())
	}

	log.Info().
		Str("provider", p.provider.GetProviderName()).
		Int("bytes", len(jpegData)).
		Msg("🔍 Calling OCR provider")

	result, err := p.provider.ExtractText(ctx, apiKey, jpegData)
	if err != nil {
		return Classify(err)
	}
	if !result.Found {
		return Success(NoTextFound)
	}
	return Success(result.Text)
}
