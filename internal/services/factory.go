package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/MuhamadAgungGumelar/vision-ocr-relay/internal/core/delivery"
	"github.com/MuhamadAgungGumelar/vision-ocr-relay/internal/core/dispatch"
	"github.com/MuhamadAgungGumelar/vision-ocr-relay/internal/core/jobs"
	"github.com/MuhamadAgungGumelar/vision-ocr-relay/internal/core/notification"
	"github.com/MuhamadAgungGumelar/vision-ocr-relay/internal/core/ocr"
	"github.com/MuhamadAgungGumelar/vision-ocr-relay/internal/core/storage"
	"github.com/MuhamadAgungGumelar/vision-ocr-relay/internal/shared/config"
)

// runnerTimeoutMargin covers the key lookup and the image load around the OCR request
const runnerTimeoutMargin = 30 * time.Second

// NewRunnerConfig sizes the job timeout from the OCR timeout, so the OCR
// request always times out before the job does
func NewRunnerConfig(cfg *config.Config) jobs.RunnerConfig {
	rc := jobs.DefaultRunnerConfig()
	if cfg.Timeout > 0 {
		rc.Timeout = cfg.Timeout + runnerTimeoutMargin
	}
	return rc
}

// NewProvider builds the OCR engine selected by cfg.Engine
func NewProvider(cfg *config.Config) (ocr.Provider, error) {
	switch cfg.Engine {
	case config.EngineREST, "":
		return ocr.NewGoogleVisionProvider(cfg.Endpoint, cfg.Timeout), nil
	case config.EngineSDK:
		return ocr.NewSDKProvider(cfg.Endpoint, cfg.Timeout), nil
	case config.EngineTesseract:
		return ocr.NewTesseractProvider(cfg.Language, cfg.Timeout), nil
	case config.EngineOCRSpace:
		return ocr.NewOCRSpaceProvider(cfg.Endpoint, cfg.Language, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unknown OCR engine %q", cfg.Engine)
	}
}

// NewNotifier builds the notification service. The log sink is always on;
// webhook, Telegram and email sinks are added when configured.
func NewNotifier(cfg *config.Config) *notification.Service {
	sinks := []notification.Sink{notification.NewLogSink()}

	if cfg.NotifyWebhookURL != "" {
		sinks = append(sinks, notification.NewWebhookSink(cfg.NotifyWebhookURL))
	}
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != 0 {
		sinks = append(sinks, notification.NewTelegramSink(cfg.TelegramBotToken, cfg.TelegramChatID))
	} else if cfg.TelegramBotToken != "" {
		log.Warn().Msg("⚠️ TELEGRAM_BOT_TOKEN set without TELEGRAM_CHAT_ID, Telegram sink skipped")
	}

	if cfg.EmailProvider != "" && cfg.NotifyEmailTo != "" {
		sinks = append(sinks, notification.NewEmailSink(notification.EmailConfig{
			Provider:  cfg.EmailProvider,
			APIKey:    cfg.EmailAPIKey,
			FromEmail: cfg.EmailFrom,
			FromName:  cfg.EmailFromName,
			To:        cfg.NotifyEmailTo,
		}))
	}

	return notification.NewService(sinks...)
}

// NewDeliverer builds the deliverer selected by cfg.DeliveryMode.
// Result mode writes the payload to out.
func NewDeliverer(cfg *config.Config, out io.Writer) (delivery.Deliverer, error) {
	switch cfg.DeliveryMode {
	case config.DeliveryBroadcast:
		if cfg.BroadcastURL == "" {
			return nil, fmt.Errorf("DELIVERY_MODE=broadcast requires BROADCAST_URL")
		}
		return delivery.NewBroadcastDeliverer(cfg.BroadcastURL, cfg.BroadcastAction, cfg.BroadcastPackage), nil
	case config.DeliveryResult, "":
		return delivery.NewWriterDeliverer(out), nil
	default:
		return nil, fmt.Errorf("unknown delivery mode %q", cfg.DeliveryMode)
	}
}

// NewImageSource returns an S3 source for s3:// image paths and a file source otherwise
func NewImageSource(ctx context.Context, cfg *config.Config) (ocr.ImageSource, error) {
	if !storage.IsS3URL(cfg.ImagePath) {
		return ocr.FileSource(cfg.ImagePath), nil
	}
	return storage.NewS3Source(ctx, cfg.ImagePath, storage.S3Options{
		Region:          cfg.S3Region,
		Endpoint:        cfg.S3Endpoint,
		AccessKeyID:     cfg.S3AccessKeyID,
		SecretAccessKey: cfg.S3SecretAccessKey,
		UsePathStyle:    cfg.S3UsePathStyle,
	})
}

// NewOCRServiceFromConfig wires the pipeline and dispatcher for one relay
func NewOCRServiceFromConfig(ctx context.Context, cfg *config.Config, keys ocr.KeyProvider, notifier dispatch.Notifier, out io.Writer) (*OCRService, error) {
	provider, err := NewProvider(cfg)
	if err != nil {
		return nil, err
	}
	source, err := NewImageSource(ctx, cfg)
	if err != nil {
		return nil, err
	}
	deliverer, err := NewDeliverer(cfg, out)
	if err != nil {
		return nil, err
	}

	pipeline := ocr.NewPipelineFromSource(source, keys, provider)
	dispatcher := dispatch.NewDispatcher(notifier, deliverer, dispatch.Options{
		NotifyMissingImage: cfg.NotifyMissingImage,
		NotifyCompletion:   cfg.NotifyCompletion,
		Timeout:            cfg.Timeout,
	})

	log.Info().
		Str("provider", provider.GetProviderName()).
		Str("delivery", deliverer.Name()).
		Msg("✅ OCR relay wired")
	return NewOCRService(pipeline, dispatcher), nil
}
