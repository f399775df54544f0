package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// OCR engines selectable with OCR_ENGINE
const (
	EngineREST      = "rest"
	EngineSDK       = "sdk"
	EngineTesseract = "tesseract"
	EngineOCRSpace  = "ocrspace"
)

// Delivery modes selectable with DELIVERY_MODE
const (
	DeliveryBroadcast = "broadcast"
	DeliveryResult    = "result"
)

type Config struct {
	Port      string
	Env       string
	LogLevel  string
	LogFormat string

	// OCR run
	ImagePath          string
	Timeout            time.Duration
	Endpoint           string
	Engine             string
	NotifyMissingImage bool
	NotifyCompletion   bool
	Schedule           string
	Language           string // tesseract and ocrspace

	// Settings store
	SettingsDriver string
	SettingsDSN    string

	// Delivery
	DeliveryMode     string
	BroadcastURL     string
	BroadcastAction  string
	BroadcastPackage string

	// Notification sinks
	NotifyWebhookURL string
	TelegramBotToken string
	TelegramChatID   int64
	EmailProvider    string // resend or brevo
	EmailAPIKey      string
	EmailFrom        string
	EmailFromName    string
	NotifyEmailTo    string

	// API auth, empty disables it
	JWTSecret string

	// S3 image source, used when OCR_IMAGE_PATH is an s3:// URL
	S3Region          string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3UsePathStyle    bool
}

// LoadEnvFile loads .env into the environment without overriding variables
// that are already set
func LoadEnvFile() error {
	return godotenv.Load()
}

func LoadConfig() *Config {
	if err := LoadEnvFile(); err != nil {
		log.Debug().Msg("⚠️ .env file not found, using system environment variables")
	}
	return FromEnv()
}

// FromEnv builds the config from the environment. Invalid values are logged
// through the global logger and replaced by their defaults.
func FromEnv() *Config {
	cfg := &Config{
		Port:               os.Getenv("PORT"),
		Env:                os.Getenv("ENV"),
		LogLevel:           os.Getenv("LOG_LEVEL"),
		LogFormat:          os.Getenv("LOG_FORMAT"),
		ImagePath:          os.Getenv("OCR_IMAGE_PATH"),
		Timeout:            getDuration("OCR_TIMEOUT", 5*time.Second),
		Endpoint:           os.Getenv("OCR_ENDPOINT"),
		Engine:             strings.ToLower(os.Getenv("OCR_ENGINE")),
		NotifyMissingImage: getBool("OCR_NOTIFY_MISSING_IMAGE", false),
		NotifyCompletion:   getBool("OCR_NOTIFY_COMPLETION", false),
		Schedule:           os.Getenv("OCR_SCHEDULE"),
		Language:           os.Getenv("OCR_LANGUAGE"),
		SettingsDriver:     strings.ToLower(os.Getenv("SETTINGS_DRIVER")),
		SettingsDSN:        os.Getenv("SETTINGS_DSN"),
		DeliveryMode:       strings.ToLower(os.Getenv("DELIVERY_MODE")),
		BroadcastURL:       os.Getenv("BROADCAST_URL"),
		BroadcastAction:    os.Getenv("BROADCAST_ACTION"),
		BroadcastPackage:   os.Getenv("BROADCAST_PACKAGE"),
		NotifyWebhookURL:   os.Getenv("NOTIFY_WEBHOOK_URL"),
		TelegramBotToken:   os.Getenv("TELEGRAM_BOT_TOKEN"),
		EmailProvider:      strings.ToLower(os.Getenv("EMAIL_PROVIDER")),
		EmailAPIKey:        os.Getenv("EMAIL_API_KEY"),
		EmailFrom:          os.Getenv("EMAIL_FROM"),
		EmailFromName:      os.Getenv("EMAIL_FROM_NAME"),
		NotifyEmailTo:      os.Getenv("NOTIFY_EMAIL_TO"),
		JWTSecret:          os.Getenv("API_JWT_SECRET"),
		S3Region:           os.Getenv("S3_REGION"),
		S3Endpoint:         os.Getenv("S3_ENDPOINT"),
		S3AccessKeyID:      os.Getenv("S3_ACCESS_KEY_ID"),
		S3SecretAccessKey:  os.Getenv("S3_SECRET_ACCESS_KEY"),
		S3UsePathStyle:     getBool("S3_USE_PATH_STYLE", false),
	}

	if raw := os.Getenv("TELEGRAM_CHAT_ID"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			log.Warn().Str("value", raw).Msg("⚠️ Invalid TELEGRAM_CHAT_ID, Telegram notifications disabled")
		}
		cfg.TelegramChatID = id
	}

	// Default values
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.Env == "" {
		cfg.Env = "development"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.ImagePath == "" {
		cfg.ImagePath = "/sdcard/NonSync/gctemp/g.jpg"
	}
	if cfg.Engine == "" {
		cfg.Engine = EngineREST
	}
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	if cfg.SettingsDriver == "" {
		cfg.SettingsDriver = "sqlite"
	}
	if cfg.SettingsDSN == "" && cfg.SettingsDriver == "sqlite" {
		cfg.SettingsDSN = "ocr-relay.db"
	}
	if cfg.DeliveryMode == "" {
		cfg.DeliveryMode = DeliveryResult
		if cfg.BroadcastURL != "" {
			cfg.DeliveryMode = DeliveryBroadcast
		}
	}

	return cfg
}

func getDuration(key string, def time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Warn().Str("key", key).Str("value", raw).Msg("⚠️ Invalid duration, using default")
		return def
	}
	return d
}

func getBool(key string, def bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		log.Warn().Str("key", key).Str("value", raw).Msg("⚠️ Invalid boolean, using default")
		return def
	}
	return b
}
