package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/MuhamadAgungGumelar/vision-ocr-relay/internal/core/auth"
	"github.com/MuhamadAgungGumelar/vision-ocr-relay/internal/core/jobs"
	"github.com/MuhamadAgungGumelar/vision-ocr-relay/internal/core/settings"
	"github.com/MuhamadAgungGumelar/vision-ocr-relay/internal/handlers"
	"github.com/MuhamadAgungGumelar/vision-ocr-relay/internal/services"
	"github.com/MuhamadAgungGumelar/vision-ocr-relay/internal/shared/config"
	"github.com/MuhamadAgungGumelar/vision-ocr-relay/internal/shared/database"
	"github.com/MuhamadAgungGumelar/vision-ocr-relay/internal/shared/utils"
)

const usage = `usage: ocr-relay <command> [flags]

commands:
  run       run the OCR relay once and exit (0 on success or timeout, 1 on failure)
  serve     serve the HTTP API and run the OCR_SCHEDULE cron schedule
  set-key   store the Cloud Vision API key
  token     print an API bearer token signed with API_JWT_SECRET`

func main() {
	cfg := loadConfig(os.Stderr)

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var code int
	switch os.Args[1] {
	case "run":
		code = runOnce(ctx, cfg, os.Args[2:])
	case "serve":
		code = serve(ctx, cfg, os.Args[2:])
	case "set-key":
		code = setKey(ctx, cfg, os.Args[2:])
	case "token":
		code = token(cfg, os.Args[2:])
	default:
		fmt.Fprintln(os.Stderr, usage)
		code = 2
	}

	stop()
	os.Exit(code)
}

// loadConfig reads .env, sets up the logger from LOG_LEVEL and LOG_FORMAT,
// then parses the rest of the config so its warnings honour both
func loadConfig(logOut io.Writer) *config.Config {
	envErr := config.LoadEnvFile()
	utils.InitLogger(logOut, os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
	if envErr != nil {
		log.Debug().Msg("⚠️ .env file not found, using system environment variables")
	}
	return config.FromEnv()
}

// openSettings opens the settings database and applies pending migrations
func openSettings(cfg *config.Config) (*database.DB, *settings.APIKeyProvider, error) {
	db, err := database.NewDB(cfg.SettingsDriver, cfg.SettingsDSN)
	if err != nil {
		return nil, nil, err
	}
	if err := settings.Migrate(db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return db, settings.NewAPIKeyProvider(settings.NewStore(db)), nil
}

// newRelay wires the notifier and the OCR service and registers it with a runner
func newRelay(ctx context.Context, cfg *config.Config, keys *settings.APIKeyProvider, runnerCfg jobs.RunnerConfig) (*jobs.Runner, *services.OCRService, error) {
	notifier := services.NewNotifier(cfg)
	if err := notifier.Configure(ctx); err != nil {
		// Sinks that failed to configure report errors on Send; the log sink keeps working
		utils.LogWarn("⚠️ Notification setup incomplete", map[string]interface{}{"error": err.Error()})
	}

	svc, err := services.NewOCRServiceFromConfig(ctx, cfg, keys, notifier, os.Stdout)
	if err != nil {
		return nil, nil, err
	}

	runner := jobs.NewRunner(runnerCfg)
	runner.RegisterHandler(svc)
	return runner, svc, nil
}

func runOnce(ctx context.Context, cfg *config.Config, args []string) int {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	fs.StringVar(&cfg.ImagePath, "image", cfg.ImagePath, "Image to recognize")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "OCR request timeout")
	_ = fs.Parse(args)

	db, keys, err := openSettings(cfg)
	if err != nil {
		log.Error().Err(err).Msg("❌ Failed to open settings")
		return 1
	}
	defer db.Close()

	runner, _, err := newRelay(ctx, cfg, keys, services.NewRunnerConfig(cfg))
	if err != nil {
		log.Error().Err(err).Msg("❌ Failed to set up OCR relay")
		return 1
	}
	defer runner.Stop()

	job, err := runner.Run(ctx, services.JobTypeOCR, "cli")
	if err != nil {
		log.Error().Err(err).Msg("❌ OCR run interrupted")
		return 1
	}
	if job.Status != jobs.StatusCompleted {
		return 1
	}
	return 0
}

func serve(ctx context.Context, cfg *config.Config, args []string) int {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	fs.StringVar(&cfg.Port, "port", cfg.Port, "HTTP port")
	fs.StringVar(&cfg.Schedule, "schedule", cfg.Schedule, "Cron schedule with seconds field, empty to disable")
	_ = fs.Parse(args)

	log.Info().Str("env", cfg.Env).Msg("🚀 Starting ocr-relay")

	db, keys, err := openSettings(cfg)
	if err != nil {
		log.Error().Err(err).Msg("❌ Failed to open settings")
		return 1
	}
	defer db.Close()

	runnerCfg := services.NewRunnerConfig(cfg)
	runner, svc, err := newRelay(ctx, cfg, keys, runnerCfg)
	if err != nil {
		log.Error().Err(err).Msg("❌ Failed to set up OCR relay")
		return 1
	}

	scheduler := jobs.NewScheduler(runner)
	if cfg.Schedule != "" {
		if err := scheduler.Schedule(services.JobTypeOCR, cfg.Schedule); err != nil {
			log.Error().Err(err).Str("schedule", cfg.Schedule).Msg("❌ Invalid OCR_SCHEDULE")
			return 1
		}
	}
	scheduler.Start()

	app := handlers.NewApp(handlers.Handlers{
		OCR:      handlers.NewOCRHandler(runner, svc.GetType(), runnerCfg.Timeout),
		Settings: handlers.NewSettingsHandler(keys),
		Health:   handlers.NewHealthHandler(svc.ProviderName(), cfg.Schedule),
		Auth:     auth.NewJWTService(cfg.JWTSecret),
	})

	errCh := make(chan error, 1)
	go func() {
		utils.LogInfo("✅ ocr-relay running", map[string]interface{}{"port": cfg.Port})
		errCh <- app.Listen(":" + cfg.Port)
	}()

	code := 0
	select {
	case <-ctx.Done():
	case err := <-errCh:
		utils.LogError("❌ HTTP server stopped", err, nil)
		code = 1
	}

	log.Info().Msg("🛑 Shutting down ocr-relay...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Warn().Err(err).Msg("⚠️ HTTP shutdown incomplete")
	}
	scheduler.Stop()
	runner.Stop()
	log.Info().Msg("👋 Goodbye!")
	return code
}

func setKey(ctx context.Context, cfg *config.Config, args []string) int {
	fs := flag.NewFlagSet("set-key", flag.ExitOnError)
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: ocr-relay set-key <api-key>")
		return 2
	}

	db, keys, err := openSettings(cfg)
	if err != nil {
		log.Error().Err(err).Msg("❌ Failed to open settings")
		return 1
	}
	defer db.Close()

	if err := keys.SetAPIKey(ctx, fs.Arg(0)); err != nil {
		log.Error().Err(err).Msg("❌ Failed to store API key")
		return 1
	}
	log.Info().Str("namespace", settings.Namespace).Msg("🔑 API key stored")
	return 0
}

func token(cfg *config.Config, args []string) int {
	fs := flag.NewFlagSet("token", flag.ExitOnError)
	subject := fs.String("subject", "operator", "Token subject")
	ttl := fs.Duration("ttl", 24*time.Hour, "Token lifetime")
	_ = fs.Parse(args)

	signed, expiresAt, err := auth.NewJWTService(cfg.JWTSecret).GenerateToken(*subject, *ttl)
	if err != nil {
		log.Error().Err(err).Msg("❌ Failed to generate token")
		return 1
	}
	log.Info().Str("subject", *subject).Time("expires_at", expiresAt).Msg("🔑 Token generated")
	fmt.Println(signed)
	return 0
}
