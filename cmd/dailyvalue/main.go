package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/terraincognita07/dailyvalue/internal/api"
	"github.com/terraincognita07/dailyvalue/internal/cli"
	"github.com/terraincognita07/dailyvalue/internal/db"
	"github.com/terraincognita07/dailyvalue/internal/i18n"
	"github.com/terraincognita07/dailyvalue/internal/upstream"
)

const minSecretKeyLength = 32

var insecureSecretKeys = map[string]struct{}{
	"change_me_in_production":                    {},
	"replace_with_at_least_32_random_characters": {},
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	if len(os.Args) > 1 && os.Args[1] == "retry-pending" {
		runRetryPending()
		return
	}
	runServer()
}

func runServer() {
	location := mustLoadLocation(getEnv("TZ", "Asia/Seoul"))
	time.Local = location

	secretKey, err := resolveSecretKey()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	port, err := resolvePort()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	timeout, err := resolveDuration("UPSTREAM_TIMEOUT", upstream.DefaultTimeout)
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	requestTimeout, err := resolveDuration("REQUEST_TIMEOUT", 60*time.Second)
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	lookbackDays, err := resolvePositiveInt("DIARY_LOOKBACK_DAYS", 30)
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	dbPath := getEnv("DB_PATH", filepath.Join("data", "dailyvalue.db"))
	upstreamURL := getEnv("UPSTREAM_URL", "http://localhost:8000")
	cookieSecure := getEnv("COOKIE_SECURE", "false") == "true"

	database, err := db.OpenSQLite(dbPath)
	if err != nil {
		log.Fatalf("database init failed: %v", err)
	}

	i18nManager, err := i18n.NewEmbeddedManager(getEnv("DEFAULT_LANGUAGE", i18n.LangKO))
	if err != nil {
		log.Fatalf("i18n init failed: %v", err)
	}

	client, err := upstream.NewClient(upstreamURL, timeout)
	if err != nil {
		log.Fatalf("upstream client init failed: %v", err)
	}

	handler, err := api.NewHandler(database, secretKey, client, location, i18nManager, cookieSecure, lookbackDays)
	if err != nil {
		log.Fatalf("handler init failed: %v", err)
	}
	handler.SetFeatures(resolveFeatures())

	lifecycleCtx, cancelLifecycle := context.WithCancel(context.Background())
	defer cancelLifecycle()
	handler.SetRequestContext(lifecycleCtx, requestTimeout)

	app := fiber.New(fiber.Config{
		AppName:               "DailyValue",
		DisableStartupMessage: true,
		BodyLimit:             12 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(compress.New())
	app.Use(cors.New(corsMiddlewareConfig(getEnv("CORS_ORIGINS", ""))))
	api.RegisterRoutes(app, handler)

	scheduler := cron.New(cron.WithLocation(location))
	retrySchedule := getEnv("RETRY_SCHEDULE", "@every 5m")
	if _, err := scheduler.AddFunc(retrySchedule, func() {
		report, err := handler.RetryService().RunDue(lifecycleCtx)
		if err != nil {
			log.Printf("retry pending mutations: %v", err)
			return
		}
		if report.Succeeded+report.Failed+report.Dropped > 0 {
			log.Printf("retried pending mutations: %d succeeded, %d failed, %d dropped", report.Succeeded, report.Failed, report.Dropped)
		}
	}); err != nil {
		log.Fatalf("invalid RETRY_SCHEDULE %q: %v", retrySchedule, err)
	}
	scheduler.Start()

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	go func() {
		<-sigCtx.Done()
		cancelLifecycle()
		<-scheduler.Stop().Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.Printf("server shutdown failed: %v", err)
		}
	}()

	log.Printf("DailyValue listening on http://0.0.0.0:%s (db: %s, upstream: %s, tz: %s)", port, dbPath, upstreamURL, location.String())
	if err := app.Listen(":" + port); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}

func runRetryPending() {
	timeout, err := resolveDuration("UPSTREAM_TIMEOUT", upstream.DefaultTimeout)
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	dbPath := getEnv("DB_PATH", filepath.Join("data", "dailyvalue.db"))
	upstreamURL := getEnv("UPSTREAM_URL", "http://localhost:8000")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if _, err := cli.RunRetryPendingCommand(ctx, dbPath, upstreamURL, timeout, os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func corsMiddlewareConfig(rawOrigins string) cors.Config {
	origins := make([]string, 0)
	for _, origin := range strings.Split(rawOrigins, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	return cors.Config{
		AllowOrigins:     strings.Join(origins, ","),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization",
		AllowCredentials: true,
	}
}

func resolveFeatures() api.Features {
	features := api.DefaultFeatures()
	if value, err := strconv.ParseBool(getEnv("SHOW_CHAT", "true")); err == nil {
		features.ShowChat = value
	}
	if value, err := strconv.ParseBool(getEnv("SHOW_STATS", "true")); err == nil {
		features.ShowStats = value
	}
	return features
}

func resolveSecretKey() (string, error) {
	secret := strings.TrimSpace(os.Getenv("SECRET_KEY"))
	if secret == "" {
		return "", errors.New("SECRET_KEY is required")
	}
	if _, insecure := insecureSecretKeys[secret]; insecure {
		return "", errors.New("SECRET_KEY uses a placeholder value")
	}
	if len(secret) < minSecretKeyLength {
		return "", fmt.Errorf("SECRET_KEY must be at least %d characters", minSecretKeyLength)
	}
	return secret, nil
}

func resolvePort() (string, error) {
	raw := strings.TrimSpace(getEnv("PORT", "8080"))
	port, err := strconv.Atoi(raw)
	if err != nil || port < 1 || port > 65535 {
		return "", fmt.Errorf("invalid PORT %q", raw)
	}
	return raw, nil
}

func resolveDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	value, err := time.ParseDuration(raw)
	if err != nil || value <= 0 {
		return 0, fmt.Errorf("invalid %s %q", key, raw)
	}
	return value, nil
}

func resolvePositiveInt(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return 0, fmt.Errorf("invalid %s %q", key, raw)
	}
	return value, nil
}

func mustLoadLocation(name string) *time.Location {
	location, err := time.LoadLocation(name)
	if err != nil {
		log.Printf("invalid TZ %q, falling back to UTC", name)
		return time.UTC
	}
	return location
}

func getEnv(key string, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}
