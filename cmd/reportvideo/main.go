package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/sendrec/reportvideo/internal/content"
	"github.com/sendrec/reportvideo/internal/database"
	"github.com/sendrec/reportvideo/internal/diagnose"
	"github.com/sendrec/reportvideo/internal/email"
	"github.com/sendrec/reportvideo/internal/geoip"
	"github.com/sendrec/reportvideo/internal/i18n"
	"github.com/sendrec/reportvideo/internal/notify"
	"github.com/sendrec/reportvideo/internal/report"
	"github.com/sendrec/reportvideo/internal/server"
	slackpkg "github.com/sendrec/reportvideo/internal/slack"
	"github.com/sendrec/reportvideo/internal/storage"
	"github.com/sendrec/reportvideo/internal/token"
	"github.com/sendrec/reportvideo/internal/validate"
	webhookpkg "github.com/sendrec/reportvideo/internal/webhook"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatalf("failed to load .env: %v", err)
	}

	port := getEnv("PORT", "8080")
	baseURL := getEnv("BASE_URL", "http://localhost:8080")

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	siteSecret := os.Getenv("SITE_SECRET")
	if siteSecret == "" {
		log.Fatal("SITE_SECRET is required")
	}

	reportCfg := reportConfigFromEnv()
	if msg := validateReportConfig(reportCfg); msg != "" {
		log.Fatal(msg)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.Connect(ctx, databaseURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(databaseURL); err != nil {
		log.Fatalf("database migration failed: %v", err)
	}
	log.Println("database migrations applied")

	tokens, err := token.New(siteSecret)
	if err != nil {
		log.Fatalf("token issuer: %v", err)
	}
	tokens.SetLifetime(getEnvDuration("REPORT_TOKEN_TTL", token.DefaultLifetime))
	translator, err := i18n.New()
	if err != nil {
		log.Fatalf("translations: %v", err)
	}

	posts := content.NewStore(db.Pool, baseURL)

	emailClient := email.New(email.Config{
		BaseURL:    os.Getenv("LISTMONK_URL"),
		Username:   getEnv("LISTMONK_USER", "admin"),
		Password:   os.Getenv("LISTMONK_PASSWORD"),
		TemplateID: int(getEnvInt64("LISTMONK_TEMPLATE_ID", 0)),
		Allowlist:  email.ParseAllowlist(os.Getenv("EMAIL_ALLOWLIST")),
		SMTP: email.SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     getEnv("SMTP_PORT", "587"),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			Sender:   os.Getenv("SMTP_SENDER"),
		},
	})
	notifier := notify.NewMulti(emailClient,
		slackpkg.New(db.Pool),
		webhookpkg.New(os.Getenv("WEBHOOK_URL"), os.Getenv("WEBHOOK_SECRET")),
	)

	handler := report.New(reportCfg, tokens, translator, posts, notifier)

	geo, err := geoip.New(os.Getenv("GEOIP_DB_PATH"))
	if err != nil {
		log.Fatalf("geoip: %v", err)
	}
	defer func() { _ = geo.Close() }()

	var objects diagnose.ObjectInspector
	if bucket := os.Getenv("S3_BUCKET"); bucket != "" {
		store, err := storage.New(ctx, storage.Config{
			Endpoint:  os.Getenv("S3_ENDPOINT"),
			Bucket:    bucket,
			AccessKey: os.Getenv("S3_ACCESS_KEY"),
			SecretKey: os.Getenv("S3_SECRET_KEY"),
			Region:    getEnv("S3_REGION", "eu-central-1"),
		})
		if err != nil {
			log.Fatalf("storage initialization failed: %v", err)
		}
		objects = store
		log.Println("video storage checks enabled")
	}
	handler.SetEnricher(diagnose.New(posts, objects, geo))

	srv := server.New(server.Config{
		Pinger:                db,
		Posts:                 posts,
		Report:                handler,
		SiteName:              reportCfg.SiteName,
		BaseURL:               baseURL,
		StorageEndpoint:       os.Getenv("S3_PUBLIC_ENDPOINT"),
		VideoBaseURL:          videoBaseURL(os.Getenv("S3_PUBLIC_ENDPOINT"), os.Getenv("S3_BUCKET")),
		AllowedFrameAncestors: os.Getenv("ALLOWED_FRAME_ANCESTORS"),
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%s", port),
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("reportvideo listening", "port", port, "post_types", reportCfg.PostTypes, "auto_append", handler.AutoAppend())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-shutdownCh
	log.Println("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("shutdown failed: %v", err)
	}
	notifier.Wait()
	log.Println("shutdown complete")
}

func reportConfigFromEnv() report.Config {
	cfg := report.DefaultConfig()
	if types := getEnvList("REPORT_POST_TYPES"); len(types) > 0 {
		cfg.PostTypes = types
	}
	cfg.AutoAppend = getEnvBool("REPORT_AUTO_APPEND", cfg.AutoAppend)
	cfg.Prefix = getEnv("REPORT_FIELD_PREFIX", cfg.Prefix)
	cfg.SiteName = getEnv("SITE_NAME", "")
	cfg.AdminEmail = getEnv("ADMIN_EMAIL", "")
	cfg.SiteLanguage = getEnv("SITE_LANGUAGE", cfg.SiteLanguage)

	if recipient := os.Getenv("REPORT_RECIPIENT"); recipient != "" {
		cfg.Hooks.Recipient = func(string) string { return recipient }
	}
	if from := os.Getenv("REPORT_FROM"); from != "" {
		cfg.Hooks.From = func(string) string { return "From: " + from }
	}
	return cfg
}

func validateReportConfig(cfg report.Config) string {
	if msg := validate.SiteName(cfg.SiteName); msg != "" {
		return "SITE_NAME: " + msg
	}
	if msg := validate.Email(cfg.AdminEmail); msg != "" {
		return "ADMIN_EMAIL: " + msg
	}
	if cfg.AdminEmail != "" && !strings.Contains(cfg.AdminEmail, "@") {
		return "ADMIN_EMAIL must be an email address"
	}
	return ""
}

func videoBaseURL(publicEndpoint, bucket string) string {
	if publicEndpoint == "" || bucket == "" {
		return ""
	}
	return strings.TrimRight(publicEndpoint, "/") + "/" + bucket
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
