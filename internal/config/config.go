package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"trilog/internal/ai"
	"trilog/internal/mail"
)

type Config struct {
	HTTPAddr             string
	DatabaseURL          string
	CORSAllowedOrigins   []string
	CORSAllowCredentials bool

	JWTSecret string
	ClientURL string

	Mail mail.Config
	AI   ai.Config

	EmbedBatchSize int

	// revision notification poller
	NotifyPollInterval time.Duration
	NotifyBatchSize    int
	MaxEmailsPerDay    int

	// weekly summary poller
	WeeklyEnabled   bool
	WeeklySendTime  string // HH:MM UTC, fires on Sunday
	WeeklyRequireAI bool
	WeeklyBatchSize int

	DNDDefaultStart string
	DNDDefaultEnd   string
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		HTTPAddr:             getenv("HTTP_ADDR", ":8080"),
		DatabaseURL:          mustGetenv("DATABASE_URL"),
		CORSAllowCredentials: getenv("CORS_ALLOW_CREDENTIALS", "false") == "true",
		JWTSecret:            mustGetenv("JWT_SECRET"),
		ClientURL:            getenv("CLIENT_URL", "http://localhost:3000"),

		EmbedBatchSize: getint("EMBED_BATCH_SIZE", 32),

		NotifyPollInterval: getdur("NOTIFY_POLL_INTERVAL", 5*time.Minute),
		NotifyBatchSize:    getint("NOTIFICATION_BATCH_SIZE", 50),
		MaxEmailsPerDay:    getint("MAX_EMAILS_PER_DAY", 10),

		WeeklyEnabled:   getenv("WEEKLY_SUMMARY_ENABLED", "true") == "true",
		WeeklySendTime:  getenv("WEEKLY_SUMMARY_TIME", "09:00"),
		WeeklyRequireAI: getenv("WEEKLY_SUMMARY_REQUIRE_AI", "true") == "true",
		WeeklyBatchSize: getint("WEEKLY_SUMMARY_BATCH_SIZE", 50),

		DNDDefaultStart: getenv("DND_DEFAULT_START", "22:00"),
		DNDDefaultEnd:   getenv("DND_DEFAULT_END", "08:00"),
	}

	origins := strings.Split(getenv("CORS_ALLOWED_ORIGINS", ""), ",")
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
		}
	}

	cfg.Mail = mail.Config{
		Enabled:     getenv("EMAIL_ENABLED", "false") == "true",
		Host:        getenv("SMTP_HOST", ""),
		Port:        getint("SMTP_PORT", 587),
		User:        getenv("SMTP_USER", ""),
		Pass:        getenv("SMTP_PASS", ""),
		Secure:      getenv("SMTP_SECURE", "false") == "true",
		From:        getenv("SMTP_FROM", "TriLog <no-reply@trilog.local>"),
		SendTimeout: getdur("SMTP_SEND_TIMEOUT", 20*time.Second),
	}

	cfg.AI = ai.Config{
		Enabled:    getenv("AI_ENABLED", "false") == "true",
		APIKey:     getenv("OPENAI_API_KEY", ""),
		BaseURL:    getenv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		ChatModel:  getenv("OPENAI_CHAT_MODEL", "gpt-4o-mini"),
		EmbedModel: getenv("OPENAI_EMBED_MODEL", "text-embedding-3-small"),
		Timeout:    getdur("OPENAI_TIMEOUT", 30*time.Second),
	}

	return cfg, nil
}

func getenv(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func mustGetenv(key string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		panic("missing env: " + key)
	}
	return v
}

func getint(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func getdur(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
