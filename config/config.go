package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	EnvDevelopment = "DEV"
	EnvProduction  = "PROD"
)

type AppConfig struct {
	PostgresURL          string
	KeycloakClientID     string
	KeycloakClientSecret string
	KeycloakRealm        string
	KeycloakURL          string

	ThreadsBaseURL     string
	ThreadsAccessToken string
	ThreadsProxyURLs   []string

	OpenAIBaseURL string
	OpenAIAPIKey  string
	OpenAIModel   string

	ClinicName    string
	ClinicPhone   string
	Timezone      string
	WorkHourStart int
	WorkHourEnd   int

	CyclesPerDay       int
	CycleTimes         []string
	SearchLookback     time.Duration
	SearchLimit        int
	SearchRequestDelay time.Duration
	ValidationBatch    int
	MaxRepliesPerDay   int
	MinReplyInterval   time.Duration
	ReplyMaxLength     int

	SummaryEmailTo string
	SMTPHost       string
	SMTPPort       string
	SMTPFrom       string
	SMTPPassword   string

	AppEnv   string // EnvDevelopment or EnvProduction
	LogLevel slog.Level
}

var Config AppConfig

func LoadConfig() {
	cfg := AppConfig{}

	cfg.AppEnv = os.Getenv("APP_ENV")
	cfg.PostgresURL = loadRequired("POSTGRES_URL")
	cfg.KeycloakClientID = loadRequired("KEYCLOAK_CLIENT_ID")
	cfg.KeycloakClientSecret = loadRequired("KEYCLOAK_CLIENT_SECRET")
	cfg.KeycloakRealm = loadRequired("KEYCLOAK_REALM")
	cfg.KeycloakURL = loadRequired("KEYCLOAK_URL")

	cfg.ThreadsBaseURL = loadOptional("THREADS_BASE_URL", "https://graph.threads.net/v1.0")
	cfg.ThreadsAccessToken = loadRequired("THREADS_ACCESS_TOKEN")
	cfg.ThreadsProxyURLs = loadList("THREADS_PROXY_URLS")

	cfg.OpenAIBaseURL = loadOptional("OPENAI_BASE_URL", "https://api.openai.com/v1")
	cfg.OpenAIAPIKey = loadRequired("OPENAI_API_KEY")
	cfg.OpenAIModel = loadOptional("OPENAI_MODEL", "gpt-4o-mini")

	cfg.ClinicName = loadOptional("CLINIC_NAME", "Infinity Life")
	cfg.ClinicPhone = loadRequired("CLINIC_PHONE")
	cfg.Timezone = loadOptional("CLINIC_TIMEZONE", "Asia/Almaty")
	cfg.WorkHourStart = loadInt("WORK_HOUR_START", 9)
	cfg.WorkHourEnd = loadInt("WORK_HOUR_END", 21)

	cfg.CyclesPerDay = loadInt("SEARCH_CYCLES_PER_DAY", 3)
	cfg.CycleTimes = loadList("SEARCH_CYCLE_TIMES")
	if len(cfg.CycleTimes) == 0 {
		cfg.CycleTimes = []string{"10:00", "14:00", "18:00"}
	}
	cfg.SearchLookback = time.Duration(loadInt("SEARCH_LOOKBACK_HOURS", 24)) * time.Hour
	cfg.SearchLimit = loadInt("SEARCH_RESULT_LIMIT", 25)
	cfg.SearchRequestDelay = time.Duration(loadInt("SEARCH_REQUEST_DELAY_MS", 3000)) * time.Millisecond
	cfg.ValidationBatch = loadInt("VALIDATION_BATCH_SIZE", 20)
	cfg.MaxRepliesPerDay = loadInt("MAX_REPLIES_PER_DAY", 10)
	cfg.MinReplyInterval = time.Duration(loadInt("MIN_REPLY_INTERVAL_MINUTES", 30)) * time.Minute
	cfg.ReplyMaxLength = loadInt("REPLY_MAX_LENGTH", 450)

	cfg.SummaryEmailTo = loadOptional("SUMMARY_EMAIL_TO", "")
	if cfg.SummaryEmailTo != "" {
		cfg.SMTPHost = loadRequired("SMTP_HOST")
		cfg.SMTPPort = loadRequired("SMTP_PORT")
		cfg.SMTPFrom = loadRequired("SMTP_FROM")
		cfg.SMTPPassword = loadRequired("SMTP_PASSWORD")
	}

	lvlString := loadOptional("LOG_LEVEL", "INFO")
	var err error
	cfg.LogLevel, err = parseLogLevel(lvlString)
	if err != nil {
		slog.Error("Invalid LOG_LEVEL", "error", err)
		cfg.LogLevel = slog.LevelInfo
	}

	Config = cfg
}

func parseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	var err = level.UnmarshalText([]byte(s))
	return level, err
}

func loadRequired(key string) string {
	value := os.Getenv(key)
	if value == "" {
		slog.Error("Required env var not set", "key", key)
		os.Exit(1)
	}
	return value
}

func loadOptional(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func loadInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		slog.Error("Invalid int env var, using default", "key", key, "value", value)
		return defaultValue
	}
	return n
}

func loadList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	list := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			list = append(list, p)
		}
	}
	return list
}

func (c AppConfig) IsProduction() bool {
	return Config.AppEnv == EnvProduction
}
