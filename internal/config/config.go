// internal/config/config.go
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type DatabaseConfig struct {
	DSN      string `yaml:"dsn"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
}

// PaystackConfig holds the gateway connection. SecretKey is server-side only
// and must never reach templates or API responses.
type PaystackConfig struct {
	BaseURL     string `yaml:"base_url"`
	SecretKey   string `yaml:"secret_key"`
	PublicKey   string `yaml:"public_key"`
	CallbackURL string `yaml:"callback_url"`
}

type BillingConfig struct {
	Currency        string `yaml:"currency"`
	PlanCatalogPath string `yaml:"plan_catalog_path"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type EmailConfig struct {
	SMTPhost     string `yaml:"smtp_host"`
	SMTPport     int    `yaml:"smtp_port"`
	SMTPuser     string `yaml:"smtp_user"`
	SMTPpassword string `yaml:"smtp_password"`
	Sender       string `yaml:"sender"`
}

type Config struct {
	SiteName        string         `yaml:"site_name"`
	SiteDescription string         `yaml:"site_description"`
	CurrentYear     int            `yaml:"current_year"`
	BaseURL         string         `yaml:"base_url"`
	Port            int            `yaml:"port"`
	AppEnv          string         `yaml:"app_env"`
	Database        DatabaseConfig `yaml:"database"`
	Paystack        PaystackConfig `yaml:"paystack"`
	Billing         BillingConfig  `yaml:"billing"`
	Redis           RedisConfig    `yaml:"redis"`
	Email           EmailConfig    `yaml:"email"`
	CSRFAuthKey     string
}

func getStringEnvOrDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getIntEnvOrDefault(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		if value, err := strconv.Atoi(valueStr); err == nil {
			return value
		}
		slog.Warn("Environment variable is not a number, using default", "key", key, "value", valueStr)
	}
	return defaultValue
}

func LoadConfig(filename string) (*Config, error) {
	appEnvFromSystem := os.Getenv("APP_ENV")
	if appEnvFromSystem != "production" {
		if err := godotenv.Load("configs/.env"); err != nil {
			slog.Info("configs/.env not found, assuming variables are set in the environment", "error", err)
		} else {
			slog.Info("Environment variables loaded from configs/.env")
		}
	}

	file, err := os.Open(filename)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", filename)
	}
	if err != nil {
		return nil, fmt.Errorf("opening config file '%s': %w", filename, err)
	}
	defer file.Close()

	var cfg Config
	if err := yaml.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decoding YAML from '%s': %w", filename, err)
	}

	cfg.AppEnv = getStringEnvOrDefault("APP_ENV", cfg.AppEnv)
	isProduction := cfg.AppEnv == "production"

	cfg.BaseURL = getStringEnvOrDefault("BASE_URL", cfg.BaseURL)
	cfg.Port = getIntEnvOrDefault("PORT", cfg.Port)

	// Secrets only ever come from the environment.
	cfg.Database.Password = getStringEnvOrDefault("DB_PASSWORD", "")
	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		cfg.Database.DSN = dsn
		cfg.Database.Host = ""
		cfg.Database.Port = 0
		cfg.Database.User = ""
		cfg.Database.DBName = ""
	} else {
		cfg.Database.Host = getStringEnvOrDefault("DB_HOST", cfg.Database.Host)
		cfg.Database.Port = getIntEnvOrDefault("DB_PORT", cfg.Database.Port)
		cfg.Database.User = getStringEnvOrDefault("DB_USER", cfg.Database.User)
		cfg.Database.DBName = getStringEnvOrDefault("DB_NAME", cfg.Database.DBName)
		cfg.Database.DSN = ""
	}

	cfg.Paystack.SecretKey = getStringEnvOrDefault("PAYSTACK_SECRET_KEY", cfg.Paystack.SecretKey)
	if isProduction && cfg.Paystack.SecretKey == "" {
		slog.Error("CRITICAL: PAYSTACK_SECRET_KEY must be set in the environment for production")
		return nil, fmt.Errorf("PAYSTACK_SECRET_KEY must be set in the environment for production")
	}
	cfg.Paystack.PublicKey = getStringEnvOrDefault("PAYSTACK_PUBLIC_KEY", cfg.Paystack.PublicKey)

	cfg.CSRFAuthKey = getStringEnvOrDefault("CSRF_AUTH_KEY", "")
	if isProduction && cfg.CSRFAuthKey == "" {
		slog.Error("CRITICAL: CSRF_AUTH_KEY must be set in the environment for production")
		return nil, fmt.Errorf("CSRF_AUTH_KEY must be set in the environment for production")
	}
	if !isProduction && cfg.CSRFAuthKey == "" {
		slog.Warn("CSRF_AUTH_KEY not set, falling back to an ephemeral key (development only)")
	}

	cfg.Redis.Addr = getStringEnvOrDefault("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getStringEnvOrDefault("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getIntEnvOrDefault("REDIS_DB", cfg.Redis.DB)

	cfg.Email.SMTPhost = getStringEnvOrDefault("SMTP_HOST", cfg.Email.SMTPhost)
	cfg.Email.SMTPport = getIntEnvOrDefault("SMTP_PORT", cfg.Email.SMTPport)
	cfg.Email.SMTPuser = getStringEnvOrDefault("SMTP_USER", cfg.Email.SMTPuser)
	cfg.Email.SMTPpassword = getStringEnvOrDefault("SMTP_PASSWORD", "")
	cfg.Email.Sender = getStringEnvOrDefault("EMAIL_SENDER", cfg.Email.Sender)
	if isProduction && (cfg.Email.SMTPhost == "" || cfg.Email.Sender == "") {
		slog.Warn("SMTP is not fully configured for production; receipt emails will be skipped")
	}

	if cfg.CurrentYear == 0 {
		cfg.CurrentYear = time.Now().Year()
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.AppEnv == "" {
		cfg.AppEnv = "development"
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("BASE_URL is not set")
	}
	if isProduction && !strings.HasPrefix(cfg.BaseURL, "https://") {
		return nil, fmt.Errorf("BASE_URL must start with https:// in production")
	}
	if cfg.Database.DSN == "" && cfg.Database.Host == "" {
		return nil, fmt.Errorf("database connection parameters (DATABASE_DSN or DB_HOST etc.) are not set")
	}
	if cfg.Database.Host != "" {
		if cfg.Database.User == "" {
			return nil, fmt.Errorf("DB_USER is not set")
		}
		if cfg.Database.DBName == "" {
			return nil, fmt.Errorf("DB_NAME is not set")
		}
	}
	if cfg.Paystack.BaseURL == "" {
		cfg.Paystack.BaseURL = "https://api.paystack.co"
	}
	if cfg.Paystack.CallbackURL == "" {
		cfg.Paystack.CallbackURL = cfg.BaseURL + "/billing/confirm"
	}
	if cfg.Billing.Currency == "" {
		cfg.Billing.Currency = "NGN"
	}
	if cfg.Billing.PlanCatalogPath == "" {
		cfg.Billing.PlanCatalogPath = "configs/plans.yaml"
	}

	slog.Info("Configuration loaded", "app_env", cfg.AppEnv, "base_url", cfg.BaseURL, "port", cfg.Port, "currency", cfg.Billing.Currency)
	return &cfg, nil
}

func InitLogger(appEnv string) {
	var logger *slog.Logger
	logLevel := slog.LevelInfo

	if appEnv == "development" {
		logLevel = slog.LevelDebug
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		}))
	} else {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: false,
		}))
	}
	slog.SetDefault(logger)
}
