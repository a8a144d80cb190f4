package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPPort        string
	ShutdownTimeout time.Duration
	Database        DatabaseConfig
	Security        SecurityConfig
	Identity        IdentityConfig
	Email           EmailConfig
	Providers       []ProviderConfig
	ProviderTimeout time.Duration
	OTP             OTPConfig
	RateLimit       RateLimitConfig
}

type DatabaseConfig struct {
	Driver string
	DSN    string
	Path   string
}

type SecurityConfig struct {
	// MasterKey is the 64 hex character AES-256 key used for stored provider secrets.
	MasterKey     string
	SessionSecret string
	AdminToken    string
}

type IdentityConfig struct {
	Driver       string
	URL          string
	ServiceKey   string
	SiteURL      string
	SessionTTL   time.Duration
	MagicLinkTTL time.Duration
}

type EmailConfig struct {
	Driver         string
	From           string
	FromName       string
	SMTPHost       string
	SMTPPort       string
	SMTPUsername   string
	SMTPPassword   string
	MailtrapToken  string
	MailtrapURL    string
	RequestTimeout time.Duration
}

type ProviderConfig struct {
	Name        string
	BaseURL     string
	FallbackKey string
}

type OTPConfig struct {
	Cooldown    time.Duration
	TTL         time.Duration
	MaxAttempts int
}

type RateLimitConfig struct {
	ChatPerHour int
}

var providerDefaults = []ProviderConfig{
	{Name: "gemini", BaseURL: "https://generativelanguage.googleapis.com"},
	{Name: "openai", BaseURL: "https://api.openai.com/v1"},
	{Name: "perplexity", BaseURL: "https://api.perplexity.ai"},
	{Name: "huggingface", BaseURL: "https://router.huggingface.co"},
}

func Load() Config {
	return Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		ShutdownTimeout: getDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
		Database: DatabaseConfig{
			Driver: strings.ToLower(getEnv("DATABASE_DRIVER", "sqlite")),
			DSN:    getEnv("DATABASE_DSN", ""),
			Path:   getEnv("DATABASE_PATH", "data/projectpad.db"),
		},
		Security: SecurityConfig{
			MasterKey:     os.Getenv("MASTER_KEY"),
			SessionSecret: os.Getenv("SESSION_SECRET"),
			AdminToken:    os.Getenv("ADMIN_API_TOKEN"),
		},
		Identity: IdentityConfig{
			Driver:       strings.ToLower(getEnv("IDENTITY_DRIVER", "local")),
			URL:          strings.TrimRight(getEnv("IDENTITY_URL", ""), "/"),
			ServiceKey:   os.Getenv("IDENTITY_SERVICE_KEY"),
			SiteURL:      getEnv("SITE_URL", "http://localhost:5173"),
			SessionTTL:   getDuration("SESSION_TTL", 24*time.Hour),
			MagicLinkTTL: getDuration("MAGIC_LINK_TTL", 5*time.Minute),
		},
		Email: EmailConfig{
			Driver:         strings.ToLower(getEnv("EMAIL_DRIVER", "log")),
			From:           getEnv("EMAIL_FROM", "no-reply@projectpad.local"),
			FromName:       getEnv("EMAIL_FROM_NAME", "ProjectPad"),
			SMTPHost:       os.Getenv("SMTP_HOST"),
			SMTPPort:       getEnv("SMTP_PORT", "587"),
			SMTPUsername:   os.Getenv("SMTP_USERNAME"),
			SMTPPassword:   os.Getenv("SMTP_PASSWORD"),
			MailtrapToken:  os.Getenv("MAILTRAP_API_TOKEN"),
			MailtrapURL:    getEnv("MAILTRAP_URL", "https://send.api.mailtrap.io/api/send"),
			RequestTimeout: getDuration("EMAIL_TIMEOUT", 15*time.Second),
		},
		Providers:       loadProviders(),
		ProviderTimeout: getDuration("PROVIDER_TIMEOUT", 60*time.Second),
		OTP: OTPConfig{
			Cooldown:    getDuration("OTP_COOLDOWN", 60*time.Second),
			TTL:         getDuration("OTP_TTL", 10*time.Minute),
			MaxAttempts: getInt("OTP_MAX_ATTEMPTS", 3),
		},
		RateLimit: RateLimitConfig{
			ChatPerHour: getInt("RATE_LIMIT_CHAT_PER_HOUR", 50),
		},
	}
}

// Provider returns the named provider settings, or a zero value with the name set.
func (c Config) Provider(name string) ProviderConfig {
	for _, provider := range c.Providers {
		if strings.EqualFold(provider.Name, name) {
			return provider
		}
	}
	return ProviderConfig{Name: strings.ToLower(name)}
}

func loadProviders() []ProviderConfig {
	providers := make([]ProviderConfig, 0, len(providerDefaults))
	for _, def := range providerDefaults {
		prefix := "PROVIDER_" + strings.ToUpper(def.Name) + "_"
		providers = append(providers, ProviderConfig{
			Name:        def.Name,
			BaseURL:     strings.TrimRight(getEnv(prefix+"BASE_URL", def.BaseURL), "/"),
			FallbackKey: os.Getenv(prefix + "FALLBACK_KEY"),
		})
	}
	return providers
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}
