package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shubhamshk/ProjectPad/internal/config"
	"github.com/shubhamshk/ProjectPad/internal/cryptobox"
	"github.com/shubhamshk/ProjectPad/internal/email"
	"github.com/shubhamshk/ProjectPad/internal/httpapi"
	"github.com/shubhamshk/ProjectPad/internal/identity"
	"github.com/shubhamshk/ProjectPad/internal/providers"
	"github.com/shubhamshk/ProjectPad/internal/repository"
	"github.com/shubhamshk/ProjectPad/internal/server"
	"github.com/shubhamshk/ProjectPad/internal/service"
	"github.com/shubhamshk/ProjectPad/internal/storage"
)

const otpPruneInterval = time.Hour

func main() {
	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	box, err := cryptobox.New(cfg.Security.MasterKey)
	if err != nil {
		return fmt.Errorf("MASTER_KEY: %w", err)
	}

	db, dialect, err := storage.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := storage.RunMigrations(ctx, db, dialect); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	registry, err := newRegistry(cfg)
	if err != nil {
		return err
	}

	auth, local, err := newIdentity(cfg, db, dialect, box)
	if err != nil {
		return err
	}

	sender, err := newSender(cfg.Email, cfg.OTP.TTL, logger)
	if err != nil {
		return err
	}

	credits := service.NewCreditService(repository.NewProfileRepository(db, dialect))
	secrets := service.NewSecretService(repository.NewAPIKeyRepository(db, dialect), box, logger)
	chat := service.NewChatService(credits, secrets, registry, fallbackKeys(cfg), cfg.ProviderTimeout, logger)
	otp := service.NewOTPService(repository.NewOTPChallengeRepository(db, dialect), sender, auth, cfg.OTP, logger)
	limiter := service.NewRateLimitService(repository.NewRateLimitRepository(db, dialect), map[string]service.Limit{
		service.ActionChat: {Requests: cfg.RateLimit.ChatPerHour, Window: time.Hour},
	})

	handler := httpapi.NewRouter(httpapi.Services{
		Auth:       auth,
		Local:      local,
		Chat:       chat,
		Credits:    credits,
		Secrets:    secrets,
		OTP:        otp,
		RateLimit:  limiter,
		AdminToken: cfg.Security.AdminToken,
		Logger:     logger,
	})

	go pruneOTPs(ctx, otp, logger)

	logger.Info("starting server",
		slog.String("port", cfg.HTTPPort),
		slog.String("database", string(dialect)),
		slog.String("identity", cfg.Identity.Driver),
		slog.String("email", cfg.Email.Driver),
	)
	return server.New(cfg, handler, logger).Run(ctx)
}

func newRegistry(cfg config.Config) (*providers.Registry, error) {
	httpClient := &http.Client{Timeout: cfg.ProviderTimeout}
	return providers.NewRegistry(map[providers.Family]providers.Adapter{
		providers.Gemini:      providers.NewGeminiClient(cfg.Provider(string(providers.Gemini)).BaseURL, httpClient),
		providers.OpenAI:      providers.NewOpenAIClient(cfg.Provider(string(providers.OpenAI)).BaseURL, httpClient),
		providers.Perplexity:  providers.NewPerplexityClient(cfg.Provider(string(providers.Perplexity)).BaseURL, httpClient),
		providers.HuggingFace: providers.NewHuggingFaceClient(cfg.Provider(string(providers.HuggingFace)).BaseURL, httpClient),
	})
}

func fallbackKeys(cfg config.Config) map[providers.Family]string {
	keys := make(map[providers.Family]string)
	for _, p := range cfg.Providers {
		family, ok := providers.ParseFamily(p.Name)
		if ok && p.FallbackKey != "" {
			keys[family] = p.FallbackKey
		}
	}
	return keys
}

// newIdentity returns the configured provider and, for the built-in one, the concrete value
// whose redemption endpoint the router mounts.
func newIdentity(cfg config.Config, db *sql.DB, dialect storage.Dialect, box *cryptobox.Box) (identity.Provider, *identity.Local, error) {
	switch cfg.Identity.Driver {
	case "gotrue", "supabase":
		g, err := identity.NewGoTrue(cfg.Identity.URL, cfg.Identity.ServiceKey, &http.Client{Timeout: 15 * time.Second})
		if err != nil {
			return nil, nil, err
		}
		return g, nil, nil
	case "local", "":
		key := []byte(cfg.Security.SessionSecret)
		if len(key) == 0 {
			derived, err := box.DeriveKey("session-signing", 32)
			if err != nil {
				return nil, nil, err
			}
			key = derived
		}
		l, err := identity.NewLocal(repository.NewUserRepository(db, dialect), repository.NewMagicLinkRepository(db, dialect),
			key, cfg.Identity.SessionTTL, cfg.Identity.MagicLinkTTL)
		if err != nil {
			return nil, nil, err
		}
		return l, l, nil
	default:
		return nil, nil, fmt.Errorf("unsupported identity driver %q", cfg.Identity.Driver)
	}
}

func newSender(cfg config.EmailConfig, ttl time.Duration, logger *slog.Logger) (email.Sender, error) {
	minutes := int(ttl.Minutes())
	switch cfg.Driver {
	case "smtp":
		if cfg.SMTPHost == "" {
			return nil, errors.New("SMTP_HOST is required for the smtp email driver")
		}
		return email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.From, minutes), nil
	case "mailtrap":
		if cfg.MailtrapToken == "" {
			return nil, errors.New("MAILTRAP_API_TOKEN is required for the mailtrap email driver")
		}
		return email.NewMailtrapSender(cfg.MailtrapURL, cfg.MailtrapToken, cfg.From, cfg.FromName, minutes,
			&http.Client{Timeout: cfg.RequestTimeout}), nil
	case "log", "":
		return email.NewLogSender(logger), nil
	default:
		return nil, fmt.Errorf("unsupported email driver %q", cfg.Driver)
	}
}

func pruneOTPs(ctx context.Context, otp *service.OTPService, logger *slog.Logger) {
	ticker := time.NewTicker(otpPruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := otp.PruneExpired(ctx)
			if err != nil {
				logger.Warn("otp prune failed", slog.Any("error", err))
				continue
			}
			if n > 0 {
				logger.Info("pruned expired otp challenges", slog.Int64("count", n))
			}
		}
	}
}
