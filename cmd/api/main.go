package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sabflip/account-link/internal/application/profile"
	"github.com/sabflip/account-link/internal/application/verification"
	"github.com/sabflip/account-link/internal/config"
	"github.com/sabflip/account-link/internal/domain"
	"github.com/sabflip/account-link/internal/infrastructure/boltdb"
	"github.com/sabflip/account-link/internal/infrastructure/dynamo"
	"github.com/sabflip/account-link/internal/infrastructure/google"
	jwtinfra "github.com/sabflip/account-link/internal/infrastructure/jwt"
	"github.com/sabflip/account-link/internal/infrastructure/memory"
	"github.com/sabflip/account-link/internal/infrastructure/roblox"
	"github.com/sabflip/account-link/internal/infrastructure/sns"
	"github.com/sabflip/account-link/internal/logging"
	transporthttp "github.com/sabflip/account-link/internal/transport/http"
	"github.com/sabflip/account-link/internal/transport/http/middleware"
)

// linkStore is satisfied by every store backend.
type linkStore interface {
	PutVerification(ctx context.Context, v *domain.VerificationRequest) error
	GetVerification(ctx context.Context, userID string) (*domain.VerificationRequest, error)
	CompleteVerification(ctx context.Context, v *domain.VerificationRequest, acct *domain.LinkedAccount) error
	GetLinkedAccount(ctx context.Context, userID string) (*domain.LinkedAccount, error)
}

func main() {
	envErr := godotenv.Load()

	cfg := config.Load()
	slog.SetDefault(logging.New(cfg.LogLevel, cfg.LogFormat))
	if envErr != nil {
		slog.Info("no .env file found, reading from environment")
	}

	store, closeStore, err := openStore(cfg)
	if err != nil {
		slog.Error("failed to open store", "backend", cfg.StoreBackend, "err", err)
		os.Exit(1)
	}
	defer closeStore()

	identity, err := newIdentityVerifier(cfg)
	if err != nil {
		slog.Error("identity verifier not available", "provider", cfg.IdentityProvider, "err", err)
		os.Exit(1)
	}

	verifyDeps := verification.ServiceDeps{
		Store:    store,
		Profiles: roblox.NewClient(cfg),
		TTL:      cfg.VerificationTTL,
	}
	// Link events are optional; an unset topic leaves Notifier nil.
	if pub, err := sns.NewPublisher(cfg); err == nil {
		verifyDeps.Notifier = pub
	} else {
		slog.Warn("SNS publisher not available, link events disabled", "err", err)
	}

	deps := &transporthttp.Deps{
		Identity:     identity,
		Verification: verification.NewService(verifyDeps),
		Profile:      profile.NewService(store),
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      transporthttp.NewRouter(cfg, deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.AppPort, "env", cfg.AppEnv, "store", cfg.StoreBackend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("forced shutdown", "err", err)
	}
	slog.Info("server stopped")
}

func openStore(cfg *config.Config) (linkStore, func(), error) {
	switch cfg.StoreBackend {
	case config.StoreDynamo:
		client, err := dynamo.NewClient(context.Background(), cfg)
		if err != nil {
			return nil, nil, err
		}
		// Creates the tables if they don't exist.
		dynamo.Bootstrap(context.Background(), client, cfg.DynamoTables)
		repo := dynamo.NewLinkRepo(client, cfg.DynamoTables.PendingVerifications, cfg.DynamoTables.LinkedAccounts)
		return repo, func() {}, nil
	case config.StoreBolt:
		s, err := boltdb.Open(cfg.BoltPath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {
			if err := s.Close(); err != nil {
				slog.Warn("closing bolt store failed", "err", err)
			}
		}, nil
	case config.StoreMemory:
		slog.Warn("using in-memory store, links are lost on restart")
		return memory.NewStore(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

func newIdentityVerifier(cfg *config.Config) (middleware.IdentityVerifier, error) {
	switch cfg.IdentityProvider {
	case config.IdentityJWT:
		p, err := jwtinfra.NewProvider(cfg)
		if err != nil {
			return nil, err
		}
		return p, nil
	case config.IdentityGoogle:
		if cfg.GoogleClientID == "" {
			return nil, fmt.Errorf("GOOGLE_CLIENT_ID is required")
		}
		return google.NewVerifier(cfg.GoogleClientID), nil
	default:
		return nil, fmt.Errorf("unknown identity provider %q", cfg.IdentityProvider)
	}
}
