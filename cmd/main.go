package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/gouthamkasula22/enterprise-auth/config"
	"github.com/gouthamkasula22/enterprise-auth/db"
	"github.com/gouthamkasula22/enterprise-auth/internal/auth/blacklist"
	"github.com/gouthamkasula22/enterprise-auth/internal/auth/handler"
	"github.com/gouthamkasula22/enterprise-auth/internal/auth/password"
	"github.com/gouthamkasula22/enterprise-auth/internal/auth/ratelimit"
	repo "github.com/gouthamkasula22/enterprise-auth/internal/auth/repository/postgres"
	"github.com/gouthamkasula22/enterprise-auth/internal/auth/service"
	"github.com/gouthamkasula22/enterprise-auth/pkg/constant"
)

func main() {
	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ctx := context.Background()
	pool, err := db.NewPostgresPool(ctx, cfg.DBURL)
	if err != nil {
		logger.Error("failed to open database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	accountRepo := repo.NewAccountRepository(pool)
	sessionRepo := repo.NewSessionRepository(pool)
	auditRepo := repo.NewAuditRepository(pool)

	ledger, err := blacklist.New(blacklist.Config{
		Driver: cfg.Blacklist.Driver,
		Redis: &blacklist.RedisConfig{
			Addr:     cfg.Blacklist.RedisAddr,
			Password: cfg.Blacklist.RedisPassword,
			DB:       cfg.Blacklist.RedisDB,
		},
	}, blacklist.Dependencies{PostgresDB: pool})
	if err != nil {
		logger.Error("failed to open revocation ledger", "error", err)
		os.Exit(1)
	}
	defer func() { _ = ledger.Close(ctx) }()

	// Expired entries are dead weight: the token they name is already
	// rejected by its own expiry claim.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			n, err := ledger.PurgeExpired(ctx, time.Now())
			if err != nil {
				logger.Warn("revocation ledger purge failed", "error", err)
				continue
			}
			if n > 0 {
				logger.Info("purged expired revocations", "count", n)
			}
		}
	}()

	limitStore, err := ratelimit.NewStore(ratelimit.Config{
		Driver:          cfg.RateLimit.Driver,
		WindowSeconds:   cfg.RateLimit.WindowSeconds,
		CooldownSeconds: cfg.RateLimit.CooldownSeconds,
		DefaultLimit:    cfg.RateLimit.DefaultLimit,
		Redis: &ratelimit.RedisConfig{
			Addr:     cfg.RateLimit.RedisAddr,
			Password: cfg.RateLimit.RedisPassword,
			DB:       cfg.RateLimit.RedisDB,
		},
	})
	if err != nil {
		logger.Error("failed to open rate limit store", "error", err)
		os.Exit(1)
	}
	defer func() { _ = limitStore.Close() }()

	limiter := ratelimit.NewLimiter(limitStore, ratelimit.Config{
		WindowSeconds:   cfg.RateLimit.WindowSeconds,
		CooldownSeconds: cfg.RateLimit.CooldownSeconds,
		DefaultLimit:    cfg.RateLimit.DefaultLimit,
		EndpointLimits: map[string]int{
			constant.EndpointLogin:         cfg.RateLimit.LoginLimit,
			constant.EndpointRegister:      cfg.RateLimit.RegisterLimit,
			constant.EndpointPasswordReset: cfg.RateLimit.PasswordResetLimit,
			constant.EndpointResetComplete: cfg.RateLimit.ResetCompleteLimit,
		},
	})

	tokenService := service.NewTokenService(
		cfg.Token.AccessTokenSecret, cfg.Token.RefreshTokenSecret,
		cfg.Token.AccessExpiryMin, cfg.Token.RefreshExpiryMin, cfg.Token.Issuer,
	)
	hasher := password.NewHasher(password.HasherConfig{
		Time:          uint32(cfg.Hasher.Time),
		MemoryKiB:     uint32(cfg.Hasher.MemoryKiB),
		Threads:       uint8(cfg.Hasher.Threads),
		MaxConcurrent: int64(cfg.Hasher.MaxConcurrent),
	})

	sessionManager := service.NewSessionManager(sessionRepo, tokenService, ledger, cfg.MaxActiveSessions, logger)
	auditor := service.NewLoginAuditor(auditRepo, sessionRepo, logger)
	userService := service.NewUserService(accountRepo, sessionManager, auditor, hasher, limiter, cfg, logger)

	app := fiber.New()
	handler.RegisterRoutes(app, handler.NewAuthHandler(userService))

	logger.Info("listening", "port", cfg.Port, "env", cfg.Env)
	if err := app.Listen(":" + cfg.Port); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
