package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/rs/cors"

	"github.com/andrewpaige1/flashcards-ai/auth"
	"github.com/andrewpaige1/flashcards-ai/config"
	"github.com/andrewpaige1/flashcards-ai/handlers"
	"github.com/andrewpaige1/flashcards-ai/middleware"
	"github.com/andrewpaige1/flashcards-ai/openrouter"
	"github.com/andrewpaige1/flashcards-ai/services"
	"github.com/andrewpaige1/flashcards-ai/store"
)

// connect opens the database. Tests swap it to observe the connection.
var connect = config.Connect

// app is the fully wired HTTP handler plus whatever must be released on shutdown.
type app struct {
	handler http.Handler
	closers []func() error
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

func newApp(ctx context.Context, cfg *config.Config, log *slog.Logger) (*app, error) {
	a := &app{}

	db, err := connect(cfg.Database)
	if err != nil {
		return nil, err
	}
	if sqlDB, err := db.DB(); err == nil {
		a.closers = append(a.closers, sqlDB.Close)
	}
	if err := config.Migrate(db); err != nil {
		a.Close()
		return nil, err
	}
	log.Info("Database initialized", "type", cfg.Database.Type)

	st := store.New(db)

	issuer, err := auth.NewIssuer(auth.TokenConfig{
		Secret:   cfg.Auth.Secret,
		Issuer:   cfg.Auth.Issuer,
		Audience: cfg.Auth.Audience,
		TTL:      cfg.Auth.TokenTTL,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	tokenValidator, err := issuer.Validator()
	if err != nil {
		a.Close()
		return nil, err
	}

	denylist, err := newDenylist(ctx, cfg.Redis, a, log)
	if err != nil {
		a.Close()
		return nil, err
	}

	chat, err := openrouter.NewClient(openrouter.Config{
		APIKey:      cfg.OpenRouter.APIKey,
		BaseURL:     cfg.OpenRouter.BaseURL,
		Model:       cfg.OpenRouter.Model,
		Temperature: cfg.OpenRouter.Temperature,
		MaxTokens:   cfg.OpenRouter.MaxTokens,
		Timeout:     cfg.OpenRouter.Timeout,
		MaxAttempts: cfg.OpenRouter.MaxAttempts,
		RetryDelay:  cfg.OpenRouter.RetryDelay,
		SiteURL:     cfg.OpenRouter.SiteURL,
		SiteName:    cfg.OpenRouter.SiteName,
		Logger:      log,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create openrouter client: %w", err)
	}

	flashcards, err := services.NewFlashcardsService(st, services.FlashcardsServiceConfig{
		SessionCacheKeys: cfg.Cache.SessionKeys,
	}, log)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.closers = append(a.closers, func() error {
		flashcards.Close()
		return nil
	})

	api := handlers.NewAPI(
		flashcards,
		services.NewGenerationService(st, chat, log),
		services.NewAuthService(st, issuer, denylist, log),
		handlers.Options{
			Env:        cfg.Environment(),
			CookieName: cfg.Auth.CookieName,
			Logger:     log,
			Ping:       st.Ping,
		},
	)

	protect := func(next http.Handler) http.Handler {
		return middleware.Chain(next,
			middleware.EnsureValidToken(tokenValidator, denylist, cfg.Auth.CookieName, log),
			middleware.LoadUser(st, log),
		)
	}

	mux := http.NewServeMux()
	api.Register(mux, protect)

	a.handler = withServerMiddleware(mux, cfg.HTTP.AllowedOrigins, log)

	return a, nil
}

// withServerMiddleware wraps h with the middleware every request passes through.
// Log sits outside Recover so panicking requests still get their access record.
func withServerMiddleware(h http.Handler, allowedOrigins []string, log *slog.Logger) http.Handler {
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Requested-With", "Accept", "Origin", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           86400,
	})

	return middleware.Chain(h,
		middleware.RequestID(log),
		middleware.Log(log),
		middleware.Recover(log),
		corsHandler.Handler,
	)
}

// newDenylist uses Redis when an address is configured and an in-process map otherwise.
func newDenylist(ctx context.Context, cfg config.RedisConfig, a *app, log *slog.Logger) (auth.Denylist, error) {
	if cfg.Addr == "" {
		log.Warn("REDIS_ADDR not set, revoked tokens are kept in memory")
		return auth.NewMemoryDenylist(), nil
	}

	rd := auth.NewRedisDenylist(auth.RedisConfig{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rd.Ping(ctx); err != nil {
		rd.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	a.closers = append(a.closers, rd.Close)

	log.Info("Token denylist backed by redis", "addr", cfg.Addr)
	return rd, nil
}
