package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/glazia/storefront/internal/api"
	"github.com/glazia/storefront/internal/auth"
	"github.com/glazia/storefront/internal/config"
	"github.com/glazia/storefront/internal/database"
	"github.com/glazia/storefront/internal/handler"
	"github.com/glazia/storefront/internal/logx"
	"github.com/glazia/storefront/internal/query"
	"github.com/glazia/storefront/internal/queue"
	"github.com/glazia/storefront/internal/quotation"
	"github.com/glazia/storefront/internal/repository"
	"github.com/glazia/storefront/internal/router"
	queue_publisher "github.com/glazia/storefront/internal/service"
)

func main() {
	envErr := godotenv.Load()
	// APP_ENV may come from .env, so the logger is set up after loading it
	logx.Init(os.Getenv("APP_ENV"))
	if envErr != nil && !errors.Is(envErr, os.ErrNotExist) {
		logx.Warn().Err(envErr).Msg("could not load .env")
	}
	cfg, err := config.Load()
	if err != nil {
		logx.Fatal().Err(err).Msg("config")
	}
	logx.Init(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb := config.NewRedisClient()
	if rdb == nil {
		logx.Warn().Msg("redis unavailable; response cache and login rate limit disabled")
	} else {
		defer rdb.Close()
	}

	backend, err := api.New(api.Options{
		BaseURL:  cfg.BackendURL,
		Timeout:  cfg.BackendTimeout,
		UserPath: cfg.UserProfilePath,
	})
	if err != nil {
		logx.Fatal().Err(err).Msg("backend client")
	}
	queries := quotation.NewQueries(backend, query.New(query.Options{
		StaleTime: cfg.QueryStaleTime,
		Retry:     query.RetryOnce{Delay: cfg.QueryRetryDelay},
		// two attempts and the pause between them
		Timeout: 2*cfg.BackendTimeout + cfg.QueryRetryDelay,
	}))

	creds, closeCreds := credentialStore(ctx, cfg)
	defer closeCreds()

	var events handler.LoginNotifier
	if cfg.RabbitMQURL != "" {
		events = queue_publisher.NewPublisher(cfg.RabbitMQURL)
		go func() {
			if err := queue.StartAdminLoginConsumer(ctx, cfg.RabbitMQURL, queue.DefaultLogPath); err != nil && !errors.Is(err, context.Canceled) {
				logx.Error().Err(err).Msg("admin login consumer stopped")
			}
		}()
	}
	admin := handler.NewAdminHandler(
		auth.NewAuthenticator(creds),
		auth.Issuer{Secret: cfg.JWTSecret, TTL: cfg.AdminTokenTTL, Name: "glazia-storefront"},
		events,
	)

	e := echo.New()
	e.HideBanner = true
	router.RegisterRoutes(e, cfg.Public)
	cacheCfg := config.LoadCacheConfig()
	router.RegisterQuotations(e, handler.NewQuotationHandler(queries), handler.NewConfigHandler(backend), cacheCfg, rdb)
	router.RegisterAdmin(e, admin, &handler.CacheAdminHandler{Queries: queries, Redis: rdb, Prefix: cacheCfg.Prefix},
		cfg.JWTSecret, config.LoadRateLimitConfig(), rdb)

	addr := ":" + cfg.Port
	go func() {
		logx.Info().Str("addr", addr).Str("env", cfg.Env).Str("backend", cfg.BackendURL).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logx.Fatal().Err(err).Msg("server")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logx.Error().Err(err).Msg("shutdown")
	}
}

// credentialStore prefers the MySQL admin table, then a YAML file, then the
// built-in account.
func credentialStore(ctx context.Context, cfg config.Config) (auth.CredentialStore, func()) {
	if cfg.AdminDB.Enabled() {
		db, err := database.Open(cfg.AdminDB)
		if err != nil {
			logx.Fatal().Err(err).Msg("admin database")
		}
		repo := repository.NewAdminRepo(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			logx.Fatal().Err(err).Msg("admin schema")
		}
		logx.Info().Str("host", cfg.AdminDB.Host).Msg("admin accounts from mysql")
		return auth.SQLStore{Repo: repo}, func() { _ = db.Close() }
	}
	if cfg.AdminCredentialsFile != "" {
		store, err := auth.LoadStaticFile(cfg.AdminCredentialsFile, cfg.BcryptCost)
		if err != nil {
			logx.Fatal().Err(err).Msg("admin credentials file")
		}
		logx.Info().Str("file", cfg.AdminCredentialsFile).Msg("admin accounts from file")
		return store, func() {}
	}
	if cfg.IsProduction() {
		logx.Warn().Msg("using built-in admin account in production")
	}
	store, err := auth.NewStaticStore(auth.DefaultAccounts(), cfg.BcryptCost)
	if err != nil {
		logx.Fatal().Err(err).Msg("built-in admin account")
	}
	return store, func() {}
}
