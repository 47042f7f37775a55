package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	backoffice "github.com/sulpet/backoffice"
	api "github.com/sulpet/backoffice/api/echo"
	"github.com/sulpet/backoffice/config"
	"github.com/sulpet/backoffice/log"
	"github.com/sulpet/backoffice/middleware"
	"github.com/sulpet/backoffice/store"
)

var appLogger log.Logger

// defaultProductSeed bootstraps an empty catalog so a fresh deployment has
// one reference row to edit.
var defaultProductSeed = store.RecordSet{
	{
		"id":                   int64(1),
		"sku":                  "573",
		"nome":                 "Teks Dog Original 18% 7kg",
		"peso":                 7,
		"custo":                18.88,
		"preco_venda_A":        30.00,
		"preco_venda_B":        29.09,
		"preco_venda_C":        28.21,
		"preco_venda_A_prazo":  30.93,
		"preco_venda_B_prazo":  29.99,
		"preco_venda_C_prazo":  29.08,
		"bonificacao_unitaria": 0,
	},
}

func main() {
	// Local development reads a .env file; deployed environments set real
	// environment variables and have no such file.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		bootLogger := zerolog.New(os.Stderr).With().Timestamp().Logger()
		bootLogger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logLevel, parseErr := zerolog.ParseLevel(cfg.LogLevel)
	if parseErr != nil {
		logLevel = zerolog.InfoLevel
	}
	appLogger = log.NewZerologAdapter(logLevel, cfg.LogPretty)
	zerolog.SetGlobalLevel(logLevel)

	ctx := context.Background()
	appLogger.Info(ctx, "Starting back-office server", map[string]interface{}{
		"http_port":        cfg.HTTPPort,
		"env":              cfg.Env,
		"data_dir":         cfg.DataDir,
		"allow_all":        cfg.AllowAllOrigins,
		"origins":          cfg.Origins(),
		"backup_retention": cfg.BackupRetention,
	})

	if err := cfg.Validate(); err != nil {
		appLogger.Fatal(ctx, "Invalid configuration", err)
	}
	if cfg.SessionSecret == "" {
		appLogger.Warn(ctx, "SESSION_SECRET not set, using the insecure development fallback")
	}

	credentials := backoffice.ResolveCredentials(cfg.CredentialSource())
	if credentials.Len() == 0 {
		appLogger.Warn(ctx, "No credentials configured, every login will be rejected")
	} else {
		appLogger.Info(ctx, "Credentials resolved", map[string]interface{}{"count": credentials.Len()})
	}

	sessions := backoffice.NewSessionService(cfg.SessionSecret, cfg.SessionTTL())

	stores := store.NewManager(cfg.DataDir,
		store.WithManagerRetention(cfg.BackupRetention),
		store.WithCollectionSeed(api.ProductsCollection, defaultProductSeed),
	)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogStatus:    true,
		LogMethod:    true,
		LogURI:       true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			zlog.Info().
				Str("request_id", v.RequestID).
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Err(v.Error).
				Msg("request")
			return nil
		},
	}))
	e.Use(middleware.CORS(middleware.CORSConfig{
		AllowAll: cfg.AllowAllOrigins,
		Origins:  cfg.Origins(),
		Debug:    cfg.CORSDebug,
	}))

	api.NewBackOfficeAPI(sessions, credentials, stores, cfg).RegisterRoutes(e)

	go func() {
		if err := e.Start(":" + cfg.HTTPPort); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal(ctx, "HTTP server failed", err)
		}
	}()
	appLogger.Info(ctx, "Server listening", map[string]interface{}{"port": cfg.HTTPPort})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info(ctx, "Shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		appLogger.Error(ctx, "Graceful shutdown failed", err)
	}
}
