package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fantasylabel/label-server-go/internal/auth"
	"github.com/fantasylabel/label-server-go/internal/config"
	"github.com/fantasylabel/label-server-go/internal/league"
	"github.com/fantasylabel/label-server-go/internal/playlist"
	"github.com/fantasylabel/label-server-go/internal/repository"
	"github.com/fantasylabel/label-server-go/internal/server"
	"github.com/fantasylabel/label-server-go/internal/session"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting label league server",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	db, err := repository.NewDB(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	stats := db.Stats()
	logger.Info("database connection pool initialized",
		zap.Int32("total_conns", stats.TotalConns()),
		zap.Int32("idle_conns", stats.IdleConns()),
	)

	store := repository.NewSeasonStore(db, logger)
	if err := store.EnsureSchema(ctx); err != nil {
		logger.Fatal("failed to ensure schema", zap.Error(err))
	}

	sessionMgr := session.NewManager(cfg.Server.LeasePeriod, logger)
	logger.Info("session manager initialized",
		zap.Duration("lease_period", cfg.Server.LeasePeriod),
	)
	go sessionMgr.CleanupExpiredSessions(ctx)

	seasonMgr := league.NewManager(logger)
	if err := restoreSeasons(ctx, store, seasonMgr, logger); err != nil {
		logger.Fatal("failed to restore seasons", zap.Error(err))
	}
	logger.Info("season manager initialized", zap.Int("seasons", seasonMgr.Count()))

	creds := auth.NewCredentialStore()
	provider := playlist.NewHTTPProvider(cfg.Playlist, logger)

	srv := server.New(server.Options{
		Config:    cfg,
		Logger:    logger,
		Seasons:   seasonMgr,
		Sessions:  sessionMgr,
		Creds:     creds,
		Store:     store,
		Playlists: provider,
	})
	defer srv.Close()

	httpServer := &http.Server{
		Addr:    cfg.Server.HTTPAddress,
		Handler: srv.Router(),
	}

	go func() {
		logger.Info("starting HTTP server", zap.String("address", cfg.Server.HTTPAddress))
		if serveErr := httpServer.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			logger.Error("HTTP server error", zap.Error(serveErr))
		}
	}()

	sig := <-sigChan
	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	logger.Info("shutting down gracefully...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	sessionMgr.CloseAll()

	logger.Info("label league server stopped")
}

// restoreSeasons loads every persisted season document back into memory.
func restoreSeasons(ctx context.Context, store *repository.SeasonStore, mgr *league.Manager, logger *zap.Logger) error {
	docs, err := store.LoadAll(ctx)
	if err != nil {
		return err
	}
	for _, doc := range docs {
		season, err := league.UnmarshalSeason(doc)
		if err != nil {
			logger.Error("skipping corrupt season document", zap.Error(err))
			continue
		}
		mgr.AddSeason(season)
	}
	return nil
}

// initLogger initializes the zap logger based on configuration
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
