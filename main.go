package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"aniview/api"
	"aniview/config"
	"aniview/internal/database"
	"aniview/services/accounts"
	"aniview/services/catalog"
	"aniview/services/profiles"
	"aniview/services/watchlist"

	"github.com/sethvargo/go-password/password"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	portOverride := flag.Int("port", 0, "override server port from config")
	flag.Parse()

	configPath := os.Getenv("ANIVIEW_CONFIG")
	if configPath == "" {
		configPath = filepath.Join("data", "settings.json")
	}

	cfgManager := config.NewManager(configPath)
	settings, err := cfgManager.Load()
	if err != nil {
		log.Fatalf("failed to load settings: %v", err)
	}

	logger := setupLogging(settings.Log)

	if *portOverride > 0 {
		settings.Server.Port = *portOverride
	}

	// Generate and persist a signing secret on first start.
	if strings.TrimSpace(settings.Auth.JWTSecret) == "" {
		secret, err := password.Generate(48, 10, 0, false, true)
		if err != nil {
			log.Fatalf("failed to generate token secret: %v", err)
		}
		settings.Auth.JWTSecret = secret
		if err := cfgManager.Save(settings); err != nil {
			log.Fatalf("failed to persist token secret: %v", err)
		}
		logger.Info("generated new token signing secret")
	}

	db, err := database.Open(database.Config{DatabasePath: settings.Database.Path})
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	tokenIssuer := accounts.NewTokenIssuer(settings.Auth.JWTSecret,
		time.Duration(settings.Auth.TokenTTLHours)*time.Hour)

	accountsSvc := accounts.NewService(db.Users, tokenIssuer)
	profilesSvc := profiles.NewService(db.Profiles, db.Users, db.Watchlist, logger)
	accountsSvc.SetProfiles(profilesSvc)

	catalogSvc := catalog.NewService(db.Animes, db.Watchlist, catalog.Options{
		ExternalBaseURL: settings.Catalog.ExternalBaseURL,
		RequestTimeout:  time.Duration(settings.Catalog.RequestTimeoutSec) * time.Second,
	}, logger)

	watchlistSvc := watchlist.NewService(db.Watchlist, db.Animes)

	r := api.NewRouter()
	api.Register(r, accountsSvc, profilesSvc, catalogSvc, watchlistSvc)

	addr := fmt.Sprintf("%s:%d", settings.Server.Host, settings.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

// setupLogging wires slog to stdout and a rotating log file.
func setupLogging(cfg config.LogConfig) *slog.Logger {
	var w io.Writer = os.Stdout

	if cfg.File != "" {
		logDir := filepath.Dir(cfg.File)
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			log.Printf("warning: could not create log directory %s: %v", logDir, err)
		} else {
			fileWriter := &lumberjack.Logger{
				Filename:   cfg.File,
				MaxSize:    cfg.MaxSize,
				MaxBackups: cfg.MaxBackups,
				MaxAge:     cfg.MaxAge,
				Compress:   cfg.Compress,
			}
			w = io.MultiWriter(os.Stdout, fileWriter)
			log.SetOutput(w)
		}
	}

	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}
