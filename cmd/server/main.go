package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	daemon "github.com/sevlyar/go-daemon"

	"discord-chat-archiver/internal/adapters/exporter"
	"discord-chat-archiver/internal/cache"
	"discord-chat-archiver/internal/core/services"
	"discord-chat-archiver/internal/discord"
	applog "discord-chat-archiver/internal/log"
	"discord-chat-archiver/internal/pkg/config"
	"discord-chat-archiver/internal/server"
	"discord-chat-archiver/internal/server/usecase"
)

func main() {
	daemonize := flag.Bool("daemon", false, "run the server as a background daemon")
	flag.Parse()

	if *daemonize {
		dctx := &daemon.Context{
			PidFileName: "archiver.pid",
			PidFilePerm: 0o644,
			LogFileName: "archiver.log",
			LogFilePerm: 0o640,
			Umask:       0o027,
		}
		child, err := dctx.Reborn()
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "failed to daemonize: %v\n", err)
			os.Exit(1)
		}
		if child != nil {
			// Родительский процесс завершается, сервер работает в потомке.
			return
		}
		defer dctx.Release()
	}

	if err := run(); err != nil {
		slog.Error("application run failed", "error", err)
		os.Exit(1)
	}
}

// newLogger строит логгер по конфигурации. Все записи проходят через
// маскирование токенов Discord.
func newLogger(cfg config.Logging) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	return applog.NewMaskedLogger(handler)
}

// run инкапсулирует всю логику инициализации и запуска приложения.
func run() error {
	// 1. Загрузка конфигурации
	cfg, err := config.LoadConfig()
	if err != nil {
		// Логгер еще не инициализирован, выводим в stderr
		_, _ = fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Инициализация логгера
	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)

	// 3. Валидация конфигурации (после инициализации логгера)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	if cfg.Discord.Token == "" {
		return fmt.Errorf("discord token is required, set DISCORD_TOKEN")
	}

	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()

	// 4. Инициализация зависимостей
	pref, err := discord.ParseRateLimitPreference(cfg.Discord.RateLimitPreference)
	if err != nil {
		return err
	}
	client, err := discord.NewClient(appCtx, cfg.Discord.Token,
		discord.WithRateLimitPreference(pref),
		discord.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("failed to authenticate with Discord: %w", err)
	}

	var exportOpts []services.ExportOption
	exportOpts = append(exportOpts, services.WithExportLogger(logger))
	if cfg.Export.ShouldDownloadAssets {
		assets := cache.NewAssetStore(cfg.Export.AssetsDirPath, cfg.Export.ShouldReuseAssets,
			cache.WithLogger(logger))
		exportOpts = append(exportOpts, services.WithAssetDownloader(assets))
	}

	taskStore := server.NewTaskStore()
	writers := exporter.NewFactory(logger)
	exportSvc := services.NewExportService(client, writers, exportOpts...)
	runner := usecase.NewExportChannelsUseCase(exportSvc, cfg.Export.Parallelism, logger)

	var store *server.S3Store
	if cfg.Storage.Enabled() {
		store, err = server.NewS3Store(cfg.Storage)
		if err != nil {
			return fmt.Errorf("failed to create S3 store: %w", err)
		}
		if err := store.EnsureBucket(appCtx); err != nil {
			return fmt.Errorf("failed to prepare S3 bucket: %w", err)
		}
	}

	// 5. Создание HTTP-сервера
	srv, err := server.New(cfg, runner, taskStore, store, logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	// 6. Запуск сервера и graceful shutdown
	serverDone := make(chan struct{})
	go func() {
		defer close(serverDone)
		logger.Info("Starting server", "addr", cfg.Address())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Signal received, shutting down...")
	appCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	<-serverDone
	logger.Info("Application exited gracefully")
	return nil
}
