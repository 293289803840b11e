package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"os/signal"

	"github.com/anshu-man26/EngageSphere-sub001/internal/directory"
	"github.com/anshu-man26/EngageSphere-sub001/internal/notify"
	"github.com/anshu-man26/EngageSphere-sub001/internal/observability"
	"github.com/anshu-man26/EngageSphere-sub001/internal/server"
	"github.com/anshu-man26/EngageSphere-sub001/internal/throttle"
	"github.com/anshu-man26/EngageSphere-sub001/pkg/config"
	"github.com/anshu-man26/EngageSphere-sub001/pkg/logging"
	"github.com/anshu-man26/EngageSphere-sub001/pkg/presence"
	"github.com/anshu-man26/EngageSphere-sub001/pkg/presence/registry"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	_ "modernc.org/sqlite"
)

func main() {
	logger := logging.New(logging.LevelDebug)
	slog.SetDefault(logger)

	cfg, err := config.Load(logger, "config")
	if err != nil {
		logger.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger = logging.New(logging.Parse(cfg.Log.Level))
	slog.SetDefault(logger)

	db, err := sql.Open("sqlite", cfg.Storage.Path)
	if err != nil {
		logger.Error("Failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	ledger, err := throttle.NewSQLiteLedger(db, cfg.Notify.CooldownWindow)
	if err != nil {
		logger.Error("Failed to initialize cooldown ledger", slog.Any("error", err))
		os.Exit(1)
	}
	dir, err := directory.NewSQLiteDirectory(db)
	if err != nil {
		logger.Error("Failed to initialize user directory", slog.Any("error", err))
		os.Exit(1)
	}

	var mailer notify.Mailer
	if cfg.SMTP.Host != "" {
		mailer = notify.NewSMTPMailer(notify.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			From:     cfg.SMTP.From,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
		})
	} else {
		logger.Warn("No SMTP host configured; offline notifications disabled")
	}

	promRegistry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(promRegistry)

	presenceRegistry := registry.NewInMemoryRegistry(logger, cfg.Presence.InactivityTimeout)
	broadcaster := server.NewBroadcaster(logger, presenceRegistry, metrics)

	dispatcher := notify.NewDispatcher(logger, presenceRegistry, ledger, dir, mailer,
		cfg.Notify.OfflineThreshold, cfg.Notify.SubjectPrefix)
	dispatcher.SetMetrics(metrics)

	reaper := presence.NewReaper(logger, presenceRegistry, broadcaster,
		cfg.Presence.ReapInterval, cfg.Presence.InactivityTimeout)
	reaper.SetEvictionCounter(metrics.ConnectionsReaped)

	janitor := throttle.NewJanitor(logger, ledger,
		cfg.Notify.CleanupInterval, cfg.Notify.Retention)
	janitor.SetPurgeCounter(metrics.CooldownRecordsPurged)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go reaper.Run(ctx)
	go janitor.Run(ctx)

	metricsHandler := promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{})
	app := server.NewApp(logger, ctx, cfg, presenceRegistry, broadcaster, dispatcher, metrics, metricsHandler)
	if err := app.Run(); err != nil {
		logger.Error("Application run failed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Application shut down successfully.")
}
