package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/gdg-garage/garage-events-api/internal/auth"
	"github.com/gdg-garage/garage-events-api/internal/config"
	"github.com/gdg-garage/garage-events-api/internal/core"
	"github.com/gdg-garage/garage-events-api/internal/database"
	"github.com/gdg-garage/garage-events-api/internal/handlers"
	"github.com/gdg-garage/garage-events-api/internal/logging"
	"github.com/gdg-garage/garage-events-api/internal/notifier"
	"github.com/gdg-garage/garage-events-api/internal/store"
	"github.com/gdg-garage/garage-events-api/internal/telemetry"
	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"
)

const serviceName = "garage-events-api"

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	logger, err := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	shutdownTracing, err := telemetry.Setup(ctx, serviceName, cfg.OTelEndpoint, cfg.OTelEnabled)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Warn("failed to flush traces", "error", err)
		}
	}()

	// Connect to Database
	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	var session *discordgo.Session
	if cfg.DiscordBotToken != "" {
		session, err = discordgo.New("Bot " + cfg.DiscordBotToken)
		if err != nil {
			return fmt.Errorf("create discord session: %w", err)
		}
	}

	notifiers := notifier.Multi{}
	if session != nil && cfg.DiscordNotificationsChannelID != "" {
		notifiers = append(notifiers, notifier.NewDiscordNotifier(session, cfg.DiscordNotificationsChannelID))
	} else {
		logger.Info("discord notifier disabled")
	}
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != 0 {
		telegram, err := notifier.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID)
		if err != nil {
			logger.Warn("telegram notifier not initialized", "error", err)
		} else {
			notifiers = append(notifiers, telegram)
		}
	}

	s := store.New(db)
	events := core.NewEventService(s, s, notifiers, logger, cfg.DefaultEventImageURL)
	registrations := core.NewRegistrationService(s, s, notifiers, logger)
	queries := core.NewQueryService(s, cfg.MaxItemsPerPage)

	authHandler := auth.NewAuthHandler(cfg, db, auth.NewDiscordRoles(session, cfg))

	// Initialize Router
	r := chi.NewRouter()
	handlers.RegisterRoutes(r, cfg.OperationTimeout, authHandler,
		handlers.NewEventHandler(events, queries, authHandler),
		handlers.NewRegistrationHandler(registrations, authHandler),
		handlers.NewAPIKeyHandler(db, authHandler),
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
