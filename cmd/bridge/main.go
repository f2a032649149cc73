package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mbenaiss/lexchat/api"
	"github.com/mbenaiss/lexchat/auth"
	"github.com/mbenaiss/lexchat/backend"
	"github.com/mbenaiss/lexchat/config"
	"github.com/mbenaiss/lexchat/db"
	"github.com/mbenaiss/lexchat/logging"
	"github.com/mbenaiss/lexchat/services"
	"github.com/mbenaiss/lexchat/transport"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLogger := logging.New("info", true)
		bootLogger.Fatal().Err(err).Msg("Failed to load config")
	}
	logger := logging.New(cfg.LogLevel, cfg.LogPretty)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bookingStore, err := db.NewDB(ctx, cfg.StoreDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize booking store")
	}
	defer bookingStore.Close()

	backendClient := backend.NewClient(cfg.APIBaseURL, cfg.RequestTimeout, logger)
	binding := transport.NewWebsocketBinding(cfg.SocketURL, transport.DefaultOptions(), logger)

	service := services.NewService(backendClient, binding, bookingStore, cfg.ConsultationPrice, logger)
	defer service.Close()

	if cfg.AuthToken != "" {
		id, err := auth.FromToken(cfg.AuthToken, cfg.UserID, cfg.UserRole)
		if err != nil {
			logger.Warn().Err(err).Msg("Ignoring AUTH_TOKEN, login through the API instead")
		} else if err := service.SetIdentity(id); err != nil {
			logger.Warn().Err(err).Msg("Failed to set identity")
		} else {
			logger.Info().Str("user", id.UserID).Str("role", string(id.Kind)).Msg("Authenticated from environment")
		}
	}

	poller, err := services.NewWalletPoller(service, cfg.WalletPollSpec, cfg.RequestTimeout, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to schedule wallet refresh")
	}
	poller.Start()
	defer poller.Stop()

	apiServer := api.NewServer(service, cfg.Port, logger)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		logger.Info().Str("port", cfg.Port).Msg("Consultation bridge starting")
		if err := apiServer.Start(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	eg.Go(func() error {
		<-egCtx.Done()
		logger.Info().Msg("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return apiServer.Stop(shutdownCtx)
	})

	if err := eg.Wait(); err != nil {
		logger.Error().Err(err).Msg("HTTP server error")
		return
	}
	logger.Info().Msg("Server gracefully stopped")
}
