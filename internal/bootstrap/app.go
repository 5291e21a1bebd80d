package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/qazinvest/faq-assist/internal/domain/qa"
	"github.com/qazinvest/faq-assist/internal/infra/config"
	"github.com/qazinvest/faq-assist/internal/interface/telegram"
)

// App encapsulates the lifecycle of the HTTP server, the Telegram bot and
// the embedding backfill worker.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	server     *http.Server
	bot        *telegram.Bot
	backfiller *qa.Backfiller
}

// NewApp is used by Wire to build the runnable app. The bot may be nil when
// the Telegram transport is disabled.
func NewApp(cfg *config.Config, logger *slog.Logger, server *http.Server, bot *telegram.Bot, backfiller *qa.Backfiller) *App {
	return &App{
		cfg:        cfg,
		logger:     logger.With("component", "bootstrap"),
		server:     server,
		bot:        bot,
		backfiller: backfiller,
	}
}

// Run starts all components and blocks until shutdown or the first fatal
// error. Bot and backfill failures are fatal; they run until cancelled.
func (a *App) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 3)

	go func() {
		a.logger.Info("http server starting", "address", a.cfg.HTTP.Address)
		if err := a.server.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	if a.bot != nil {
		go func() {
			a.logger.Info("telegram bot starting")
			if err := a.bot.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- err
			}
		}()
	}

	if a.backfiller != nil && a.cfg.Backfill.Enabled {
		go func() {
			a.logger.Info("embedding backfill worker starting", "interval", a.cfg.Backfill.Interval)
			if err := a.backfiller.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- err
			}
		}()
	}

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
		return a.shutdown()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		cancel()
		_ = a.shutdown()
		return err
	}
}

func (a *App) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return a.server.Shutdown(shutdownCtx)
}
