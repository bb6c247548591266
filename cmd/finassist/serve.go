package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/loft/finassist/internal/config"
	"github.com/loft/finassist/internal/keepalive"
	"github.com/loft/finassist/internal/server"
	"github.com/loft/finassist/internal/telemetry"
	"github.com/loft/finassist/internal/whatsapp"
	"github.com/loft/finassist/logging"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the Twilio WhatsApp webhook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := bootstrap(false)
			if err != nil {
				return err
			}
			defer rt.close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return serve(ctx, rt)
		},
	}
}

func serve(ctx context.Context, rt *runtime) error {
	cfg := rt.cfg

	shutdownTracing, err := telemetry.Init(ctx, cfg.Telemetry, rt.logger)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			rt.logger.Warn("telemetry.shutdown_failed", "error", err.Error())
		}
	}()

	app, err := rt.newApp()
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			rt.logger.Warn("finassist.close_failed", "error", err.Error())
		}
	}()
	if err := app.Start(); err != nil {
		return err
	}

	accessLog, closeAccess, err := logging.NewAccessLogger(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return err
	}
	defer func() { _ = closeAccess() }()

	var sender *whatsapp.Sender
	if cfg.Twilio.CanSend() {
		if sender, err = whatsapp.NewSender(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.WhatsAppNumber, func(o *whatsapp.Options) {
			o.RatePerSecond = cfg.RateLimit.OutboundPerSecond
			o.Logger = rt.logger
		}); err != nil {
			return err
		}
	}

	srv, err := server.New(app, func(o *server.Options) {
		o.Logger = rt.logger
		o.AccessLog = accessLog
		o.Assets = app.Assets()
		o.ReplyMode = cfg.Twilio.ReplyMode
		if sender != nil {
			o.Sender = sender
		}
		o.AuthToken = cfg.Twilio.AuthToken
		o.ValidateSignature = cfg.Twilio.ValidateSignature
		o.PublicBaseURL = cfg.Twilio.PublicBaseURL
		o.InboundPerMinute = cfg.RateLimit.InboundPerMinute
		o.InboundBurst = cfg.RateLimit.InboundBurst
	})
	if err != nil {
		return err
	}

	if pinger, err := startPinger(cfg.KeepAlive, rt.logger); err != nil {
		return err
	} else if pinger != nil {
		defer pinger.Stop()
	}

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.Dispatch.TurnTimeout + 15*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		rt.logger.Info("server.listening", "addr", httpServer.Addr, "reply_mode", cfg.Twilio.ReplyMode)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	rt.logger.Info("server.shutting_down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		rt.logger.Warn("server.shutdown_failed", "error", err.Error())
	}
	srv.Wait()

	return nil
}

// startPinger starts the keep-alive loop when enabled. It returns nil when
// the pinger is disabled or has no URL.
func startPinger(cfg config.KeepAliveConfig, logger logging.Logger) (*keepalive.Pinger, error) {
	if !cfg.Enabled {
		logger.Info("keepalive.disabled", "reason", "PING_ENABLED=false")
		return nil, nil
	}

	p, err := keepalive.New(cfg.URL, cfg.IntervalMinutes, func(o *keepalive.Options) {
		o.Logger = logger
	})
	if err != nil {
		return nil, err
	}
	if !p.Start() {
		return nil, nil
	}
	return p, nil
}
