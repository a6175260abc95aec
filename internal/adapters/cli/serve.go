package cli

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

	"github.com/spf13/cobra"

	"gymbooking/internal/adapters/email"
	web "gymbooking/internal/adapters/http"
	"gymbooking/internal/application/orchestrators"
)

const shutdownGrace = 10 * time.Second

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the JSON API and the notification worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				opts.cfg.Addr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return opts.withApp(ctx, func(a *app) error {
				return serve(ctx, a)
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides GYM_ADDR)")
	return cmd
}

func serve(ctx context.Context, a *app) error {
	cfg := a.cfg
	if err := seedOnStart(ctx, a); err != nil {
		return err
	}

	var sender email.Sender
	if cfg.ResendKey != "" {
		sender = email.NewResendSender(cfg.ResendKey, cfg.ResendFrom)
		slog.Info("email_sender_configured", "provider", "resend")
	} else {
		sender = email.NewNoopSender()
		if cfg.IsProduction() {
			slog.Warn("email_sender_configured", "provider", "noop", "reason", "GYM_RESEND_KEY is not set; notifications are not delivered")
		} else {
			slog.Info("email_sender_configured", "provider", "noop")
		}
	}
	processor := orchestrators.NewOutboxProcessor(a.store,
		orchestrators.EmailExecutors(&orchestrators.EmailExecutor{Sender: sender, Location: cfg.Location()}))
	stopWorker := make(chan struct{})
	orchestrators.StartBackgroundWorker(processor, cfg.OutboxInterval, stopWorker)
	defer close(stopWorker)

	mux := web.NewMux(web.Deps{
		Records:   a.store,
		Clock:     a.clock,
		Network:   a.sim,
		Generator: a.generator,
		Outbox:    processor,
		Collector: a.collector,
		HashCost:  cfg.HashCost,
	}, web.Options{
		CSRFKey:            cfg.CSRFKey,
		SessionHashKey:     cfg.SessionHashKey,
		SessionBlockKey:    cfg.SessionBlockKey,
		SecureCookies:      cfg.IsProduction(),
		TrustedOrigins:     cfg.TrustedOrigins,
		RateLimitPerSecond: cfg.RateLimit,
		SlowRequest:        cfg.SlowRequest(),
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	slog.Info("server_started", "version", version, "addr", cfg.Addr, "env", cfg.Env, "db", cfg.DBPath, "time_offset", a.clock.Offset().String())

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("server_stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// seedOnStart fills an empty store with demo data when GYM_SEED is on.
func seedOnStart(ctx context.Context, a *app) error {
	if !a.cfg.Seed {
		return nil
	}
	if _, err := orchestrators.ExecuteSeedTestData(ctx, a.seedDeps()); err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	return nil
}
