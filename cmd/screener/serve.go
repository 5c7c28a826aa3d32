package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"TrendScreener/internal/metrics"
	"TrendScreener/internal/notifier"
	"TrendScreener/internal/scheduler"
)

func newServeCmd() *cobra.Command {
	var runOnStart bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run scheduled scans, answer Telegram commands and expose metrics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			log.Info().Str("version", version).Msg("screener starting")

			m := metrics.New()
			sc, store, err := buildScanner(cfg, m)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			var sender notifier.Sender = notifier.LogSender{}
			var tn *notifier.TelegramNotifier
			if cfg.TelegramEnabled() {
				tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
				sender = tn
			} else {
				log.Warn().Msg("telegram not configured, reports go to the log")
			}

			sched := scheduler.NewScheduler(ctx, sc, buildUniverse(cfg), sender)
			if err := sched.Register(cfg.Schedule.ScanCron); err != nil {
				return err
			}
			sched.Start()
			defer sched.Stop()

			if tn != nil {
				go tn.StartPolling(ctx, sched.HandleCommand)
				log.Info().Msg("telegram polling started")
			}

			var srv *http.Server
			if cfg.Metrics.Listen != "" {
				mux := http.NewServeMux()
				mux.Handle("/metrics", m.Handler())
				mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
					w.WriteHeader(http.StatusOK)
				})
				srv = &http.Server{Addr: cfg.Metrics.Listen, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
				go func() {
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						log.Error().Err(err).Msg("metrics server")
					}
				}()
				log.Info().Str("listen", cfg.Metrics.Listen).Msg("metrics server started")
			}

			if runOnStart || os.Getenv("RUN_ON_START") == "true" {
				log.Info().Msg("running scan on start")
				sched.RunScanAsync()
			}

			log.Info().Str("cron", cfg.Schedule.ScanCron).Msg("screener is running, press Ctrl+C to stop")

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			<-sigCh

			log.Info().Msg("shutdown signal received, stopping")
			cancel()
			if srv != nil {
				shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
				defer done()
				_ = srv.Shutdown(shutdownCtx)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&runOnStart, "run-on-start", false, "run a scan immediately after starting")
	return cmd
}
