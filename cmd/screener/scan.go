package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"TrendScreener/internal/notifier"
)

func newScanCmd() *cobra.Command {
	var (
		tickers      []string
		lookbackDays int
		concurrency  int
		notify       bool
	)
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run one screening pass and print the report",
		Example: `  screener scan
  screener scan --tickers AAPL,MSFT,BRK.B --lookback-days 365`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(tickers) > 0 {
				cfg.Universe.Source = "static"
				cfg.Universe.Tickers = tickers
			}
			if lookbackDays > 0 {
				cfg.Screen.LookbackDays = lookbackDays
			}
			if concurrency > 0 {
				cfg.Screen.Concurrency = concurrency
			}

			sc, store, err := buildScanner(cfg, nil)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			report, err := sc.RunUniverse(ctx, buildUniverse(cfg))
			if err != nil {
				return err
			}
			if err := notifier.WriteText(cmd.OutOrStdout(), report); err != nil {
				return err
			}
			if notify && cfg.TelegramEnabled() {
				tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
				if err := tn.SendWithRetry(ctx, notifier.FormatScanReport(report), 3); err != nil {
					log.Error().Err(err).Msg("send notification")
				}
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&tickers, "tickers", nil, "comma separated tickers to screen instead of the configured universe")
	cmd.Flags().IntVar(&lookbackDays, "lookback-days", 0, "price history window in days")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "tickers fetched at once")
	cmd.Flags().BoolVar(&notify, "notify", false, "also send the report to Telegram")
	return cmd
}
