package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/contactkeval/structured-pricing/internal/data"
	"github.com/contactkeval/structured-pricing/internal/logger"
)

func newBarsCmd(a *app) *cobra.Command {
	var (
		days int
		dir  string
	)

	cmd := &cobra.Command{
		Use:   "bars [TICKER]",
		Short: "Download daily bars into the csv source directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ticker := a.cfg.Data.Ticker
			if len(args) == 1 {
				ticker = args[0]
			}
			ticker = strings.ToUpper(ticker)
			if !cmd.Flags().Changed("dir") {
				dir = a.cfg.Data.CSVDir
			}
			if days < 1 {
				return fmt.Errorf("days must be >= 1, got %d", days)
			}

			prov, err := a.cfg.Data.NewProvider()
			if err != nil {
				return err
			}
			toDate := time.Now().UTC()
			bars, err := data.GetDailyBars(cmd.Context(), prov, ticker, toDate.AddDate(0, 0, -days), toDate)
			if err != nil {
				return err
			}

			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("could not create csv dir %s: %w", dir, err)
			}
			if err := data.WriteBarsCSV(dir, ticker, bars); err != nil {
				return err
			}
			logger.Infof("wrote %d %s bars to %s", len(bars), ticker, dir)
			fmt.Fprintf(cmd.OutOrStdout(), "%d bars written for %s\n", len(bars), ticker)
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 365, "calendar days of history ending today")
	cmd.Flags().StringVar(&dir, "dir", "", "output directory (default data.csv_dir from config)")
	return cmd
}
