package main

import (
	"github.com/spf13/cobra"

	"github.com/contactkeval/structured-pricing/internal/report"
)

func newSnapshotCmd(a *app) *cobra.Command {
	var lookback int

	cmd := &cobra.Command{
		Use:   "snapshot [TICKER]",
		Short: "Show spot and annualized volatility estimated from daily closes",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ticker := a.cfg.Data.Ticker
			if len(args) == 1 {
				ticker = args[0]
			}
			if !cmd.Flags().Changed("lookback") {
				lookback = a.cfg.Data.LookbackDays
			}

			snap, err := a.snapshot(cmd, ticker, lookback)
			if err != nil {
				return err
			}
			report.RenderSnapshot(cmd.OutOrStdout(), snap)
			return nil
		},
	}
	cmd.Flags().IntVar(&lookback, "lookback", 252, "trading days of history")
	return cmd
}
