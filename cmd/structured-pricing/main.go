package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/contactkeval/structured-pricing/internal/config"
	"github.com/contactkeval/structured-pricing/internal/logger"
)

// app holds the state shared by every subcommand once flags are parsed.
type app struct {
	configPath string
	verbosity  int
	outDir     string
	save       bool
	cfg        *config.Config
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "structured-pricing",
		Short:         "Closed-form pricing of bonds, vanilla options and a simplified autocall",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to YAML config")
	root.PersistentFlags().IntVarP(&a.verbosity, "verbosity", "v", -1, "log verbosity 0..3 (overrides config)")
	root.PersistentFlags().StringVar(&a.outDir, "out", "", "directory to write quote.json and payoff.csv (implies --save)")
	root.PersistentFlags().BoolVar(&a.save, "save", false, "write quote.json and payoff.csv to the configured report_dir")

	root.AddCommand(
		newBondCmd(a),
		newCallCmd(a),
		newPutCmd(a),
		newAutocallCmd(a),
		newSnapshotCmd(a),
		newBarsCmd(a),
		newServeCmd(a),
	)
	return root
}

func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("verbosity") {
		cfg.Verbosity = a.verbosity
	}
	logger.SetVerbosity(cfg.Verbosity)
	logger.SetJSON(cfg.JSONLogs)
	logger.Debugf("config loaded from %q, data source %s", a.configPath, cfg.Data.Source)

	a.cfg = cfg
	return nil
}

// reportDir is where report files go, or "" when nothing should be written.
func (a *app) reportDir() string {
	if a.outDir != "" {
		return a.outDir
	}
	if a.save {
		return a.cfg.ReportDir
	}
	return ""
}
