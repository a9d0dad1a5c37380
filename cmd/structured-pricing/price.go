package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/contactkeval/structured-pricing/internal/data"
	"github.com/contactkeval/structured-pricing/internal/logger"
	"github.com/contactkeval/structured-pricing/internal/products"
	"github.com/contactkeval/structured-pricing/internal/report"
)

func addMarketFlags(fs *pflag.FlagSet, withSpot bool) {
	if withSpot {
		fs.Float64("spot", 0, "underlying price today (default from config)")
		fs.Float64("vol", 0, "annualized volatility, e.g. 0.2 (default from config)")
		fs.String("from-market", "", "take spot and volatility from a market snapshot of TICKER")
		fs.Int("lookback", 0, "trading days used by --from-market (default from config)")
	}
	fs.Float64("rate", 0, "continuously compounded risk-free rate (default from config)")
	fs.Float64("maturity", 0, "years to maturity (default from config)")
	fs.Bool("payoff", false, "print the payoff profile at maturity")
}

// floatFlag returns the flag value when set on the command line, else fallback.
func floatFlag(cmd *cobra.Command, name string, fallback float64) float64 {
	if !cmd.Flags().Changed(name) {
		return fallback
	}
	v, _ := cmd.Flags().GetFloat64(name)
	return v
}

func intFlag(cmd *cobra.Command, name string, fallback int) int {
	if !cmd.Flags().Changed(name) {
		return fallback
	}
	v, _ := cmd.Flags().GetInt(name)
	return v
}

// market resolves the market inputs from flags, config and optionally a
// live snapshot.
func (a *app) market(cmd *cobra.Command) (products.MarketParameters, error) {
	m := a.cfg.Market
	m.Rate = floatFlag(cmd, "rate", m.Rate)
	m.Maturity = floatFlag(cmd, "maturity", m.Maturity)
	if cmd.Flags().Lookup("spot") == nil {
		return m, nil
	}
	m.Spot = floatFlag(cmd, "spot", m.Spot)
	m.Volatility = floatFlag(cmd, "vol", m.Volatility)

	ticker, _ := cmd.Flags().GetString("from-market")
	if ticker == "" {
		return m, nil
	}

	snap, err := a.snapshot(cmd, ticker, intFlag(cmd, "lookback", a.cfg.Data.LookbackDays))
	if err != nil {
		return m, err
	}
	m.Spot = snap.Spot
	m.Volatility = snap.AnnualizedVolatility
	logger.Infof("using %s spot %.4f and volatility %.4f from %s", snap.Ticker, m.Spot, m.Volatility, snap.Source)
	return m, nil
}

func (a *app) snapshot(cmd *cobra.Command, ticker string, lookback int) (*data.MarketSnapshot, error) {
	prov, err := a.cfg.Data.NewProvider()
	if err != nil {
		return nil, err
	}
	return data.FetchMarketSnapshot(cmd.Context(), prov, strings.ToUpper(ticker), lookback, time.Now())
}

// emit prices inst, prints the quote and writes the report files when asked to.
func (a *app) emit(cmd *cobra.Command, inst products.Instrument, spot float64) error {
	start := time.Now()
	q, err := report.NewQuote(inst, start)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if err := report.RenderQuote(w, q); err != nil {
		return err
	}

	profile := products.PayoffProfile(inst, spot)
	if show, _ := cmd.Flags().GetBool("payoff"); show {
		report.RenderPayoff(w, profile)
	}

	dir := a.reportDir()
	if dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("could not create output dir %s: %w", dir, err)
	}
	if err := report.WriteJSON(q, dir); err != nil {
		return err
	}
	if err := report.WritePayoffCSV(profile, dir); err != nil {
		return err
	}
	logger.Infof("quote %s written to %s in %v", q.ID, dir, time.Since(start))
	return nil
}

func newBondCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bond",
		Short: "Price a zero-coupon bond paying 1 at maturity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.market(cmd)
			if err != nil {
				return err
			}
			return a.emit(cmd, products.ZeroCouponBond{Rate: m.Rate, Maturity: m.Maturity}, a.cfg.Market.Spot)
		},
	}
	addMarketFlags(cmd.Flags(), false)
	return cmd
}

func newCallCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "call",
		Short: "Price a European call with Black-Scholes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.market(cmd)
			if err != nil {
				return err
			}
			spec := products.OptionSpec{Strike: floatFlag(cmd, "strike", a.cfg.Instrument.Strike), Market: m}
			return a.emit(cmd, products.VanillaCall{OptionSpec: spec}, m.Spot)
		},
	}
	addMarketFlags(cmd.Flags(), true)
	cmd.Flags().Float64("strike", 0, "strike (default from config)")
	return cmd
}

func newPutCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "put",
		Short: "Price a European put with Black-Scholes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.market(cmd)
			if err != nil {
				return err
			}
			spec := products.OptionSpec{Strike: floatFlag(cmd, "strike", a.cfg.Instrument.Strike), Market: m}
			return a.emit(cmd, products.VanillaPut{OptionSpec: spec}, m.Spot)
		},
	}
	addMarketFlags(cmd.Flags(), true)
	cmd.Flags().Float64("strike", 0, "strike (default from config)")
	return cmd
}

func newAutocallCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "autocall",
		Short: "Price the simplified autocall as zero coupon + digital call - put",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.market(cmd)
			if err != nil {
				return err
			}
			d := a.cfg.Instrument
			inst := products.SimplifiedAutocall{AutocallSpec: products.AutocallSpec{
				Market:     m,
				StrikeCall: floatFlag(cmd, "strike-call", d.StrikeCall),
				StrikePut:  floatFlag(cmd, "strike-put", d.StrikePut),
				CouponRate: floatFlag(cmd, "coupon", d.CouponRate),
				Nominal:    floatFlag(cmd, "nominal", d.Nominal),
			}}
			if inst.StrikePut >= inst.StrikeCall {
				logger.Warnf("strike-put %g is not below strike-call %g", inst.StrikePut, inst.StrikeCall)
			}
			return a.emit(cmd, inst, m.Spot)
		},
	}
	addMarketFlags(cmd.Flags(), true)
	cmd.Flags().Float64("strike-call", 0, "upper barrier / digital call strike (default from config)")
	cmd.Flags().Float64("strike-put", 0, "lower barrier / put strike (default from config)")
	cmd.Flags().Float64("coupon", 0, "coupon rate, e.g. 0.08 for 8% (default from config)")
	cmd.Flags().Float64("nominal", 0, "nominal (default from config)")
	return cmd
}
