// Package data supplies the market inputs the pricer consumes: daily bars
// from a provider, and the spot and annualized volatility derived from them.
package data

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/contactkeval/structured-pricing/internal/logger"
)

var (
	// ErrNoProvider is returned when a source name does not map to a provider.
	ErrNoProvider = errors.New("no market data provider")
	// ErrInsufficientHistory is returned when too few prices are available to estimate volatility.
	ErrInsufficientHistory = errors.New("insufficient price history")
	// ErrInvalidLookback is returned for a lookback outside [MinLookbackDays, MaxLookbackDays].
	ErrInvalidLookback = errors.New("invalid lookback")
)

const dateLayout = "2006-01-02"

// Provider supplies market data.
type Provider interface {
	Name() string
	Secondary() Provider
	GetDailyBars(ctx context.Context, ticker string, fromDate, toDate time.Time) ([]Bar, error)
}

// Bar simplified OHLC
type Bar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Source names accepted by NewProvider.
const (
	SourceMassive   = "massive"
	SourcePolygon   = "polygon"
	SourceCSV       = "csv"
	SourceSynthetic = "synthetic"
)

// Sources lists every accepted source name.
func Sources() []string {
	return []string{SourceMassive, SourcePolygon, SourceCSV, SourceSynthetic}
}

// ProviderOptions carries what each provider needs to be constructed.
type ProviderOptions struct {
	MassiveAPIKey string
	PolygonAPIKey string
	CSVDir        string
	Seed          int64
	Secondary     Provider
}

// NewProvider builds the provider registered under source.
func NewProvider(source string, opts ProviderOptions) (Provider, error) {
	switch strings.ToLower(source) {
	case SourceMassive:
		return NewMassiveDataProvider(opts.MassiveAPIKey, opts.Secondary), nil
	case SourcePolygon:
		return NewPolygonDataProvider(opts.PolygonAPIKey, opts.Secondary), nil
	case SourceCSV:
		return NewLocalCSVDataProvider(opts.CSVDir, opts.Secondary), nil
	case SourceSynthetic:
		return NewSyntheticDataProvider(opts.Seed, opts.Secondary), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrNoProvider, source)
}

// GetDailyBars asks prov for bars and walks its secondary chain on failure
// or on an empty result. The returned bars are sorted by date.
func GetDailyBars(ctx context.Context, prov Provider, ticker string, fromDate, toDate time.Time) ([]Bar, error) {
	bars, _, err := getDailyBars(ctx, prov, ticker, fromDate, toDate)
	return bars, err
}

// getDailyBars also returns the provider in the chain that served the bars.
func getDailyBars(ctx context.Context, prov Provider, ticker string, fromDate, toDate time.Time) ([]Bar, Provider, error) {
	if prov == nil {
		return nil, nil, ErrNoProvider
	}

	var errs []error
	for p := prov; p != nil; p = p.Secondary() {
		bars, err := p.GetDailyBars(ctx, ticker, fromDate, toDate)
		if err == nil && len(bars) > 0 {
			sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
			return bars, p, nil
		}
		if err == nil {
			err = fmt.Errorf("no bars for %s between %s and %s", ticker, fromDate.Format(dateLayout), toDate.Format(dateLayout))
		}
		errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))

		if ctx.Err() != nil {
			break
		}
		if p.Secondary() != nil {
			logger.Warnf("provider %s failed for %s, trying %s: %v", p.Name(), ticker, p.Secondary().Name(), err)
		}
	}
	return nil, nil, errors.Join(errs...)
}

// closes extracts close prices in bar order.
func closes(bars []Bar) []float64 {
	out := make([]float64, 0, len(bars))
	for _, b := range bars {
		out = append(out, b.Close)
	}
	return out
}

func inRange(d, fromDate, toDate time.Time) bool {
	return !d.Before(fromDate) && !d.After(toDate)
}
