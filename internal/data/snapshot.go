package data

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/contactkeval/structured-pricing/internal/logger"
)

// MarketSnapshot is the spot and volatility derived from recent history.
type MarketSnapshot struct {
	Ticker               string    `json:"ticker"`
	Spot                 float64   `json:"spot"`
	AnnualizedVolatility float64   `json:"annualized_volatility"`
	Observations         int       `json:"observations"` // closes used
	From                 time.Time `json:"from"`
	AsOf                 time.Time `json:"as_of"`
	Source               string    `json:"source"`
}

// AnnualizedVolatility returns the sample standard deviation of log returns
// scaled by the square root of periodsPerYear.
func AnnualizedVolatility(closes []float64, periodsPerYear float64) (float64, error) {
	if len(closes) < 3 {
		return 0, fmt.Errorf("%w: need at least 3 closes, got %d", ErrInsufficientHistory, len(closes))
	}
	if periodsPerYear <= 0 {
		return 0, fmt.Errorf("periods per year must be > 0, got %v", periodsPerYear)
	}

	returns := make(stats.Float64Data, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		prev, cur := closes[i-1], closes[i]
		if prev <= 0 || cur <= 0 {
			return 0, fmt.Errorf("non-positive close at index %d", i)
		}
		returns = append(returns, math.Log(cur/prev))
	}

	sd, err := stats.StandardDeviationSample(returns)
	if err != nil {
		return 0, fmt.Errorf("failed to calculate the standard deviation: %w", err)
	}
	return sd * math.Sqrt(periodsPerYear), nil
}

// Lookback bounds, in trading days.
const (
	MinLookbackDays = 2
	MaxLookbackDays = 10 * 252
)

// ValidateLookback reports whether days is a usable snapshot lookback.
func ValidateLookback(days int) error {
	if days < MinLookbackDays || days > MaxLookbackDays {
		return fmt.Errorf("%w: must be between %d and %d trading days, got %d", ErrInvalidLookback, MinLookbackDays, MaxLookbackDays, days)
	}
	return nil
}

// lookbackWindow converts a number of trading days into a calendar window
// wide enough to contain them, with a week of slack for holidays.
func lookbackWindow(lookbackDays int) time.Duration {
	calendarDays := int(math.Ceil(float64(lookbackDays)*365.0/tradingDaysPerYear)) + 7
	return time.Duration(calendarDays) * 24 * time.Hour
}

// FetchMarketSnapshot derives spot (last close) and annualized volatility
// from the last lookbackDays daily returns available up to asOf.
func FetchMarketSnapshot(ctx context.Context, prov Provider, ticker string, lookbackDays int, asOf time.Time) (*MarketSnapshot, error) {
	if err := ValidateLookback(lookbackDays); err != nil {
		return nil, err
	}

	from := asOf.Add(-lookbackWindow(lookbackDays))
	bars, served, err := getDailyBars(ctx, prov, ticker, from, asOf)
	if err != nil {
		return nil, fmt.Errorf("fetch %s history: %w", ticker, err)
	}

	if len(bars) > lookbackDays+1 {
		bars = bars[len(bars)-(lookbackDays+1):]
	}

	px := closes(bars)
	vol, err := AnnualizedVolatility(px, tradingDaysPerYear)
	if err != nil {
		return nil, fmt.Errorf("%s volatility: %w", ticker, err)
	}

	last := bars[len(bars)-1]
	snap := &MarketSnapshot{
		Ticker:               ticker,
		Spot:                 last.Close,
		AnnualizedVolatility: vol,
		Observations:         len(px),
		From:                 bars[0].Date,
		AsOf:                 last.Date,
		Source:               served.Name(),
	}

	logger.Infof("%s snapshot: spot=%.4f sigma=%.4f over %d closes", ticker, snap.Spot, snap.AnnualizedVolatility, snap.Observations)
	return snap, nil
}
