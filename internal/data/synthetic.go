package data

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
	"time"
)

const (
	syntheticStartPrice = 100.0
	syntheticVolatility = 0.20 // annualized
	tradingDaysPerYear  = 252.0
)

// synthDataProvider implements Data Provider generating synthetic data.
//
// Bars follow a driftless geometric Brownian motion over weekdays. The path
// depends only on the seed, the ticker and fromDate, so repeated calls agree.
type synthDataProvider struct {
	seed      int64
	secondary Provider
}

func NewSyntheticDataProvider(seed int64, secondary Provider) Provider {
	return &synthDataProvider{seed: seed, secondary: secondary}
}

func (synthDataProv *synthDataProvider) Name() string { return SourceSynthetic }

func (synthDataProv *synthDataProvider) Secondary() Provider {
	return synthDataProv.secondary
}

func (synthDataProv *synthDataProvider) GetDailyBars(ctx context.Context, ticker string, fromDate, toDate time.Time) ([]Bar, error) {
	from := truncateDay(fromDate)
	to := truncateDay(toDate)
	if to.Before(from) {
		return nil, fmt.Errorf("synthetic bars: toDate %s before fromDate %s", to.Format(dateLayout), from.Format(dateLayout))
	}

	rng := rand.New(rand.NewSource(synthDataProv.pathSeed(ticker, from)))
	dailyVol := syntheticVolatility / math.Sqrt(tradingDaysPerYear)
	drift := -0.5 * dailyVol * dailyVol

	price := syntheticStartPrice
	var out []Bar
	for cur := from; !cur.After(to); cur = cur.AddDate(0, 0, 1) {
		if cur.Weekday() == time.Saturday || cur.Weekday() == time.Sunday {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		open := price
		close := open * math.Exp(drift+dailyVol*rng.NormFloat64())
		high := math.Max(open, close) * (1 + math.Abs(rng.NormFloat64())*0.002)
		low := math.Min(open, close) * (1 - math.Abs(rng.NormFloat64())*0.002)
		out = append(out, Bar{Date: cur, Open: open, High: high, Low: low, Close: close, Volume: float64(1000 + rng.Intn(5000))})
		price = close
	}
	return out, nil
}

func (synthDataProv *synthDataProvider) pathSeed(ticker string, from time.Time) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(ticker))
	return synthDataProv.seed ^ int64(h.Sum64()) ^ from.Unix()
}
