package pricing

import (
	"math"
)

// d1d2 returns the two standardized log-moneyness terms shared by every
// Black-Scholes formula in this package.
//
// Requires volatility > 0 and maturity > 0, otherwise the result is NaN or ±Inf.
func d1d2(spot, strike, rate, volatility, maturity float64) (d1, d2 float64) {
	volSqrtT := volatility * math.Sqrt(maturity)
	d1 = (math.Log(spot/strike) + (rate+0.5*volatility*volatility)*maturity) / volSqrtT
	d2 = d1 - volSqrtT
	return d1, d2
}

// PriceCallBS calculates the price of a European call option using the Black-Scholes model.
//
// Parameters:
//   - spot: spot price of the underlying asset
//   - strike: strike price of the option
//   - rate: continuously-compounded risk-free rate (annual)
//   - volatility: volatility of the underlying asset (annual, as a decimal)
//   - maturity: time to expiry in years
//
// Returns:
//
//	The discounted risk-neutral expectation of max(S_T - K, 0).
//
// Inputs are not validated: a non-positive spot, strike, volatility or maturity
// yields NaN or ±Inf. Use MarketParameters.Validate in package products to fail fast.
func PriceCallBS(spot, strike, rate, volatility, maturity float64) float64 {
	d1, d2 := d1d2(spot, strike, rate, volatility, maturity)
	return spot*NormCDF(d1) - strike*ZeroCouponPrice(rate, maturity)*NormCDF(d2)
}

// PricePutBS calculates the price of a European put option, the discounted
// risk-neutral expectation of max(K - S_T, 0). Same input contract as PriceCallBS.
func PricePutBS(spot, strike, rate, volatility, maturity float64) float64 {
	d1, d2 := d1d2(spot, strike, rate, volatility, maturity)
	return strike*ZeroCouponPrice(rate, maturity)*NormCDF(-d2) - spot*NormCDF(-d1)
}

// PriceDigitalCallBS prices a cash-or-nothing call paying a fixed cash amount
// if the underlying finishes above strike.
//
// payoff is the absolute cash amount, not a per-unit notional. The result is
// payoff * exp(-rate*maturity) * N(d2).
func PriceDigitalCallBS(spot, strike, rate, volatility, maturity, payoff float64) float64 {
	_, d2 := d1d2(spot, strike, rate, volatility, maturity)
	return payoff * ZeroCouponPrice(rate, maturity) * NormCDF(d2)
}
