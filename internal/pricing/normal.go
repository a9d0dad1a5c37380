// Package pricing implements closed-form pricing of zero-coupon bonds and
// European options under the Black-Scholes-Merton model.
//
// Every function here is a pure function of its scalar arguments and is safe
// for concurrent use. The functions themselves validate nothing; callers
// guarantee spot, strike, volatility and maturity are strictly positive.
// ErrInvalidInput is the sentinel shared by the validation layers above
// (package products and the HTTP API).
package pricing

import (
	"errors"
	"math"
)

// ErrInvalidInput is wrapped by every validation failure of pricing inputs.
// Nothing in this package returns it.
var ErrInvalidInput = errors.New("invalid pricing input")

// NormCDF computes the cumulative distribution function of the standard normal distribution.
//
// It uses the complementary error function identity
//
//	N(x) = erfc(-x/√2) / 2
//
// which keeps full relative precision deep in the lower tail, where
// 1 + erf(x/√2) would cancel to zero. N(+Inf) = 1, N(-Inf) = 0, N(NaN) = NaN.
func NormCDF(x float64) float64 {
	return 0.5 * math.Erfc(-x/math.Sqrt2)
}
