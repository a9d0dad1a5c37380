package pricing

import "math"

// ZeroCouponPrice returns the present value of a unit payment due at maturity,
// discounted at the continuously-compounded rate.
func ZeroCouponPrice(rate, maturity float64) float64 {
	return math.Exp(-rate * maturity)
}
