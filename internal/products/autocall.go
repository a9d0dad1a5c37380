package products

import (
	"github.com/contactkeval/structured-pricing/internal/pricing"
)

// AutocallBreakdown is the simplified autocall price split into its static legs.
type AutocallBreakdown struct {
	ZeroCoupon  float64 `json:"zero_coupon"`  // nominal repaid at maturity, discounted
	DigitalCall float64 `json:"digital_call"` // conditional coupon above strike_call
	ShortPut    float64 `json:"short_put"`    // cost of the sold put at strike_put, subtracted
	Total       float64 `json:"total"`
}

// PriceAutocallSimplified prices the terminal-only autocall approximation:
//
//	nominal * ZC(r, T) + DigitalCall(S, Kc, r, σ, T, nominal*coupon) - Put(S, Kp, r, σ, T)
//
// There is no barrier monitoring, no observation schedule and no coupon
// memory. The note is the three legs above evaluated at the single maturity.
func PriceAutocallSimplified(
	spot float64,
	strikeCall float64,
	strikePut float64,
	rate float64,
	volatility float64,
	maturity float64,
	couponRate float64,
	nominal float64,
) float64 {
	return DecomposeAutocall(AutocallSpec{
		Market: MarketParameters{
			Spot:       spot,
			Rate:       rate,
			Volatility: volatility,
			Maturity:   maturity,
		},
		StrikeCall: strikeCall,
		StrikePut:  strikePut,
		CouponRate: couponRate,
		Nominal:    nominal,
	}).Total
}

// DecomposeAutocall returns each leg of the autocall price and their sum.
//
// The explicit float64 conversion keeps the bond leg rounded before the sum,
// so Total always equals ZeroCoupon + DigitalCall - ShortPut.
func DecomposeAutocall(a AutocallSpec) AutocallBreakdown {
	m := a.Market
	zc := float64(a.Nominal * pricing.ZeroCouponPrice(m.Rate, m.Maturity))
	digital := pricing.PriceDigitalCallBS(m.Spot, a.StrikeCall, m.Rate, m.Volatility, m.Maturity, a.Nominal*a.CouponRate)
	put := pricing.PricePutBS(m.Spot, a.StrikePut, m.Rate, m.Volatility, m.Maturity)

	return AutocallBreakdown{
		ZeroCoupon:  zc,
		DigitalCall: digital,
		ShortPut:    put,
		Total:       zc + digital - put,
	}
}
