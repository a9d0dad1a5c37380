package products

import "math"

const (
	profilePoints = 31
	profileSteps  = 15.0 // points per unit of spot
	profileStart  = 0.5  // first point as a fraction of spot
)

// PayoffPoint is one terminal price and the instrument's payoff there.
type PayoffPoint struct {
	TerminalPrice float64 `json:"terminal_price" csv:"S_T"`
	Payoff        float64 `json:"payoff" csv:"payoff"`
}

// TerminalPayoff evaluates inst's payoff at maturity for terminal price sT.
//
// The autocall profile is the piecewise picture shown next to its price:
// nominal*(1+coupon) at or above strike_call, nominal between the strikes,
// and nominal*sT/spot below strike_put. It is not what the pricing formula
// replicates and is meant for display only.
func TerminalPayoff(inst Instrument, sT float64) float64 {
	switch v := inst.(type) {
	case ZeroCouponBond:
		return 1
	case VanillaCall:
		return math.Max(sT-v.Strike, 0)
	case VanillaPut:
		return math.Max(v.Strike-sT, 0)
	case SimplifiedAutocall:
		switch {
		case sT >= v.StrikeCall:
			return v.Nominal * (1 + v.CouponRate)
		case sT >= v.StrikePut:
			return v.Nominal
		default:
			return v.Nominal * (sT / v.Market.Spot)
		}
	}
	return math.NaN()
}

// PayoffProfile sweeps terminal prices from 0.5*spot to 2.5*spot in 31 even steps.
func PayoffProfile(inst Instrument, spot float64) []PayoffPoint {
	out := make([]PayoffPoint, 0, profilePoints)
	for i := 0; i < profilePoints; i++ {
		sT := profileStart*spot + float64(i)*(spot/profileSteps)
		out = append(out, PayoffPoint{TerminalPrice: sT, Payoff: TerminalPayoff(inst, sT)})
	}
	return out
}
