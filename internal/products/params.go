// Package products composes the analytical prices in package pricing into
// priceable instruments, including the simplified autocall note.
package products

import (
	"fmt"
	"math"

	"github.com/contactkeval/structured-pricing/internal/pricing"
)

// MarketParameters groups the market inputs shared by every instrument.
type MarketParameters struct {
	Spot       float64 `json:"spot" yaml:"spot"`             // underlying price today
	Rate       float64 `json:"rate" yaml:"rate"`             // continuously-compounded annual risk-free rate
	Volatility float64 `json:"volatility" yaml:"volatility"` // annualized
	Maturity   float64 `json:"maturity" yaml:"maturity"`     // years to expiry
}

// OptionSpec is a single-strike European option on the given market.
type OptionSpec struct {
	Strike float64          `json:"strike"`
	Market MarketParameters `json:"market"`
}

// DigitalOptionSpec is a cash-or-nothing option paying Payoff in the money.
type DigitalOptionSpec struct {
	OptionSpec
	Payoff float64 `json:"payoff"`
}

// AutocallSpec describes the simplified autocall note.
// StrikePut < StrikeCall by convention, not enforced.
type AutocallSpec struct {
	Market     MarketParameters `json:"market"`
	StrikeCall float64          `json:"strike_call"` // upper barrier
	StrikePut  float64          `json:"strike_put"`  // lower barrier
	CouponRate float64          `json:"coupon_rate"`
	Nominal    float64          `json:"nominal"`
}

// Validate reports the first market parameter outside the priceable domain.
func (m MarketParameters) Validate() error {
	if err := positive("spot", m.Spot); err != nil {
		return err
	}
	if err := finite("rate", m.Rate); err != nil {
		return err
	}
	if err := positive("volatility", m.Volatility); err != nil {
		return err
	}
	return positive("maturity", m.Maturity)
}

func (o OptionSpec) Validate() error {
	if err := o.Market.Validate(); err != nil {
		return err
	}
	return positive("strike", o.Strike)
}

func (d DigitalOptionSpec) Validate() error {
	if err := d.OptionSpec.Validate(); err != nil {
		return err
	}
	return finite("payoff", d.Payoff)
}

func (a AutocallSpec) Validate() error {
	if err := a.Market.Validate(); err != nil {
		return err
	}
	if err := positive("strike_call", a.StrikeCall); err != nil {
		return err
	}
	if err := positive("strike_put", a.StrikePut); err != nil {
		return err
	}
	if err := finite("coupon_rate", a.CouponRate); err != nil {
		return err
	}
	if a.CouponRate < 0 {
		return fmt.Errorf("%w: coupon_rate must be >= 0, got %v", pricing.ErrInvalidInput, a.CouponRate)
	}
	return positive("nominal", a.Nominal)
}

func positive(name string, v float64) error {
	if err := finite(name, v); err != nil {
		return err
	}
	if v <= 0 {
		return fmt.Errorf("%w: %s must be > 0, got %v", pricing.ErrInvalidInput, name, v)
	}
	return nil
}

func finite(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s must be finite, got %v", pricing.ErrInvalidInput, name, v)
	}
	return nil
}
