package products

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/contactkeval/structured-pricing/internal/pricing"
)

// ErrUnknownInstrument is returned for an instrument kind outside the supported set.
var ErrUnknownInstrument = errors.New("unknown instrument")

// Kind names an instrument variant.
type Kind string

const (
	KindZeroCouponBond     Kind = "zero_coupon_bond"
	KindVanillaCall        Kind = "vanilla_call"
	KindVanillaPut         Kind = "vanilla_put"
	KindSimplifiedAutocall Kind = "simplified_autocall"
)

// Kinds lists every supported instrument kind.
func Kinds() []Kind {
	return []Kind{KindZeroCouponBond, KindVanillaCall, KindVanillaPut, KindSimplifiedAutocall}
}

// ParseKind accepts the canonical kind names plus the short CLI aliases
// "bond", "call", "put" and "autocall". Matching is case-insensitive.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(KindZeroCouponBond), "bond", "zc":
		return KindZeroCouponBond, nil
	case string(KindVanillaCall), "call":
		return KindVanillaCall, nil
	case string(KindVanillaPut), "put":
		return KindVanillaPut, nil
	case string(KindSimplifiedAutocall), "autocall":
		return KindSimplifiedAutocall, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownInstrument, s)
}

// Instrument is the closed set of priceable products. Only types in this
// package implement it.
type Instrument interface {
	Kind() Kind
	Validate() error
	instrument()
}

// ZeroCouponBond pays 1 per unit nominal at Maturity.
type ZeroCouponBond struct {
	Rate     float64 `json:"rate"`
	Maturity float64 `json:"maturity"`
}

// VanillaCall pays max(S_T - K, 0).
type VanillaCall struct {
	OptionSpec
}

// VanillaPut pays max(K - S_T, 0).
type VanillaPut struct {
	OptionSpec
}

// SimplifiedAutocall is the terminal-only autocall approximation.
type SimplifiedAutocall struct {
	AutocallSpec
}

func (ZeroCouponBond) Kind() Kind     { return KindZeroCouponBond }
func (VanillaCall) Kind() Kind        { return KindVanillaCall }
func (VanillaPut) Kind() Kind         { return KindVanillaPut }
func (SimplifiedAutocall) Kind() Kind { return KindSimplifiedAutocall }

func (ZeroCouponBond) instrument()     {}
func (VanillaCall) instrument()        {}
func (VanillaPut) instrument()         {}
func (SimplifiedAutocall) instrument() {}

// Validate accepts any finite rate and a non-negative maturity.
func (b ZeroCouponBond) Validate() error {
	if err := finite("rate", b.Rate); err != nil {
		return err
	}
	if err := finite("maturity", b.Maturity); err != nil {
		return err
	}
	if b.Maturity < 0 {
		return fmt.Errorf("%w: maturity must be >= 0, got %v", pricing.ErrInvalidInput, b.Maturity)
	}
	return nil
}

// Price validates inst and returns its theoretical value today. The bond is
// priced per unit nominal.
func Price(inst Instrument) (float64, error) {
	if inst == nil {
		return 0, fmt.Errorf("%w: nil", ErrUnknownInstrument)
	}
	if err := inst.Validate(); err != nil {
		return 0, err
	}

	var p float64
	switch v := inst.(type) {
	case ZeroCouponBond:
		p = pricing.ZeroCouponPrice(v.Rate, v.Maturity)
	case VanillaCall:
		m := v.Market
		p = pricing.PriceCallBS(m.Spot, v.Strike, m.Rate, m.Volatility, m.Maturity)
	case VanillaPut:
		m := v.Market
		p = pricing.PricePutBS(m.Spot, v.Strike, m.Rate, m.Volatility, m.Maturity)
	case SimplifiedAutocall:
		p = DecomposeAutocall(v.AutocallSpec).Total
	default:
		return 0, fmt.Errorf("%w: %T", ErrUnknownInstrument, inst)
	}

	if math.IsNaN(p) || math.IsInf(p, 0) {
		return 0, fmt.Errorf("%w: %s priced to %v", pricing.ErrInvalidInput, inst.Kind(), p)
	}
	return p, nil
}

// PriceDigitalCall validates d and prices it with pricing.PriceDigitalCallBS.
func PriceDigitalCall(d DigitalOptionSpec) (float64, error) {
	if err := d.Validate(); err != nil {
		return 0, err
	}
	m := d.Market
	return pricing.PriceDigitalCallBS(m.Spot, d.Strike, m.Rate, m.Volatility, m.Maturity, d.Payoff), nil
}

// MarketOf returns the market parameters carried by inst. The bond carries
// only rate and maturity.
func MarketOf(inst Instrument) MarketParameters {
	switch v := inst.(type) {
	case ZeroCouponBond:
		return MarketParameters{Rate: v.Rate, Maturity: v.Maturity}
	case VanillaCall:
		return v.Market
	case VanillaPut:
		return v.Market
	case SimplifiedAutocall:
		return v.Market
	}
	return MarketParameters{}
}
