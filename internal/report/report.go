// Package report turns priced instruments into quotes and writes them to
// disk or a terminal.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/contactkeval/structured-pricing/internal/data"
	"github.com/contactkeval/structured-pricing/internal/products"
)

const priceDecimals = 6

// Quote is the priced result of one instrument.
type Quote struct {
	ID         string                      `json:"id"`
	Kind       products.Kind               `json:"instrument"`
	Instrument products.Instrument         `json:"terms"`
	Price      float64                     `json:"price"`
	Breakdown  *products.AutocallBreakdown `json:"breakdown,omitempty"`
	Market     products.MarketParameters   `json:"market"`
	PricedAt   time.Time                   `json:"priced_at"`
}

// NewQuote prices inst and stamps the result with a fresh id.
func NewQuote(inst products.Instrument, asOf time.Time) (*Quote, error) {
	price, err := products.Price(inst)
	if err != nil {
		return nil, err
	}

	q := &Quote{
		ID:         uuid.NewString(),
		Kind:       inst.Kind(),
		Instrument: inst,
		Price:      price,
		Market:     products.MarketOf(inst),
		PricedAt:   asOf.UTC(),
	}
	if ac, ok := inst.(products.SimplifiedAutocall); ok {
		b := products.DecomposeAutocall(ac.AutocallSpec)
		q.Breakdown = &b
	}
	return q, nil
}

// WriteJSON writes q to outdir/quote.json.
func WriteJSON(q *Quote, outdir string) error {
	b, err := json.MarshalIndent(q, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(outdir, "quote.json"), b, 0644)
}

// WritePayoffCSV writes the payoff profile to outdir/payoff.csv.
func WritePayoffCSV(points []products.PayoffPoint, outdir string) error {
	f, err := os.Create(filepath.Join(outdir, "payoff.csv"))
	if err != nil {
		return err
	}
	defer f.Close()
	return gocsv.MarshalFile(&points, f)
}

// RenderQuote prints q as a table followed by a short reading of the price.
func RenderQuote(w io.Writer, q *Quote) error {
	p := message.NewPrinter(language.English)

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Field", "Value"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	table.Append([]string{"Instrument", string(q.Kind)})
	table.Append([]string{"Price", fixed(q.Price)})
	if q.Kind != products.KindZeroCouponBond {
		table.Append([]string{"Spot", p.Sprintf("%.2f", q.Market.Spot)})
		table.Append([]string{"Volatility", p.Sprintf("%.2f%%", q.Market.Volatility*100)})
	}
	table.Append([]string{"Rate", p.Sprintf("%.2f%%", q.Market.Rate*100)})
	table.Append([]string{"Maturity", p.Sprintf("%.4g years", q.Market.Maturity)})

	if b := q.Breakdown; b != nil {
		table.Append([]string{"Zero coupon leg", fixed(b.ZeroCoupon)})
		table.Append([]string{"Digital call", fixed(b.DigitalCall)})
		table.Append([]string{"Put sold", "-" + fixed(b.ShortPut)})
	}
	table.Render()

	_, err := fmt.Fprintln(w, interpretation(q.Instrument))
	return err
}

// RenderSnapshot prints the market inputs derived from a ticker's history.
func RenderSnapshot(w io.Writer, s *data.MarketSnapshot) {
	p := message.NewPrinter(language.English)

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Ticker", "Spot", "Volatility", "Closes", "From", "As of", "Source"})
	table.Append([]string{
		s.Ticker,
		p.Sprintf("%.2f", s.Spot),
		p.Sprintf("%.2f%%", s.AnnualizedVolatility*100),
		p.Sprintf("%d", s.Observations),
		s.From.Format("2006-01-02"),
		s.AsOf.Format("2006-01-02"),
		s.Source,
	})
	table.Render()
}

// RenderPayoff prints a payoff profile as a two column table.
func RenderPayoff(w io.Writer, points []products.PayoffPoint) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"S_T", "Payoff"})
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	for _, pt := range points {
		table.Append([]string{
			decimal.NewFromFloat(pt.TerminalPrice).StringFixed(2),
			decimal.NewFromFloat(pt.Payoff).StringFixed(4),
		})
	}
	table.Render()
}

func fixed(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(priceDecimals)
}

func interpretation(inst products.Instrument) string {
	switch v := inst.(type) {
	case products.ZeroCouponBond:
		return "Cost today of a certain payment of 1 at maturity."
	case products.VanillaCall:
		return fmt.Sprintf("Payoff at maturity: max(S_T - %g, 0).", v.Strike)
	case products.VanillaPut:
		return fmt.Sprintf("Payoff at maturity: max(%g - S_T, 0).", v.Strike)
	case products.SimplifiedAutocall:
		return fmt.Sprintf("Nominal zero coupon, plus a digital call at %g paying %g, minus a put struck at %g.",
			v.StrikeCall, v.Nominal*v.CouponRate, v.StrikePut)
	}
	return ""
}
