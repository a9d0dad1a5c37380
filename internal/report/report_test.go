package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contactkeval/structured-pricing/internal/data"
	"github.com/contactkeval/structured-pricing/internal/pricing"
	"github.com/contactkeval/structured-pricing/internal/products"
)

var (
	testMarket = products.MarketParameters{Spot: 100, Rate: 0.02, Volatility: 0.2, Maturity: 1}
	pricedAt   = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
)

func testAutocall() products.SimplifiedAutocall {
	return products.SimplifiedAutocall{AutocallSpec: products.AutocallSpec{
		Market:     testMarket,
		StrikeCall: 105,
		StrikePut:  80,
		CouponRate: 0.08,
		Nominal:    100,
	}}
}

func TestNewQuote_Call(t *testing.T) {
	call := products.VanillaCall{OptionSpec: products.OptionSpec{Strike: 100, Market: testMarket}}

	q, err := NewQuote(call, pricedAt)
	require.NoError(t, err)

	want, err := products.Price(call)
	require.NoError(t, err)

	_, err = uuid.Parse(q.ID)
	assert.NoError(t, err)
	assert.Equal(t, products.KindVanillaCall, q.Kind)
	assert.Equal(t, want, q.Price)
	assert.Equal(t, testMarket, q.Market)
	assert.Equal(t, pricedAt, q.PricedAt)
	assert.Nil(t, q.Breakdown)
}

func TestNewQuote_AutocallCarriesBreakdown(t *testing.T) {
	q, err := NewQuote(testAutocall(), pricedAt)
	require.NoError(t, err)
	require.NotNil(t, q.Breakdown)
	assert.Equal(t, q.Price, q.Breakdown.Total)
	assert.InDelta(t, 100.226256, q.Price, 1e-5)
}

func TestNewQuote_UniqueIDs(t *testing.T) {
	bond := products.ZeroCouponBond{Rate: 0.02, Maturity: 1}
	a, err := NewQuote(bond, pricedAt)
	require.NoError(t, err)
	b, err := NewQuote(bond, pricedAt)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestNewQuote_InvalidInput(t *testing.T) {
	put := products.VanillaPut{OptionSpec: products.OptionSpec{Strike: 100, Market: products.MarketParameters{Spot: 100, Volatility: 0, Maturity: 1}}}
	_, err := NewQuote(put, pricedAt)
	assert.ErrorIs(t, err, pricing.ErrInvalidInput)
}

func TestWriteJSON(t *testing.T) {
	dir := t.TempDir()
	q, err := NewQuote(testAutocall(), pricedAt)
	require.NoError(t, err)
	require.NoError(t, WriteJSON(q, dir))

	raw, err := os.ReadFile(filepath.Join(dir, "quote.json"))
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, q.ID, got["id"])
	assert.Equal(t, "simplified_autocall", got["instrument"])
	assert.Contains(t, got, "breakdown")
	terms, ok := got["terms"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 105.0, terms["strike_call"])
}

func TestWritePayoffCSV(t *testing.T) {
	dir := t.TempDir()
	points := products.PayoffProfile(testAutocall(), testMarket.Spot)
	require.NoError(t, WritePayoffCSV(points, dir))

	raw, err := os.ReadFile(filepath.Join(dir, "payoff.csv"))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, len(points)+1)
	assert.Equal(t, "S_T,payoff", lines[0])
	assert.Equal(t, "50,50", lines[1])
}

func TestRenderQuote(t *testing.T) {
	var buf bytes.Buffer
	q, err := NewQuote(testAutocall(), pricedAt)
	require.NoError(t, err)
	require.NoError(t, RenderQuote(&buf, q))

	out := buf.String()
	assert.Contains(t, out, "simplified_autocall")
	assert.Contains(t, out, fixed(q.Price))
	assert.Contains(t, out, "-"+fixed(q.Breakdown.ShortPut))
	assert.Contains(t, out, "minus a put struck at 80")
}

func TestRenderQuote_Bond(t *testing.T) {
	var buf bytes.Buffer
	q, err := NewQuote(products.ZeroCouponBond{Rate: 0.03, Maturity: 5}, pricedAt)
	require.NoError(t, err)
	require.NoError(t, RenderQuote(&buf, q))

	out := buf.String()
	assert.Contains(t, out, "0.860708")
	assert.Contains(t, out, "certain payment of 1")
	assert.NotContains(t, out, "Spot")
}

func TestRenderSnapshot(t *testing.T) {
	var buf bytes.Buffer
	RenderSnapshot(&buf, &data.MarketSnapshot{
		Ticker:               "AAPL",
		Spot:                 1234.5,
		AnnualizedVolatility: 0.2431,
		Observations:         253,
		From:                 pricedAt.AddDate(-1, 0, 0),
		AsOf:                 pricedAt,
		Source:               "synthetic",
	})

	out := buf.String()
	assert.Contains(t, out, "AAPL")
	assert.Contains(t, out, "1,234.50")
	assert.Contains(t, out, "24.31%")
	assert.Contains(t, out, "2025-03-14")
}

func TestRenderPayoff(t *testing.T) {
	var buf bytes.Buffer
	call := products.VanillaCall{OptionSpec: products.OptionSpec{Strike: 100, Market: testMarket}}
	RenderPayoff(&buf, products.PayoffProfile(call, 100))

	out := buf.String()
	assert.Contains(t, out, "250.00")
	assert.Contains(t, out, "150.0000")
}
