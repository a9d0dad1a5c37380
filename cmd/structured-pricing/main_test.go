package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contactkeval/structured-pricing/internal/data"
	"github.com/contactkeval/structured-pricing/internal/pricing"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("PRICING_DATA_SOURCE", "synthetic")

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"-v", "0"}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCall(t *testing.T) {
	out, err := run(t, "call", "--spot", "100", "--strike", "100")
	require.NoError(t, err)
	assert.Contains(t, out, "vanilla_call")
	assert.Contains(t, out, "8.9160")
	assert.Contains(t, out, "max(S_T - 100, 0)")
}

func TestPut_WithPayoffTable(t *testing.T) {
	out, err := run(t, "put", "--strike", "100", "--payoff")
	require.NoError(t, err)
	assert.Contains(t, out, "6.9357")
	assert.Contains(t, out, "50.0000")
}

func TestBond(t *testing.T) {
	out, err := run(t, "bond", "--rate", "0.03", "--maturity", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "0.860708")
}

func TestAutocall_WritesReports(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")

	out, err := run(t, "--out", dir, "autocall")
	require.NoError(t, err)
	assert.Contains(t, out, "100.2262")

	assert.FileExists(t, filepath.Join(dir, "quote.json"))
	assert.FileExists(t, filepath.Join(dir, "payoff.csv"))
}

func TestBond_SaveUsesReportDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	reports := filepath.Join(dir, "out")
	require.NoError(t, os.WriteFile(path, []byte("report_dir: "+reports+"\n"), 0644))

	_, err := run(t, "--config", path, "--save", "bond")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(reports, "quote.json"))
}

func TestCall_FromMarket(t *testing.T) {
	out, err := run(t, "call", "--from-market", "spy", "--lookback", "30")
	require.NoError(t, err)
	assert.Contains(t, out, "vanilla_call")
}

func TestSnapshot(t *testing.T) {
	out, err := run(t, "snapshot", "SPY", "--lookback", "20")
	require.NoError(t, err)
	assert.Contains(t, out, "SPY")
	assert.Contains(t, out, "synthetic")
}

func TestSnapshot_LookbackOutOfRange(t *testing.T) {
	_, err := run(t, "snapshot", "SPY", "--lookback", "100000")
	assert.ErrorIs(t, err, data.ErrInvalidLookback)

	_, err = run(t, "call", "--from-market", "SPY", "--lookback", "100000")
	assert.ErrorIs(t, err, data.ErrInvalidLookback)
}

func TestBars_FeedsCSVSource(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, "bars", "qqq", "--days", "30", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "QQQ")
	assert.FileExists(t, filepath.Join(dir, "QQQ.csv"))

	t.Setenv("PRICING_DATA_SOURCE", "csv")
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("data:\n  csv_dir: "+dir+"\n"), 0644))

	root := newRootCmd()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetArgs([]string{"-v", "0", "--config", cfgPath, "snapshot", "QQQ", "--lookback", "5"})
	require.NoError(t, root.ExecuteContext(context.Background()))
	assert.Contains(t, buf.String(), "csv")
}

func TestInvalidInput(t *testing.T) {
	_, err := run(t, "call", "--vol", "0")
	assert.ErrorIs(t, err, pricing.ErrInvalidInput)
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("instrument:\n  strike: 90\n"), 0644))

	out, err := run(t, "--config", path, "put")
	require.NoError(t, err)
	assert.Contains(t, out, "max(90 - S_T, 0)")

	_, err = run(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "put")
	assert.Error(t, err)
}
