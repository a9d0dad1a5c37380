// Package config loads runtime settings from a YAML file, a .env file and
// environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/contactkeval/structured-pricing/internal/data"
	"github.com/contactkeval/structured-pricing/internal/products"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

const (
	defaultTicker       = "AAPL"
	defaultLookbackDays = 252
	defaultServerAddr   = ":8080"
	defaultReportDir    = "reports"
	defaultVerbosity    = 1
)

// Config keeps the runtime configuration.
type Config struct {
	Market     products.MarketParameters `yaml:"market"`
	Instrument InstrumentDefaults        `yaml:"instrument"`
	Data       DataConfig                `yaml:"data"`
	Server     ServerConfig              `yaml:"server"`
	ReportDir  string                    `yaml:"report_dir"`
	Verbosity  int                       `yaml:"verbosity"`
	JSONLogs   bool                      `yaml:"json_logs"`
}

// InstrumentDefaults seed the per-instrument CLI flags.
type InstrumentDefaults struct {
	Strike     float64 `yaml:"strike"`
	StrikeCall float64 `yaml:"strike_call"`
	StrikePut  float64 `yaml:"strike_put"`
	CouponRate float64 `yaml:"coupon_rate"`
	Nominal    float64 `yaml:"nominal"`
}

// DataConfig selects and configures the market data providers.
type DataConfig struct {
	Source        string `yaml:"source"`
	Fallback      string `yaml:"fallback"`
	Ticker        string `yaml:"ticker"`
	LookbackDays  int    `yaml:"lookback_days"`
	CSVDir        string `yaml:"csv_dir"`
	Seed          int64  `yaml:"seed"`
	MassiveAPIKey string `yaml:"-"`
	PolygonAPIKey string `yaml:"-"`
}

// ServerConfig holds HTTP server related settings.
type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Market: products.MarketParameters{Spot: 100, Rate: 0.02, Volatility: 0.20, Maturity: 1.0},
		Instrument: InstrumentDefaults{
			Strike:     100,
			StrikeCall: 105,
			StrikePut:  80,
			CouponRate: 0.08,
			Nominal:    100,
		},
		Data: DataConfig{
			Source:       data.SourceSynthetic,
			Ticker:       defaultTicker,
			LookbackDays: defaultLookbackDays,
			CSVDir:       "data",
		},
		Server: ServerConfig{
			Addr:           defaultServerAddr,
			AllowedOrigins: []string{"*"},
		},
		ReportDir: defaultReportDir,
		Verbosity: defaultVerbosity,
	}
}

// Load builds Config from defaults, the YAML file at path (skipped when empty),
// a .env file in the working directory if present, and the environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Data.MassiveAPIKey = getString("MASSIVE_API_KEY", c.Data.MassiveAPIKey)
	c.Data.PolygonAPIKey = getString("POLYGON_API_KEY", c.Data.PolygonAPIKey)
	c.Data.Source = getString("PRICING_DATA_SOURCE", c.Data.Source)
	c.Server.Addr = getString("PRICING_SERVER_ADDR", c.Server.Addr)

	v, err := getInt("PRICING_VERBOSITY", c.Verbosity)
	if err != nil {
		return err
	}
	c.Verbosity = v
	return nil
}

// Validate checks the settings that cannot be corrected at use time.
func (c *Config) Validate() error {
	if !knownSource(c.Data.Source) {
		return fmt.Errorf("%w: data.source %q, expected one of %s", ErrInvalidConfig, c.Data.Source, strings.Join(data.Sources(), ", "))
	}
	if c.Data.Fallback != "" && !knownSource(c.Data.Fallback) {
		return fmt.Errorf("%w: data.fallback %q", ErrInvalidConfig, c.Data.Fallback)
	}
	if err := data.ValidateLookback(c.Data.LookbackDays); err != nil {
		return fmt.Errorf("%w: data.lookback_days: %w", ErrInvalidConfig, err)
	}
	if err := c.Market.Validate(); err != nil {
		return fmt.Errorf("%w: market: %v", ErrInvalidConfig, err)
	}
	return nil
}

// ProviderOptions maps the data settings onto data.ProviderOptions.
func (d DataConfig) ProviderOptions(secondary data.Provider) data.ProviderOptions {
	return data.ProviderOptions{
		MassiveAPIKey: d.MassiveAPIKey,
		PolygonAPIKey: d.PolygonAPIKey,
		CSVDir:        d.CSVDir,
		Seed:          d.Seed,
		Secondary:     secondary,
	}
}

// NewProvider builds the configured provider, chained to the fallback when set.
func (d DataConfig) NewProvider() (data.Provider, error) {
	var secondary data.Provider
	if d.Fallback != "" && !strings.EqualFold(d.Fallback, d.Source) {
		p, err := data.NewProvider(d.Fallback, d.ProviderOptions(nil))
		if err != nil {
			return nil, err
		}
		secondary = p
	}
	return data.NewProvider(d.Source, d.ProviderOptions(secondary))
}

func knownSource(s string) bool {
	for _, known := range data.Sources() {
		if strings.EqualFold(s, known) {
			return true
		}
	}
	return false
}

func getString(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer: %v", ErrInvalidConfig, key, err)
	}
	return parsed, nil
}
