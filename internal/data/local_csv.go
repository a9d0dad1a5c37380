package data

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/contactkeval/structured-pricing/internal/logger"
)

// csvBar is one row of a {TICKER}.csv history file.
type csvBar struct {
	Date   string  `csv:"date"`
	Open   float64 `csv:"open"`
	High   float64 `csv:"high"`
	Low    float64 `csv:"low"`
	Close  float64 `csv:"close"`
	Volume float64 `csv:"volume"`
}

// localCSVDataProvider implements Data Provider from local CSV files.
type localCSVDataProvider struct {
	dir       string
	secondary Provider
}

// NewLocalCSVDataProvider convenience constructor.
func NewLocalCSVDataProvider(dir string, secondary Provider) *localCSVDataProvider {
	return &localCSVDataProvider{dir: dir, secondary: secondary}
}

func (localCSVDataProv *localCSVDataProvider) Name() string { return SourceCSV }

func (localCSVDataProv *localCSVDataProvider) Secondary() Provider {
	return localCSVDataProv.secondary
}

// GetDailyBars reads {dir}/{TICKER}.csv and keeps the rows dated within
// [fromDate, toDate]. Dates are YYYY-MM-DD.
func (localCSVDataProv *localCSVDataProvider) GetDailyBars(ctx context.Context, ticker string, fromDate, toDate time.Time) ([]Bar, error) {
	path := filepath.Join(localCSVDataProv.dir, strings.ToUpper(ticker)+".csv")
	logger.Debugf("reading local bars from %s", path)

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bars file: %w", err)
	}
	defer f.Close()

	var rows []csvBar
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("read csv %s: %w", path, err)
	}

	from := truncateDay(fromDate)
	to := truncateDay(toDate)

	out := make([]Bar, 0, len(rows))
	for i, row := range rows {
		d, err := time.Parse(dateLayout, strings.TrimSpace(row.Date))
		if err != nil {
			return nil, fmt.Errorf("%s row %d: bad date %q: %w", path, i+2, row.Date, err)
		}
		if !inRange(d, from, to) {
			continue
		}
		out = append(out, Bar{Date: d, Open: row.Open, High: row.High, Low: row.Low, Close: row.Close, Volume: row.Volume})
	}

	return out, nil
}

// WriteBarsCSV stores bars in the layout GetDailyBars reads back.
func WriteBarsCSV(dir, ticker string, bars []Bar) error {
	rows := make([]csvBar, 0, len(bars))
	for _, b := range bars {
		rows = append(rows, csvBar{Date: b.Date.Format(dateLayout), Open: b.Open, High: b.High, Low: b.Low, Close: b.Close, Volume: b.Volume})
	}

	f, err := os.Create(filepath.Join(dir, strings.ToUpper(ticker)+".csv"))
	if err != nil {
		return err
	}
	defer f.Close()

	return gocsv.MarshalFile(&rows, f)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
