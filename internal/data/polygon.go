package data

import (
	"context"
	"fmt"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"

	"github.com/contactkeval/structured-pricing/internal/logger"
)

// aggIterator is the part of the SDK's aggregates iterator the provider uses.
type aggIterator interface {
	Next() bool
	Item() models.Agg
	Err() error
}

// polygonDataProvider implements Data Provider using the Polygon.io SDK.
type polygonDataProvider struct {
	listAggs  func(ctx context.Context, params *models.ListAggsParams) aggIterator
	secondary Provider
}

func NewPolygonDataProvider(apiKey string, secondary Provider) Provider {
	client := polygon.New(apiKey)
	return &polygonDataProvider{
		listAggs: func(ctx context.Context, params *models.ListAggsParams) aggIterator {
			return client.ListAggs(ctx, params)
		},
		secondary: secondary,
	}
}

func (polygonDataProv *polygonDataProvider) Name() string { return SourcePolygon }

func (polygonDataProv *polygonDataProvider) Secondary() Provider {
	return polygonDataProv.secondary
}

func (polygonDataProv *polygonDataProvider) GetDailyBars(ctx context.Context, ticker string, fromDate, toDate time.Time) ([]Bar, error) {
	logger.Debugf("fetching polygon daily bars for %s", ticker)

	params := models.ListAggsParams{
		Ticker:     ticker,
		Multiplier: 1,
		Timespan:   models.Day,
		From:       models.Millis(fromDate),
		To:         models.Millis(toDate),
	}.WithOrder(models.Asc).WithAdjusted(true)

	iter := polygonDataProv.listAggs(ctx, params)

	var out []Bar
	for iter.Next() {
		agg := iter.Item()
		out = append(out, Bar{
			Date:   time.Time(agg.Timestamp).UTC(),
			Open:   agg.Open,
			High:   agg.High,
			Low:    agg.Low,
			Close:  agg.Close,
			Volume: agg.Volume,
		})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("polygon aggregates for %s: %w", ticker, err)
	}

	logger.Tracef("polygon bars received: %d records", len(out))
	return out, nil
}
