package data

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMassive(srv *httptest.Server) *massiveDataProvider {
	return &massiveDataProvider{
		APIKey:  "test",
		Client:  srv.Client(),
		BaseURL: srv.URL,
	}
}

func TestMassiveProvider_GetDailyBars_HTTPError(t *testing.T) {
	// fake server returning 500
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"message":"internal error"}`))
	}))
	defer srv.Close()

	fromDate := time.Now().AddDate(0, 0, -5)
	toDate := time.Now()

	_, err := testMassive(srv).GetDailyBars(context.Background(), "AAPL", fromDate, toDate)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "internal error")
}

func TestMassiveProvider_Pagination(t *testing.T) {
	var callCount int32

	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test", r.Header.Get("Authorization"))

		if atomic.AddInt32(&callCount, 1) == 1 {
			assert.Equal(t, "/v2/aggs/ticker/AAPL/range/1/day/2025-01-01/2025-01-05", r.URL.Path)
			w.Write([]byte(`{
				"results": [
					{"t": 1735689600000, "o":1,"h":1,"l":1,"c":1,"v":100}
				],
				"next_url": "` + srv.URL + `/page2"
			}`))
			return
		}

		assert.Equal(t, "/page2", r.URL.Path)
		w.Write([]byte(`{
				"results": [
					{"t": 1735776000000, "o":2,"h":2,"l":2,"c":2,"v":100}
				]
			}`))
	}))
	defer srv.Close()

	fromDate := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	toDate := time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)

	bars, err := testMassive(srv).GetDailyBars(context.Background(), "AAPL", fromDate, toDate)
	require.NoError(t, err)
	require.Len(t, bars, 2)

	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), bars[0].Date)
	assert.Equal(t, 2.0, bars[1].Close)
	assert.Equal(t, int32(2), atomic.LoadInt32(&callCount))
}

func TestMassiveProvider_EscapesTicker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/aggs/ticker/BRK?X#Y/range/1/day/2025-01-01/2025-01-05", r.URL.Path)
		assert.Equal(t, "50000", r.URL.Query().Get("limit"))
		w.Write([]byte(`{"results":[{"t": 1735689600000, "o":1,"h":1,"l":1,"c":1,"v":1}]}`))
	}))
	defer srv.Close()

	fromDate := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	toDate := time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)

	bars, err := testMassive(srv).GetDailyBars(context.Background(), "BRK?X#Y", fromDate, toDate)
	require.NoError(t, err)
	assert.Len(t, bars, 1)
}

func TestMassiveProvider_RateLimitRetry(t *testing.T) {
	var callCount int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&callCount, 1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"results":[{"t": 1735689600000, "o":1,"h":1,"l":1,"c":5,"v":1}]}`))
	}))
	defer srv.Close()

	bars, err := testMassive(srv).GetDailyBars(context.Background(), "AAPL", time.Now().AddDate(0, 0, -1), time.Now())
	require.NoError(t, err)
	require.Len(t, bars, 1)
	assert.Equal(t, 5.0, bars[0].Close)
	assert.Equal(t, int32(2), atomic.LoadInt32(&callCount))
}

func TestMassiveProvider_RateLimitCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := testMassive(srv).GetDailyBars(ctx, "AAPL", time.Now().AddDate(0, 0, -1), time.Now())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMassiveProvider_MissingKey(t *testing.T) {
	_, err := NewMassiveDataProvider("", nil).GetDailyBars(context.Background(), "AAPL", time.Now(), time.Now())
	assert.Error(t, err)
}

func TestRetryAfter(t *testing.T) {
	now := time.Date(2025, 1, 1, 10, 15, 40, 0, time.UTC)

	resp := &http.Response{Header: http.Header{}}
	assert.Equal(t, 20*time.Second, retryAfter(resp, now))

	resp.Header.Set("Retry-After", "3")
	assert.Equal(t, 3*time.Second, retryAfter(resp, now))
}
