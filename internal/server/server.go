// Package server exposes the pricer over a small JSON HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/contactkeval/structured-pricing/internal/data"
	"github.com/contactkeval/structured-pricing/internal/logger"
	"github.com/contactkeval/structured-pricing/internal/pricing"
	"github.com/contactkeval/structured-pricing/internal/products"
	"github.com/contactkeval/structured-pricing/internal/report"
)

const (
	requestIDHeader = "X-Request-ID"
	defaultLookback = 252
	maxBodyBytes    = 1 << 20
)

// PriceRequest is the body accepted by the price and payoff endpoints.
// Fields a given instrument does not use are ignored.
type PriceRequest struct {
	Instrument string                    `json:"instrument"`
	Market     products.MarketParameters `json:"market"`
	Strike     float64                   `json:"strike"`
	StrikeCall float64                   `json:"strike_call"`
	StrikePut  float64                   `json:"strike_put"`
	CouponRate float64                   `json:"coupon_rate"`
	Nominal    float64                   `json:"nominal"`
}

// ToInstrument maps the request onto its instrument variant.
func (r PriceRequest) ToInstrument() (products.Instrument, error) {
	kind, err := products.ParseKind(r.Instrument)
	if err != nil {
		return nil, err
	}
	switch kind {
	case products.KindZeroCouponBond:
		return products.ZeroCouponBond{Rate: r.Market.Rate, Maturity: r.Market.Maturity}, nil
	case products.KindVanillaCall:
		return products.VanillaCall{OptionSpec: products.OptionSpec{Strike: r.Strike, Market: r.Market}}, nil
	case products.KindVanillaPut:
		return products.VanillaPut{OptionSpec: products.OptionSpec{Strike: r.Strike, Market: r.Market}}, nil
	case products.KindSimplifiedAutocall:
		return products.SimplifiedAutocall{AutocallSpec: products.AutocallSpec{
			Market:     r.Market,
			StrikeCall: r.StrikeCall,
			StrikePut:  r.StrikePut,
			CouponRate: r.CouponRate,
			Nominal:    r.Nominal,
		}}, nil
	}
	return nil, fmt.Errorf("%w: %q", products.ErrUnknownInstrument, r.Instrument)
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Server handles the REST API.
type Server struct {
	router         *mux.Router
	provider       data.Provider
	allowedOrigins []string
	now            func() time.Time
}

// New creates a server. provider backs the snapshot endpoint and may be nil,
// in which case snapshots answer 502.
func New(provider data.Provider, allowedOrigins []string) *Server {
	s := &Server{
		router:         mux.NewRouter(),
		provider:       provider,
		allowedOrigins: allowedOrigins,
		now:            time.Now,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(requestID, logRequests)

	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/price", s.handlePrice).Methods(http.MethodPost)
	api.HandleFunc("/payoff", s.handlePayoff).Methods(http.MethodPost)
	api.HandleFunc("/snapshot/{ticker}", s.handleSnapshot).Methods(http.MethodGet)

	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
}

// Handler returns the router wrapped with CORS.
func (s *Server) Handler() http.Handler {
	origins := s.allowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
	})
	return c.Handler(s.router)
}

// Start serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("starting REST server on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Infof("shutting down REST server")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) handlePrice(w http.ResponseWriter, r *http.Request) {
	_, inst, ok := decodeRequest(w, r)
	if !ok {
		return
	}
	q, err := report.NewQuote(inst, s.now())
	if err != nil {
		respondError(w, statusFor(err), err)
		return
	}
	respondJSON(w, http.StatusOK, q)
}

func (s *Server) handlePayoff(w http.ResponseWriter, r *http.Request) {
	req, inst, ok := decodeRequest(w, r)
	if !ok {
		return
	}
	if err := inst.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	// the bond has no spot of its own; every sweep centres on the request spot
	if req.Market.Spot <= 0 {
		respondError(w, http.StatusBadRequest, fmt.Errorf("%w: payoff profile needs spot > 0", pricing.ErrInvalidInput))
		return
	}
	respondJSON(w, http.StatusOK, products.PayoffProfile(inst, req.Market.Spot))
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	ticker := strings.ToUpper(mux.Vars(r)["ticker"])

	lookback := defaultLookback
	if raw := r.URL.Query().Get("lookback"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, fmt.Errorf("%w: lookback must be an integer, got %q", data.ErrInvalidLookback, raw))
			return
		}
		if err := data.ValidateLookback(n); err != nil {
			respondError(w, http.StatusBadRequest, err)
			return
		}
		lookback = n
	}

	snap, err := data.FetchMarketSnapshot(r.Context(), s.provider, ticker, lookback, s.now())
	if err != nil {
		logger.Warnf("snapshot %s failed: %v", ticker, err)
		respondError(w, snapshotStatus(err), err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

func decodeRequest(w http.ResponseWriter, r *http.Request) (PriceRequest, products.Instrument, bool) {
	var req PriceRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return req, nil, false
	}
	inst, err := req.ToInstrument()
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return req, nil, false
	}
	return req, inst, true
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, pricing.ErrInvalidInput),
		errors.Is(err, products.ErrUnknownInstrument),
		errors.Is(err, data.ErrInvalidLookback):
		return http.StatusBadRequest
	case errors.Is(err, data.ErrInsufficientHistory):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// snapshotStatus is statusFor with unclassified errors blamed on the provider.
func snapshotStatus(err error) int {
	if code := statusFor(err); code != http.StatusInternalServerError {
		return code
	}
	return http.StatusBadGateway
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, err error) {
	respondJSON(w, status, ErrorResponse{Error: err.Error()})
}

// requestID echoes the caller's X-Request-ID or assigns a new one.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
			r.Header.Set(requestIDHeader, id)
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.WithFields(map[string]interface{}{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     rec.status,
			"request_id": r.Header.Get(requestIDHeader),
			"duration":   time.Since(start).String(),
		}).Debug("request served")
	})
}
