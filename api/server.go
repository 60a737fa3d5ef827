// Package api provides the HTTP REST API server for Money-Mitra.
//
// It exposes endpoints for report generation, quotes, watchlist
// management, news, and provider introspection.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/moneymitra/moneymitra/internal/config"
	"github.com/moneymitra/moneymitra/internal/news"
	"github.com/moneymitra/moneymitra/internal/normalize"
	"github.com/moneymitra/moneymitra/internal/provider"
	"github.com/moneymitra/moneymitra/internal/report"
	"github.com/moneymitra/moneymitra/internal/watchlist"
	"github.com/moneymitra/moneymitra/pkg/models"
	"github.com/moneymitra/moneymitra/pkg/utils"
)

// Server is the HTTP API server.
type Server struct {
	router    chi.Router
	cfg       *config.Config
	registry  *provider.Registry
	builder   *report.Builder
	news      *news.Service
	watchlist watchlist.Store
}

// NewServer creates a configured API server with all routes and middleware.
func NewServer(cfg *config.Config, registry *provider.Registry, builder *report.Builder, newsSvc *news.Service, wl watchlist.Store) *Server {
	srv := &Server{
		cfg:       cfg,
		registry:  registry,
		builder:   builder,
		news:      newsSvc,
		watchlist: wl,
	}
	srv.router = srv.buildRouter()
	return srv
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe starts the HTTP server with graceful shutdown.
func (s *Server) ListenAndServe(addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	return httpSrv.Shutdown(ctx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if !s.cfg.Logging.Quiet() {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Get("/report/{ticker}", s.handleReport)
		r.Get("/quote/{ticker}", s.handleQuote)
		r.Get("/historical/{ticker}", s.handleHistorical)

		r.Get("/news", s.handleMarketNews)
		r.Get("/news/{ticker}", s.handleCompanyNews)

		r.Get("/watchlist", s.handleWatchlistList)
		r.Post("/watchlist", s.handleWatchlistAdd)
		r.Delete("/watchlist/{ticker}", s.handleWatchlistRemove)

		r.Get("/providers", s.handleProviders)
		r.Get("/config/keys", s.handleConfigKeys)
	})

	return r
}

// ============================================================
// Request / Response types
// ============================================================

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// WatchlistAddRequest is the body for POST /api/v1/watchlist.
type WatchlistAddRequest struct {
	Ticker string `json:"ticker"`
	Note   string `json:"note,omitempty"`
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"status":        "ok",
			"version":       "dev",
			"market_status": utils.MarketStatus(),
			"time_ist":      utils.NowIST().Format("2006-01-02 15:04:05 MST"),
		},
	})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")
	if ticker == "" {
		writeError(w, http.StatusBadRequest, "ticker is required")
		return
	}
	ticker = utils.NormalizeTicker(ticker)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	doc, err := s.builder.Build(ctx, ticker)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    doc,
	})
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")
	if ticker == "" {
		writeError(w, http.StatusBadRequest, "ticker is required")
		return
	}
	ticker = utils.NormalizeTicker(ticker)

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	rec, err := s.fetchCanonical(ctx, provider.KindQuote, provider.QueryParams{
		provider.ParamTicker: ticker,
	})
	if err != nil {
		writeFetchError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    rec.Quote,
	})
}

func (s *Server) handleHistorical(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")
	if ticker == "" {
		writeError(w, http.StatusBadRequest, "ticker is required")
		return
	}
	ticker = utils.NormalizeTicker(ticker)

	params := provider.QueryParams{provider.ParamTicker: ticker}
	if from := r.URL.Query().Get("from"); from != "" {
		params[provider.ParamStartDate] = from
	}
	if to := r.URL.Query().Get("to"); to != "" {
		params[provider.ParamEndDate] = to
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	rec, err := s.fetchCanonical(ctx, provider.KindHistorical, params)
	if err != nil {
		writeFetchError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    rec.Historical,
	})
}

func (s *Server) handleMarketNews(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	articles, err := s.news.MarketNews(ctx, s.cfg.News.Limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    articles,
	})
}

func (s *Server) handleCompanyNews(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")
	if ticker == "" {
		writeError(w, http.StatusBadRequest, "ticker is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	articles, err := s.news.CompanyNews(ctx, ticker, s.cfg.News.Limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    articles,
	})
}

// ============================================================
// Watchlist handlers
// ============================================================

func (s *Server) handleWatchlistList(w http.ResponseWriter, r *http.Request) {
	entries, err := s.watchlist.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    entries,
	})
}

func (s *Server) handleWatchlistAdd(w http.ResponseWriter, r *http.Request) {
	var req WatchlistAddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Ticker == "" {
		writeError(w, http.StatusBadRequest, "ticker is required")
		return
	}

	ticker := utils.NormalizeTicker(req.Ticker)
	added, err := s.watchlist.Add(r.Context(), models.WatchlistEntry{
		Ticker: ticker,
		Note:   req.Note,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	status := http.StatusOK // already on the list
	if added {
		status = http.StatusCreated
	}
	writeJSON(w, status, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"ticker": ticker,
			"added":  added,
		},
	})
}

func (s *Server) handleWatchlistRemove(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")
	if ticker == "" {
		writeError(w, http.StatusBadRequest, "ticker is required")
		return
	}

	ticker = utils.NormalizeTicker(ticker)
	if err := s.watchlist.Remove(r.Context(), ticker); err != nil {
		if errors.Is(err, watchlist.ErrNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    map[string]string{"removed": ticker},
	})
}

// ============================================================
// Introspection handlers
// ============================================================

func (s *Server) handleProviders(w http.ResponseWriter, r *http.Request) {
	data := map[string]interface{}{
		"order":     s.registry.Order(),
		"providers": s.registry.List(),
		"kinds":     s.registry.Kinds(),
	}

	// ?ping=true adds a live reachability check per provider.
	if r.URL.Query().Get("ping") == "true" {
		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()
		data["ping"] = s.pingProviders(ctx)
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
	})
}

// pingProviders checks every registered provider's reachability.
func (s *Server) pingProviders(ctx context.Context) map[string]string {
	statuses := make(map[string]string)
	for _, name := range s.registry.Order() {
		p, err := s.registry.Get(name)
		if err != nil {
			continue
		}
		if err := p.Ping(ctx); err != nil {
			statuses[name] = err.Error()
		} else {
			statuses[name] = "ok"
		}
	}
	return statuses
}

func (s *Server) handleConfigKeys(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    config.CheckAPIKeys(s.cfg),
	})
}

// ============================================================
// Helpers
// ============================================================

// fetchCanonical routes one fetch through the registry and normalizes
// the payload.
func (s *Server) fetchCanonical(ctx context.Context, kind provider.DataKind, params provider.QueryParams) (*models.CanonicalRecord, error) {
	payload, err := s.registry.Fetch(ctx, kind, params)
	if err != nil {
		return nil, err
	}
	return normalize.Record(payload)
}

// writeFetchError maps the provider error taxonomy onto HTTP statuses.
func writeFetchError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, provider.ErrSymbolNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, provider.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, provider.ErrProviderUnavailable):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to write JSON response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}
