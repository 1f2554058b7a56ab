package api

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/erazemk/inventario/internal/ledger"
	"github.com/erazemk/inventario/internal/scanner"
)

// Login attempts allowed per client and minute.
const loginRatePerMinute = 10

// Config holds the router dependencies.
type Config struct {
	DB        *sql.DB
	JWTSecret string
	Ledger    *ledger.Ledger
	// Scanner may be nil when no recognition service is configured.
	Scanner *scanner.Scanner
	// Gatherer serves /metrics when set.
	Gatherer prometheus.Gatherer
	Now      func() time.Time
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(cfg Config) http.Handler {
	mux := http.NewServeMux()

	validate := validator.New(validator.WithRequiredStructEnabled())
	authHandler := &AuthHandler{DB: cfg.DB, JWTSecret: cfg.JWTSecret, Validate: validate}
	itemsHandler := &ItemsHandler{Ledger: cfg.Ledger}
	scanHandler := &ScanHandler{Scanner: cfg.Scanner}
	reportHandler := &ReportHandler{Ledger: cfg.Ledger, Now: cfg.Now}

	authMW := AuthMiddleware(cfg.JWTSecret)
	loginLimit := RateLimit(loginRatePerMinute, 5)

	// Public: login.
	mux.Handle("POST /api/auth/login", loginLimit(http.HandlerFunc(authHandler.Login)))

	// Authenticated routes.
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))

	mux.Handle("GET /api/items", authMW(http.HandlerFunc(itemsHandler.List)))
	mux.Handle("POST /api/items", authMW(http.HandlerFunc(itemsHandler.Create)))
	mux.Handle("POST /api/items/decommission", authMW(http.HandlerFunc(itemsHandler.DecommissionBySerial)))
	mux.Handle("GET /api/items/serial/{serial}", authMW(http.HandlerFunc(itemsHandler.GetBySerial)))
	mux.Handle("POST /api/items/{id}/adjust", authMW(http.HandlerFunc(itemsHandler.Adjust)))
	mux.Handle("DELETE /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Decommission)))
	mux.Handle("GET /api/transactions", authMW(http.HandlerFunc(itemsHandler.Transactions)))

	mux.Handle("POST /api/scan", authMW(http.HandlerFunc(scanHandler.Scan)))
	mux.Handle("GET /api/report", authMW(http.HandlerFunc(reportHandler.Stock)))

	if cfg.Gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	return mux
}
