package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/infra/geoip"
	"server/internal/middleware"
	"server/internal/report"
	"server/internal/storage"
)

// App bundles everything the HTTP layer needs. Handlers go through the report
// service for anything that mutates pipeline state and through repositories
// for reads; raw SQL access stays available for aggregate queries.
type App struct {
	Config    *infra.Config
	Logger    zerolog.Logger
	SQL       infra.SQLExecutor
	Service   *report.Service
	Reports   domain.ReportRepository
	Users     domain.UserRepository
	Ledger    domain.TokenLedger
	Analytics domain.AnalyticsRepository
	Store     *storage.FileStore
	GeoIP     geoip.CountryResolver
	JWTSecret string
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (a *App) error(w http.ResponseWriter, code int, slug, message string) {
	a.json(w, code, errorResponse{Error: slug, Message: message})
}

func (a *App) currentUserID(r *http.Request) string {
	return middleware.UserIDFromContext(r.Context())
}

// clientCountry resolves the caller's ISO country code for request logs.
// Lookups are best effort and never block the request path.
func (a *App) clientCountry(r *http.Request) string {
	if a.GeoIP == nil {
		return ""
	}
	ip := r.Header.Get("X-Real-IP")
	if ip == "" {
		ip = r.RemoteAddr
	}
	code, err := a.GeoIP.CountryCode(ip)
	if err != nil {
		return ""
	}
	return code
}
