package http

import (
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	applog "ops/internal/log"
	"ops/internal/middleware/security"
	"ops/internal/middleware/trace"
	appweb "ops/web"
)

// Server serves the browse pages and the admin JSON API.
type Server struct {
	http.Server
	ledger    Ledger
	templates *template.Template
	logger    *applog.Logger
	events    *applog.StructuredLogger
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
// A nil logger logs through slog.Default.
func NewServer(addr string, ledger Ledger, logger *applog.Logger) *Server {
	if logger == nil {
		logger = applog.New(applog.Config{
			Component: applog.ComponentHTTP,
			Handler:   slog.Default().Handler(),
		})
	}

	mux := http.NewServeMux()
	s := &Server{
		ledger: ledger,
		logger: logger,
		events: applog.NewStructuredLogger(logger),
	}

	// Parse embedded templates at startup.
	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /cans", s.handleCANList)
	mux.HandleFunc("GET /cans/{id}", s.handleCANDetail)

	s.mountAdmin(mux)

	mux.HandleFunc("GET /api/cans/{id}/fiscal-years/{fy}", s.handleInfoForFiscalYear)
	mux.HandleFunc("GET /api/cans/{id}/fiscal-years/{fy}/contracts", s.handleContractsForFiscalYear)
	mux.HandleFunc("GET /api/contracts/{id}/research-areas", s.handleResearchAreas)
	mux.HandleFunc("GET /api/contracts/{id}/contributions", s.handleContribution)
	mux.HandleFunc("GET /api/contracts/{id}/line-items", s.handleLineItemsForFY)

	var handler http.Handler = mux
	handler = applog.RequestIDMiddleware(trace.RequestID)(handler)
	handler = applog.Middleware(logger)(handler)
	handler = trace.NewMiddleware(nil).Middleware(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16, // 64KB
	}
	return s
}
