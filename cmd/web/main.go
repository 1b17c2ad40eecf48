package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/receipts-web/internal/api/handlers"
	"github.com/dvloznov/receipts-web/internal/api/middleware"
	"github.com/dvloznov/receipts-web/internal/backend"
	"github.com/dvloznov/receipts-web/internal/broker"
	"github.com/dvloznov/receipts-web/internal/config"
	"github.com/dvloznov/receipts-web/internal/logger"
	"github.com/gorilla/mux"
)

func main() {
	config.LoadDotEnv()
	cfg := config.LoadWeb()

	addr := flag.String("addr", cfg.Addr, "HTTP listen address (or set WEB_ADDR env)")
	flag.Parse()

	log := logger.NewWithLevel(cfg.LogLevel)
	ctx := context.Background()

	// Signing is optional: without credentials the broker answers 503.
	var store broker.Storage
	creds, err := broker.ResolveCredentials(os.Getenv)
	if err != nil {
		log.Warn().Err(err).Msg("No upload signing credentials - uploads will be disabled")
	} else {
		gcs, err := broker.NewGCSStorage(ctx, creds)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create storage client")
		}
		defer gcs.Close()
		store = gcs
		log.Info().Str("bucket", creds.Bucket).Msg("Upload signing configured")
	}

	brokerHandler := broker.NewHandler(store, broker.Options{
		KeyPrefix:      cfg.KeyPrefix,
		URLExpiry:      cfg.URLExpiry,
		MaxUploadBytes: cfg.MaxUploadBytes,
	}, log)
	sessionHandler := handlers.NewSessionHandler(backend.New(cfg.APIBaseURL, 30*time.Second, nil), cfg.SessionCookie, log)

	router := newRouter(brokerHandler, sessionHandler, cfg.StaticDir)

	// Apply middleware
	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(
					middleware.SessionGate(cfg.SessionCookie)(router),
				),
			),
		),
	)

	server := &http.Server{
		Addr:         *addr,
		Handler:      handler,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", *addr).Msg("Starting web server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// newRouter wires the HTTP routes. Static pages are served only when staticDir is set.
func newRouter(b *broker.Handler, s *handlers.SessionHandler, staticDir string) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/upload-url", b.CreateUploadURL).Methods(http.MethodPost)
	r.HandleFunc("/api/upload", b.Upload).Methods(http.MethodPost)
	r.HandleFunc("/api/images/{key:.+}/url", func(w http.ResponseWriter, req *http.Request) {
		b.ImageURL(w, req, mux.Vars(req)["key"])
	}).Methods(http.MethodGet)

	r.HandleFunc("/api/session", s.Login).Methods(http.MethodPost)
	r.HandleFunc("/api/session", s.Logout).Methods(http.MethodDelete)

	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	}).Methods(http.MethodGet)

	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	if staticDir != "" {
		r.PathPrefix("/").Handler(pages(staticDir)).Methods(http.MethodGet, http.MethodHead)
	}
	return r
}

// pages serves files from dir. Paths without a file fall back to the nearest
// enclosing page, so /dashboard/receipts/7 is served by dashboard/receipts.html
// or dashboard.html.
func pages(dir string) http.Handler {
	fs := http.Dir(dir)
	files := http.FileServer(fs)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p := resolvePage(fs, r.URL.Path); p != r.URL.Path {
			r2 := r.Clone(r.Context())
			r2.URL.Path = p
			files.ServeHTTP(w, r2)
			return
		}
		files.ServeHTTP(w, r)
	})
}

func resolvePage(fs http.FileSystem, p string) string {
	if p == "/" {
		return p
	}
	if exists(fs, p) {
		return p
	}
	for candidate := p; candidate != "/" && candidate != "."; candidate = parent(candidate) {
		if exists(fs, candidate+".html") {
			return candidate + ".html"
		}
	}
	return p
}

func exists(fs http.FileSystem, name string) bool {
	f, err := fs.Open(name)
	if err != nil {
		return false
	}
	f.Close()
	return true
}

func parent(p string) string {
	for i := len(p) - 1; i > 0; i-- {
		if p[i] == '/' {
			return p[:i]
		}
	}
	return "/"
}
