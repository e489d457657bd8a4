package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/cbodonnell/cabinet/pkg/api/handlers"
	"github.com/cbodonnell/cabinet/pkg/api/middleware"
	"github.com/cbodonnell/cabinet/pkg/log"
	"github.com/gorilla/mux"
)

type APIServer struct {
	server *http.Server
	tls    *TLSConfig
}

type TLSConfig struct {
	CertFile string
	KeyFile  string
}

type NewAPIServerOptions struct {
	Port    int
	TLS     *TLSConfig
	Cabinet handlers.Cabinet
}

// NewAPIServer creates a new http.Server for the operator API
func NewAPIServer(opts NewAPIServerOptions) *APIServer {
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", opts.Port),
		Handler: NewRouter(opts.Cabinet),
	}
	return &APIServer{
		server: server,
		tls:    opts.TLS,
	}
}

// NewRouter routes the operator API to cabinet.
func NewRouter(cabinet handlers.Cabinet) http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.NewLoggingMiddleware(), middleware.NewCORSMiddleware())

	r.HandleFunc("/state", handlers.HandleGetState(cabinet)).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/scores", handlers.HandleListScores(cabinet)).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/name", handlers.HandleSubmitName(cabinet)).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/name/input", handlers.HandleTypeName(cabinet)).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/device", handlers.HandleRequestDevice(cabinet)).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)
	return r
}

// Start starts the APIServer
func (s *APIServer) Start() {
	var listenAndServe func() error
	if s.tls != nil {
		log.Info("API server listening on %s with TLS", s.server.Addr)
		listenAndServe = func() error {
			return s.server.ListenAndServeTLS(s.tls.CertFile, s.tls.KeyFile)
		}
	} else {
		log.Info("API server listening on %s", s.server.Addr)
		listenAndServe = s.server.ListenAndServe
	}
	if err := listenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			log.Info("API server closed")
			return
		}
		log.Error("API server error: %v", err)
	}
}

// Stop stops the APIServer
func (s *APIServer) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
