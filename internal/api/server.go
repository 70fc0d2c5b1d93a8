// Package api serves the signal normalizer and order submitter over HTTP.
package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-signals/internal/logger"
	"github.com/rxtech-lab/argo-signals/internal/metrics"
	"github.com/rxtech-lab/argo-signals/internal/signalfeed"
	"github.com/rxtech-lab/argo-signals/internal/trading"
)

// Options wires the server's collaborators.
type Options struct {
	Normalizer     *signalfeed.Normalizer
	Submitter      trading.OrderSubmitter
	Instruments    []string
	DefaultVolume  decimal.Decimal
	MinVolume      decimal.Decimal
	MaxVolume      decimal.Decimal
	MaxUploadBytes int64
	Logger         *logger.Logger
}

// Server is the HTTP adapter in front of the pipeline.
type Server struct {
	options    Options
	router     *mux.Router
	log        *logger.Logger
	httpServer *http.Server
	listener   net.Listener
}

// NewServer creates a server and registers its routes.
func NewServer(options Options) *Server {
	s := &Server{
		options: options,
		router:  mux.NewRouter(),
		log:     options.Logger.Named("api"),
	}

	s.router.Use(s.requestLogger)
	s.router.HandleFunc("/v1/signals/normalize", s.handleNormalize).Methods(http.MethodPost)
	s.router.HandleFunc("/v1/orders", s.handleSubmitOrder).Methods(http.MethodPost)
	s.router.HandleFunc("/v1/instruments", s.handleInstruments).Methods(http.MethodGet)
	s.router.HandleFunc("/v1/providers", s.handleProviders).Methods(http.MethodGet)
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on address (":0" for a random port) and serves in the background.
func (s *Server) Start(address string) error {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return err
	}

	s.listener = listener
	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("HTTP server stopped", zap.Error(err))
		}
	}()

	s.log.Info("HTTP server listening", zap.String("addr", listener.Addr().String()))

	return nil
}

// Address returns the address the server is listening on.
func (s *Server) Address() string {
	if s.listener == nil {
		return ""
	}

	return s.listener.Addr().String()
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}

	return s.httpServer.Shutdown(ctx)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := r.Header.Get("X-Request-ID")

		if requestID == "" {
			requestID = uuid.New().String()
		}

		w.Header().Set("X-Request-ID", requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		s.log.Debug("Handled request",
			zap.String("request_id", requestID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)))
	})
}
