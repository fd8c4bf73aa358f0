package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"currency-api/domain"
	"currency-api/exchange"
	"currency-api/problem"
	"currency-api/rates"
)

// maxBodyBytes limits request bodies
const maxBodyBytes = 1 << 20

// Server dependencies for HTTP Server functions
type Server struct {
	Service exchange.Service
	Store   rates.Store
	Logger  log.Logger

	// Metrics serves /metrics when set
	Metrics http.Handler

	router chi.Router
}

// NewServer builds a Server with all routes registered.
func NewServer(s exchange.Service, store rates.Store, logger log.Logger, metrics http.Handler) *Server {
	server := &Server{
		Service: s,
		Store:   store,
		Logger:  logger,
		Metrics: metrics,
		router:  chi.NewRouter(),
	}
	server.routes()
	return server
}

func (s *Server) routes() {
	s.router.Use(middleware.RealIP)
	s.router.Use(requestID)
	s.router.Use(accessLog(s.Logger))
	s.router.Use(middleware.Recoverer)

	s.router.Get("/healthz", s.health())
	if s.Metrics != nil {
		s.router.Method(http.MethodGet, "/metrics", s.Metrics)
	}

	s.router.Route("/v1", func(r chi.Router) {
		r.Get("/rates", s.listRates())
		r.Post("/rates", s.ingestRates())
		r.Get("/rates/latest", s.latestRates())
		r.Get("/currencies", s.listCurrencies())
		r.Post("/currencies", s.saveCurrencies())
		r.Post("/exchange", s.convert())
		r.Get("/exchange", s.convertValue())
	})
}

func (s *Server) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(rw, r)
}

func (s *Server) health() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = rw.Write([]byte("ok\n"))
	}
}

// decode reads a single JSON value from the request body into v, reporting malformed
// bodies as a BadRequest problem.
func decode(rw http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(rw, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return problem.NewBadRequest(domain.FieldError{
				Field:       typeErr.Field,
				Description: fmt.Sprintf("must be of type %v", typeErr.Type),
			})
		}
		return problem.NewBadRequest(domain.FieldError{Field: "body", Description: "invalid json"})
	}
	// the body must hold exactly one JSON value
	if _, err := dec.Token(); err != io.EOF {
		return problem.NewBadRequest(domain.FieldError{Field: "body", Description: "invalid json"})
	}
	return nil
}

// fail writes the problem classified from err, logging server side failures.
func (s *Server) fail(rw http.ResponseWriter, r *http.Request, err error, field string) {
	p := problem.From(err, field)
	if p.Status >= http.StatusInternalServerError {
		level.Error(s.Logger).Log(
			"msg", "request failed",
			"path", r.URL.Path,
			"request_id", RequestID(r.Context()),
			"err", err,
		)
	}
	problem.Write(rw, p)
}

func (s *Server) writeJSON(rw http.ResponseWriter, status int, v interface{}) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	if err := json.NewEncoder(rw).Encode(v); err != nil {
		level.Error(s.Logger).Log("msg", "failed json encoding", "err", err)
	}
}
